package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Environment is everything Run takes from the surrounding process.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Getenv looks up environment variables.
	Getenv func(string) string

	// Version is reported by --version.
	Version string
}

// ProcessEnvironment returns the environment of the running process.
func ProcessEnvironment(version string) Environment {
	return Environment{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Version: version,
	}
}

// Run is the CLI entrypoint. It accepts the argument slice (excluding argv[0])
// and returns the exit code for the process plus any error that stopped the
// run outside the toolchain.
//
// Help and version requests are answered before configuration, filesystem or
// toolchain are touched.
func Run(ctx context.Context, args []string, env Environment) (int, error) {
	inv := ParseInvocation(args)
	switch inv.Action {
	case ActionHelp:
		printUsage(env.Stdout)
		return ExitSuccess, nil
	case ActionVersion:
		fmt.Fprintf(env.Stdout, "runcurry %s\n", env.Version)
		return ExitSuccess, nil
	}
	return Execute(ctx, inv, env)
}
