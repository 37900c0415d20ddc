package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Toolchain runs the external Curry system. Every method blocks until its
// process exits and returns that process's exit code untouched; interpreting
// the code is the caller's job. Errors mean a process could not be run at all.
type Toolchain interface {
	// CompileAndRun loads source into the REPL, binds args and evaluates
	// the entry operation.
	CompileAndRun(ctx context.Context, options []string, source string, args []string) (int, error)

	// CompileAndSave loads source and saves a standalone executable at
	// artifact.
	CompileAndSave(ctx context.Context, options []string, source, artifact string) (int, error)

	// Cleanup removes the toolchain's intermediate files for source.
	Cleanup(ctx context.Context, source string) (int, error)

	// Run executes a previously saved artifact.
	Run(ctx context.Context, executable string, args []string) (int, error)
}

// DefaultBaseline are the REPL options preceding caller options on every
// load: quiet output, no parser warnings, and no package manager lookup since
// the load path is already set up.
var DefaultBaseline = []string{"--nocypm", ":set", "v0", ":set", "parser", "-Wnone"}

// ToolchainConfig names the external executables.
type ToolchainConfig struct {
	// REPL is the Curry system executable.
	REPL string

	// Cleaner removes intermediate build files for a source file.
	Cleaner string

	// Baseline options precede caller options on every REPL call.
	Baseline []string

	// Entry is the operation evaluated by CompileAndRun.
	Entry string
}

// DefaultToolchainConfig returns the settings for a Curry system on PATH.
func DefaultToolchainConfig() ToolchainConfig {
	return ToolchainConfig{
		REPL:     "curry",
		Cleaner:  "cleancurry",
		Baseline: slices.Clone(DefaultBaseline),
		Entry:    "main",
	}
}

// ExecToolchain implements Toolchain with external processes.
type ExecToolchain struct {
	cfg      ToolchainConfig
	executor *Executor
}

// NewExecToolchain returns a toolchain that spawns processes through executor.
func NewExecToolchain(cfg ToolchainConfig, executor *Executor) *ExecToolchain {
	if cfg.Entry == "" {
		cfg.Entry = "main"
	}
	if executor == nil {
		executor = NewExecutor()
	}
	return &ExecToolchain{cfg: cfg, executor: executor}
}

func (t *ExecToolchain) replArgs(options []string, source string, commands ...string) []string {
	args := make([]string, 0, len(t.cfg.Baseline)+len(options)+len(commands)+2)
	args = append(args, t.cfg.Baseline...)
	args = append(args, options...)
	args = append(args, ":load", source)
	return append(args, commands...)
}

func (t *ExecToolchain) CompileAndRun(ctx context.Context, options []string, source string, args []string) (int, error) {
	var commands []string
	if len(args) > 0 {
		commands = append([]string{":set", "args"}, args...)
	}
	commands = append(commands, ":eval", t.cfg.Entry, ":quit")
	return t.invoke(ctx, "compile_and_run", t.cfg.REPL, t.replArgs(options, source, commands...)...)
}

// CompileAndSave has the REPL save the executable under the module name next
// to source, then moves it to artifact.
func (t *ExecToolchain) CompileAndSave(ctx context.Context, options []string, source, artifact string) (int, error) {
	code, err := t.invoke(ctx, "compile_and_save", t.cfg.REPL, t.replArgs(options, source, ":save", ":quit")...)
	if err != nil || code != 0 {
		return code, err
	}
	saved := strings.TrimSuffix(source, filepath.Ext(source))
	if filepath.Clean(saved) == filepath.Clean(artifact) {
		return 0, nil
	}
	if err := promote(saved, artifact); err != nil {
		return 0, fmt.Errorf("promoting saved executable: %w", err)
	}
	return 0, nil
}

// promote moves saved onto artifact. Across filesystems the executable is
// copied into the artifact's directory first so the final rename stays
// atomic. saved is gone afterwards whether or not promotion succeeded.
func promote(saved, artifact string) error {
	err := os.Rename(saved, artifact)
	if errors.Is(err, syscall.EXDEV) {
		err = copyReplace(saved, artifact)
	}
	if rerr := os.Remove(saved); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) && err == nil {
		err = rerr
	}
	return err
}

// copyReplace copies src to a temp file next to dst, keeping src's
// permission bits, and renames it onto dst.
func copyReplace(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (t *ExecToolchain) Cleanup(ctx context.Context, source string) (int, error) {
	return t.invoke(ctx, "cleanup", t.cfg.Cleaner, source)
}

func (t *ExecToolchain) Run(ctx context.Context, executable string, args []string) (int, error) {
	return t.invoke(ctx, "run", executable, args...)
}

func (t *ExecToolchain) invoke(ctx context.Context, op, name string, args ...string) (int, error) {
	ctx, span := tracer.Start(ctx, "toolchain."+op, trace.WithAttributes(
		attribute.String("executable", name),
		attribute.Int("arg_count", len(args)),
	))
	defer span.End()
	recordInvocation(ctx, op)

	code, err := t.executor.Execute(ctx, name, args...)
	span.SetAttributes(attribute.Int("exit_code", code))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return code, err
}
