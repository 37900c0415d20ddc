package cli

import (
	"errors"
	"fmt"
	"slices"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Action is what the command line asks for before any program is involved.
type Action int

const (
	ActionDispatch Action = iota
	ActionHelp
	ActionVersion
)

var (
	helpFlags    = []string{"-h", "--help", "-?"}
	versionFlags = []string{"-V", "--version"}
)

// CLIInvocation is the command line split into the requested action and the
// arguments handed to the program classifier.
type CLIInvocation struct {
	Action Action
	Args   []string
}

// ParseInvocation looks only at the first argument. Help and version flags
// anywhere else belong to the toolchain or the program.
func ParseInvocation(args []string) CLIInvocation {
	if len(args) > 0 {
		switch {
		case slices.Contains(helpFlags, args[0]):
			return CLIInvocation{Action: ActionHelp}
		case slices.Contains(versionFlags, args[0]):
			return CLIInvocation{Action: ActionVersion}
		}
	}
	return CLIInvocation{Action: ActionDispatch, Args: slices.Clone(args)}
}

// InvocationError is a failure that happened before any program ran.
type InvocationError struct {
	ExitCode int
	Message  string
	Err      error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InvocationError) Unwrap() error { return e.Err }

func invocationErr(err error, format string, args ...any) error {
	return &InvocationError{ExitCode: ExitFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil && invErr.ExitCode != 0 {
		return invErr.ExitCode
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
