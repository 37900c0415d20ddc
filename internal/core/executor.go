package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Executor spawns external processes with the caller's standard streams.
//
// Output is never captured: the process writes straight to Stdout and Stderr,
// so toolchain diagnostics reach the user unmodified.
type Executor struct {
	// WorkingDir is the directory processes start in. Empty means the
	// current directory.
	WorkingDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecutor returns an Executor bound to the process's own streams.
func NewExecutor() *Executor {
	return &Executor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute runs name with args and blocks until it terminates.
//
// A process that ran reports its exit status with a nil error. A process
// killed by a signal reports 128 plus the signal number, as shells do. An
// error is returned only when the process could not be started or ctx was
// cancelled while it ran.
func (e *Executor) Execute(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.WorkingDir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	code := exitCode(exitErr)
	if ctx.Err() != nil {
		return code, fmt.Errorf("execution cancelled: %w", ctx.Err())
	}
	return code, nil
}

func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
