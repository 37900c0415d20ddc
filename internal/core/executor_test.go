package core

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecute_PropagatesExitCode(t *testing.T) {
	requireShell(t)
	e := &Executor{}

	for _, want := range []int{0, 1, 42} {
		code, err := e.Execute(t.Context(), "sh", "-c", "exit "+strconv.Itoa(want))
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if code != want {
			t.Errorf("exit code = %d, want %d", code, want)
		}
	}
}

func TestExecute_StreamsOutputUnmodified(t *testing.T) {
	requireShell(t)
	var stdout, stderr bytes.Buffer
	e := &Executor{Stdin: strings.NewReader("ping\n"), Stdout: &stdout, Stderr: &stderr}

	code, err := e.Execute(t.Context(), "sh", "-c", "read x; echo \"got $x\"; echo oops >&2")
	if err != nil || code != 0 {
		t.Fatalf("Execute = %d, %v", code, err)
	}
	if stdout.String() != "got ping\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "oops\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExecute_SignalledProcess(t *testing.T) {
	requireShell(t)
	e := &Executor{}

	code, err := e.Execute(t.Context(), "sh", "-c", "kill -TERM $$")
	if err != nil {
		t.Fatal(err)
	}
	if code != 128+15 {
		t.Errorf("exit code = %d, want %d", code, 128+15)
	}
}

func TestExecute_MissingExecutable(t *testing.T) {
	e := &Executor{}
	if _, err := e.Execute(t.Context(), "./definitely-not-here"); err == nil {
		t.Fatal("expected an error for a missing executable")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if _, err := (&Executor{}).Execute(ctx, "sh", "-c", "sleep 5"); err == nil {
		t.Fatal("expected cancellation error")
	}
}
