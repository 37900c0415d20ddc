package core

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type toolchainCall struct {
	Op      string
	Options []string
	Target  string
	Args    []string

	// Program is the content of the source file at call time.
	Program string
}

// fakeToolchain records every call. CompileAndSave writes a placeholder
// executable; exit codes come from the configured queues.
type fakeToolchain struct {
	calls []toolchainCall

	evalCode int
	saveCode int
	runCodes []int
}

func (f *fakeToolchain) CompileAndRun(_ context.Context, options []string, source string, args []string) (int, error) {
	data, _ := os.ReadFile(source)
	f.calls = append(f.calls, toolchainCall{Op: "eval", Options: options, Target: source, Args: args, Program: string(data)})
	return f.evalCode, nil
}

func (f *fakeToolchain) CompileAndSave(_ context.Context, options []string, source, artifact string) (int, error) {
	data, _ := os.ReadFile(source)
	f.calls = append(f.calls, toolchainCall{Op: "save", Options: options, Target: artifact, Program: string(data)})
	if f.saveCode != 0 {
		return f.saveCode, nil
	}
	if err := os.WriteFile(artifact, []byte("#!/bin/sh\n"), 0o755); err != nil {
		return 0, err
	}
	return 0, nil
}

func (f *fakeToolchain) Cleanup(_ context.Context, source string) (int, error) {
	f.calls = append(f.calls, toolchainCall{Op: "clean", Target: source})
	return 0, nil
}

func (f *fakeToolchain) Run(_ context.Context, executable string, args []string) (int, error) {
	f.calls = append(f.calls, toolchainCall{Op: "run", Target: executable, Args: args})
	if len(f.runCodes) == 0 {
		return 0, nil
	}
	code := f.runCodes[0]
	f.runCodes = f.runCodes[1:]
	return code, nil
}

func (f *fakeToolchain) ops() []string {
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.Op
	}
	return ops
}

func (f *fakeToolchain) reset() { f.calls = nil }

type staticIdentity string

func (s staticIdentity) Identity() string { return string(s) }

// inTempDir switches the test into a fresh working directory.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// assertNoTempPrograms fails if a temporary program survived in dir.
func assertNoTempPrograms(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), DefaultTempPrefix) {
			t.Errorf("temp program left behind: %s", filepath.Join(dir, e.Name()))
		}
	}
}

func assertOps(t *testing.T, tc *fakeToolchain, want ...string) {
	t.Helper()
	if got := tc.ops(); !slices.Equal(got, want) {
		t.Errorf("toolchain calls = %v, want %v", got, want)
	}
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }
