package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	icl "runcurry/internal/cli"
)

// fakeCurry is a stand-in for the Curry system. It understands programs of
// the form "main = print <value>", logs every invocation and fails to compile
// sources containing "syntax error".
const fakeCurry = `#!/bin/sh
echo "curry $*" >> "%[1]s"
src=""
prev=""
save=0
for a in "$@"; do
  if [ "$prev" = ":load" ]; then src="$a"; fi
  if [ "$a" = ":save" ]; then save=1; fi
  prev="$a"
done
if grep -q "syntax error" "$src"; then
  echo "parse error in $src" >&2
  exit 1
fi
value=$(sed -n 's/^main = print //p' "$src")
if [ $save = 1 ]; then
  printf '#!/bin/sh\necho %%s\n' "$value" > "${src%%.*}"
  chmod +x "${src%%.*}"
  exit 0
fi
echo "$value"
`

const fakeCleaner = `#!/bin/sh
echo "clean $1" >> "%[1]s"
`

type harness struct {
	work string
	log  string
	env  map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	bin := t.TempDir()
	log := filepath.Join(bin, "calls.log")
	writeExecutable(t, filepath.Join(bin, "curry"), fmt.Sprintf(fakeCurry, log))
	writeExecutable(t, filepath.Join(bin, "cleancurry"), fmt.Sprintf(fakeCleaner, log))

	cfg := filepath.Join(bin, "config.yaml")
	cfgData := fmt.Sprintf("toolchain:\n  repl: %s\n  cleaner: %s\n  baseline: []\n",
		filepath.Join(bin, "curry"), filepath.Join(bin, "cleancurry"))
	if err := os.WriteFile(cfg, []byte(cfgData), 0o644); err != nil {
		t.Fatal(err)
	}

	work := t.TempDir()
	t.Chdir(work)
	return &harness{work: work, log: log, env: map[string]string{"RUNCURRY_CONFIG": cfg}}
}

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := icl.Environment{
		Stdin:   strings.NewReader(stdin),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Getenv:  func(k string) string { return h.env[k] },
		Version: "test",
	}
	code, err := icl.Run(context.Background(), args, env)
	if err != nil {
		t.Fatalf("Run(%q) err: %v", args, err)
	}
	return code, stdout.String(), stderr.String()
}

// calls returns and truncates the toolchain call log.
func (h *harness) calls(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(h.log)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	_ = os.Remove(h.log)
	return string(b)
}

func (h *harness) assertClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.work)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "RUNCURRY_") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestHelp_ExitsZeroWithoutConfig(t *testing.T) {
	for _, flag := range []string{"-h", "--help", "-?"} {
		var stdout bytes.Buffer
		env := icl.Environment{
			Stdout: &stdout,
			Getenv: func(string) string { return "/nonexistent/config.yaml" },
		}
		code, err := icl.Run(context.Background(), []string{flag}, env)
		if err != nil || code != icl.ExitSuccess {
			t.Errorf("%s: exit %d, err %v", flag, code, err)
		}
		if !strings.Contains(stdout.String(), "Usage:") {
			t.Errorf("%s: usage text missing", flag)
		}
	}
}

func TestVersion(t *testing.T) {
	var stdout bytes.Buffer
	code, err := icl.Run(context.Background(), []string{"--version"}, icl.Environment{Stdout: &stdout, Version: "1.2.3"})
	if err != nil || code != icl.ExitSuccess {
		t.Fatalf("exit %d, err %v", code, err)
	}
	if stdout.String() != "runcurry 1.2.3\n" {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestStdinProgram(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run(t, "main = print 42\n")
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	if stdout != "42\n" {
		t.Errorf("stdout = %q, want %q", stdout, "42\n")
	}
	if !strings.Contains(stderr, "Type in your program") {
		t.Errorf("prompt missing from stderr: %q", stderr)
	}
	calls := h.calls(t)
	if !strings.Contains(calls, ":eval main :quit") || !strings.Contains(calls, "clean RUNCURRY_") {
		t.Errorf("unexpected toolchain calls:\n%s", calls)
	}
	h.assertClean(t)
}

func TestDirectFileWithOptions(t *testing.T) {
	h := newHarness(t)
	if err := os.WriteFile("Hello.curry", []byte("main = print hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := h.run(t, "", ":set", "v1", "Hello.curry", "arg1")
	if code != 0 || stdout != "hello\n" {
		t.Fatalf("exit %d, stdout %q", code, stdout)
	}
	calls := h.calls(t)
	if !strings.Contains(calls, "curry :set v1 :load Hello.curry :set args arg1 :eval main :quit") {
		t.Errorf("unexpected toolchain calls:\n%s", calls)
	}
	if strings.Contains(calls, "clean") {
		t.Errorf("user source must not be cleaned:\n%s", calls)
	}
	if _, err := os.Stat("Hello.curry"); err != nil {
		t.Errorf("user source removed: %v", err)
	}
}

func TestScriptWithoutJITNeverCaches(t *testing.T) {
	h := newHarness(t)
	writeExecutable(t, filepath.Join(h.work, "plain"), "#!/usr/bin/env runcurry\n# comment\nmain = print plain\n")

	for i := range 2 {
		code, stdout, _ := h.run(t, "", "plain")
		if code != 0 || stdout != "plain\n" {
			t.Fatalf("run %d: exit %d, stdout %q", i, code, stdout)
		}
		if calls := h.calls(t); strings.Contains(calls, ":save") {
			t.Errorf("run %d saved an artifact:\n%s", i, calls)
		}
	}
	if _, err := os.Stat("plain.bin"); !os.IsNotExist(err) {
		t.Errorf("plain.bin created: %v", err)
	}
	h.assertClean(t)
}

func TestJITScriptCompilesOnceAndReuses(t *testing.T) {
	h := newHarness(t)
	script := filepath.Join(h.work, "fast")
	writeExecutable(t, script, "#!/usr/bin/env runcurry\n#jit\nmain = print fast\n")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(script, old, old); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := h.run(t, "", "fast")
	if code != 0 || stdout != "fast\n" {
		t.Fatalf("first run: exit %d, stdout %q", code, stdout)
	}
	if calls := h.calls(t); !strings.Contains(calls, ":save") {
		t.Errorf("first run did not compile:\n%s", calls)
	}
	if _, err := os.Stat("fast.bin"); err != nil {
		t.Fatalf("fast.bin missing: %v", err)
	}

	code, stdout, _ = h.run(t, "", "fast")
	if code != 0 || stdout != "fast\n" {
		t.Fatalf("second run: exit %d, stdout %q", code, stdout)
	}
	if calls := h.calls(t); calls != "" {
		t.Errorf("second run invoked the toolchain:\n%s", calls)
	}

	writeExecutable(t, script, "#!/usr/bin/env runcurry\n#jit\nmain = print faster\n")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(script, future, future); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ = h.run(t, "", "fast")
	if code != 0 || stdout != "faster\n" {
		t.Fatalf("after edit: exit %d, stdout %q", code, stdout)
	}
	if calls := h.calls(t); !strings.Contains(calls, ":save") {
		t.Errorf("edited script was not recompiled:\n%s", calls)
	}
	h.assertClean(t)
}

func TestJITScriptBrokenArtifactRebuildsOnce(t *testing.T) {
	h := newHarness(t)
	script := filepath.Join(h.work, "heal")
	writeExecutable(t, script, "#!/usr/bin/env runcurry\n#jit\nmain = print healed\n")
	writeExecutable(t, filepath.Join(h.work, "heal.bin"), "#!/bin/sh\nexit 9\n")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(script, old, old); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := h.run(t, "", "heal")
	if code != 0 || stdout != "healed\n" {
		t.Fatalf("exit %d, stdout %q", code, stdout)
	}
	if calls := h.calls(t); strings.Count(calls, ":save") != 1 {
		t.Errorf("expected exactly one rebuild:\n%s", calls)
	}
}

func TestCompileFailurePropagates(t *testing.T) {
	h := newHarness(t)
	writeExecutable(t, filepath.Join(h.work, "broken"), "#!/usr/bin/env runcurry\n#jit\nmain = syntax error\n")

	code, _, stderr := h.run(t, "", "broken")
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "parse error") {
		t.Errorf("toolchain diagnostics not passed through: %q", stderr)
	}
	if _, err := os.Stat("broken.bin"); !os.IsNotExist(err) {
		t.Errorf("artifact written despite compile failure: %v", err)
	}
	h.assertClean(t)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("identity: hostname\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.env["RUNCURRY_CONFIG"] = bad

	code, err := icl.Run(context.Background(), nil, icl.Environment{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		Getenv: func(k string) string { return h.env[k] },
	})
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if code != icl.ExitFailure || icl.ExitCode(err) != icl.ExitFailure {
		t.Errorf("exit %d, ExitCode %d", code, icl.ExitCode(err))
	}
}
