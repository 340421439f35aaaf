package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testTree = `
root:
  id: root
  start: {route: home}
  destinations:
    - route: home
      title: Home
    - route: welcome
    - route: profile-setup
    - route: confirm
      kind: modal
  graphs:
    - id: account
      start: {route: overview}
      destinations:
        - route: overview
        - route: "user/{id}/profile"
flows:
  onboarding:
    steps:
      - route: welcome
      - route: profile-setup
    on_complete: print
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	out, err := execute(t, "validate", tree)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"valid", "account", "user/{id}/profile", "flow onboarding: 2 steps"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_RejectsBrokenTree(t *testing.T) {
	tree := writeFile(t, "tree.yaml", "root:\n  id: root\n  start: {route: missing}\n")
	if _, err := execute(t, "validate", tree); err == nil {
		t.Fatal("validate accepted a tree whose start does not exist")
	}
}

func TestResolve(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	out, err := execute(t, "resolve", tree, "user/42/profile")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(out, "in graph account") || !strings.Contains(out, "id = 42") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "resolve", tree, "nowhere"); err == nil {
		t.Error("resolve of unknown path succeeded")
	}
}

func TestRunScript(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	script := writeFile(t, "script.nav", `
navigate user/7/profile
navigate confirm
back
flow start onboarding
flow advance
flow advance
`)
	out, err := execute(t, "run", tree, script)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "flow onboarding completed") {
		t.Errorf("completion handler did not print:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got < 6 {
		t.Errorf("expected a line per script step, got %d lines:\n%s", got, out)
	}
}

func TestRunScript_JSONAndFailures(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	script := writeFile(t, "script.nav", "navigate welcome\nnavigate nowhere\n")
	out, err := execute(t, "run", "--json", tree, script)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 script lines failed") {
		t.Fatalf("run error = %v, want one failed line", err)
	}
	if !strings.Contains(out, "line 2:") {
		t.Errorf("failure not reported:\n%s", out)
	}

	start := strings.Index(out, "\n{") + 1
	if start == 0 {
		t.Fatalf("no JSON in output:\n%s", out)
	}
	var state struct {
		Version uint64 `json:"version"`
		Triple  struct {
			Current struct {
				Route string `json:"route"`
			} `json:"current"`
		} `json:"triple"`
	}
	if err := json.Unmarshal([]byte(out[start:]), &state); err != nil {
		t.Fatalf("decode JSON state: %v", err)
	}
	if state.Triple.Current.Route != "welcome" {
		t.Errorf("current route = %q, want welcome", state.Triple.Current.Route)
	}
}

func TestDot(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	out, err := execute(t, "dot", tree)
	if err != nil {
		t.Fatalf("dot error = %v", err)
	}
	if !strings.HasPrefix(out, "digraph Navigation {") {
		t.Errorf("dot output = %q", out)
	}
}

func TestLogLevelFlag(t *testing.T) {
	tree := writeFile(t, "tree.yaml", testTree)
	if _, err := execute(t, "--log-level", "loud", "validate", tree); err == nil {
		t.Error("unknown log level accepted")
	}
}
