package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestComplexityFromStdin(t *testing.T) {
	out, err := runCLI(t, "def f(x):\n    if x:\n        return 1\n    return 0\n", "complexity")
	if err != nil {
		t.Fatalf("complexity: %v", err)
	}

	var resp struct {
		Success bool                      `json:"success"`
		Output  map[string]map[string]any `json:"output"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %s", out)
	}
	if got := resp.Output["f"]["complexity"]; got != float64(2) {
		t.Fatalf("complexity(f) = %v, want 2", got)
	}
}

func TestAnalyzeDirectoryMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pkg", "b.py"), "import os\n")
	writeFile(t, filepath.Join(dir, "a.py"), "def run():\n    pass\n")
	writeFile(t, filepath.Join(dir, ".venv", "skip.py"), "import sys\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not python\n")

	out, err := runCLI(t, "", "analyze", "--format", "markdown", "--workers", "2", dir)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	first := strings.Index(out, "## "+filepath.Join(dir, "a.py"))
	second := strings.Index(out, "## "+filepath.Join(dir, "pkg", "b.py"))
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected a.py then pkg/b.py headings, got:\n%s", out)
	}
	if strings.Contains(out, "skip.py") || strings.Contains(out, "notes.txt") {
		t.Fatalf("excluded files leaked into report:\n%s", out)
	}
}

func TestSingleFileKeepsArgumentPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	writeFile(t, path, "def g(): pass\n")

	out, err := runCLI(t, "", "signatures", "-f", "text", path)
	if err != nil {
		t.Fatalf("signatures: %v", err)
	}
	if !strings.Contains(out, path) || !strings.Contains(out, "def g()") {
		t.Fatalf("unexpected text report:\n%s", out)
	}
}

func TestMissingPathFails(t *testing.T) {
	_, err := runCLI(t, "", "analyze", filepath.Join(t.TempDir(), "absent.py"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := runCLI(t, "x = 1", "analyze", "--format", "html"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSpecCommand(t *testing.T) {
	out, err := runCLI(t, "", "spec")
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	var spec map[string]any
	if err := json.Unmarshal([]byte(out), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}
	if spec["name"] != "code_analysis" {
		t.Fatalf("spec name = %v", spec["name"])
	}
	if _, ok := spec["parameters_schema"].(map[string]any); !ok {
		t.Fatalf("parameters_schema missing: %s", out)
	}
}

func TestExecCommand(t *testing.T) {
	out, err := runCLI(t, `{"action": "frobnicate", "code": "x = 1"}`, "exec")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(out) != `{"success":false,"error":"Unknown action: frobnicate"}` {
		t.Fatalf("unexpected exec output %q", out)
	}

	out, err = runCLI(t, `{"code": "def broken(:\n"}`, "exec")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !strings.Contains(out, `"success":true`) || !strings.Contains(out, `"syntax_error"`) {
		t.Fatalf("expected degraded output, got %q", out)
	}
}

func TestConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "codeanalysis.yaml")
	writeFile(t, cfgPath, "analysis:\n  low_threshold: 1\n  medium_threshold: 2\n")

	out, err := runCLI(t, "def f(a, b):\n    if a and b:\n        return 1\n", "complexity", "--config", cfgPath)
	if err != nil {
		t.Fatalf("complexity: %v", err)
	}
	if !strings.Contains(out, `"rating": "high"`) {
		t.Fatalf("expected high rating with tightened thresholds, got:\n%s", out)
	}

	writeFile(t, cfgPath, "server:\n  framing: smoke-signals\n")
	if _, err := runCLI(t, "", "spec", "--config", cfgPath); err == nil {
		t.Fatal("expected invalid framing to fail")
	}
}
