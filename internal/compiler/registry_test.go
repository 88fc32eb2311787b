package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lhaig/exlower/internal/lower"
)

// writeUnitFile creates a unit file with the given content in the specified directory.
func writeUnitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	// Ensure subdirectory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// simpleUnit returns a unit with one function returning n.
func simpleUnit(module string, n int, requires ...string) string {
	header := "module: " + module + "\n"
	if len(requires) > 0 {
		header += "requires: [" + strings.Join(requires, ", ") + "]\n"
	}
	return header + fmt.Sprintf(`functions:
  - name: value
    public: true
    body:
      - return: %d
`, n)
}

func TestRegistrySingleUnit(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeUnitFile(t, tmpDir, "main.yaml", simpleUnit("Main", 0))

	reg, err := NewUnitRegistry(tmpDir)
	if err != nil {
		t.Fatalf("NewUnitRegistry: %v", err)
	}
	diag, err := reg.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if diag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diag.Format("test"))
	}

	if u := reg.Unit("Main"); u == nil || u.Module != "Main" {
		t.Fatalf("expected unit Main, got %v", u)
	}
	if got := reg.Path("Main"); got != path {
		t.Errorf("expected path %s, got %s", path, got)
	}

	sorted, err := reg.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(sorted) != 1 || sorted[0] != "Main" {
		t.Errorf("expected [Main], got %v", sorted)
	}
}

func TestRegistryOrdersRequiresFirst(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "app.yaml", simpleUnit("App", 1, "Models", "Util"))
	writeUnitFile(t, tmpDir, "models/models.yaml", simpleUnit("Models", 2, "Util"))
	writeUnitFile(t, tmpDir, "util.yml", simpleUnit("Util", 3))

	reg, err := NewUnitRegistry(tmpDir)
	if err != nil {
		t.Fatalf("NewUnitRegistry: %v", err)
	}
	diag, err := reg.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if diag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diag.Format("test"))
	}

	sorted, err := reg.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	want := []string{"Util", "Models", "App"}
	if strings.Join(sorted, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, sorted)
	}
	if deps := reg.Dependencies("App"); len(deps) != 2 {
		t.Errorf("expected 2 dependencies for App, got %v", deps)
	}
}

func TestRegistrySkipsConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "main.yaml", simpleUnit("Main", 0))
	writeUnitFile(t, tmpDir, "exlower.yaml", "loops:\n  synthesize: false\n")
	writeUnitFile(t, tmpDir, ".cache/stale.yaml", "not: a unit\n")

	reg, err := NewUnitRegistry(tmpDir)
	if err != nil {
		t.Fatalf("NewUnitRegistry: %v", err)
	}
	diag, err := reg.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if diag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diag.Format("test"))
	}
	if got := reg.Modules(); len(got) != 1 {
		t.Errorf("expected only Main, got %v", got)
	}
}

func TestRegistryCycle(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "a.yaml", simpleUnit("A", 1, "B"))
	writeUnitFile(t, tmpDir, "b.yaml", simpleUnit("B", 2, "A"))

	reg, err := NewUnitRegistry(tmpDir)
	if err != nil {
		t.Fatalf("NewUnitRegistry: %v", err)
	}
	if _, err := reg.Discover(); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	_, err = reg.TopologicalSort()
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "require cycle detected: A -> B -> A") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegistryDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "unknown require",
			files: map[string]string{"a.yaml": simpleUnit("A", 1, "Missing")},
			want:  "module A requires unknown module Missing",
		},
		{
			name: "duplicate module",
			files: map[string]string{
				"a.yaml": simpleUnit("A", 1),
				"b.yaml": simpleUnit("A", 2),
			},
			want: "module A is already defined in",
		},
		{
			name:  "decode error",
			files: map[string]string{"a.yaml": "module: A\nfunctions:\n  - name: f\n    body: {nope: 1}\n"},
			want:  "unknown node kind",
		},
		{
			name:  "empty project",
			files: map[string]string{"exlower.yaml": "log:\n  level: info\n"},
			want:  "no unit files found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			for name, content := range tt.files {
				writeUnitFile(t, tmpDir, name, content)
			}
			reg, err := NewUnitRegistry(tmpDir)
			if err != nil {
				t.Fatalf("NewUnitRegistry: %v", err)
			}
			diag, err := reg.Discover()
			if err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if !diag.HasErrors() {
				t.Fatal("expected an error diagnostic")
			}
			if out := diag.Format("test"); !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in:\n%s", tt.want, out)
			}
		})
	}
}

func TestNewUnitRegistryRejectsFile(t *testing.T) {
	path := writeUnitFile(t, t.TempDir(), "main.yaml", simpleUnit("Main", 0))
	if _, err := NewUnitRegistry(path); err == nil {
		t.Fatal("expected an error for a file path")
	}
}

func TestCompileProject(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "app.yaml", simpleUnit("App", 1, "Util"))
	writeUnitFile(t, tmpDir, "util.yaml", simpleUnit("Util", 2))

	opts := Options{Lower: lower.DefaultOptions(), Jobs: 2}
	res, err := CompileProject(context.Background(), tmpDir, opts)
	if err != nil {
		t.Fatalf("CompileProject: %v", err)
	}
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", res.Diagnostics.Format("test"))
	}
	if len(res.Units) != 2 || res.Units[0].Unit.Module != "Util" || res.Units[1].Unit.Module != "App" {
		t.Fatalf("expected results for [Util App], got order %v", res.Order)
	}
	util := strings.Index(res.Output, "defmodule Util do")
	app := strings.Index(res.Output, "defmodule App do")
	if util < 0 || app < 0 || util > app {
		t.Fatalf("expected Util before App in output:\n%s", res.Output)
	}
	if !strings.Contains(res.Output, "  def value do\n    2\n  end\n") {
		t.Errorf("expected Util.value to return 2, got:\n%s", res.Output)
	}
}

func TestCompileProjectReportsCycle(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "a.yaml", simpleUnit("A", 1, "B"))
	writeUnitFile(t, tmpDir, "b.yaml", simpleUnit("B", 2, "A"))

	res, err := CompileProject(context.Background(), tmpDir, Options{Lower: lower.DefaultOptions()})
	if err != nil {
		t.Fatalf("CompileProject: %v", err)
	}
	if !res.Diagnostics.HasErrors() || res.Output != "" {
		t.Fatalf("expected a cycle diagnostic and no output, got %q", res.Output)
	}
}

func TestCompileProjectCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "a.yaml", simpleUnit("A", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CompileProject(ctx, tmpDir, Options{Lower: lower.DefaultOptions()}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestCheckProject(t *testing.T) {
	tmpDir := t.TempDir()
	writeUnitFile(t, tmpDir, "a.yaml", simpleUnit("A", 1))

	diag, err := CheckProject(context.Background(), tmpDir, Options{Lower: lower.DefaultOptions(), Lint: true})
	if err != nil {
		t.Fatalf("CheckProject: %v", err)
	}
	if diag.Count() != 0 {
		t.Errorf("expected no diagnostics, got %s", diag.Format("test"))
	}
}
