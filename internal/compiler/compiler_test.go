package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/lower"
	"github.com/lhaig/exlower/internal/typed"
)

func defaultOpts() Options {
	return Options{Lower: lower.DefaultOptions()}
}

const addUnit = `module: Calc
functions:
  - name: add
    public: true
    params: [{id: 1, name: a, type: Int}, {id: 2, name: b, type: Int}]
    return: Int
    body:
      - return: {binary: {op: "+", left: {local: 1}, right: {local: 2}}}
`

func TestCompileSource(t *testing.T) {
	res := CompileSource([]byte(addUnit), "calc.yaml", defaultOpts())
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %s", res.Diagnostics.Format("calc.yaml"))
	}
	want := "defmodule Calc do\n  def add(a, b) do\n    a + b\n  end\nend\n"
	if res.Output != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, res.Output)
	}
	if res.Module == nil || res.Module.Name != "Calc" {
		t.Fatalf("expected module Calc, got %v", res.Module)
	}
	if res.Export.Names == nil {
		t.Error("expected an export table")
	}
}

func TestCompileSourceASTTarget(t *testing.T) {
	opts := defaultOpts()
	opts.Target = "ast"
	res := CompileSource([]byte(addUnit), "calc.yaml", opts)
	if !strings.HasPrefix(res.Output, "Module: Calc\n") {
		t.Fatalf("expected an AST dump, got:\n%s", res.Output)
	}
	if !strings.Contains(res.Output, "Def: def add(a, b)") {
		t.Errorf("expected the def in the dump, got:\n%s", res.Output)
	}
}

func TestCompileUnknownTarget(t *testing.T) {
	opts := defaultOpts()
	opts.Target = "cobol"
	res := CompileSource([]byte(addUnit), "calc.yaml", opts)
	if !res.Diagnostics.HasErrors() || res.Output != "" {
		t.Fatal("expected an error and no output")
	}
	if out := res.Diagnostics.Format("calc.yaml"); !strings.Contains(out, "unknown target: cobol") {
		t.Errorf("unexpected diagnostics:\n%s", out)
	}
}

func TestDecodeErrorIsPositioned(t *testing.T) {
	src := "module: Calc\nfunctions:\n  - name: f\n    body:\n      - local: 7\n"
	res := CompileSource([]byte(src), "calc.yaml", defaultOpts())
	errs := res.Diagnostics.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	d := errs[0]
	if d.File != "calc.yaml" || d.Line != 5 {
		t.Errorf("expected calc.yaml:5, got %s:%d", d.File, d.Line)
	}
	if !strings.Contains(d.Message, "unknown var 7") {
		t.Errorf("unexpected message %q", d.Message)
	}
}

func TestPlaceholderStillProducesOutput(t *testing.T) {
	src := `module: Calc
functions:
  - name: f
    body:
      - break: null
`
	res := CompileSource([]byte(src), "calc.yaml", defaultOpts())
	if !res.Diagnostics.HasErrors() {
		t.Fatal("expected an error for a break outside a loop")
	}
	if !strings.Contains(res.Output, `raise "unlowered:`) {
		t.Fatalf("expected the placeholder in the output, got:\n%s", res.Output)
	}
}

func TestRunawayUnitHasNoOutput(t *testing.T) {
	stmts := make([]typed.Expr, 50)
	for i := range stmts {
		stmts[i] = typed.IntLit(int64(i))
	}
	u := &typed.Unit{Module: "Big", Path: "big.yaml", Functions: []*typed.Function{
		{Name: "big", Body: typed.Seq(stmts...)},
	}}
	opts := defaultOpts()
	opts.Lower.MaxVisits = 10

	res := Compile(u, opts)
	if res.Runaway == nil {
		t.Fatal("expected a runaway result")
	}
	if res.Output != "" || res.Module != nil {
		t.Error("expected no output for a runaway unit")
	}
	if !res.Diagnostics.HasErrors() {
		t.Error("expected the runaway to be reported")
	}
}

func TestCompileWithLint(t *testing.T) {
	src := `module: Calc
functions:
  - name: noop
    public: true
    body: []
`
	opts := defaultOpts()
	res := CompileSource([]byte(src), "calc.yaml", opts)
	if res.Diagnostics.WarningCount() != 0 {
		t.Fatalf("expected no warnings without lint, got %s", res.Diagnostics.Format("calc.yaml"))
	}

	opts.Lint = true
	res = CompileSource([]byte(src), "calc.yaml", opts)
	if !hasMessage(res.Diagnostics, "function 'noop' has an empty body") {
		t.Fatalf("expected empty body warning, got %s", res.Diagnostics.Format("calc.yaml"))
	}
	if res.Diagnostics.HasErrors() {
		t.Error("lint warnings must not be errors")
	}
}

func hasMessage(d *diagnostic.Diagnostics, substr string) bool {
	for _, x := range d.All() {
		if strings.Contains(x.Message, substr) {
			return true
		}
	}
	return false
}

func TestCompileFileMissing(t *testing.T) {
	res := CompileFile(filepath.Join(t.TempDir(), "nope.yaml"), defaultOpts())
	if !hasMessage(res.Diagnostics, "reading unit") {
		t.Fatalf("expected a read error, got %s", res.Diagnostics.Format("nope.yaml"))
	}
}

func TestCheck(t *testing.T) {
	path := writeUnitFile(t, t.TempDir(), "calc.yaml", addUnit)
	if diag := Check(path, defaultOpts()); diag.Count() != 0 {
		t.Fatalf("expected no diagnostics, got %s", diag.Format(path))
	}
}

func TestEmit(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "calc.yaml", addUnit)

	out, err := Emit(path, filepath.Join(dir, "calc"), defaultOpts())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if filepath.Ext(out) != ".ex" {
		t.Errorf("expected .ex output, got %s", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "defmodule Calc do") {
		t.Errorf("unexpected output:\n%s", data)
	}
}

func TestEmitRefusesErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "bad.yaml", "module: Bad\nfunctions:\n  - name: f\n    body: {nope: 1}\n")

	if _, err := Emit(path, filepath.Join(dir, "bad"), defaultOpts()); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.ex")); !os.IsNotExist(err) {
		t.Error("expected no output file")
	}
}
