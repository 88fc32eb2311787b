package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	cli, err := parseArgs([]string{"--target", "ast", "-o", "out.ex", "--jobs", "3", "--verbose", "todo.yaml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.target != "ast" || cli.output != "out.ex" || cli.jobs != 3 || !cli.verbose || cli.path != "todo.yaml" {
		t.Fatalf("unexpected options %+v", cli)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "no input file specified"},
		{[]string{"--bogus", "a.yaml"}, "unknown option: --bogus"},
		{[]string{"a.yaml", "b.yaml"}, "unexpected argument: b.yaml"},
		{[]string{"a.yaml", "-o"}, "option -o requires a value"},
		{[]string{"--jobs", "0", "a.yaml"}, "--jobs must be a positive number"},
		{[]string{"--target", "cobol", "a.yaml"}, "unknown target: cobol"},
	}
	for _, tt := range tests {
		_, err := parseArgs(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("args %v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}

func TestLoadConfigFindsNearest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "exlower.yaml"), []byte("loops:\n  synthesize: false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "units")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(&cliOptions{path: filepath.Join(sub, "todo.yaml")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Options().SynthesizeLoops {
		t.Error("expected loop synthesis disabled by the nearest config")
	}
}

func TestColorize(t *testing.T) {
	r := &reporter{color: true}
	got := r.colorize("error[a.yaml:1:1]: bad\n  hint: fix it\nwarning[a.yaml:2:1]: meh")
	lines := strings.Split(got, "\n")
	if !strings.HasPrefix(lines[0], ansiRed+"error"+ansiReset+"[a.yaml:1:1]") {
		t.Errorf("unexpected error line %q", lines[0])
	}
	if lines[1] != ansiCyan+"  hint: fix it"+ansiReset {
		t.Errorf("unexpected hint line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], ansiYellow+"warning"+ansiReset) {
		t.Errorf("unexpected warning line %q", lines[2])
	}
}
