package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lhaig/exlower/internal/lower"
)

func TestParseFull(t *testing.T) {
	yaml := `
loops:
  synthesize: true
  comprehensions: false
bindings:
  unused_prefix: _unused_
  keep_unused_names: false
  name_heuristics: true
limits:
  max_visits: 500
log:
  level: debug
`
	cfg, err := Parse([]byte(yaml), "exlower.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := cfg.Options()
	if !opts.SynthesizeLoops {
		t.Error("expected loop synthesis to be on")
	}
	if opts.Comprehensions {
		t.Error("expected comprehensions to be off")
	}
	if opts.UnusedPrefix != "_unused_" {
		t.Errorf("expected prefix _unused_, got %q", opts.UnusedPrefix)
	}
	if opts.KeepUnusedNames {
		t.Error("expected keep_unused_names to be off")
	}
	if !opts.NameHeuristics {
		t.Error("expected name heuristics to be on")
	}
	if opts.MaxVisits != 500 {
		t.Errorf("expected max visits 500, got %d", opts.MaxVisits)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel())
	}
}

func TestDefaultsMatchLowering(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"default": Default(),
		"empty":   mustParse(t, ""),
		"partial": mustParse(t, "loops:\n  comprehensions: true\n"),
	} {
		t.Run(name, func(t *testing.T) {
			got := cfg.Options()
			want := lower.DefaultOptions()
			if got.SynthesizeLoops != want.SynthesizeLoops || got.Comprehensions != want.Comprehensions ||
				got.UnusedPrefix != want.UnusedPrefix || got.KeepUnusedNames != want.KeepUnusedNames ||
				got.NameHeuristics != want.NameHeuristics || got.MaxVisits != want.MaxVisits {
				t.Fatalf("expected %+v, got %+v", want, got)
			}
			if cfg.LogLevel() != slog.LevelWarn {
				t.Fatalf("expected warn level, got %v", cfg.LogLevel())
			}
		})
	}
}

func mustParse(t *testing.T, data string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(data), "exlower.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "loops: [", "parsing exlower.yaml"},
		{"prefix without underscore", "bindings:\n  unused_prefix: x\n", "must start with _"},
		{"prefix with uppercase", "bindings:\n  unused_prefix: _X\n", "lowercase letters"},
		{"negative visits", "limits:\n  max_visits: -1\n", "must not be negative"},
		{"unknown level", "log:\n  level: loud\n", `unknown level "loud"`},
		{"wrong type", "loops:\n  synthesize: sometimes\n", "parsing exlower.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "exlower.yaml")
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A stray exlower.yaml above the temp dir would be found; only assert
	// it is not inside root.
	if strings.HasPrefix(path, root) {
		t.Fatalf("expected no config under %s, got %s", root, path)
	}

	want := filepath.Join(root, "a", "exlower.yml")
	if err := os.WriteFile(want, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err = FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.LogLevel())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "exlower.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("expected a reading error, got %v", err)
	}
}
