// Package config loads exlower.yaml, the options file of the lowering pass.
//
// Every section is optional; omitted settings take the same defaults as
// lower.DefaultOptions. A typical file:
//
//	loops:
//	  synthesize: true
//	  comprehensions: false
//	bindings:
//	  unused_prefix: _
//	  keep_unused_names: true
//	  name_heuristics: true
//	limits:
//	  max_visits: 50000
//	log:
//	  level: debug
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lhaig/exlower/internal/lower"
	"gopkg.in/yaml.v3"
)

// FileNames are the names FindConfig looks for, in order.
var FileNames = []string{"exlower.yaml", "exlower.yml"}

// Config represents the top-level exlower.yaml configuration.
type Config struct {
	Loops    Loops    `yaml:"loops,omitempty"`
	Bindings Bindings `yaml:"bindings,omitempty"`
	Limits   Limits   `yaml:"limits,omitempty"`
	Log      Log      `yaml:"log,omitempty"`
}

// Loops controls loop intent synthesis.
type Loops struct {
	// Synthesize turns recognised loop shapes into Enum calls and
	// comprehensions. When false every loop uses the structural form.
	Synthesize *bool `yaml:"synthesize,omitempty"`

	// Comprehensions enables the filter/map accumulation intent.
	Comprehensions *bool `yaml:"comprehensions,omitempty"`
}

// Bindings controls how clause parameters and locals are named.
type Bindings struct {
	// UnusedPrefix is prepended to bindings that are never read.
	// Defaults to "_".
	UnusedPrefix string `yaml:"unused_prefix,omitempty"`

	// KeepUnusedNames renders unused constructor parameters as _name
	// instead of a bare _.
	KeepUnusedNames *bool `yaml:"keep_unused_names,omitempty"`

	// NameHeuristics treats _g-style names as compiler temporaries even
	// when the front end did not flag them.
	NameHeuristics bool `yaml:"name_heuristics,omitempty"`
}

// Limits bounds the work done per function.
type Limits struct {
	// MaxVisits is the node-visit ceiling for one function. Zero means
	// the built-in default.
	MaxVisits int `yaml:"max_visits,omitempty"`
}

// Log configures the CLI logger.
type Log struct {
	// Level is one of debug, info, warn, error. Defaults to warn.
	Level string `yaml:"level,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses an exlower.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses exlower.yaml content from bytes.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for exlower.yaml starting from dir and walking up to
// parent directories. It returns "" and a nil error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate(path string) error {
	if p := c.Bindings.UnusedPrefix; p != "" {
		if !strings.HasPrefix(p, "_") {
			return fmt.Errorf("%s: bindings.unused_prefix %q must start with _", path, p)
		}
		for _, r := range p {
			if r != '_' && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
				return fmt.Errorf("%s: bindings.unused_prefix %q may only hold lowercase letters, digits and _", path, p)
			}
		}
	}
	if c.Limits.MaxVisits < 0 {
		return fmt.Errorf("%s: limits.max_visits must not be negative", path)
	}
	if c.Log.Level != "" {
		if _, err := parseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%s: log.level: %w", path, err)
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	defaults := lower.DefaultOptions()
	if c.Loops.Synthesize == nil {
		c.Loops.Synthesize = boolPtr(defaults.SynthesizeLoops)
	}
	if c.Loops.Comprehensions == nil {
		c.Loops.Comprehensions = boolPtr(defaults.Comprehensions)
	}
	if c.Bindings.UnusedPrefix == "" {
		c.Bindings.UnusedPrefix = defaults.UnusedPrefix
	}
	if c.Bindings.KeepUnusedNames == nil {
		c.Bindings.KeepUnusedNames = boolPtr(defaults.KeepUnusedNames)
	}
	if c.Limits.MaxVisits == 0 {
		c.Limits.MaxVisits = defaults.MaxVisits
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

// Options converts the configuration into lowering options.
func (c *Config) Options() lower.Options {
	opts := lower.DefaultOptions()
	if c.Loops.Synthesize != nil {
		opts.SynthesizeLoops = *c.Loops.Synthesize
	}
	if c.Loops.Comprehensions != nil {
		opts.Comprehensions = *c.Loops.Comprehensions
	}
	if c.Bindings.UnusedPrefix != "" {
		opts.UnusedPrefix = c.Bindings.UnusedPrefix
	}
	if c.Bindings.KeepUnusedNames != nil {
		opts.KeepUnusedNames = *c.Bindings.KeepUnusedNames
	}
	opts.NameHeuristics = c.Bindings.NameHeuristics
	if c.Limits.MaxVisits > 0 {
		opts.MaxVisits = c.Limits.MaxVisits
	}
	return opts
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

func boolPtr(b bool) *bool { return &b }
