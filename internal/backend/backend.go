package backend

import (
	"fmt"
	"sort"

	"github.com/lhaig/exlower/internal/exast"
)

// Backend is the interface that all output backends implement.
type Backend interface {
	// Name returns the backend name (e.g., "elixir", "ast")
	Name() string
	// Extension returns the file extension of generated output, with the dot.
	Extension() string
	// Generate produces output from a single lowered module.
	Generate(mod *exast.Module) string
	// GenerateAll produces output for several modules, in the given order.
	GenerateAll(mods []*exast.Module) string
}

var backends = map[string]Backend{
	"elixir": &ElixirBackend{},
	"ast":    &ASTBackend{},
}

// Get returns the backend registered under name.
func Get(name string) (Backend, error) {
	if b, ok := backends[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unknown target: %s (available: %v)", name, Names())
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
