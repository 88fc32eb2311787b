package backend

import (
	"strings"

	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/exprint"
)

// ElixirBackend renders modules as Elixir source.
type ElixirBackend struct{}

// Name returns the backend name.
func (b *ElixirBackend) Name() string {
	return "elixir"
}

// Extension returns the Elixir source extension.
func (b *ElixirBackend) Extension() string {
	return ".ex"
}

// Generate produces Elixir source from a single module.
func (b *ElixirBackend) Generate(mod *exast.Module) string {
	return exprint.Print(mod)
}

// GenerateAll produces one Elixir source with the modules separated by a
// blank line.
func (b *ElixirBackend) GenerateAll(mods []*exast.Module) string {
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = exprint.Print(m)
	}
	return strings.Join(parts, "\n")
}
