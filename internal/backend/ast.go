package backend

import (
	"strings"

	"github.com/lhaig/exlower/internal/exast"
)

// ASTBackend dumps the lowered tree instead of printing source. It is meant
// for inspecting loop intents and binding decisions.
type ASTBackend struct{}

// Name returns the backend name.
func (b *ASTBackend) Name() string {
	return "ast"
}

// Extension returns the dump extension.
func (b *ASTBackend) Extension() string {
	return ".ast"
}

// Generate dumps a single module.
func (b *ASTBackend) Generate(mod *exast.Module) string {
	return exast.Dump(mod)
}

// GenerateAll dumps every module in order.
func (b *ASTBackend) GenerateAll(mods []*exast.Module) string {
	var sb strings.Builder
	for _, m := range mods {
		sb.WriteString(exast.Dump(m))
	}
	return sb.String()
}
