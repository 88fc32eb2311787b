package lower

import (
	"strconv"
	"strings"
	"unicode"
)

// Elixir keywords and special forms that cannot be used as variable names.
var reservedNames = map[string]bool{
	"after": true, "and": true, "catch": true, "do": true, "else": true,
	"end": true, "false": true, "fn": true, "in": true, "nil": true,
	"not": true, "or": true, "rescue": true, "true": true, "when": true,
	"cond": true, "case": true, "for": true, "with": true, "receive": true,
	"try": true, "quote": true, "unquote": true, "import": true,
	"require": true, "alias": true, "def": true, "defp": true,
	"defmodule": true, "__MODULE__": true,
}

// ToSnake converts a camelCase or PascalCase identifier to snake_case.
// Leading underscores and digits are preserved.
func ToSnake(name string) string {
	rs := []rune(name)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && rs[i-1] != '_' {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// VarName returns the Elixir variable name for a source identifier.
func VarName(name string) string {
	s := ToSnake(name)
	s = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "v"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "v" + s
	}
	if reservedNames[s] {
		s += "_"
	}
	return s
}

// AtomName returns the atom used to tag a constructor, e.g. "NotFound" -> "not_found".
func AtomName(ctor string) string {
	return ToSnake(ctor)
}

// FuncName returns the Elixir function name for a source function or method.
func FuncName(name string) string {
	return VarName(strings.TrimLeft(name, "_"))
}

// unusedName applies the unused-binding convention to name.
func unusedName(prefix, name string) string {
	if name == "" || name == "_" {
		return "_"
	}
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// uniqueName returns base, or base with a numeric suffix, such that taken
// does not contain it.
func uniqueName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		n := base + strconv.Itoa(i)
		if !taken[n] {
			return n
		}
	}
}

// isInfraName matches the front end's temporary naming scheme: _g, _g1, _g12.
func isInfraName(name string) bool {
	if !strings.HasPrefix(name, "_g") {
		return false
	}
	for _, r := range name[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
