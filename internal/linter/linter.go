package linter

import (
	"fmt"
	"strings"

	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// Linter performs idiom checks on a lowered module.
// It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	mod  *exast.Module
	file string
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given module and returns diagnostics.
// file is used for nodes that carry no source position.
func Lint(mod *exast.Module, file string) *diagnostic.Diagnostics {
	l := &Linter{
		mod:  mod,
		file: file,
		diag: diagnostic.New(),
	}
	if mod == nil {
		return l.diag
	}

	for _, def := range mod.Defs {
		l.checkEmptyBody(def)
		l.checkFallbackLoops(def)
		l.checkKeptExtractions(def)
		l.checkUnusedBindings(def)
	}
	return l.diag
}

// --- Lint rules ---

// checkEmptyBody warns if a definition lowered to nothing.
func (l *Linter) checkEmptyBody(def *exast.Def) {
	if _, ok := def.Body.(*exast.Nil); ok || def.Body == nil {
		l.warn(def.Pos, "function '%s' has an empty body", def.Name)
	}
}

// checkFallbackLoops warns about loops that kept the structural
// reduce_while form instead of a declarative Enum call or comprehension.
func (l *Linter) checkFallbackLoops(def *exast.Def) {
	exast.Inspect(def.Body, func(n exast.Node) bool {
		w, ok := n.(*exast.WhileLoop)
		if !ok || !w.Fallback {
			return true
		}
		hint := "rewrite the loop without break or continue so it can become an Enum call"
		if !hasLoopControl(w.Body) {
			hint = "the loop shape was not recognised; iterate a range or collection directly"
		}
		l.warnWithHint(w.Pos, hint, "loop in '%s' uses the structural reduce_while form", def.Name)
		return true
	})
}

// checkKeptExtractions warns about positional elem/2 reads left behind
// where a clause pattern could not bind the value.
func (l *Linter) checkKeptExtractions(def *exast.Def) {
	exast.Inspect(def.Body, func(n exast.Node) bool {
		c, ok := n.(*exast.Call)
		if !ok || c.Module != "" || c.Target != nil || c.Name != "elem" || len(c.Args) != 2 {
			return true
		}
		l.warnWithHint(c.Pos, "match the value in a case clause instead",
			"positional extraction elem/2 kept in '%s'", def.Name)
		return true
	})
}

// checkUnusedBindings warns about pattern variables that are never read
// and carry no underscore prefix.
func (l *Linter) checkUnusedBindings(def *exast.Def) {
	used := collectUsedNames(def)
	report := func(pos typed.Pos, p exast.Pattern) {
		for _, name := range exast.BoundNames(p) {
			if !used[name] && !strings.HasPrefix(name, "_") {
				l.warn(pos, "binding '%s' in '%s' is never used", name, def.Name)
			}
		}
	}

	for _, p := range def.Params {
		report(def.Pos, p)
	}
	exast.Inspect(def.Body, func(n exast.Node) bool {
		pos := n.Metadata().Pos
		switch x := n.(type) {
		case *exast.Match:
			report(pos, x.Pattern)
		case *exast.Case:
			for _, c := range x.Clauses {
				report(pos, c.Pattern)
			}
		case *exast.Try:
			for _, c := range x.Rescue {
				report(pos, c.Pattern)
			}
		case *exast.Fn:
			for _, c := range x.Clauses {
				for _, p := range c.Params {
					report(pos, p)
				}
			}
		case *exast.For:
			for _, g := range x.Generators {
				report(pos, g.Pattern)
			}
		case *exast.WhileLoop:
			if x.Binding != nil {
				report(pos, x.Binding)
			}
		}
		return true
	})
}

// --- Helpers ---

// collectUsedNames gathers every name a definition reads: variable
// references, pins, and the loop state threaded through synthesized loops.
func collectUsedNames(def *exast.Def) map[string]bool {
	used := make(map[string]bool)
	var visitPattern func(p exast.Pattern)
	visitPattern = func(p exast.Pattern) {
		switch x := p.(type) {
		case *exast.PPin:
			used[x.Name] = true
		case *exast.PTuple:
			for _, e := range x.Elems {
				visitPattern(e)
			}
		case *exast.PList:
			for _, e := range x.Elems {
				visitPattern(e)
			}
			visitPattern(x.Tail)
		case *exast.PMap:
			for _, pp := range x.Pairs {
				visitPattern(pp.Value)
			}
		case *exast.PStruct:
			for _, f := range x.Fields {
				visitPattern(f.Value)
			}
		case *exast.PAlias:
			visitPattern(x.Pattern)
		}
	}

	exast.Inspect(def.Body, func(n exast.Node) bool {
		for _, s := range n.Metadata().LoopState {
			used[s] = true
		}
		switch x := n.(type) {
		case *exast.Var:
			used[x.Name] = true
		case *exast.Match:
			visitPattern(x.Pattern)
		case *exast.Case:
			for _, c := range x.Clauses {
				visitPattern(c.Pattern)
			}
		}
		return true
	})
	if def.Guard != nil {
		exast.Inspect(def.Guard, func(n exast.Node) bool {
			if v, ok := n.(*exast.Var); ok {
				used[v.Name] = true
			}
			return true
		})
	}
	return used
}

// hasLoopControl reports whether body contains an explicit halt or
// continue that belongs to the loop itself.
func hasLoopControl(body exast.Node) bool {
	found := false
	exast.Inspect(body, func(n exast.Node) bool {
		switch n.(type) {
		case *exast.LoopControl:
			found = true
		case *exast.WhileLoop:
			return false
		}
		return !found
	})
	return found
}

func (l *Linter) warn(pos typed.Pos, format string, args ...interface{}) {
	l.diag.WarningfInFile(l.fileOf(pos), pos.Line, pos.Column, format, args...)
}

func (l *Linter) warnWithHint(pos typed.Pos, hint, format string, args ...interface{}) {
	l.diag.WarningWithHintInFile(l.fileOf(pos), pos.Line, pos.Column, fmt.Sprintf(format, args...), hint)
}

func (l *Linter) fileOf(pos typed.Pos) string {
	if pos.File != "" {
		return pos.File
	}
	return l.file
}
