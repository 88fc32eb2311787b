package exprint

import (
	"github.com/lhaig/exlower/internal/exast"
)

// whileLoop renders a structural loop as Enum.reduce_while. The loop state
// (or :ok when the body rebinds nothing) is the accumulator; every path
// through the body ends in {:cont, state} or {:halt, state}.
func (p *printer) whileLoop(w *exast.WhileLoop) string {
	var state exast.Node = &exast.Atom{Name: "ok"}
	var statePat exast.Pattern = exast.Wildcard()
	if len(w.LoopState) > 0 {
		state = stateValue(w.LoopState)
		statePat = statePattern(w.LoopState)
	}
	cont := &exast.Tuple{Elems: []exast.Node{&exast.Atom{Name: "cont"}, state}}
	halt := &exast.Tuple{Elems: []exast.Node{&exast.Atom{Name: "halt"}, state}}

	var source exast.Node
	var param exast.Pattern
	var body exast.Node
	switch {
	case w.Over != nil:
		source = w.Over
		param = w.Binding
		body = closeLoop(w.Body, cont, halt)
	case w.DoWhile:
		source = iterate()
		param = exast.Wildcard()
		next := &exast.If{Cond: w.Cond, Then: cont, Else: halt}
		body = closeLoop(w.Body, next, halt)
	default:
		source = iterate()
		param = exast.Wildcard()
		body = &exast.If{Cond: w.Cond, Then: closeLoop(w.Body, cont, halt), Else: halt}
	}

	fn := &exast.Fn{Clauses: []*exast.FnClause{{Params: []exast.Pattern{param, statePat}, Body: body}}}
	call := "Enum.reduce_while(" + p.expr(source) + ", " + p.expr(state) + ", " + p.fn(fn) + ")"
	if len(w.LoopState) == 0 {
		return call
	}
	return p.pattern(statePat) + " = " + call
}

// iterate is the unbounded source of a condition-driven loop.
func iterate() exast.Node {
	return &exast.Raw{Code: "Stream.iterate(0, &(&1 + 1))"}
}

// closeLoop returns body with its tail rewritten: loop control becomes the
// halt or next value, conditionals holding loop control are closed branch
// by branch, and any other tail is followed by next.
func closeLoop(body exast.Node, next, halt exast.Node) exast.Node {
	switch x := body.(type) {
	case nil, *exast.Nil:
		return next
	case *exast.LoopControl:
		if x.Halt {
			return halt
		}
		return next
	case *exast.Block:
		if len(x.Exprs) == 0 {
			return next
		}
		exprs := append([]exast.Node(nil), x.Exprs[:len(x.Exprs)-1]...)
		last := closeLoop(x.Exprs[len(x.Exprs)-1], next, halt)
		if b, ok := last.(*exast.Block); ok {
			exprs = append(exprs, b.Exprs...)
		} else {
			exprs = append(exprs, last)
		}
		return &exast.Block{Exprs: exprs}
	case *exast.If:
		if !containsControl(x) {
			break
		}
		els := x.Else
		return &exast.If{
			Cond:   x.Cond,
			Then:   closeLoop(x.Then, next, halt),
			Else:   closeLoop(els, next, halt),
			Unless: x.Unless,
		}
	}
	return &exast.Block{Exprs: []exast.Node{body, next}}
}

// containsControl reports whether n holds loop control for the current
// loop in tail position of some branch.
func containsControl(n exast.Node) bool {
	switch x := n.(type) {
	case *exast.LoopControl:
		return true
	case *exast.Block:
		return len(x.Exprs) > 0 && containsControl(x.Exprs[len(x.Exprs)-1])
	case *exast.If:
		return containsControl(x.Then) || (x.Else != nil && containsControl(x.Else))
	}
	return false
}
