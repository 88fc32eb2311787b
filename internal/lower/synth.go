package lower

import (
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// Synthesize lowers a recognized loop intent to its single declarative
// target node. Variables the intent absorbed are marked as infrastructure.
func Synthesize(ctx *Context, intent LoopIntent) exast.Node {
	switch in := intent.(type) {
	case *RangeLoop:
		return synthRange(ctx, in)
	case *CollectionLoop:
		return synthCollection(ctx, in)
	case *MapEntryLoop:
		return synthMapEntry(ctx, in)
	case *UnrolledListBuild:
		return synthUnrolled(ctx, in)
	case *ComprehensionBuild:
		return synthComprehension(ctx, in)
	}
	return &exast.Placeholder{Message: "unknown loop intent"}
}

func absorb(ctx *Context, vars []*typed.Var) {
	for _, v := range vars {
		ctx.MarkInfrastructure(v)
	}
}

// eachCall builds Enum.each(source, fn param -> body end) with the loop
// state of body recorded for the printer. own lists the per-iteration
// bindings, which are never state even when body reassigns them.
func eachCall(ctx *Context, intent string, source exast.Node, param exast.Pattern, body []typed.Expr, own ...*typed.Var) *exast.Call {
	state := stateNames(ctx, loopState(body, own...))
	leave := ctx.enterLoop()
	lowered := blockOf(lowerSeq(ctx, body, len(body), len(state) > 0))
	leave()

	call := &exast.Call{
		Module: "Enum",
		Name:   "each",
		Args: []exast.Node{
			source,
			&exast.Fn{Clauses: []*exast.FnClause{{Params: []exast.Pattern{param}, Body: lowered}}},
		},
	}
	call.Intent = intent
	call.LoopState = state
	ctx.log.Debug("loop synthesized", "intent", intent, "function", ctx.function, "state", call.LoopState)
	return call
}

// loopState returns the outer variables body reassigns, leaving out the
// loop's own bindings.
func loopState(body []typed.Expr, own ...*typed.Var) []*typed.Var {
	var out []*typed.Var
	for _, v := range assignedOuter(body) {
		if !containsVar(own, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsVar(vars []*typed.Var, v *typed.Var) bool {
	for _, o := range vars {
		if o != nil && o.ID == v.ID {
			return true
		}
	}
	return false
}

func stateNames(ctx *Context, vars []*typed.Var) []string {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = ctx.NameOf(v)
	}
	return names
}

// loopParam returns the per-iteration binding for v: its name when body
// reads it, an unused-prefixed name otherwise, and _ when v is nil.
func loopParam(ctx *Context, v *typed.Var, body []typed.Expr) exast.Pattern {
	if v == nil {
		return exast.Wildcard()
	}
	for _, s := range body {
		if readsVar(s, v, nil) {
			return &exast.PVar{Name: ctx.NameOf(v)}
		}
	}
	return &exast.PWildcard{Name: unusedName(ctx.opts.UnusedPrefix, VarName(v.Name))}
}

func synthRange(ctx *Context, in *RangeLoop) exast.Node {
	absorb(ctx, in.absorbed)
	rng := rangeNode(ctx, in.Start, in.End, in.Exclusive)
	call := eachCall(ctx, exast.IntentRange, rng, loopParam(ctx, in.UserVar, in.Body), in.Body, in.UserVar)
	call.Pos = in.Start.Position()
	return call
}

// rangeNode lowers start..end. Exclusive bounds are rendered inclusive; a
// step is added unless both bounds are literals that form a non-empty range,
// so that empty ranges iterate zero times.
func rangeNode(ctx *Context, start, end typed.Expr, exclusive bool) *exast.Range {
	first := lowerExpr(ctx, start)
	last := lowerExpr(ctx, end)
	if exclusive {
		if n, ok := last.(*exast.Integer); ok {
			last = &exast.Integer{Value: n.Value - 1}
		} else {
			last = &exast.Binary{Op: "-", Left: last, Right: &exast.Integer{Value: 1}}
		}
	}
	r := &exast.Range{First: first, Last: last}
	f, fok := first.(*exast.Integer)
	l, lok := last.(*exast.Integer)
	if !fok || !lok || f.Value > l.Value {
		r.Step = &exast.Integer{Value: 1}
	}
	r.Type = typed.ArrayOf(typed.TypeInt)
	return r
}

func collectionSource(ctx *Context, in *CollectionLoop) exast.Node {
	src := lowerExpr(ctx, in.Collection)
	if in.values {
		return &exast.Call{Module: "Map", Name: "values", Args: []exast.Node{src}}
	}
	return src
}

// elementName returns the name the body uses for the current element.
func elementName(ctx *Context, in *CollectionLoop) (exast.Pattern, string) {
	indexes := in.counter != nil && referencedIn(in.Body, in.counter)
	if in.ElemVar != nil {
		p := loopParam(ctx, in.ElemVar, in.Body)
		if indexes {
			p = &exast.PVar{Name: ctx.NameOf(in.ElemVar)}
		}
		if pv, ok := p.(*exast.PVar); ok {
			return p, pv.Name
		}
		return p, ""
	}
	if !indexes {
		return exast.Wildcard(), ""
	}
	name := uniqueName("item", ctx.taken)
	ctx.taken[name] = true
	return &exast.PVar{Name: name}, name
}

func synthCollection(ctx *Context, in *CollectionLoop) exast.Node {
	absorb(ctx, in.absorbed)
	src := collectionSource(ctx, in)
	param, name := elementName(ctx, in)
	if in.counter != nil && name != "" {
		defer ctx.pushFrame(&loopFrame{counter: in.counter, coll: in.indexed, elem: name})()
	}
	call := eachCall(ctx, exast.IntentCollection, src, param, in.Body, in.ElemVar, in.counter)
	call.Pos = in.Collection.Position()
	return call
}

func synthMapEntry(ctx *Context, in *MapEntryLoop) exast.Node {
	absorb(ctx, in.absorbed)
	src := lowerExpr(ctx, in.Map)
	param := &exast.PTuple{Elems: []exast.Pattern{
		loopParam(ctx, in.KeyVar, in.Body),
		loopParam(ctx, in.ValueVar, in.Body),
	}}
	call := eachCall(ctx, exast.IntentMapEntry, src, param, in.Body, in.KeyVar, in.ValueVar)
	call.Pos = in.Map.Position()
	return call
}

func synthUnrolled(ctx *Context, in *UnrolledListBuild) exast.Node {
	list := &exast.List{}
	for _, e := range in.Elements {
		list.Elems = append(list.Elems, lowerExpr(ctx, e))
	}
	list.Intent = exast.IntentUnrolled
	list.Type = in.Acc.Type
	ctx.log.Debug("list build unrolled", "function", ctx.function, "acc", in.Acc.Name, "elements", len(in.Elements))
	if in.Yield {
		return list
	}
	return &exast.Match{Pattern: &exast.PVar{Name: ctx.NameOf(in.Acc)}, Value: list}
}

func synthComprehension(ctx *Context, in *ComprehensionBuild) exast.Node {
	loop := in.Loop
	absorb(ctx, loop.absorbed)
	src := collectionSource(ctx, loop)
	stmts := []typed.Expr{in.Mapped}
	if in.Filter != nil {
		stmts = append(stmts, in.Filter)
	}
	probe := &CollectionLoop{ElemVar: loop.ElemVar, counter: loop.counter, Body: stmts}
	param, name := elementName(ctx, probe)
	if loop.counter != nil && name != "" {
		defer ctx.pushFrame(&loopFrame{counter: loop.counter, coll: loop.indexed, elem: name})()
	}

	leave := ctx.enterLoop()
	f := &exast.For{
		Generators: []*exast.Generator{{Pattern: param, Source: src}},
		Body:       lowerExpr(ctx, in.Mapped),
	}
	if in.Filter != nil {
		f.Filters = []exast.Node{lowerExpr(ctx, in.Filter)}
	}
	leave()
	f.Intent = exast.IntentComprehension
	f.Pos = loop.Collection.Position()
	ctx.log.Debug("loop synthesized", "intent", exast.IntentComprehension, "function", ctx.function, "acc", in.Acc.Name)
	if in.Yield {
		return f
	}
	return &exast.Match{Pattern: &exast.PVar{Name: ctx.NameOf(in.Acc)}, Value: f}
}

// lowerFor lowers the declarative loop form, which is already in normal
// form: it maps onto the same synthesized nodes as the desugared shapes.
func lowerFor(ctx *Context, f *typed.For) exast.Node {
	body := typed.Stmts(f.Body)
	if t := f.Iter.ExprType(); !iterable(f.Iter) {
		ctx.warnf(f.Pos, "for loop over non-iterable %s", t)
	}
	if !ctx.opts.SynthesizeLoops || hasEscape(body) {
		return forFallback(ctx, f, body)
	}
	if b, ok := typed.Unparen(f.Iter).(*typed.Binary); ok && b.Op == typed.OpInterval {
		return synthRange(ctx, &RangeLoop{UserVar: f.Var, Start: b.Left, End: b.Right, Body: body, Exclusive: true})
	}
	if f.KeyVar != nil {
		return synthMapEntry(ctx, &MapEntryLoop{KeyVar: f.KeyVar, ValueVar: f.Var, Map: f.Iter, Body: body})
	}
	return synthCollection(ctx, &CollectionLoop{
		ElemVar:    f.Var,
		Collection: f.Iter,
		Body:       body,
		values:     f.Iter.ExprType().IsMap(),
	})
}

// forFallback walks the iterable with reduce_while so that break and
// continue keep their meaning.
func forFallback(ctx *Context, f *typed.For, body []typed.Expr) exast.Node {
	var over exast.Node
	var binding exast.Pattern
	switch {
	case isInterval(f.Iter):
		b := typed.Unparen(f.Iter).(*typed.Binary)
		over = rangeNode(ctx, b.Left, b.Right, true)
		binding = loopParam(ctx, f.Var, body)
	case f.KeyVar != nil:
		over = lowerExpr(ctx, f.Iter)
		binding = &exast.PTuple{Elems: []exast.Pattern{loopParam(ctx, f.KeyVar, body), loopParam(ctx, f.Var, body)}}
	default:
		over = lowerExpr(ctx, f.Iter)
		if f.Iter.ExprType().IsMap() {
			over = &exast.Call{Module: "Map", Name: "values", Args: []exast.Node{over}}
		}
		binding = loopParam(ctx, f.Var, body)
	}

	leave := ctx.enterLoop()
	loop := &exast.WhileLoop{Over: over, Binding: binding, Body: blockOf(lowerLoopStmts(ctx, body))}
	leave()
	loop.Fallback = true
	loop.LoopState = stateNames(ctx, loopState(body, f.Var, f.KeyVar))
	loop.Pos = f.Pos
	ctx.log.Debug("loop kept structural", "function", ctx.function, "state", loop.LoopState)
	return loop
}

// iterable reports whether e may be walked by a for loop. Dynamic and
// untyped values are given the benefit of the doubt.
func iterable(e typed.Expr) bool {
	t := e.ExprType()
	return t == nil || t.Name == "Dynamic" || t.IsArray() || t.IsMap() || isInterval(e)
}

func isInterval(e typed.Expr) bool {
	b, ok := typed.Unparen(e).(*typed.Binary)
	return ok && b.Op == typed.OpInterval
}

// lowerWhile is the structural lowering of a loop no intent recognized.
func lowerWhile(ctx *Context, w *typed.While) exast.Node {
	body := typed.Stmts(w.Body)
	leave := ctx.enterLoop()
	loop := &exast.WhileLoop{
		Cond:    lowerExpr(ctx, w.Cond),
		Body:    blockOf(lowerLoopStmts(ctx, body)),
		DoWhile: w.DoWhile,
	}
	leave()
	loop.Fallback = true
	loop.LoopState = stateNames(ctx, assignedOuter(body))
	loop.Pos = w.Pos
	ctx.log.Debug("loop kept structural", "function", ctx.function, "state", loop.LoopState)
	return loop
}

// lowerLoopStmts lowers the body of a structural loop. break and continue
// become LoopControl nodes in tail position: a conditional that contains
// one absorbs the statements after it into its branches.
func lowerLoopStmts(ctx *Context, stmts []typed.Expr) []exast.Node {
	for i, s := range stmts {
		var tail []exast.Node
		switch n := s.(type) {
		case *typed.Break:
			tail = []exast.Node{&exast.LoopControl{Halt: true}}
		case *typed.Continue:
			tail = []exast.Node{&exast.LoopControl{}}
		case *typed.Block:
			if hasLoopControl(n) {
				joined := append(append([]typed.Expr(nil), n.Stmts...), stmts[i+1:]...)
				tail = lowerLoopStmts(ctx, joined)
			}
		case *typed.If:
			if hasLoopControl(n) {
				rest := stmts[i+1:]
				then := lowerLoopStmts(ctx, joinStmts(n.Then, rest))
				els := lowerLoopStmts(ctx, joinStmts(n.Else, rest))
				node := &exast.If{Cond: lowerExpr(ctx, n.Cond), Then: blockOf(then), Else: blockOf(els)}
				node.Pos = n.Pos
				tail = []exast.Node{node}
			}
		}
		if tail != nil {
			return append(lowerSeq(ctx, stmts, i, true), tail...)
		}
	}
	return lowerSeq(ctx, stmts, len(stmts), true)
}

func joinStmts(branch typed.Expr, rest []typed.Expr) []typed.Expr {
	out := append([]typed.Expr(nil), typed.Stmts(branch)...)
	return append(out, rest...)
}

// hasLoopControl reports whether e contains break or continue that belong
// to the loop enclosing e.
func hasLoopControl(e typed.Expr) bool {
	found := false
	var walk func(x typed.Expr)
	walk = func(x typed.Expr) {
		if x == nil || found {
			return
		}
		switch x.(type) {
		case *typed.Break, *typed.Continue:
			found = true
			return
		case *typed.While, *typed.For, *typed.Func:
			return
		}
		for _, c := range typed.Children(x) {
			walk(c)
		}
	}
	walk(e)
	return found
}
