package lower

import (
	"github.com/lhaig/exlower/internal/typed"
)

// LoopIntent is the declarative meaning recovered from an imperative loop
// shape. It is produced and consumed within a single lowering step.
type LoopIntent interface {
	loopIntent()
}

// RangeLoop iterates an integer counter from Start up to End.
type RangeLoop struct {
	UserVar   *typed.Var // per-iteration variable; nil when the body never names it
	Start     typed.Expr
	End       typed.Expr
	Body      []typed.Expr
	Exclusive bool

	absorbed []*typed.Var
}

// CollectionLoop visits every element of Collection in order.
type CollectionLoop struct {
	ElemVar    *typed.Var // nil when the body only indexes the collection
	Collection typed.Expr
	Body       []typed.Expr

	counter  *typed.Var // coll[counter] in Body denotes the element
	indexed  typed.Expr // the expression Body indexes
	values   bool       // iterate the values of a map
	absorbed []*typed.Var
}

// MapEntryLoop visits every key/value pair of Map.
type MapEntryLoop struct {
	KeyVar   *typed.Var
	ValueVar *typed.Var
	Map      typed.Expr
	Body     []typed.Expr

	absorbed []*typed.Var
}

// UnrolledListBuild is an accumulator filled by a fixed sequence of appends.
type UnrolledListBuild struct {
	Acc      *typed.Var
	Elements []typed.Expr
	Yield    bool // the sequence ends by yielding the accumulator
}

// ComprehensionBuild is an accumulator filled by a collection loop whose
// body is a single, optionally guarded, append.
type ComprehensionBuild struct {
	Loop   *CollectionLoop
	Acc    *typed.Var
	Filter typed.Expr // nil when every element is kept
	Mapped typed.Expr
	Yield  bool
}

func (*RangeLoop) loopIntent()          {}
func (*CollectionLoop) loopIntent()     {}
func (*MapEntryLoop) loopIntent()       {}
func (*UnrolledListBuild) loopIntent()  {}
func (*ComprehensionBuild) loopIntent() {}

// Classify tries each loop shape at stmts[k], in the order range,
// collection, map entry, unrolled build, and returns the first exact match
// with the number of statements it spans. It returns nil, 0 when nothing
// matches.
func Classify(ctx *Context, stmts []typed.Expr, k int) (LoopIntent, int) {
	if k >= len(stmts) {
		return nil, 0
	}
	if in, n := matchRange(stmts, k); in != nil {
		return in, n
	}
	if ctx.opts.Comprehensions {
		if in, n := matchComprehension(stmts, k); in != nil {
			return in, n
		}
	}
	if in, n := matchCollection(stmts, k); in != nil {
		return in, n
	}
	if in, n := matchMapEntry(stmts, k); in != nil {
		return in, n
	}
	if in, n := matchUnrolled(stmts, k); in != nil {
		return in, n
	}
	return nil, 0
}

// isIntDecl reports whether d declares an integer counter.
func isIntDecl(d *typed.VarDecl) bool {
	if d.Var.Type != nil {
		return d.Var.Type.IsInt()
	}
	return d.Init != nil && d.Init.ExprType().IsInt()
}

func isIntLit(e typed.Expr, want int64) bool {
	c, ok := typed.Unparen(e).(*typed.Const)
	return ok && c.Kind == typed.ConstInt && c.Int == want
}

// isIncrement matches i++, ++i, i += 1 and i = i + 1 as statements.
func isIncrement(e typed.Expr, v *typed.Var) bool {
	switch n := typed.Unparen(e).(type) {
	case *typed.Unary:
		return n.Op == typed.OpIncrement && typed.IsLocalOf(n.Operand, v)
	case *typed.Assign:
		if !typed.IsLocalOf(n.Target, v) {
			return false
		}
		if n.Op == typed.OpAdd {
			return isIntLit(n.Value, 1)
		}
		if n.Op == typed.OpNone {
			b, ok := typed.Unparen(n.Value).(*typed.Binary)
			return ok && b.Op == typed.OpAdd && typed.IsLocalOf(b.Left, v) && isIntLit(b.Right, 1)
		}
	}
	return false
}

// counterLoop is the shared prefix of the counter-driven shapes:
//
//	var c = init; [var n = end;] while (c < n) body
//	var c = init; [var a = coll;] while (c < a.length) body
type counterLoop struct {
	counter *typed.VarDecl
	limit   *typed.VarDecl // hoisted bound
	hoisted *typed.VarDecl // hoisted collection whose length bounds the loop
	loop    *typed.While
	bound   typed.Expr
	span    int
}

func matchCounterLoop(stmts []typed.Expr, k int) *counterLoop {
	init, ok := stmts[k].(*typed.VarDecl)
	if !ok || init.Init == nil || !isIntDecl(init) {
		return nil
	}
	cl := &counterLoop{counter: init}
	j := k + 1
	var second *typed.VarDecl
	if j < len(stmts) {
		if d, ok := stmts[j].(*typed.VarDecl); ok && d.Init != nil {
			second = d
			j++
		}
	}
	if j >= len(stmts) {
		return nil
	}
	w, ok := stmts[j].(*typed.While)
	if !ok || w.DoWhile {
		return nil
	}
	cond, ok := typed.Unparen(w.Cond).(*typed.Binary)
	if !ok || cond.Op != typed.OpLt || !typed.IsLocalOf(cond.Left, init.Var) {
		return nil
	}
	if second != nil {
		switch {
		case typed.IsLocalOf(cond.Right, second.Var):
			cl.limit = second
		default:
			obj, ok := lengthOf(cond.Right)
			if !ok || !typed.IsLocalOf(obj, second.Var) {
				return nil
			}
			cl.hoisted = second
		}
	}
	cl.loop = w
	cl.bound = cond.Right
	cl.span = j - k + 1
	return cl
}

// after returns the statements following the loop.
func (cl *counterLoop) after(stmts []typed.Expr, k int) []typed.Expr {
	return stmts[k+cl.span:]
}

func (cl *counterLoop) absorbed() []*typed.Var {
	out := []*typed.Var{cl.counter.Var}
	if cl.limit != nil {
		out = append(out, cl.limit.Var)
	}
	if cl.hoisted != nil {
		out = append(out, cl.hoisted.Var)
	}
	return out
}

// lengthOf returns X when e is X.length.
func lengthOf(e typed.Expr) (typed.Expr, bool) {
	f, ok := typed.Unparen(e).(*typed.Field)
	if !ok || f.Name != "length" || f.Static {
		return nil, false
	}
	return f.Object, true
}

var mutatingMethods = map[string]bool{
	"push": true, "pop": true, "shift": true, "unshift": true, "splice": true,
	"insert": true, "remove": true, "reverse": true, "sort": true, "resize": true,
	"set": true, "clear": true,
}

// mutates reports whether stmts call a mutating method on target or
// assign to it.
func mutates(stmts []typed.Expr, target typed.Expr) bool {
	if l, ok := typed.Unparen(target).(*typed.Local); ok && assignedIn(stmts, l.Var) {
		return true
	}
	found := false
	for _, s := range stmts {
		typed.Inspect(s, func(e typed.Expr) bool {
			switch n := e.(type) {
			case *typed.Call:
				if f, ok := typed.Unparen(n.Fn).(*typed.Field); ok && mutatingMethods[f.Name] && typed.SameRef(f.Object, target) {
					found = true
				}
			case *typed.Assign:
				if idx, ok := typed.Unparen(n.Target).(*typed.Index); ok && typed.SameRef(idx.Object, target) {
					found = true
				}
			}
			return !found
		})
	}
	return found
}

// stableIn reports whether e evaluates to the same value on every iteration
// of a loop with the given body: no calls, and no local it reads is
// reassigned or mutated there.
func stableIn(e typed.Expr, body []typed.Expr) bool {
	ok := true
	typed.Inspect(e, func(x typed.Expr) bool {
		switch n := x.(type) {
		case *typed.Call, *typed.New, *typed.Assign:
			ok = false
		case *typed.Unary:
			if n.Op == typed.OpIncrement || n.Op == typed.OpDecrement {
				ok = false
			}
		case *typed.Local:
			if assignedIn(body, n.Var) || mutates(body, n) {
				ok = false
			}
		}
		return ok
	})
	return ok
}

// onlyIndexes reports whether every reference to counter in stmts is the
// index of coll[counter].
func onlyIndexes(stmts []typed.Expr, counter *typed.Var, coll typed.Expr) bool {
	total := 0
	for _, s := range stmts {
		total += typed.CountRefs(s, counter)
	}
	indexed := 0
	for _, s := range stmts {
		typed.Inspect(s, func(e typed.Expr) bool {
			if idx, ok := e.(*typed.Index); ok && typed.IsLocalOf(idx.Index, counter) && typed.SameRef(idx.Object, coll) {
				indexed++
			}
			return true
		})
	}
	return total == indexed
}

// matchRange recognizes
//
//	var c = start; [var n = end;] while (c < n) { var i = c++; body }
//	var i = start; [var n = end;] while (i < n) { body; i++ }
func matchRange(stmts []typed.Expr, k int) (LoopIntent, int) {
	cl := matchCounterLoop(stmts, k)
	if cl == nil || cl.hoisted != nil {
		return nil, 0
	}
	c := cl.counter.Var
	body := typed.Stmts(cl.loop.Body)

	var user *typed.Var
	var rest []typed.Expr
	if len(body) > 0 {
		if d, ok := body[0].(*typed.VarDecl); ok && d.Init != nil {
			if u, ok := typed.Unparen(d.Init).(*typed.Unary); ok && u.Op == typed.OpIncrement && u.Postfix && typed.IsLocalOf(u.Operand, c) {
				user = d.Var
				rest = body[1:]
				if referencedIn(rest, c) {
					return nil, 0
				}
			}
		}
	}
	if user == nil {
		if len(body) == 0 || !isIncrement(body[len(body)-1], c) {
			return nil, 0
		}
		rest = body[:len(body)-1]
		if assignedIn(rest, c) {
			return nil, 0
		}
		// Counters that only index the collection whose length bounds
		// them are collection traversals.
		if coll, ok := lengthOf(boundExpr(cl)); ok && referencedIn(rest, c) && onlyIndexes(rest, c, coll) {
			return nil, 0
		}
		if referencedIn(rest, c) {
			user = c
		}
	}

	if hasEscape(rest) {
		return nil, 0
	}
	if cl.limit != nil && referencedIn(rest, cl.limit.Var) {
		return nil, 0
	}
	if cl.limit == nil && !stableIn(cl.bound, body) {
		return nil, 0
	}
	after := cl.after(stmts, k)
	for _, v := range cl.absorbed() {
		if referencedIn(after, v) {
			return nil, 0
		}
	}

	return &RangeLoop{
		UserVar:   user,
		Start:     cl.counter.Init,
		End:       boundExpr(cl),
		Body:      rest,
		Exclusive: true,
		absorbed:  cl.absorbed(),
	}, cl.span
}

// boundExpr returns the loop's upper bound as written before the loop.
func boundExpr(cl *counterLoop) typed.Expr {
	if cl.limit != nil {
		return cl.limit.Init
	}
	return cl.bound
}

// matchCollection recognizes counter traversals of an array,
//
//	var c = 0; [var a = coll;] while (c < a.length) { var x = a[c]; ++c; body }
//	var c = 0; while (c < coll.length) { body; c++ }
//
// and iterator traversals,
//
//	var it = coll.iterator(); while (it.hasNext()) { var x = it.next(); body }
func matchCollection(stmts []typed.Expr, k int) (LoopIntent, int) {
	if in := matchIterator(stmts, k); in != nil {
		return in, 2
	}
	in, span := matchIndexed(stmts, k)
	if in == nil {
		return nil, 0
	}
	return in, span
}

func matchIndexed(stmts []typed.Expr, k int) (*CollectionLoop, int) {
	cl := matchCounterLoop(stmts, k)
	if cl == nil || !isIntLit(cl.counter.Init, 0) {
		return nil, 0
	}
	c := cl.counter.Var

	var indexed, collection typed.Expr
	switch {
	case cl.hoisted != nil:
		indexed, _ = lengthOf(cl.bound)
		collection = cl.hoisted.Init
	case cl.limit != nil:
		obj, ok := lengthOf(cl.limit.Init)
		if !ok {
			return nil, 0
		}
		indexed, collection = obj, obj
	default:
		obj, ok := lengthOf(cl.bound)
		if !ok {
			return nil, 0
		}
		indexed, collection = obj, obj
	}
	body := typed.Stmts(cl.loop.Body)

	var elem *typed.Var
	start := 0
	if len(body) > 0 {
		if d, ok := body[0].(*typed.VarDecl); ok && d.Init != nil {
			if idx, ok := typed.Unparen(d.Init).(*typed.Index); ok && typed.IsLocalOf(idx.Index, c) && typed.SameRef(idx.Object, indexed) {
				elem = d.Var
				start = 1
			}
		}
	}

	var rest []typed.Expr
	switch {
	case elem != nil && len(body) > start && isIncrement(body[start], c):
		rest = body[start+1:]
	case len(body) > start && isIncrement(body[len(body)-1], c):
		rest = body[start : len(body)-1]
	default:
		return nil, 0
	}

	if assignedIn(rest, c) || !onlyIndexes(rest, c, indexed) {
		return nil, 0
	}
	if hasEscape(rest) || mutates(rest, indexed) || !stableIn(indexed, rest) {
		return nil, 0
	}
	for _, v := range cl.absorbed() {
		if referencedIn(cl.after(stmts, k), v) {
			return nil, 0
		}
	}
	if cl.limit != nil && referencedIn(rest, cl.limit.Var) {
		return nil, 0
	}
	// The hoisted collection may only appear as the object of coll[c].
	if cl.hoisted != nil && countIn(rest, cl.hoisted.Var) != countIn(rest, c) {
		return nil, 0
	}

	loop := &CollectionLoop{
		ElemVar:    elem,
		Collection: collection,
		Body:       rest,
		counter:    c,
		indexed:    indexed,
		absorbed:   cl.absorbed(),
	}
	return loop, cl.span
}

func methodCall(e typed.Expr, name string) (*typed.Call, *typed.Field, bool) {
	call, ok := typed.Unparen(e).(*typed.Call)
	if !ok {
		return nil, nil, false
	}
	f, ok := typed.Unparen(call.Fn).(*typed.Field)
	if !ok || f.Name != name {
		return nil, nil, false
	}
	return call, f, true
}

// iteratorLoop is `var it = src.<method>(); while (it.hasNext()) { var x = it.next(); body }`.
type iteratorLoop struct {
	it     *typed.VarDecl
	source typed.Expr
	next   *typed.VarDecl
	body   []typed.Expr
}

func matchIteratorShape(stmts []typed.Expr, k int, method string) *iteratorLoop {
	if k+1 >= len(stmts) {
		return nil
	}
	it, ok := stmts[k].(*typed.VarDecl)
	if !ok || it.Init == nil {
		return nil
	}
	call, f, ok := methodCall(it.Init, method)
	if !ok || len(call.Args) != 0 {
		return nil
	}
	w, ok := stmts[k+1].(*typed.While)
	if !ok || w.DoWhile {
		return nil
	}
	if _, hf, ok := methodCall(w.Cond, "hasNext"); !ok || !typed.IsLocalOf(hf.Object, it.Var) {
		return nil
	}
	body := typed.Stmts(w.Body)
	if len(body) == 0 {
		return nil
	}
	next, ok := body[0].(*typed.VarDecl)
	if !ok || next.Init == nil {
		return nil
	}
	if _, nf, ok := methodCall(next.Init, "next"); !ok || !typed.IsLocalOf(nf.Object, it.Var) {
		return nil
	}
	rest := body[1:]
	if referencedIn(rest, it.Var) || referencedIn(stmts[k+2:], it.Var) || hasEscape(rest) {
		return nil
	}
	return &iteratorLoop{it: it, source: f.Object, next: next, body: rest}
}

func matchIterator(stmts []typed.Expr, k int) *CollectionLoop {
	il := matchIteratorShape(stmts, k, "iterator")
	if il == nil {
		return nil
	}
	return &CollectionLoop{
		ElemVar:    il.next.Var,
		Collection: il.source,
		Body:       il.body,
		absorbed:   []*typed.Var{il.it.Var},
	}
}

// matchMapEntry recognizes
//
//	var it = m.keyValueIterator(); while (it.hasNext()) { var e = it.next(); var k = e.key; var v = e.value; body }
func matchMapEntry(stmts []typed.Expr, k int) (LoopIntent, int) {
	il := matchIteratorShape(stmts, k, "keyValueIterator")
	if il == nil {
		return nil, 0
	}
	entry := il.next.Var
	loop := &MapEntryLoop{Map: il.source, absorbed: []*typed.Var{il.it.Var, entry}}
	rest := il.body
	for len(rest) > 0 {
		d, ok := rest[0].(*typed.VarDecl)
		if !ok || d.Init == nil {
			break
		}
		f, ok := typed.Unparen(d.Init).(*typed.Field)
		if !ok || !typed.IsLocalOf(f.Object, entry) {
			break
		}
		if f.Name == "key" && loop.KeyVar == nil {
			loop.KeyVar = d.Var
		} else if f.Name == "value" && loop.ValueVar == nil {
			loop.ValueVar = d.Var
		} else {
			break
		}
		rest = rest[1:]
	}
	if loop.KeyVar == nil && loop.ValueVar == nil {
		return nil, 0
	}
	if referencedIn(rest, entry) {
		return nil, 0
	}
	loop.Body = rest
	return loop, 2
}

// appendedElems returns the elements one statement appends to acc:
// acc = acc ++ [e...], acc = acc.concat([e...]) or acc.push(e).
func appendedElems(s typed.Expr, acc *typed.Var) ([]typed.Expr, bool) {
	switch n := typed.Unparen(s).(type) {
	case *typed.Assign:
		if !typed.IsLocalOf(n.Target, acc) {
			return nil, false
		}
		if n.Op == typed.OpAdd {
			if arr, ok := typed.Unparen(n.Value).(*typed.ArrayDecl); ok {
				return arr.Elems, true
			}
			return nil, false
		}
		if n.Op != typed.OpNone {
			return nil, false
		}
		if b, ok := typed.Unparen(n.Value).(*typed.Binary); ok && b.Op == typed.OpAdd && typed.IsLocalOf(b.Left, acc) {
			if arr, ok := typed.Unparen(b.Right).(*typed.ArrayDecl); ok {
				return arr.Elems, true
			}
		}
		if call, f, ok := methodCall(n.Value, "concat"); ok && typed.IsLocalOf(f.Object, acc) && len(call.Args) == 1 {
			if arr, ok := typed.Unparen(call.Args[0]).(*typed.ArrayDecl); ok {
				return arr.Elems, true
			}
		}
	case *typed.Call:
		if _, f, ok := methodCall(n, "push"); ok && typed.IsLocalOf(f.Object, acc) && len(n.Args) == 1 {
			return n.Args, true
		}
	}
	return nil, false
}

func isEmptyArray(e typed.Expr) bool {
	arr, ok := typed.Unparen(e).(*typed.ArrayDecl)
	return ok && len(arr.Elems) == 0
}

// yields reports whether s hands acc back as the value of its block.
func yields(s typed.Expr, acc *typed.Var) bool {
	if r, ok := s.(*typed.Return); ok && r.Value != nil {
		return typed.IsLocalOf(r.Value, acc)
	}
	return typed.IsLocalOf(s, acc)
}

// matchUnrolled recognizes `acc = []; acc = acc ++ [a]; acc.push(b); ...; acc`.
func matchUnrolled(stmts []typed.Expr, k int) (LoopIntent, int) {
	d, ok := stmts[k].(*typed.VarDecl)
	if !ok || d.Init == nil || !isEmptyArray(d.Init) {
		return nil, 0
	}
	acc := d.Var
	build := &UnrolledListBuild{Acc: acc}
	j := k + 1
	for ; j < len(stmts); j++ {
		elems, ok := appendedElems(stmts[j], acc)
		if !ok {
			break
		}
		for _, e := range elems {
			if typed.CountRefs(e, acc) > 0 {
				return nil, 0
			}
		}
		build.Elements = append(build.Elements, elems...)
	}
	if j == k+1 {
		return nil, 0
	}
	if j == len(stmts)-1 && yields(stmts[j], acc) {
		build.Yield = true
		j++
	}
	return build, j - k
}

// matchComprehension recognizes an empty accumulator followed by a
// collection loop whose body only appends to it, optionally under a
// condition. The loop may sit in its own block.
func matchComprehension(stmts []typed.Expr, k int) (LoopIntent, int) {
	d, ok := stmts[k].(*typed.VarDecl)
	if !ok || d.Init == nil || !isEmptyArray(d.Init) || k+1 >= len(stmts) {
		return nil, 0
	}
	acc := d.Var

	var loop *CollectionLoop
	span := 0
	if b, ok := stmts[k+1].(*typed.Block); ok {
		in, n := matchCollectionAt(b.Stmts)
		if in == nil || n != len(b.Stmts) {
			return nil, 0
		}
		loop, span = in, 1
	} else {
		in, n := matchCollectionAt(stmts[k+1:])
		if in == nil {
			return nil, 0
		}
		loop, span = in, n
	}

	body := loop.Body
	if len(body) != 1 {
		return nil, 0
	}
	build := &ComprehensionBuild{Loop: loop, Acc: acc}
	stmt := body[0]
	if i, ok := stmt.(*typed.If); ok && i.Else == nil {
		inner := typed.Stmts(i.Then)
		if len(inner) != 1 {
			return nil, 0
		}
		build.Filter = i.Cond
		stmt = inner[0]
	}
	call, f, ok := methodCall(stmt, "push")
	if !ok || !typed.IsLocalOf(f.Object, acc) || len(call.Args) != 1 {
		return nil, 0
	}
	build.Mapped = call.Args[0]
	if typed.CountRefs(build.Mapped, acc) > 0 || (build.Filter != nil && typed.CountRefs(build.Filter, acc) > 0) {
		return nil, 0
	}
	if loop.ElemVar != nil && assignedIn(body, loop.ElemVar) {
		return nil, 0
	}

	j := k + 1 + span
	if j == len(stmts)-1 && yields(stmts[j], acc) {
		build.Yield = true
		j++
	}
	return build, j - k
}

// matchCollectionAt matches a collection traversal at the start of stmts.
// The trailing statements of stmts are not inspected for escaping uses of
// the loop temporaries beyond what the matchers check themselves.
func matchCollectionAt(stmts []typed.Expr) (*CollectionLoop, int) {
	if len(stmts) == 0 {
		return nil, 0
	}
	if in := matchIterator(stmts, 0); in != nil {
		return in, 2
	}
	return matchIndexed(stmts, 0)
}

func countIn(stmts []typed.Expr, v *typed.Var) int {
	n := 0
	for _, s := range stmts {
		n += typed.CountRefs(s, v)
	}
	return n
}
