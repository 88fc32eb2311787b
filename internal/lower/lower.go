// Package lower converts a typed source tree into the Elixir target tree.
//
// The pass is a single recursive transducer driven by an explicitly passed
// Context. Case clauses over tagged unions are planned before their bodies
// are lowered so that each logical value is bound exactly once; imperative
// loop shapes the front end expanded are re-synthesized as declarative
// operations; and temporaries that only re-bind an existing value are
// elided.
package lower

import (
	"errors"

	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// Result is the outcome of lowering one unit.
type Result struct {
	Module      *exast.Module
	Diagnostics *diagnostic.Diagnostics
	Export      Export
}

// Unit lowers every function of u into one target module. Lowering
// problems are reported as diagnostics and placeholder nodes; only runaway
// recursion or cyclic input fails the unit, with a *RunawayError.
func Unit(u *typed.Unit, opts Options) (*Result, error) {
	ctx := NewContext(u.Module, u.Path, opts)
	mod := &exast.Module{Name: u.Module}
	for _, fn := range u.Functions {
		def, err := lowerFunction(ctx, fn)
		if err != nil {
			var re *RunawayError
			if errors.As(err, &re) {
				file, line, col := ctx.position(fn.Pos)
				ctx.diags.ErrorWithTrace(file, line, col, re.Error(), re.Trace)
			}
			return &Result{Module: mod, Diagnostics: ctx.diags, Export: ctx.Export()}, err
		}
		mod.Defs = append(mod.Defs, def)
	}
	ctx.log.Debug("unit lowered", "functions", len(mod.Defs), "diagnostics", ctx.diags.Count())
	return &Result{Module: mod, Diagnostics: ctx.diags, Export: ctx.Export()}, nil
}

func lowerFunction(ctx *Context, fn *typed.Function) (def *exast.Def, err error) {
	// Every helper walk assumes a finite tree, so check that first.
	ctx.function = fn.Name
	if visits, cyclic, path := scanTree(fn.Body, ctx.opts.MaxVisits); cyclic || visits > ctx.opts.MaxVisits {
		re := ctx.runaway(cyclic)
		re.Visits = visits
		re.Trace = path
		return nil, re
	}
	ctx.beginFunction(fn)

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			def, err = nil, b.err
		}
	}()

	def = &exast.Def{Name: FuncName(fn.Name), Private: !fn.Public}
	def.Pos = fn.Pos
	def.Type = fn.Return
	for _, p := range fn.Params {
		def.Params = append(def.Params, &exast.PVar{Name: ctx.NameOf(p)})
	}
	def.Body = lowerBody(ctx, fn.Body)
	return def, nil
}

// Lower lowers a single source node with ctx. It returns nil when the node
// produces no target statement: a redundant extraction, a self-assignment,
// or a statement absorbed by a loop intent. Runaway recursion is reported
// as an error diagnostic and yields a placeholder.
func Lower(e typed.Expr, ctx *Context) (n exast.Node) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			file, line, col := ctx.position(e.Position())
			ctx.diags.ErrorWithTrace(file, line, col, b.err.Error(), b.err.Trace)
			n = &exast.Placeholder{Message: "lowering aborted: " + b.err.Error()}
		}
	}()
	nodes := lowerStmt(ctx, e)
	if len(nodes) == 0 {
		return nil
	}
	return blockOf(nodes)
}

// blockOf wraps nodes as a single node: nil for none, the node itself for
// one, a Block otherwise.
func blockOf(nodes []exast.Node) exast.Node {
	switch len(nodes) {
	case 0:
		return &exast.Nil{}
	case 1:
		return nodes[0]
	}
	return &exast.Block{Exprs: nodes}
}

// lowerBody lowers e as a sequence whose value is its last statement.
func lowerBody(ctx *Context, e typed.Expr) exast.Node {
	if e == nil {
		return &exast.Nil{}
	}
	return blockOf(lowerStmts(ctx, typed.Stmts(e)))
}

func lowerStmts(ctx *Context, stmts []typed.Expr) []exast.Node {
	return lowerSeq(ctx, stmts, len(stmts), false)
}

// lowerSeq lowers stmts[:end] as a statement sequence; the statements from
// end on are only consulted by the loop matchers. Loop shapes are replaced by
// their synthesized node at the position of their first statement;
// conditionals that leave the function take the statements after them into
// their non-leaving branch; conditionals that rebind outer variables hand
// the new values back through a match. threadLast also threads the final
// statement, for sequences whose value is followed by loop state.
func lowerSeq(ctx *Context, stmts []typed.Expr, end int, threadLast bool) []exast.Node {
	var out []exast.Node
	for k := 0; k < end; k++ {
		s := stmts[k]
		if ctx.opts.SynthesizeLoops {
			if intent, n := Classify(ctx, stmts, k); intent != nil {
				out = append(out, Synthesize(ctx, intent))
				k += n - 1
				continue
			}
		}

		rest := stmts[k+1 : end]
		switch n := s.(type) {
		case *typed.Return, *typed.Throw:
			// Anything after is unreachable.
			return append(out, lowerStmt(ctx, s)...)
		case *typed.If:
			if len(rest) > 0 && (alwaysExits(n.Then) || alwaysExits(n.Else)) {
				return append(out, lowerIf(ctx, n, branchTail{rest: rest}))
			}
		case *typed.Switch:
			if len(rest) > 0 && switchExits(n) {
				return append(out, lowerSwitch(ctx, n, branchTail{rest: rest}))
			}
		}

		if len(rest) > 0 || threadLast {
			if node := threadState(ctx, s); node != nil {
				out = append(out, node)
				continue
			}
		}
		out = append(out, lowerStmt(ctx, s)...)
	}
	return out
}

// alwaysExits reports whether e leaves the function on every path.
func alwaysExits(e typed.Expr) bool {
	stmts := typed.Stmts(e)
	if len(stmts) == 0 {
		return false
	}
	switch n := stmts[len(stmts)-1].(type) {
	case *typed.Return, *typed.Throw:
		return true
	case *typed.If:
		return alwaysExits(n.Then) && alwaysExits(n.Else)
	case *typed.Block:
		return alwaysExits(n)
	}
	return false
}

func switchExits(sw *typed.Switch) bool {
	for _, c := range sw.Cases {
		if alwaysExits(c.Body) {
			return true
		}
	}
	return alwaysExits(sw.Default)
}

// branchTail is appended to every branch of a conditional: the statements
// following it (for branches that do not leave the function) and the
// outer variables the branches rebind.
type branchTail struct {
	rest  []typed.Expr
	state []string
}

func (t branchTail) lower(ctx *Context, body typed.Expr) exast.Node {
	stmts := typed.Stmts(body)
	if len(t.rest) > 0 && !alwaysExits(body) {
		stmts = joinStmts(body, t.rest)
	}
	nodes := lowerSeq(ctx, stmts, len(stmts), len(t.state) > 0)
	if len(t.state) > 0 {
		nodes = append(nodes, stateValue(t.state))
	}
	return blockOf(nodes)
}

func (t branchTail) empty() bool {
	return len(t.rest) == 0 && len(t.state) == 0
}

func stateValue(names []string) exast.Node {
	if len(names) == 1 {
		return &exast.Var{Name: names[0]}
	}
	elems := make([]exast.Node, len(names))
	for i, n := range names {
		elems[i] = &exast.Var{Name: n}
	}
	return &exast.Tuple{Elems: elems}
}

func statePattern(names []string) exast.Pattern {
	if len(names) == 1 {
		return &exast.PVar{Name: names[0]}
	}
	elems := make([]exast.Pattern, len(names))
	for i, n := range names {
		elems[i] = &exast.PVar{Name: n}
	}
	return &exast.PTuple{Elems: elems}
}

// threadState lowers a conditional statement whose branches rebind outer
// variables as `{a, b} = if ... end`, each branch ending with the values.
func threadState(ctx *Context, s typed.Expr) exast.Node {
	var branches []typed.Expr
	switch n := s.(type) {
	case *typed.If:
		branches = []typed.Expr{n.Then, n.Else}
	case *typed.Switch:
		for _, c := range n.Cases {
			branches = append(branches, c.Body)
		}
		branches = append(branches, n.Default)
	default:
		return nil
	}
	var stmts []typed.Expr
	for _, b := range branches {
		if b != nil {
			stmts = append(stmts, b)
		}
	}
	vars := assignedOuter(stmts)
	if len(vars) == 0 {
		return nil
	}
	tail := branchTail{state: stateNames(ctx, vars)}

	var value exast.Node
	switch n := s.(type) {
	case *typed.If:
		value = lowerIf(ctx, n, tail)
	case *typed.Switch:
		value = lowerSwitch(ctx, n, tail)
	}
	m := &exast.Match{Pattern: statePattern(tail.state), Value: value}
	m.Pos = s.Position()
	m.LoopState = tail.state
	return m
}
