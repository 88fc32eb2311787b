package lower

import (
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// lowerIf lowers a conditional. An if without else becomes unless when its
// condition is a negation. tail is appended to both branches, so a missing
// else is materialized whenever the tail carries statements or state.
func lowerIf(ctx *Context, n *typed.If, tail branchTail) exast.Node {
	node := &exast.If{Then: tail.lower(ctx, n.Then)}
	node.Pos = n.Pos
	node.Type = n.Type
	if n.Else != nil || !tail.empty() {
		node.Else = tail.lower(ctx, n.Else)
	}
	if u, ok := typed.Unparen(n.Cond).(*typed.Unary); ok && u.Op == typed.OpNot && node.Else == nil {
		node.Cond = lowerExpr(ctx, u.Operand)
		node.Unless = true
		return node
	}
	node.Cond = lowerExpr(ctx, n.Cond)
	return node
}

// lowerSwitch lowers a switch to a case expression. Constructor cases are
// planned before their bodies are lowered: the clause pattern binds each
// parameter once, and the extractions the plan proved redundant disappear
// from the body.
func lowerSwitch(ctx *Context, sw *typed.Switch, tail branchTail) exast.Node {
	subject := typed.Unparen(sw.Subject)
	byIndex := false
	if ei, ok := subject.(*typed.EnumIndex); ok {
		subject = typed.Unparen(ei.Subject)
		byIndex = true
	}
	var enum *typed.EnumInfo
	if t := subject.ExprType(); t != nil {
		enum = t.Enum
	}

	node := &exast.Case{Subject: lowerExpr(ctx, subject)}
	node.Pos = sw.Pos
	node.Type = sw.Type

	covered := make(map[int]bool)
	valueCases := false
	for _, c := range sw.Cases {
		patterns := ctorPatterns(c, byIndex, enum)
		if len(patterns) == 0 {
			valueCases = true
			node.Clauses = append(node.Clauses, valueClause(ctx, c, tail))
			continue
		}
		for _, cp := range patterns {
			node.Clauses = append(node.Clauses, ctorClause(ctx, subject, cp, c, tail))
			if c.Guard == nil {
				covered[cp.Ctor] = true
			}
		}
	}

	switch {
	case sw.Default != nil:
		node.Clauses = append(node.Clauses, &exast.Clause{Pattern: exast.Wildcard(), Body: tail.lower(ctx, sw.Default)})
	case valueCases || enum == nil || len(covered) < len(enum.Ctors):
		// Source switches fall through silently; case raises.
		node.Clauses = append(node.Clauses, &exast.Clause{Pattern: exast.Wildcard(), Body: tail.lower(ctx, nil)})
	}
	return node
}

// ctorPatterns returns the constructor patterns a case matches. Cases on an
// index-wrapped subject may name constructors by their integer index.
func ctorPatterns(c *typed.Case, byIndex bool, enum *typed.EnumInfo) []*typed.CtorPattern {
	if c.Ctor != nil {
		return []*typed.CtorPattern{c.Ctor}
	}
	if !byIndex || enum == nil || len(c.Values) == 0 {
		return nil
	}
	var out []*typed.CtorPattern
	for _, v := range c.Values {
		k, ok := typed.Unparen(v).(*typed.Const)
		if !ok || k.Kind != typed.ConstInt || enum.Ctor(int(k.Int)) == nil {
			return nil
		}
		out = append(out, &typed.CtorPattern{Enum: enum, Ctor: int(k.Int)})
	}
	return out
}

func ctorClause(ctx *Context, subject typed.Expr, cp *typed.CtorPattern, c *typed.Case, tail branchTail) *exast.Clause {
	if cp.Enum.Ctor(cp.Ctor) == nil {
		ctx.errorf(c.Pos, "unknown constructor %d of %s", cp.Ctor, cp.Enum.Name)
		return &exast.Clause{Pattern: exast.Wildcard(), Body: &exast.Placeholder{Message: "unknown constructor"}}
	}
	p := planClause(ctx, subject, cp, c.Guard, c.Body)
	defer ctx.pushPlan(p)()

	cl := &exast.Clause{Pattern: p.pattern(ctx)}
	if c.Guard != nil {
		cl.Guard = lowerExpr(ctx, c.Guard)
	}
	cl.Body = tail.lower(ctx, c.Body)
	ctx.log.Debug("clause planned", "function", ctx.function, "ctor", cp.Enum.Ctor(cp.Ctor).Name, "renamed", len(p.renames), "elided", len(p.redundant))
	return cl
}

// valueClause matches literal values directly, pins locals, and falls back
// to a guard for any other value expression.
func valueClause(ctx *Context, c *typed.Case, tail branchTail) *exast.Clause {
	var guard exast.Node
	if c.Guard != nil {
		guard = lowerExpr(ctx, c.Guard)
	}
	cl := &exast.Clause{}

	literals := lowerArgs(ctx, c.Values)
	switch {
	case len(literals) == 1 && isLiteral(literals[0]):
		cl.Pattern = &exast.PLiteral{Value: literals[0]}
	case len(literals) == 1:
		if l, ok := typed.Unparen(c.Values[0]).(*typed.Local); ok {
			cl.Pattern = &exast.PPin{Name: ctx.NameOf(l.Var)}
			break
		}
		name := uniqueName("value", ctx.taken)
		cl.Pattern = &exast.PVar{Name: name}
		guard = andGuard(&exast.Binary{Op: "==", Left: &exast.Var{Name: name}, Right: literals[0]}, guard)
	default:
		name := uniqueName("value", ctx.taken)
		cl.Pattern = &exast.PVar{Name: name}
		guard = andGuard(&exast.Binary{Op: "in", Left: &exast.Var{Name: name}, Right: &exast.List{Elems: literals}}, guard)
	}
	cl.Guard = guard
	cl.Body = tail.lower(ctx, c.Body)
	return cl
}

func andGuard(match, guard exast.Node) exast.Node {
	if guard == nil {
		return match
	}
	return &exast.Binary{Op: "and", Left: match, Right: guard}
}

func isLiteral(n exast.Node) bool {
	switch n.(type) {
	case *exast.Integer, *exast.Float, *exast.String, *exast.Boolean, *exast.Nil, *exast.Atom:
		return true
	}
	return false
}
