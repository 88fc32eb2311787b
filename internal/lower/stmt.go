package lower

import (
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// lowerStmt lowers one statement. It returns no nodes when the statement is
// elided and more than one when a source statement needs several target
// bindings (x = c++ becomes x = c; c = c + 1).
func lowerStmt(ctx *Context, e typed.Expr) []exast.Node {
	leave := ctx.enter(e)
	defer leave()

	switch n := e.(type) {
	case *typed.VarDecl:
		return lowerVarDecl(ctx, n)
	case *typed.Assign:
		return lowerAssign(ctx, n)
	case *typed.Unary:
		if n.Op == typed.OpIncrement || n.Op == typed.OpDecrement {
			if l, ok := typed.Unparen(n.Operand).(*typed.Local); ok {
				return []exast.Node{step(ctx, l.Var, n.Op, n.Pos)}
			}
		}
	case *typed.Block:
		return lowerStmts(ctx, n.Stmts)
	case *typed.Call:
		if nodes, ok := lowerMutatingCall(ctx, n); ok {
			return nodes
		}
	case *typed.Paren:
		return lowerStmt(ctx, n.Expr)
	}
	return []exast.Node{lowerExpr(ctx, e)}
}

// step builds v = v + 1 or v = v - 1.
func step(ctx *Context, v *typed.Var, op typed.UnaryOp, pos typed.Pos) *exast.Match {
	name := ctx.NameOf(v)
	sym := "+"
	if op == typed.OpDecrement {
		sym = "-"
	}
	m := &exast.Match{
		Pattern: &exast.PVar{Name: name},
		Value:   &exast.Binary{Op: sym, Left: &exast.Var{Name: name}, Right: &exast.Integer{Value: 1}},
	}
	m.Pos = pos
	return m
}

func lowerVarDecl(ctx *Context, d *typed.VarDecl) []exast.Node {
	if ctx.isRedundant(d) {
		ctx.log.Debug("extraction elided", "function", ctx.function, "var", d.Var.Name, "name", ctx.NameOf(d.Var))
		return nil
	}
	name := ctx.NameOf(d.Var)
	if d.Init == nil {
		// Only bind when something reads it; branches may assign it later.
		if !ctx.Used(d.Var) {
			return nil
		}
		return []exast.Node{bind(name, &exast.Nil{}, d.Pos)}
	}

	init := typed.Unparen(d.Init)
	switch n := init.(type) {
	case *typed.EnumParam:
		if nodes, handled := lowerExtraction(ctx, d, n); handled {
			return nodes
		}
	case *typed.Local:
		if ctx.NameOf(n.Var) == name {
			ctx.log.Debug("self-binding elided", "function", ctx.function, "name", name)
			return nil
		}
	case *typed.Unary:
		if n.Op == typed.OpIncrement || n.Op == typed.OpDecrement {
			if l, ok := typed.Unparen(n.Operand).(*typed.Local); ok {
				read := bind(name, &exast.Var{Name: ctx.NameOf(l.Var)}, d.Pos)
				inc := step(ctx, l.Var, n.Op, d.Pos)
				if n.Postfix {
					return []exast.Node{read, inc}
				}
				return []exast.Node{inc, bind(name, &exast.Var{Name: ctx.NameOf(l.Var)}, d.Pos)}
			}
		}
	}
	return []exast.Node{bind(name, lowerExpr(ctx, d.Init), d.Pos)}
}

func bind(name string, value exast.Node, pos typed.Pos) *exast.Match {
	m := &exast.Match{Pattern: &exast.PVar{Name: name}, Value: value}
	m.Pos = pos
	return m
}

// lowerExtraction handles `var t = subject.params[i]` that the enclosing
// clause plans did not claim. It reports whether it produced the result.
func lowerExtraction(ctx *Context, d *typed.VarDecl, ep *typed.EnumParam) ([]exast.Node, bool) {
	p := ctx.planFor(ep.Subject)
	if p == nil || p.reassigned {
		return nil, false
	}
	if p.covers(ep) {
		if e := p.entries[ep.Index]; e.Name != "" {
			p.renames[d.Var.ID] = e.Name
			return nil, true
		}
	}

	ctor := ep.Enum.Ctor(ep.Ctor)
	label := ep.Enum.Name
	if ctor != nil {
		label += "." + ctor.Name
	}
	if l, ok := typed.Unparen(ep.Subject).(*typed.Local); ok && ctx.IsInfrastructure(l.Var) && !ctx.Used(d.Var) {
		ctx.warnf(d.Pos, "unused extraction %s[%d] from internal temporary %s elided", label, ep.Index, l.Var.Name)
		return nil, true
	}
	ctx.warnf(d.Pos, "extraction %s[%d] does not match the enclosing clause pattern; kept", label, ep.Index)
	return []exast.Node{bind(ctx.NameOf(d.Var), elemCall(ctx, ep), d.Pos)}, true
}

func lowerAssign(ctx *Context, a *typed.Assign) []exast.Node {
	switch t := typed.Unparen(a.Target).(type) {
	case *typed.Local:
		name := ctx.NameOf(t.Var)
		if a.Op == typed.OpNone {
			if l, ok := typed.Unparen(a.Value).(*typed.Local); ok && ctx.NameOf(l.Var) == name {
				ctx.log.Debug("self-assignment elided", "function", ctx.function, "name", name)
				return nil
			}
			return []exast.Node{bind(name, lowerExpr(ctx, a.Value), a.Pos)}
		}
		value := binaryNode(ctx, a.Op, &exast.Var{Name: name}, lowerExpr(ctx, a.Value), t.ExprType(), a.Value.ExprType())
		return []exast.Node{bind(name, value, a.Pos)}

	case *typed.Field:
		root, path, ok := fieldPath(t)
		if !ok {
			break
		}
		name := ctx.NameOf(root)
		value := lowerExpr(ctx, a.Value)
		if a.Op != typed.OpNone {
			value = binaryNode(ctx, a.Op, lowerExpr(ctx, t), value, t.ExprType(), a.Value.ExprType())
		}
		var update exast.Node
		if len(path) == 1 {
			update = &exast.Map{
				Update: &exast.Var{Name: name},
				Pairs:  []*exast.Pair{{Key: &exast.Atom{Name: VarName(path[0])}, Value: value}},
			}
		} else {
			var target exast.Node = &exast.Var{Name: name}
			for _, f := range path {
				target = &exast.Dot{Target: target, Field: VarName(f)}
			}
			update = &exast.Call{Name: "put_in", Args: []exast.Node{target, value}}
		}
		return []exast.Node{bind(name, update, a.Pos)}

	case *typed.Index:
		l, ok := typed.Unparen(t.Object).(*typed.Local)
		if !ok {
			break
		}
		name := ctx.NameOf(l.Var)
		value := lowerExpr(ctx, a.Value)
		if a.Op != typed.OpNone {
			value = binaryNode(ctx, a.Op, lowerExpr(ctx, t), value, t.ExprType(), a.Value.ExprType())
		}
		key := lowerExpr(ctx, t.Index)
		var update exast.Node
		if l.Var.Type.IsMap() {
			update = &exast.Call{Module: "Map", Name: "put", Args: []exast.Node{&exast.Var{Name: name}, key, value}}
		} else {
			update = &exast.Call{Module: "List", Name: "replace_at", Args: []exast.Node{&exast.Var{Name: name}, key, value}}
		}
		return []exast.Node{bind(name, update, a.Pos)}
	}

	ctx.errorf(a.Pos, "cannot lower assignment to %s", frameLabel(a.Target))
	return []exast.Node{&exast.Placeholder{Message: "unsupported assignment target " + frameLabel(a.Target)}}
}

// fieldPath splits a.b.c into the root local and the field names.
func fieldPath(f *typed.Field) (*typed.Var, []string, bool) {
	var path []string
	var e typed.Expr = f
	for {
		switch n := typed.Unparen(e).(type) {
		case *typed.Field:
			if n.Static {
				return nil, nil, false
			}
			path = append([]string{n.Name}, path...)
			e = n.Object
		case *typed.Local:
			return n.Var, path, true
		default:
			return nil, nil, false
		}
	}
}

// rebindTarget matches an in-place collection update on a local that the
// target has to express as a rebinding of that local.
func rebindTarget(c *typed.Call) (*typed.Var, *typed.Field, bool) {
	f, ok := typed.Unparen(c.Fn).(*typed.Field)
	if !ok || f.Static {
		return nil, nil, false
	}
	l, ok := typed.Unparen(f.Object).(*typed.Local)
	if !ok {
		return nil, nil, false
	}
	t := l.Var.Type
	switch {
	case t.IsArray() && (f.Name == "push" || f.Name == "unshift") && len(c.Args) == 1,
		t.IsMap() && f.Name == "set" && len(c.Args) == 2,
		t.IsMap() && f.Name == "remove" && len(c.Args) == 1:
		return l.Var, f, true
	}
	return nil, nil, false
}

// lowerMutatingCall rewrites in-place collection updates on a local as a
// rebinding: a.push(x) becomes a = a ++ [x].
func lowerMutatingCall(ctx *Context, c *typed.Call) ([]exast.Node, bool) {
	v, f, ok := rebindTarget(c)
	if !ok {
		return nil, false
	}
	name := ctx.NameOf(v)
	self := &exast.Var{Name: name}
	args := lowerArgs(ctx, c.Args)

	var value exast.Node
	switch f.Name {
	case "push":
		value = &exast.Binary{Op: "++", Left: self, Right: &exast.List{Elems: args}}
	case "unshift":
		value = &exast.List{Elems: args, Tail: self}
	case "set":
		value = &exast.Call{Module: "Map", Name: "put", Args: append([]exast.Node{self}, args...)}
	case "remove":
		value = &exast.Call{Module: "Map", Name: "delete", Args: append([]exast.Node{self}, args...)}
	}
	return []exast.Node{bind(name, value, c.Pos)}, true
}
