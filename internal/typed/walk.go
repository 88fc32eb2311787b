package typed

// Children returns the direct child expressions of e in evaluation order.
// Nil children are omitted.
func Children(e Expr) []Expr {
	var out []Expr
	add := func(xs ...Expr) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}

	switch n := e.(type) {
	case *VarDecl:
		add(n.Init)
	case *Assign:
		add(n.Target, n.Value)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Field:
		add(n.Object)
	case *Index:
		add(n.Object, n.Index)
	case *Call:
		add(n.Fn)
		add(n.Args...)
	case *New:
		add(n.Args...)
	case *ArrayDecl:
		add(n.Elems...)
	case *ObjectDecl:
		for _, f := range n.Fields {
			add(f.Value)
		}
	case *Paren:
		add(n.Expr)
	case *Block:
		add(n.Stmts...)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *While:
		add(n.Cond, n.Body)
	case *For:
		add(n.Iter, n.Body)
	case *Switch:
		add(n.Subject)
		for _, c := range n.Cases {
			add(c.Values...)
			add(c.Guard, c.Body)
		}
		add(n.Default)
	case *EnumParam:
		add(n.Subject)
	case *EnumIndex:
		add(n.Subject)
	case *EnumCtor:
		add(n.Args...)
	case *Func:
		add(n.Body)
	case *Return:
		add(n.Value)
	case *Throw:
		add(n.Value)
	case *Try:
		add(n.Body)
		for _, c := range n.Catches {
			add(c.Body)
		}
	case *Cast:
		add(n.Expr)
	}
	return out
}

// Inspect traverses e depth-first, calling f for each node. If f returns
// false, the children of that node are skipped.
func Inspect(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, f)
	}
}

// CountRefs returns how many Local references to v occur inside e.
func CountRefs(e Expr, v *Var) int {
	if v == nil {
		return 0
	}
	n := 0
	Inspect(e, func(x Expr) bool {
		if l, ok := x.(*Local); ok && l.Var != nil && l.Var.ID == v.ID {
			n++
		}
		return true
	})
	return n
}

// Assigns reports whether e contains an assignment, increment or decrement
// whose target is v.
func Assigns(e Expr, v *Var) bool {
	found := false
	Inspect(e, func(x Expr) bool {
		if found {
			return false
		}
		switch n := x.(type) {
		case *Assign:
			if IsLocalOf(n.Target, v) {
				found = true
			}
		case *Unary:
			if (n.Op == OpIncrement || n.Op == OpDecrement) && IsLocalOf(n.Operand, v) {
				found = true
			}
		}
		return !found
	})
	return found
}

// IsLocalOf reports whether e is a (possibly parenthesized) reference to v.
func IsLocalOf(e Expr, v *Var) bool {
	l, ok := Unparen(e).(*Local)
	return ok && v != nil && l.Var != nil && l.Var.ID == v.ID
}

// Unparen strips Paren and Cast wrappers.
func Unparen(e Expr) Expr {
	for {
		switch n := e.(type) {
		case *Paren:
			e = n.Expr
		case *Cast:
			e = n.Expr
		default:
			return e
		}
	}
}

// Stmts returns the statements of e when it is a Block and e itself
// otherwise.
func Stmts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(*Block); ok {
		return b.Stmts
	}
	return []Expr{e}
}

// SameRef reports whether a and b denote the same storage location: the
// same local, or the same field path rooted at the same local.
func SameRef(a, b Expr) bool {
	a, b = Unparen(a), Unparen(b)
	switch x := a.(type) {
	case *Local:
		y, ok := b.(*Local)
		return ok && x.Var != nil && y.Var != nil && x.Var.ID == y.Var.ID
	case *Field:
		y, ok := b.(*Field)
		return ok && x.Name == y.Name && SameRef(x.Object, y.Object)
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Kind == ConstThis && y.Kind == ConstThis
	}
	return false
}
