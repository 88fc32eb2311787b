package lower

import (
	"github.com/lhaig/exlower/internal/typed"
)

// walkReads calls f for every read of a local and every positional
// extraction under e. Targets of plain assignments are writes, not reads.
// Nodes in skip are not entered.
func walkReads(e typed.Expr, skip map[typed.Expr]bool, f func(typed.Expr)) {
	if e == nil || skip[e] {
		return
	}
	switch n := e.(type) {
	case *typed.Local:
		f(n)
		return
	case *typed.EnumParam:
		f(n)
	case *typed.Assign:
		if n.Op == typed.OpNone {
			if _, ok := typed.Unparen(n.Target).(*typed.Local); ok {
				walkReads(n.Value, skip, f)
				return
			}
		}
	}
	for _, c := range typed.Children(e) {
		walkReads(c, skip, f)
	}
}

func countReads(e typed.Expr) map[int]int {
	reads := make(map[int]int)
	walkReads(e, nil, func(x typed.Expr) {
		if l, ok := x.(*typed.Local); ok && l.Var != nil {
			reads[l.Var.ID]++
		}
	})
	return reads
}

// readsVar reports whether v is read under e outside skip.
func readsVar(e typed.Expr, v *typed.Var, skip map[typed.Expr]bool) bool {
	found := false
	walkReads(e, skip, func(x typed.Expr) {
		if l, ok := x.(*typed.Local); ok && l.Var != nil && l.Var.ID == v.ID {
			found = true
		}
	})
	return found
}

// declaredVars returns the variables e itself introduces.
func declaredVars(e typed.Expr) []*typed.Var {
	switch n := e.(type) {
	case *typed.VarDecl:
		return []*typed.Var{n.Var}
	case *typed.Func:
		return n.Params
	case *typed.For:
		if n.KeyVar != nil {
			return []*typed.Var{n.KeyVar, n.Var}
		}
		return []*typed.Var{n.Var}
	case *typed.Switch:
		var out []*typed.Var
		for _, c := range n.Cases {
			if c.Ctor != nil {
				for _, p := range c.Ctor.Params {
					if p != nil {
						out = append(out, p)
					}
				}
			}
		}
		return out
	case *typed.Try:
		var out []*typed.Var
		for _, c := range n.Catches {
			if c.Var != nil {
				out = append(out, c.Var)
			}
		}
		return out
	}
	return nil
}

// assignedOuter returns the variables assigned somewhere in stmts that are
// declared outside them, in order of first assignment. Closures are not
// entered: their assignments never reach the enclosing scope.
func assignedOuter(stmts []typed.Expr) []*typed.Var {
	inner := make(map[int]bool)
	for _, s := range stmts {
		typed.Inspect(s, func(e typed.Expr) bool {
			for _, v := range declaredVars(e) {
				inner[v.ID] = true
			}
			return true
		})
	}

	var out []*typed.Var
	seen := make(map[int]bool)
	add := func(v *typed.Var) {
		if v == nil || inner[v.ID] || seen[v.ID] {
			return
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	for _, s := range stmts {
		typed.Inspect(s, func(e typed.Expr) bool {
			switch n := e.(type) {
			case *typed.Func:
				return false
			case *typed.Assign:
				add(assignRoot(n.Target))
			case *typed.Unary:
				if n.Op == typed.OpIncrement || n.Op == typed.OpDecrement {
					add(assignRoot(n.Operand))
				}
			case *typed.Call:
				if v, _, ok := rebindTarget(n); ok {
					add(v)
				}
			}
			return true
		})
	}
	return out
}

// assignRoot returns the local an assignment to target rebinds: the local
// itself, the root of a field path, or the collection of an index.
func assignRoot(target typed.Expr) *typed.Var {
	switch t := typed.Unparen(target).(type) {
	case *typed.Local:
		return t.Var
	case *typed.Field:
		if root, _, ok := fieldPath(t); ok {
			return root
		}
	case *typed.Index:
		if l, ok := typed.Unparen(t.Object).(*typed.Local); ok {
			return l.Var
		}
	}
	return nil
}

// hasEscape reports whether stmts leave the loop they form the body of:
// a break or continue at this loop level, or a return at any depth.
func hasEscape(stmts []typed.Expr) bool {
	found := false
	var walk func(e typed.Expr, nested bool)
	walk = func(e typed.Expr, nested bool) {
		if e == nil || found {
			return
		}
		switch e.(type) {
		case *typed.Break, *typed.Continue:
			if !nested {
				found = true
			}
			return
		case *typed.Return:
			found = true
			return
		case *typed.Func:
			return
		case *typed.While, *typed.For:
			for _, c := range typed.Children(e) {
				walk(c, true)
			}
			return
		}
		for _, c := range typed.Children(e) {
			walk(c, nested)
		}
	}
	for _, s := range stmts {
		walk(s, false)
	}
	return found
}

// referencedIn reports whether any statement in stmts mentions v.
func referencedIn(stmts []typed.Expr, v *typed.Var) bool {
	for _, s := range stmts {
		if typed.CountRefs(s, v) > 0 {
			return true
		}
	}
	return false
}

// assignedIn reports whether any statement in stmts assigns v.
func assignedIn(stmts []typed.Expr, v *typed.Var) bool {
	for _, s := range stmts {
		if typed.Assigns(s, v) {
			return true
		}
	}
	return false
}

// scanTree walks root once before lowering so that helper walks never
// recurse forever. A node met again while it is still on the current path
// is a cycle; shared acyclic subtrees are allowed.
func scanTree(root typed.Expr, max int) (visits int, cyclic bool, path []string) {
	onPath := make(map[typed.Expr]bool)
	var stack []string
	var walk func(e typed.Expr) bool
	walk = func(e typed.Expr) bool {
		if e == nil {
			return true
		}
		visits++
		stack = append(stack, frameLabel(e))
		if onPath[e] {
			cyclic = true
			path = tail(stack)
			return false
		}
		if visits > max {
			path = tail(stack)
			return false
		}
		onPath[e] = true
		for _, c := range typed.Children(e) {
			if !walk(c) {
				return false
			}
		}
		onPath[e] = false
		stack = stack[:len(stack)-1]
		return true
	}
	walk(root)
	return visits, cyclic, path
}
