package exast

// Children returns the direct child nodes of n, including nodes embedded in
// patterns (literal values and map keys). Nil children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(xs ...Node) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	addPattern := func(p Pattern) {
		add(patternNodes(p)...)
	}

	switch x := n.(type) {
	case *Module:
		for _, d := range x.Defs {
			add(d)
		}
	case *Def:
		for _, p := range x.Params {
			addPattern(p)
		}
		add(x.Guard, x.Body)
	case *Call:
		add(x.Target)
		add(x.Args...)
	case *AnonCall:
		add(x.Fun)
		add(x.Args...)
	case *Binary:
		add(x.Left, x.Right)
	case *Unary:
		add(x.Operand)
	case *Access:
		add(x.Target, x.Key)
	case *Dot:
		add(x.Target)
	case *Match:
		addPattern(x.Pattern)
		add(x.Value)
	case *Block:
		add(x.Exprs...)
	case *If:
		add(x.Cond, x.Then, x.Else)
	case *Case:
		add(x.Subject)
		for _, c := range x.Clauses {
			addPattern(c.Pattern)
			add(c.Guard, c.Body)
		}
	case *Try:
		add(x.Body)
		for _, c := range x.Rescue {
			addPattern(c.Pattern)
			add(c.Guard, c.Body)
		}
		add(x.After)
	case *Fn:
		for _, c := range x.Clauses {
			for _, p := range c.Params {
				addPattern(p)
			}
			add(c.Guard, c.Body)
		}
	case *For:
		for _, g := range x.Generators {
			addPattern(g.Pattern)
			add(g.Source)
		}
		add(x.Filters...)
		add(x.Into, x.Body)
	case *WhileLoop:
		add(x.Over)
		addPattern(x.Binding)
		add(x.Cond, x.Body)
	case *Range:
		add(x.First, x.Last, x.Step)
	case *List:
		add(x.Elems...)
		add(x.Tail)
	case *Tuple:
		add(x.Elems...)
	case *Map:
		add(x.Update)
		for _, p := range x.Pairs {
			add(p.Key, p.Value)
		}
	case *Struct:
		for _, f := range x.Fields {
			add(f.Value)
		}
	case *Keyword:
		for _, p := range x.Pairs {
			add(p.Value)
		}
	case *Raise:
		add(x.Value)
	}
	return out
}

func patternNodes(p Pattern) []Node {
	var out []Node
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch x := p.(type) {
		case *PLiteral:
			if x.Value != nil {
				out = append(out, x.Value)
			}
		case *PTuple:
			for _, e := range x.Elems {
				walk(e)
			}
		case *PList:
			for _, e := range x.Elems {
				walk(e)
			}
			if x.Tail != nil {
				walk(x.Tail)
			}
		case *PMap:
			for _, pair := range x.Pairs {
				if pair.Key != nil {
					out = append(out, pair.Key)
				}
				walk(pair.Value)
			}
		case *PStruct:
			for _, f := range x.Fields {
				walk(f.Value)
			}
		case *PAlias:
			walk(x.Pattern)
		}
	}
	walk(p)
	return out
}

// Inspect traverses n depth-first, calling f for each node. If f returns
// false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// References reports whether n reads the variable name anywhere.
func References(n Node, name string) bool {
	found := false
	Inspect(n, func(x Node) bool {
		if v, ok := x.(*Var); ok && v.Name == name {
			found = true
		}
		return !found
	})
	return found
}
