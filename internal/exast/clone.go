package exast

// Clone returns a structural deep copy of n. Metadata is copied by value;
// the LoopState slice is copied so the two trees never share storage.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	switch x := n.(type) {
	case *Module:
		c := &Module{Meta: cloneMeta(x.Meta), Name: x.Name}
		for _, d := range x.Defs {
			c.Defs = append(c.Defs, Clone(d).(*Def))
		}
		return c
	case *Def:
		return &Def{Meta: cloneMeta(x.Meta), Name: x.Name, Private: x.Private,
			Params: clonePatterns(x.Params), Guard: Clone(x.Guard), Body: Clone(x.Body)}
	case *Atom:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Integer:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Float:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *String:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Boolean:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Nil:
		return &Nil{Meta: cloneMeta(x.Meta)}
	case *Var:
		return &Var{Meta: cloneMeta(x.Meta), Name: x.Name}
	case *Call:
		return &Call{Meta: cloneMeta(x.Meta), Module: x.Module, Target: Clone(x.Target), Name: x.Name, Args: cloneNodes(x.Args)}
	case *AnonCall:
		return &AnonCall{Meta: cloneMeta(x.Meta), Fun: Clone(x.Fun), Args: cloneNodes(x.Args)}
	case *Binary:
		return &Binary{Meta: cloneMeta(x.Meta), Op: x.Op, Left: Clone(x.Left), Right: Clone(x.Right)}
	case *Unary:
		return &Unary{Meta: cloneMeta(x.Meta), Op: x.Op, Operand: Clone(x.Operand)}
	case *Access:
		return &Access{Meta: cloneMeta(x.Meta), Target: Clone(x.Target), Key: Clone(x.Key)}
	case *Dot:
		return &Dot{Meta: cloneMeta(x.Meta), Target: Clone(x.Target), Field: x.Field}
	case *Match:
		return &Match{Meta: cloneMeta(x.Meta), Pattern: ClonePattern(x.Pattern), Value: Clone(x.Value)}
	case *Block:
		return &Block{Meta: cloneMeta(x.Meta), Exprs: cloneNodes(x.Exprs)}
	case *If:
		return &If{Meta: cloneMeta(x.Meta), Cond: Clone(x.Cond), Then: Clone(x.Then), Else: Clone(x.Else), Unless: x.Unless}
	case *Case:
		return &Case{Meta: cloneMeta(x.Meta), Subject: Clone(x.Subject), Clauses: cloneClauses(x.Clauses)}
	case *Try:
		return &Try{Meta: cloneMeta(x.Meta), Body: Clone(x.Body), Rescue: cloneClauses(x.Rescue), After: Clone(x.After)}
	case *Fn:
		c := &Fn{Meta: cloneMeta(x.Meta)}
		for _, cl := range x.Clauses {
			c.Clauses = append(c.Clauses, &FnClause{Params: clonePatterns(cl.Params), Guard: Clone(cl.Guard), Body: Clone(cl.Body)})
		}
		return c
	case *For:
		c := &For{Meta: cloneMeta(x.Meta), Filters: cloneNodes(x.Filters), Into: Clone(x.Into), Body: Clone(x.Body)}
		for _, g := range x.Generators {
			c.Generators = append(c.Generators, &Generator{Pattern: ClonePattern(g.Pattern), Source: Clone(g.Source)})
		}
		return c
	case *WhileLoop:
		return &WhileLoop{Meta: cloneMeta(x.Meta), Cond: Clone(x.Cond), Body: Clone(x.Body), DoWhile: x.DoWhile,
			Over: Clone(x.Over), Binding: ClonePattern(x.Binding)}
	case *LoopControl:
		return &LoopControl{Meta: cloneMeta(x.Meta), Halt: x.Halt}
	case *Range:
		return &Range{Meta: cloneMeta(x.Meta), First: Clone(x.First), Last: Clone(x.Last), Step: Clone(x.Step)}
	case *List:
		return &List{Meta: cloneMeta(x.Meta), Elems: cloneNodes(x.Elems), Tail: Clone(x.Tail)}
	case *Tuple:
		return &Tuple{Meta: cloneMeta(x.Meta), Elems: cloneNodes(x.Elems)}
	case *Map:
		c := &Map{Meta: cloneMeta(x.Meta), Update: Clone(x.Update)}
		for _, p := range x.Pairs {
			c.Pairs = append(c.Pairs, &Pair{Key: Clone(p.Key), Value: Clone(p.Value)})
		}
		return c
	case *Struct:
		c := &Struct{Meta: cloneMeta(x.Meta), Module: x.Module}
		for _, f := range x.Fields {
			c.Fields = append(c.Fields, &StructField{Name: f.Name, Value: Clone(f.Value)})
		}
		return c
	case *Keyword:
		c := &Keyword{Meta: cloneMeta(x.Meta)}
		for _, p := range x.Pairs {
			c.Pairs = append(c.Pairs, &KeywordPair{Key: p.Key, Value: Clone(p.Value)})
		}
		return c
	case *Raise:
		return &Raise{Meta: cloneMeta(x.Meta), Value: Clone(x.Value)}
	case *Raw:
		return &Raw{Meta: cloneMeta(x.Meta), Code: x.Code}
	case *Placeholder:
		return &Placeholder{Meta: cloneMeta(x.Meta), Message: x.Message}
	}
	return n
}

// ClonePattern returns a deep copy of p.
func ClonePattern(p Pattern) Pattern {
	switch x := p.(type) {
	case nil:
		return nil
	case *PVar:
		return &PVar{Name: x.Name}
	case *PWildcard:
		return &PWildcard{Name: x.Name}
	case *PLiteral:
		return &PLiteral{Value: Clone(x.Value)}
	case *PTuple:
		return &PTuple{Elems: clonePatterns(x.Elems)}
	case *PList:
		return &PList{Elems: clonePatterns(x.Elems), Tail: ClonePattern(x.Tail)}
	case *PMap:
		c := &PMap{}
		for _, pair := range x.Pairs {
			c.Pairs = append(c.Pairs, &PMapPair{Key: Clone(pair.Key), Value: ClonePattern(pair.Value)})
		}
		return c
	case *PStruct:
		c := &PStruct{Module: x.Module}
		for _, f := range x.Fields {
			c.Fields = append(c.Fields, &PField{Name: f.Name, Value: ClonePattern(f.Value)})
		}
		return c
	case *PPin:
		return &PPin{Name: x.Name}
	case *PAlias:
		return &PAlias{Pattern: ClonePattern(x.Pattern), Name: x.Name}
	}
	return p
}

func cloneMeta(m Meta) Meta {
	if m.LoopState != nil {
		m.LoopState = append([]string(nil), m.LoopState...)
	}
	return m
}

func cloneNodes(ns []Node) []Node {
	if ns == nil {
		return nil
	}
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = Clone(n)
	}
	return out
}

func clonePatterns(ps []Pattern) []Pattern {
	if ps == nil {
		return nil
	}
	out := make([]Pattern, len(ps))
	for i, p := range ps {
		out[i] = ClonePattern(p)
	}
	return out
}

func cloneClauses(cs []*Clause) []*Clause {
	if cs == nil {
		return nil
	}
	out := make([]*Clause, len(cs))
	for i, c := range cs {
		out[i] = &Clause{Pattern: ClonePattern(c.Pattern), Guard: Clone(c.Guard), Body: Clone(c.Body)}
	}
	return out
}
