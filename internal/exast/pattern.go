package exast

// Pattern is the interface for match patterns. Patterns appear only on the
// left of =, in case/fn clauses and in comprehension generators.
type Pattern interface {
	pattern()
}

// PVar binds a variable.
type PVar struct {
	Name string
}

func (*PVar) pattern() {}

// PWildcard matches anything without binding. Name is "_" or an
// underscore-prefixed name such as "_reason".
type PWildcard struct {
	Name string
}

func (*PWildcard) pattern() {}

// PLiteral matches a literal value (atom, number, string, nil, boolean).
type PLiteral struct {
	Value Node
}

func (*PLiteral) pattern() {}

// PTuple matches a tuple element-wise.
type PTuple struct {
	Elems []Pattern
}

func (*PTuple) pattern() {}

// PList matches [elems | tail]; Tail is nil for a proper list.
type PList struct {
	Elems []Pattern
	Tail  Pattern
}

func (*PList) pattern() {}

// PMapPair is one key => pattern entry of a map pattern.
type PMapPair struct {
	Key   Node
	Value Pattern
}

// PMap matches %{key => pattern}.
type PMap struct {
	Pairs []*PMapPair
}

func (*PMap) pattern() {}

// PField is one field: pattern entry of a struct pattern.
type PField struct {
	Name  string
	Value Pattern
}

// PStruct matches %Module{field: pattern}.
type PStruct struct {
	Module string
	Fields []*PField
}

func (*PStruct) pattern() {}

// PPin matches the current value of a bound variable: ^name.
type PPin struct {
	Name string
}

func (*PPin) pattern() {}

// PAlias matches Pattern and also binds the whole value: pattern = name.
type PAlias struct {
	Pattern Pattern
	Name    string
}

func (*PAlias) pattern() {}

// Wildcard returns the bare wildcard pattern.
func Wildcard() *PWildcard { return &PWildcard{Name: "_"} }

// BoundNames returns the variable names a pattern binds, in order.
func BoundNames(p Pattern) []string {
	var names []string
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch x := p.(type) {
		case *PVar:
			names = append(names, x.Name)
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
				walk(pair.Value)
			}
		case *PStruct:
			for _, f := range x.Fields {
				walk(f.Value)
			}
		case *PAlias:
			walk(x.Pattern)
			names = append(names, x.Name)
		}
	}
	walk(p)
	return names
}
