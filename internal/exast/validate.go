package exast

import (
	"fmt"
)

// Validate checks a lowered module against the output contract and returns
// a list of error messages. An empty slice indicates the module is valid.
//
// Checked: required children are non-nil, no node occupies two tree
// positions, and no match rebinds a variable to itself.
func Validate(mod *Module) []string {
	v := &validator{seen: make(map[Node]string)}
	if mod == nil {
		return []string{"nil module"}
	}
	for _, d := range mod.Defs {
		if d == nil {
			v.errorf("module %s: nil def", mod.Name)
			continue
		}
		context := fmt.Sprintf("def %s/%d", d.Name, len(d.Params))
		if d.Body == nil {
			v.errorf("%s: nil body", context)
		}
		v.node(d, context)
	}
	return v.errors
}

// ValidateNode applies the same checks to a single subtree.
func ValidateNode(n Node) []string {
	v := &validator{seen: make(map[Node]string)}
	v.node(n, "node")
	return v.errors
}

type validator struct {
	errors []string
	seen   map[Node]string
}

func (v *validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) node(n Node, context string) {
	if n == nil {
		v.errorf("%s: nil node", context)
		return
	}
	if first, dup := v.seen[n]; dup {
		v.errorf("%s: %T shared with %s", context, n, first)
		return
	}
	v.seen[n] = context

	switch x := n.(type) {
	case *Match:
		if x.Pattern == nil {
			v.errorf("%s: Match has nil Pattern", context)
		}
		if x.Value == nil {
			v.errorf("%s: Match has nil Value", context)
		}
		if pv, ok := x.Pattern.(*PVar); ok {
			if rv, ok := x.Value.(*Var); ok && rv.Name == pv.Name {
				v.errorf("%s: self-binding %s = %s", context, pv.Name, rv.Name)
			}
		}
	case *Binary:
		if x.Left == nil || x.Right == nil {
			v.errorf("%s: Binary %s has nil operand", context, x.Op)
		}
	case *Unary:
		if x.Operand == nil {
			v.errorf("%s: Unary %s has nil operand", context, x.Op)
		}
	case *Call:
		if x.Name == "" {
			v.errorf("%s: Call has empty name", context)
		}
		v.nilArgs(x.Args, context)
	case *AnonCall:
		if x.Fun == nil {
			v.errorf("%s: AnonCall has nil Fun", context)
		}
		v.nilArgs(x.Args, context)
	case *Access:
		if x.Target == nil || x.Key == nil {
			v.errorf("%s: Access has nil child", context)
		}
	case *Dot:
		if x.Target == nil {
			v.errorf("%s: Dot has nil Target", context)
		}
	case *Block:
		v.nilArgs(x.Exprs, context)
	case *If:
		if x.Cond == nil || x.Then == nil {
			v.errorf("%s: If has nil Cond or Then", context)
		}
	case *Case:
		if x.Subject == nil {
			v.errorf("%s: Case has nil Subject", context)
		}
		for i, c := range x.Clauses {
			if c.Pattern == nil || c.Body == nil {
				v.errorf("%s: Case clause %d has nil Pattern or Body", context, i)
			}
		}
	case *Fn:
		if len(x.Clauses) == 0 {
			v.errorf("%s: Fn has no clauses", context)
		}
		for i, c := range x.Clauses {
			if c.Body == nil {
				v.errorf("%s: Fn clause %d has nil Body", context, i)
			}
		}
	case *For:
		if len(x.Generators) == 0 {
			v.errorf("%s: For has no generators", context)
		}
		if x.Body == nil {
			v.errorf("%s: For has nil Body", context)
		}
	case *WhileLoop:
		if (x.Cond == nil && x.Over == nil) || x.Body == nil {
			v.errorf("%s: WhileLoop has nil Cond or Body", context)
		}
		if x.Over != nil && x.Binding == nil {
			v.errorf("%s: WhileLoop over a collection has nil Binding", context)
		}
	case *Range:
		if x.First == nil || x.Last == nil {
			v.errorf("%s: Range has nil bound", context)
		}
	case *List:
		v.nilArgs(x.Elems, context)
	case *Tuple:
		v.nilArgs(x.Elems, context)
	case *Raise:
		if x.Value == nil {
			v.errorf("%s: Raise has nil Value", context)
		}
	}

	for i, c := range Children(n) {
		v.node(c, fmt.Sprintf("%s > %s[%d]", context, kindName(n), i))
	}
}

func (v *validator) nilArgs(ns []Node, context string) {
	for i, n := range ns {
		if n == nil {
			v.errorf("%s: element %d is nil", context, i)
		}
	}
}

// Placeholders returns every placeholder node in n, in tree order.
func Placeholders(n Node) []*Placeholder {
	var out []*Placeholder
	Inspect(n, func(x Node) bool {
		if p, ok := x.(*Placeholder); ok {
			out = append(out, p)
		}
		return true
	})
	return out
}

func kindName(n Node) string {
	s := fmt.Sprintf("%T", n)
	if len(s) > len("*exast.") {
		return s[len("*exast."):]
	}
	return s
}
