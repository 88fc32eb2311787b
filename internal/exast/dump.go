package exast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump returns an indented tree view of n for debugging. Loop metadata
// (intent, threaded state, fallback) is shown next to the node it marks.
func Dump(n Node) string {
	var sb strings.Builder
	dumpNode(&sb, n, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, n Node, indent int) {
	if n == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	sb.WriteString(prefix)
	sb.WriteString(label(n))
	if m := n.Metadata(); m != nil {
		if m.Intent != "" {
			sb.WriteString(" [intent=" + m.Intent + "]")
		}
		if len(m.LoopState) > 0 {
			sb.WriteString(" [state=" + strings.Join(m.LoopState, ",") + "]")
		}
		if m.Fallback {
			sb.WriteString(" [fallback]")
		}
	}
	sb.WriteString("\n")

	switch x := n.(type) {
	case *Def:
		dumpNode(sb, x.Guard, indent+1)
		dumpNode(sb, x.Body, indent+1)
	case *Match:
		dumpNode(sb, x.Value, indent+1)
	case *Case:
		dumpNode(sb, x.Subject, indent+1)
		dumpClauses(sb, x.Clauses, indent+1)
	case *Try:
		dumpNode(sb, x.Body, indent+1)
		if len(x.Rescue) > 0 {
			sb.WriteString(prefix + "  Rescue:\n")
			dumpClauses(sb, x.Rescue, indent+2)
		}
		if x.After != nil {
			sb.WriteString(prefix + "  After:\n")
			dumpNode(sb, x.After, indent+2)
		}
	case *Fn:
		for _, c := range x.Clauses {
			params := make([]string, len(c.Params))
			for i, p := range c.Params {
				params[i] = patternString(p)
			}
			sb.WriteString(fmt.Sprintf("%s  Clause: (%s)\n", prefix, strings.Join(params, ", ")))
			dumpGuard(sb, c.Guard, indent+2)
			dumpNode(sb, c.Body, indent+2)
		}
	case *For:
		for _, g := range x.Generators {
			sb.WriteString(fmt.Sprintf("%s  Generator: %s <-\n", prefix, patternString(g.Pattern)))
			dumpNode(sb, g.Source, indent+2)
		}
		for _, f := range x.Filters {
			sb.WriteString(prefix + "  Filter:\n")
			dumpNode(sb, f, indent+2)
		}
		if x.Into != nil {
			sb.WriteString(prefix + "  Into:\n")
			dumpNode(sb, x.Into, indent+2)
		}
		dumpNode(sb, x.Body, indent+1)
	case *WhileLoop:
		if x.Over != nil {
			sb.WriteString(fmt.Sprintf("%s  Over: %s <-\n", prefix, patternString(x.Binding)))
			dumpNode(sb, x.Over, indent+2)
		}
		if x.Cond != nil {
			sb.WriteString(prefix + "  Cond:\n")
			dumpNode(sb, x.Cond, indent+2)
		}
		dumpNode(sb, x.Body, indent+1)
	default:
		for _, c := range Children(n) {
			dumpNode(sb, c, indent+1)
		}
	}
}

func dumpClauses(sb *strings.Builder, clauses []*Clause, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, c := range clauses {
		sb.WriteString(fmt.Sprintf("%sClause: %s\n", prefix, patternString(c.Pattern)))
		dumpGuard(sb, c.Guard, indent+1)
		dumpNode(sb, c.Body, indent+1)
	}
}

func dumpGuard(sb *strings.Builder, guard Node, indent int) {
	if guard == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", indent) + "When:\n")
	dumpNode(sb, guard, indent+1)
}

func label(n Node) string {
	switch x := n.(type) {
	case *Module:
		return "Module: " + x.Name
	case *Def:
		kind := "def"
		if x.Private {
			kind = "defp"
		}
		params := make([]string, len(x.Params))
		for i, p := range x.Params {
			params[i] = patternString(p)
		}
		return fmt.Sprintf("Def: %s %s(%s)", kind, x.Name, strings.Join(params, ", "))
	case *Atom:
		return "Atom: :" + x.Name
	case *Integer:
		return "Integer: " + strconv.FormatInt(x.Value, 10)
	case *Float:
		return "Float: " + x.Text
	case *String:
		return "String: " + strconv.Quote(x.Value)
	case *Boolean:
		return "Boolean: " + strconv.FormatBool(x.Value)
	case *Nil:
		return "Nil"
	case *Var:
		return "Var: " + x.Name
	case *Call:
		name := x.Name
		if x.Module != "" {
			name = x.Module + "." + name
		}
		return "Call: " + name
	case *AnonCall:
		return "AnonCall"
	case *Binary:
		return "Binary: " + x.Op
	case *Unary:
		return "Unary: " + x.Op
	case *Access:
		return "Access"
	case *Dot:
		return "Dot: " + x.Field
	case *Match:
		return "Match: " + patternString(x.Pattern)
	case *Block:
		return "Block"
	case *If:
		if x.Unless {
			return "Unless"
		}
		return "If"
	case *Case:
		return "Case"
	case *Try:
		return "Try"
	case *Fn:
		return "Fn"
	case *For:
		return "For"
	case *WhileLoop:
		if x.DoWhile {
			return "WhileLoop (do)"
		}
		return "WhileLoop"
	case *LoopControl:
		if x.Halt {
			return "LoopControl: halt"
		}
		return "LoopControl: cont"
	case *Range:
		return "Range"
	case *List:
		return "List"
	case *Tuple:
		return "Tuple"
	case *Map:
		return "Map"
	case *Struct:
		return "Struct: " + x.Module
	case *Keyword:
		keys := make([]string, len(x.Pairs))
		for i, p := range x.Pairs {
			keys[i] = p.Key
		}
		return "Keyword: " + strings.Join(keys, ", ")
	case *Raise:
		return "Raise"
	case *Raw:
		return "Raw: " + x.Code
	case *Placeholder:
		return "Placeholder: " + x.Message
	}
	return fmt.Sprintf("%T", n)
}

// patternString renders a pattern compactly. Literal values show their
// label rather than target syntax.
func patternString(p Pattern) string {
	switch x := p.(type) {
	case nil:
		return "<nil>"
	case *PVar:
		return x.Name
	case *PWildcard:
		return x.Name
	case *PPin:
		return "^" + x.Name
	case *PLiteral:
		if a, ok := x.Value.(*Atom); ok {
			return ":" + a.Name
		}
		return "(" + label(x.Value) + ")"
	case *PTuple:
		return "{" + joinPatterns(x.Elems) + "}"
	case *PList:
		s := "[" + joinPatterns(x.Elems)
		if x.Tail != nil {
			s += " | " + patternString(x.Tail)
		}
		return s + "]"
	case *PMap:
		pairs := make([]string, len(x.Pairs))
		for i, pp := range x.Pairs {
			pairs[i] = "(" + label(pp.Key) + ") => " + patternString(pp.Value)
		}
		return "%{" + strings.Join(pairs, ", ") + "}"
	case *PStruct:
		fields := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = f.Name + ": " + patternString(f.Value)
		}
		return "%" + x.Module + "{" + strings.Join(fields, ", ") + "}"
	case *PAlias:
		return patternString(x.Pattern) + " = " + x.Name
	}
	return fmt.Sprintf("%T", p)
}

func joinPatterns(ps []Pattern) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = patternString(p)
	}
	return strings.Join(parts, ", ")
}
