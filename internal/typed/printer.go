package typed

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of a typed expression for
// debugging
func Print(e Expr) string {
	var sb strings.Builder
	printNode(&sb, e, 0)
	return sb.String()
}

// PrintUnit dumps every function of a unit.
func PrintUnit(u *Unit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Unit: %s\n", u.Module))
	for _, en := range u.Enums {
		sb.WriteString(fmt.Sprintf("  Enum: %s\n", en.Name))
		for _, c := range en.Ctors {
			names := make([]string, len(c.Params))
			for i, p := range c.Params {
				names[i] = p.Name + ": " + p.Type.String()
			}
			sb.WriteString(fmt.Sprintf("    %d %s(%s)\n", c.Index, c.Name, strings.Join(names, ", ")))
		}
	}
	for _, fn := range u.Functions {
		visibility := ""
		if fn.Public {
			visibility = " (public)"
		}
		sb.WriteString(fmt.Sprintf("  Function: %s%s\n", fn.Name, visibility))
		if len(fn.Params) > 0 {
			sb.WriteString("    Params:\n")
			for _, p := range fn.Params {
				sb.WriteString(fmt.Sprintf("      %s\n", varLabel(p)))
			}
		} else {
			sb.WriteString("    Params: none\n")
		}
		if fn.Body != nil {
			sb.WriteString("    Body:\n")
			printNode(&sb, fn.Body, 3)
		}
	}
	return sb.String()
}

func varLabel(v *Var) string {
	if v == nil {
		return "_"
	}
	label := fmt.Sprintf("%s#%d", v.Name, v.ID)
	if v.Generated {
		label += " (generated)"
	}
	return label
}

func printNode(sb *strings.Builder, node Expr, indent int) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Const:
		switch n.Kind {
		case ConstInt:
			sb.WriteString(fmt.Sprintf("%sConst: %d\n", prefix, n.Int))
		case ConstFloat:
			sb.WriteString(fmt.Sprintf("%sConst: %s\n", prefix, n.Float))
		case ConstString:
			sb.WriteString(fmt.Sprintf("%sConst: %q\n", prefix, n.Str))
		case ConstBool:
			sb.WriteString(fmt.Sprintf("%sConst: %t\n", prefix, n.Bool))
		case ConstNull:
			sb.WriteString(fmt.Sprintf("%sConst: null\n", prefix))
		case ConstThis:
			sb.WriteString(fmt.Sprintf("%sConst: this\n", prefix))
		}

	case *Local:
		sb.WriteString(fmt.Sprintf("%sLocal: %s\n", prefix, varLabel(n.Var)))

	case *VarDecl:
		sb.WriteString(fmt.Sprintf("%sVarDecl: %s\n", prefix, varLabel(n.Var)))
		printNode(sb, n.Init, indent+1)

	case *Assign:
		op := "="
		if n.Op != OpNone {
			op = n.Op.String() + "="
		}
		sb.WriteString(fmt.Sprintf("%sAssign: %s\n", prefix, op))
		sb.WriteString(fmt.Sprintf("%s  Target:\n", prefix))
		printNode(sb, n.Target, indent+2)
		sb.WriteString(fmt.Sprintf("%s  Value:\n", prefix))
		printNode(sb, n.Value, indent+2)

	case *Binary:
		sb.WriteString(fmt.Sprintf("%sBinary: %s\n", prefix, n.Op))
		printNode(sb, n.Left, indent+1)
		printNode(sb, n.Right, indent+1)

	case *Unary:
		fix := "prefix"
		if n.Postfix {
			fix = "postfix"
		}
		sb.WriteString(fmt.Sprintf("%sUnary: %s (%s)\n", prefix, n.Op, fix))
		printNode(sb, n.Operand, indent+1)

	case *Field:
		sb.WriteString(fmt.Sprintf("%sField: %s\n", prefix, n.Name))
		printNode(sb, n.Object, indent+1)

	case *Index:
		sb.WriteString(fmt.Sprintf("%sIndex\n", prefix))
		printNode(sb, n.Object, indent+1)
		printNode(sb, n.Index, indent+1)

	case *Call:
		sb.WriteString(fmt.Sprintf("%sCall\n", prefix))
		sb.WriteString(fmt.Sprintf("%s  Fn:\n", prefix))
		printNode(sb, n.Fn, indent+2)
		if len(n.Args) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Args:\n", prefix))
			for _, arg := range n.Args {
				printNode(sb, arg, indent+2)
			}
		} else {
			sb.WriteString(fmt.Sprintf("%s  Args: none\n", prefix))
		}

	case *New:
		sb.WriteString(fmt.Sprintf("%sNew: %s\n", prefix, n.Class))
		for _, arg := range n.Args {
			printNode(sb, arg, indent+1)
		}

	case *ArrayDecl:
		sb.WriteString(fmt.Sprintf("%sArrayDecl (%d)\n", prefix, len(n.Elems)))
		for _, el := range n.Elems {
			printNode(sb, el, indent+1)
		}

	case *ObjectDecl:
		sb.WriteString(fmt.Sprintf("%sObjectDecl\n", prefix))
		for _, f := range n.Fields {
			sb.WriteString(fmt.Sprintf("%s  %s:\n", prefix, f.Name))
			printNode(sb, f.Value, indent+2)
		}

	case *Paren:
		printNode(sb, n.Expr, indent)

	case *Block:
		sb.WriteString(fmt.Sprintf("%sBlock\n", prefix))
		for _, stmt := range n.Stmts {
			printNode(sb, stmt, indent+1)
		}

	case *If:
		sb.WriteString(fmt.Sprintf("%sIf\n", prefix))
		sb.WriteString(fmt.Sprintf("%s  Cond:\n", prefix))
		printNode(sb, n.Cond, indent+2)
		sb.WriteString(fmt.Sprintf("%s  Then:\n", prefix))
		printNode(sb, n.Then, indent+2)
		if n.Else != nil {
			sb.WriteString(fmt.Sprintf("%s  Else:\n", prefix))
			printNode(sb, n.Else, indent+2)
		}

	case *While:
		label := "While"
		if n.DoWhile {
			label = "DoWhile"
		}
		sb.WriteString(fmt.Sprintf("%s%s\n", prefix, label))
		sb.WriteString(fmt.Sprintf("%s  Cond:\n", prefix))
		printNode(sb, n.Cond, indent+2)
		sb.WriteString(fmt.Sprintf("%s  Body:\n", prefix))
		printNode(sb, n.Body, indent+2)

	case *For:
		if n.KeyVar != nil {
			sb.WriteString(fmt.Sprintf("%sFor: %s => %s\n", prefix, varLabel(n.KeyVar), varLabel(n.Var)))
		} else {
			sb.WriteString(fmt.Sprintf("%sFor: %s\n", prefix, varLabel(n.Var)))
		}
		sb.WriteString(fmt.Sprintf("%s  Iter:\n", prefix))
		printNode(sb, n.Iter, indent+2)
		sb.WriteString(fmt.Sprintf("%s  Body:\n", prefix))
		printNode(sb, n.Body, indent+2)

	case *Switch:
		sb.WriteString(fmt.Sprintf("%sSwitch\n", prefix))
		sb.WriteString(fmt.Sprintf("%s  Subject:\n", prefix))
		printNode(sb, n.Subject, indent+2)
		for _, c := range n.Cases {
			printCase(sb, c, indent+1)
		}
		if n.Default != nil {
			sb.WriteString(fmt.Sprintf("%s  Default:\n", prefix))
			printNode(sb, n.Default, indent+2)
		}

	case *EnumParam:
		ctor := ""
		if c := n.Enum.Ctor(n.Ctor); c != nil {
			ctor = c.Name
		}
		sb.WriteString(fmt.Sprintf("%sEnumParam: %s[%d]\n", prefix, ctor, n.Index))
		printNode(sb, n.Subject, indent+1)

	case *EnumIndex:
		sb.WriteString(fmt.Sprintf("%sEnumIndex\n", prefix))
		printNode(sb, n.Subject, indent+1)

	case *EnumCtor:
		ctor := ""
		if c := n.Enum.Ctor(n.Ctor); c != nil {
			ctor = c.Name
		}
		sb.WriteString(fmt.Sprintf("%sEnumCtor: %s\n", prefix, ctor))
		for _, arg := range n.Args {
			printNode(sb, arg, indent+1)
		}

	case *Func:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = varLabel(p)
		}
		sb.WriteString(fmt.Sprintf("%sFunc(%s)\n", prefix, strings.Join(names, ", ")))
		printNode(sb, n.Body, indent+1)

	case *Return:
		sb.WriteString(fmt.Sprintf("%sReturn\n", prefix))
		printNode(sb, n.Value, indent+1)

	case *Break:
		sb.WriteString(fmt.Sprintf("%sBreak\n", prefix))

	case *Continue:
		sb.WriteString(fmt.Sprintf("%sContinue\n", prefix))

	case *Throw:
		sb.WriteString(fmt.Sprintf("%sThrow\n", prefix))
		printNode(sb, n.Value, indent+1)

	case *Try:
		sb.WriteString(fmt.Sprintf("%sTry\n", prefix))
		printNode(sb, n.Body, indent+1)
		for _, c := range n.Catches {
			sb.WriteString(fmt.Sprintf("%s  Catch: %s\n", prefix, varLabel(c.Var)))
			printNode(sb, c.Body, indent+2)
		}

	case *Cast:
		printNode(sb, n.Expr, indent)

	case *TypeRef:
		sb.WriteString(fmt.Sprintf("%sTypeRef: %s\n", prefix, n.Name))

	case *Raw:
		sb.WriteString(fmt.Sprintf("%sRaw: %q\n", prefix, n.Code))

	default:
		sb.WriteString(fmt.Sprintf("%sUnknown node type: %T\n", prefix, node))
	}
}

func printCase(sb *strings.Builder, c *Case, indent int) {
	prefix := strings.Repeat("  ", indent)
	if c.Ctor != nil {
		name := "?"
		if ci := c.Ctor.Enum.Ctor(c.Ctor.Ctor); ci != nil {
			name = ci.Name
		}
		params := make([]string, len(c.Ctor.Params))
		for i, p := range c.Ctor.Params {
			params[i] = varLabel(p)
		}
		sb.WriteString(fmt.Sprintf("%sCase: %s(%s)\n", prefix, name, strings.Join(params, ", ")))
	} else {
		sb.WriteString(fmt.Sprintf("%sCase\n", prefix))
		for _, v := range c.Values {
			printNode(sb, v, indent+1)
		}
	}
	if c.Guard != nil {
		sb.WriteString(fmt.Sprintf("%s  Guard:\n", prefix))
		printNode(sb, c.Guard, indent+2)
	}
	sb.WriteString(fmt.Sprintf("%s  Body:\n", prefix))
	printNode(sb, c.Body, indent+2)
}
