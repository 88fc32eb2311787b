// Package exprint renders the target syntax tree as Elixir source.
package exprint

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lhaig/exlower/internal/exast"
)

// Print renders a whole module.
func Print(mod *exast.Module) string {
	p := &printer{}
	p.emitLinef("defmodule %s do", mod.Name)
	p.incIndent()
	for i, d := range mod.Defs {
		if i > 0 {
			p.emitLine("")
		}
		p.def(d)
	}
	p.decIndent()
	p.emitLine("end")
	return p.sb.String()
}

// PrintNode renders a single node as it would appear at the top level of a
// function body.
func PrintNode(n exast.Node) string {
	p := &printer{}
	return p.expr(n)
}

// PrintPattern renders a pattern.
func PrintPattern(pat exast.Pattern) string {
	p := &printer{}
	return p.pattern(pat)
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) emitLine(s string) {
	if s == "" {
		p.sb.WriteString("\n")
		return
	}
	p.sb.WriteString(p.indentStr())
	p.sb.WriteString(s)
	p.sb.WriteString("\n")
}

func (p *printer) emitLinef(format string, args ...any) {
	p.emitLine(fmt.Sprintf(format, args...))
}

func (p *printer) incIndent() { p.indent++ }
func (p *printer) decIndent() { p.indent-- }

func (p *printer) indentStr() string {
	return strings.Repeat("  ", p.indent)
}

func (p *printer) def(d *exast.Def) {
	kw := "def"
	if d.Private {
		kw = "defp"
	}
	head := kw + " " + d.Name
	if len(d.Params) > 0 {
		head += "(" + p.patterns(d.Params) + ")"
	}
	if d.Guard != nil {
		head += " when " + p.expr(d.Guard)
	}
	p.emitLine(head + " do")
	p.sb.WriteString(p.block(d.Body))
	p.sb.WriteString("\n")
	p.emitLine("end")
}

// block renders n as a statement sequence one level deeper than the
// current indentation. Every line carries its own indentation; there is no
// trailing newline.
func (p *printer) block(n exast.Node) string {
	p.incIndent()
	defer p.decIndent()
	var exprs []exast.Node
	if b, ok := n.(*exast.Block); ok {
		exprs = b.Exprs
	} else {
		exprs = []exast.Node{n}
	}
	if len(exprs) == 0 {
		exprs = []exast.Node{&exast.Nil{}}
	}
	lines := make([]string, len(exprs))
	for i, e := range exprs {
		lines[i] = p.indentStr() + p.expr(e)
	}
	return strings.Join(lines, "\n")
}

// expr renders n in value position. The first line has no indentation;
// continuation lines are indented absolutely.
func (p *printer) expr(n exast.Node) string {
	switch x := n.(type) {
	case nil:
		return "nil"
	case *exast.Atom:
		return atom(x.Name)
	case *exast.Integer:
		return strconv.FormatInt(x.Value, 10)
	case *exast.Float:
		return floatLiteral(x.Text)
	case *exast.String:
		return quote(x.Value)
	case *exast.Boolean:
		return strconv.FormatBool(x.Value)
	case *exast.Nil:
		return "nil"
	case *exast.Var:
		return x.Name
	case *exast.Call:
		return p.call(x)
	case *exast.AnonCall:
		fun := p.expr(x.Fun)
		if _, ok := x.Fun.(*exast.Var); !ok {
			fun = "(" + fun + ")"
		}
		return fun + ".(" + p.args(x.Args) + ")"
	case *exast.Binary:
		return p.binary(x)
	case *exast.Unary:
		operand := p.expr(x.Operand)
		if needsParens(x.Operand) {
			operand = "(" + operand + ")"
		}
		if x.Op == "not" {
			return "not " + operand
		}
		return x.Op + operand
	case *exast.Access:
		return p.operand(x.Target) + "[" + p.expr(x.Key) + "]"
	case *exast.Dot:
		return p.operand(x.Target) + "." + x.Field
	case *exast.Match:
		return p.pattern(x.Pattern) + " = " + p.expr(x.Value)
	case *exast.Block:
		return p.parenBlock(x)
	case *exast.If:
		return p.ifExpr(x)
	case *exast.Case:
		return p.caseExpr(x)
	case *exast.Try:
		return p.tryExpr(x)
	case *exast.Fn:
		return p.fn(x)
	case *exast.For:
		return p.forExpr(x)
	case *exast.WhileLoop:
		return p.whileLoop(x)
	case *exast.LoopControl:
		// Only meaningful inside a structural loop body.
		if x.Halt {
			return ":halt"
		}
		return ":cont"
	case *exast.Range:
		s := p.operand(x.First) + ".." + p.operand(x.Last)
		if x.Step != nil {
			s += "//" + p.operand(x.Step)
		}
		return s
	case *exast.List:
		s := "[" + p.args(x.Elems)
		if x.Tail != nil {
			s += " | " + p.expr(x.Tail)
		}
		return s + "]"
	case *exast.Tuple:
		return "{" + p.args(x.Elems) + "}"
	case *exast.Map:
		return p.mapExpr(x)
	case *exast.Struct:
		fields := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = f.Name + ": " + p.expr(f.Value)
		}
		return "%" + x.Module + "{" + strings.Join(fields, ", ") + "}"
	case *exast.Keyword:
		pairs := make([]string, len(x.Pairs))
		for i, kp := range x.Pairs {
			pairs[i] = keyword(kp.Key) + " " + p.expr(kp.Value)
		}
		return "[" + strings.Join(pairs, ", ") + "]"
	case *exast.Raise:
		return "raise " + p.expr(x.Value)
	case *exast.Raw:
		return x.Code
	case *exast.Placeholder:
		return "raise " + quote("unlowered: "+x.Message)
	case *exast.Module:
		return strings.TrimRight(Print(x), "\n")
	}
	return fmt.Sprintf("raise %q", fmt.Sprintf("unprintable %T", n))
}

func (p *printer) args(nodes []exast.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = p.expr(n)
	}
	return strings.Join(parts, ", ")
}

// operand renders n where a tight-binding position needs it atomic.
func (p *printer) operand(n exast.Node) string {
	s := p.expr(n)
	if needsParens(n) {
		return "(" + s + ")"
	}
	return s
}

func needsParens(n exast.Node) bool {
	switch x := n.(type) {
	case *exast.Binary, *exast.Match, *exast.Range:
		return true
	case *exast.Integer:
		return x.Value < 0
	case *exast.Unary:
		return true
	}
	return false
}

func (p *printer) call(c *exast.Call) string {
	if c.Module == "Enum" && c.Name == "each" && len(c.LoopState) > 0 && len(c.Args) == 2 {
		if fn, ok := c.Args[1].(*exast.Fn); ok && len(fn.Clauses) == 1 {
			return p.reduce(c, fn.Clauses[0])
		}
	}
	name := c.Name
	switch {
	case c.Module != "":
		name = c.Module + "." + c.Name
	case c.Target != nil:
		name = p.operand(c.Target) + "." + c.Name
	}
	return name + "(" + p.args(c.Args) + ")"
}

// reduce renders a loop that rebinds outer variables as Enum.reduce over
// the loop state, rebinding the state afterwards.
func (p *printer) reduce(c *exast.Call, clause *exast.FnClause) string {
	state := stateValue(c.LoopState)
	body := appendExpr(clause.Body, state)
	params := append(append([]exast.Pattern(nil), clause.Params...), statePattern(c.LoopState))
	fn := &exast.Fn{Clauses: []*exast.FnClause{{Params: params, Body: body}}}
	call := "Enum.reduce(" + p.expr(c.Args[0]) + ", " + p.expr(state) + ", " + p.fn(fn) + ")"
	return p.pattern(statePattern(c.LoopState)) + " = " + call
}

func stateValue(names []string) exast.Node {
	if len(names) == 1 {
		return &exast.Var{Name: names[0]}
	}
	elems := make([]exast.Node, len(names))
	for i, n := range names {
		elems[i] = &exast.Var{Name: n}
	}
	return &exast.Tuple{Elems: elems}
}

func statePattern(names []string) exast.Pattern {
	if len(names) == 1 {
		return &exast.PVar{Name: names[0]}
	}
	elems := make([]exast.Pattern, len(names))
	for i, n := range names {
		elems[i] = &exast.PVar{Name: n}
	}
	return &exast.PTuple{Elems: elems}
}

// appendExpr returns body followed by last as one block, without touching body.
func appendExpr(body, last exast.Node) exast.Node {
	var exprs []exast.Node
	switch b := body.(type) {
	case *exast.Block:
		exprs = append(exprs, b.Exprs...)
	case *exast.Nil, nil:
	default:
		exprs = append(exprs, b)
	}
	exprs = append(exprs, last)
	if len(exprs) == 1 {
		return last
	}
	return &exast.Block{Exprs: exprs}
}

var binaryPrec = map[string]int{
	"||": 3, "or": 3,
	"&&": 4, "and": 4,
	"==": 5, "!=": 5, "===": 5, "!==": 5,
	"<": 6, ">": 6, "<=": 6, ">=": 6,
	"in": 7,
	"++": 8, "<>": 8, "--": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10,
}

func (p *printer) binary(b *exast.Binary) string {
	prec := binaryPrec[b.Op]
	side := func(n exast.Node, right bool) string {
		s := p.expr(n)
		switch c := n.(type) {
		case *exast.Binary:
			cp := binaryPrec[c.Op]
			if cp < prec || (cp == prec && right) {
				return "(" + s + ")"
			}
		case *exast.Match, *exast.If, *exast.Case:
			return "(" + s + ")"
		}
		return s
	}
	return side(b.Left, false) + " " + b.Op + " " + side(b.Right, true)
}

func (p *printer) parenBlock(b *exast.Block) string {
	if len(b.Exprs) == 1 {
		return p.expr(b.Exprs[0])
	}
	return "(\n" + p.block(b) + "\n" + p.indentStr() + ")"
}

func (p *printer) ifExpr(x *exast.If) string {
	kw := "if"
	if x.Unless {
		kw = "unless"
	}
	s := kw + " " + p.expr(x.Cond) + " do\n" + p.block(x.Then)
	if x.Else != nil {
		s += "\n" + p.indentStr() + "else\n" + p.block(x.Else)
	}
	return s + "\n" + p.indentStr() + "end"
}

func (p *printer) caseExpr(x *exast.Case) string {
	var sb strings.Builder
	sb.WriteString("case " + p.expr(x.Subject) + " do")
	p.incIndent()
	for _, c := range x.Clauses {
		sb.WriteString("\n" + p.indentStr() + p.clause(c))
	}
	p.decIndent()
	sb.WriteString("\n" + p.indentStr() + "end")
	return sb.String()
}

// clause renders `pattern [when guard] -> body`, keeping one-line bodies on
// the arrow line.
func (p *printer) clause(c *exast.Clause) string {
	head := p.pattern(c.Pattern)
	if c.Guard != nil {
		head += " when " + p.expr(c.Guard)
	}
	return head + " ->" + p.arrowBody(c.Body)
}

func (p *printer) arrowBody(body exast.Node) string {
	if _, ok := body.(*exast.Block); !ok {
		p.incIndent()
		s := p.expr(body)
		p.decIndent()
		if !strings.Contains(s, "\n") {
			return " " + s
		}
	}
	return "\n" + p.block(body)
}

func (p *printer) tryExpr(x *exast.Try) string {
	s := "try do\n" + p.block(x.Body)
	if len(x.Rescue) > 0 {
		s += "\n" + p.indentStr() + "rescue"
		p.incIndent()
		for _, c := range x.Rescue {
			s += "\n" + p.indentStr() + p.clause(c)
		}
		p.decIndent()
	}
	if x.After != nil {
		s += "\n" + p.indentStr() + "after\n" + p.block(x.After)
	}
	return s + "\n" + p.indentStr() + "end"
}

func (p *printer) fn(x *exast.Fn) string {
	if len(x.Clauses) == 1 {
		c := x.Clauses[0]
		head := "fn " + p.patterns(c.Params)
		if len(c.Params) == 0 {
			head = "fn"
		}
		if c.Guard != nil {
			head += " when " + p.expr(c.Guard)
		}
		if _, ok := c.Body.(*exast.Block); !ok {
			s := p.expr(c.Body)
			if !strings.Contains(s, "\n") {
				return head + " -> " + s + " end"
			}
		}
		return head + " ->\n" + p.block(c.Body) + "\n" + p.indentStr() + "end"
	}
	var sb strings.Builder
	sb.WriteString("fn")
	p.incIndent()
	for _, c := range x.Clauses {
		head := p.patterns(c.Params)
		if c.Guard != nil {
			head += " when " + p.expr(c.Guard)
		}
		sb.WriteString("\n" + p.indentStr() + head + " ->" + p.arrowBody(c.Body))
	}
	p.decIndent()
	sb.WriteString("\n" + p.indentStr() + "end")
	return sb.String()
}

func (p *printer) forExpr(x *exast.For) string {
	parts := make([]string, 0, len(x.Generators)+len(x.Filters)+1)
	for _, g := range x.Generators {
		parts = append(parts, p.pattern(g.Pattern)+" <- "+p.expr(g.Source))
	}
	for _, f := range x.Filters {
		parts = append(parts, p.expr(f))
	}
	if x.Into != nil {
		parts = append(parts, "into: "+p.expr(x.Into))
	}
	head := "for " + strings.Join(parts, ", ")
	if _, ok := x.Body.(*exast.Block); !ok {
		s := p.expr(x.Body)
		if !strings.Contains(s, "\n") {
			return head + ", do: " + s
		}
	}
	return head + " do\n" + p.block(x.Body) + "\n" + p.indentStr() + "end"
}

func (p *printer) mapExpr(x *exast.Map) string {
	pairs := make([]string, len(x.Pairs))
	atomKeys := true
	for _, kv := range x.Pairs {
		if a, ok := kv.Key.(*exast.Atom); !ok || !simpleAtom.MatchString(a.Name) {
			atomKeys = false
		}
	}
	for i, kv := range x.Pairs {
		if atomKeys {
			pairs[i] = keyword(kv.Key.(*exast.Atom).Name) + " " + p.expr(kv.Value)
		} else {
			pairs[i] = p.expr(kv.Key) + " => " + p.expr(kv.Value)
		}
	}
	body := strings.Join(pairs, ", ")
	if x.Update != nil {
		return "%{" + p.expr(x.Update) + " | " + body + "}"
	}
	return "%{" + body + "}"
}

func (p *printer) patterns(pats []exast.Pattern) string {
	parts := make([]string, len(pats))
	for i, pat := range pats {
		parts[i] = p.pattern(pat)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) pattern(pat exast.Pattern) string {
	switch x := pat.(type) {
	case *exast.PVar:
		return x.Name
	case *exast.PWildcard:
		if x.Name == "" {
			return "_"
		}
		return x.Name
	case *exast.PLiteral:
		return p.expr(x.Value)
	case *exast.PTuple:
		return "{" + p.patterns(x.Elems) + "}"
	case *exast.PList:
		s := "[" + p.patterns(x.Elems)
		if x.Tail != nil {
			s += " | " + p.pattern(x.Tail)
		}
		return s + "]"
	case *exast.PMap:
		pairs := make([]string, len(x.Pairs))
		for i, kv := range x.Pairs {
			if a, ok := kv.Key.(*exast.Atom); ok && simpleAtom.MatchString(a.Name) {
				pairs[i] = keyword(a.Name) + " " + p.pattern(kv.Value)
			} else {
				pairs[i] = p.expr(kv.Key) + " => " + p.pattern(kv.Value)
			}
		}
		return "%{" + strings.Join(pairs, ", ") + "}"
	case *exast.PStruct:
		fields := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = f.Name + ": " + p.pattern(f.Value)
		}
		return "%" + x.Module + "{" + strings.Join(fields, ", ") + "}"
	case *exast.PPin:
		return "^" + x.Name
	case *exast.PAlias:
		return p.pattern(x.Pattern) + " = " + x.Name
	}
	return "_"
}

var simpleAtom = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]*[?!]?$`)

func atom(name string) string {
	if simpleAtom.MatchString(name) {
		return ":" + name
	}
	return ":" + quote(name)
}

var plainFloat = regexp.MustCompile(`^-?[0-9]+\.[0-9]+(e-?[0-9]+)?$`)

// floatLiteral returns text in a form Elixir reads as a float: a digit on
// both sides of the point and no exponent sign other than minus. Text that
// is already in that form is kept as written.
func floatLiteral(text string) string {
	if plainFloat.MatchString(text) {
		return text
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return text
	}
	mant, exp, ok := strings.Cut(strconv.FormatFloat(v, 'g', -1, 64), "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	if !ok {
		return mant
	}
	n, _ := strconv.Atoi(exp)
	return mant + "e" + strconv.Itoa(n)
}

func keyword(name string) string {
	if simpleAtom.MatchString(name) {
		return name + ":"
	}
	return quote(name) + ":"
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '#':
			if i+1 < len(s) && s[i+1] == '{' {
				sb.WriteString(`\#`)
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
