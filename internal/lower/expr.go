package lower

import (
	"math"
	"strconv"

	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// lowerExpr lowers e in value position. It never returns nil: constructs
// without a lowering rule become placeholders with an error diagnostic.
func lowerExpr(ctx *Context, e typed.Expr) exast.Node {
	if e == nil {
		return &exast.Nil{}
	}
	leave := ctx.enter(e)
	defer leave()

	node := lowerExprKind(ctx, e)
	if m := node.Metadata(); m.Pos == (typed.Pos{}) {
		m.Pos = e.Position()
		if m.Type == nil {
			m.Type = e.ExprType()
		}
	}
	return node
}

func lowerExprKind(ctx *Context, e typed.Expr) exast.Node {
	switch n := e.(type) {
	case *typed.Const:
		return lowerConst(ctx, n)
	case *typed.Local:
		return &exast.Var{Name: ctx.NameOf(n.Var)}
	case *typed.VarDecl, *typed.Assign, *typed.Block:
		nodes := lowerStmt(ctx, e)
		if len(nodes) == 0 {
			return &exast.Nil{}
		}
		return blockOf(nodes)
	case *typed.Paren:
		return lowerExpr(ctx, n.Expr)
	case *typed.Cast:
		return lowerExpr(ctx, n.Expr)
	case *typed.Binary:
		return lowerBinary(ctx, n)
	case *typed.Unary:
		return lowerUnary(ctx, n)
	case *typed.Field:
		return lowerField(ctx, n)
	case *typed.Index:
		return lowerIndex(ctx, n)
	case *typed.Call:
		return lowerCall(ctx, n)
	case *typed.New:
		return &exast.Call{Module: n.Class, Name: "new", Args: lowerArgs(ctx, n.Args)}
	case *typed.ArrayDecl:
		return &exast.List{Elems: lowerArgs(ctx, n.Elems)}
	case *typed.ObjectDecl:
		m := &exast.Map{}
		for _, f := range n.Fields {
			m.Pairs = append(m.Pairs, &exast.Pair{Key: &exast.Atom{Name: VarName(f.Name)}, Value: lowerExpr(ctx, f.Value)})
		}
		return m
	case *typed.If:
		return lowerIf(ctx, n, branchTail{})
	case *typed.Switch:
		return lowerSwitch(ctx, n, branchTail{})
	case *typed.While:
		return lowerWhile(ctx, n)
	case *typed.For:
		return lowerFor(ctx, n)
	case *typed.EnumParam:
		return lowerEnumParam(ctx, n)
	case *typed.EnumIndex:
		return lowerEnumIndex(ctx, n)
	case *typed.EnumCtor:
		return ctorValue(n.Enum, n.Ctor, lowerArgs(ctx, n.Args))
	case *typed.Func:
		return lowerFunc(ctx, n)
	case *typed.Return:
		if ctx.loopDepth > 0 {
			ctx.errorf(n.Pos, "return inside a loop body cannot be expressed")
			return &exast.Placeholder{Message: "return inside loop"}
		}
		if n.Value == nil {
			return &exast.Nil{}
		}
		return lowerExpr(ctx, n.Value)
	case *typed.Throw:
		return &exast.Raise{Value: lowerExpr(ctx, n.Value)}
	case *typed.Try:
		return lowerTry(ctx, n)
	case *typed.TypeRef:
		return &exast.Raw{Code: n.Name}
	case *typed.Raw:
		return &exast.Raw{Code: n.Code}
	case *typed.Break, *typed.Continue:
		ctx.errorf(e.Position(), "%s outside a structural loop position", frameLabel(e))
		return &exast.Placeholder{Message: "unsupported " + frameLabel(e)}
	}
	ctx.errorf(e.Position(), "no lowering rule for %T", e)
	return &exast.Placeholder{Message: "unsupported " + frameLabel(e)}
}

func lowerConst(ctx *Context, c *typed.Const) exast.Node {
	switch c.Kind {
	case typed.ConstInt:
		return &exast.Integer{Value: c.Int}
	case typed.ConstFloat:
		v, err := strconv.ParseFloat(c.Float, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			ctx.errorf(c.Position(), "float literal %q has no Elixir form", c.Float)
			return &exast.Placeholder{Message: "float " + c.Float}
		}
		return &exast.Float{Text: c.Float}
	case typed.ConstString:
		return &exast.String{Value: c.Str}
	case typed.ConstBool:
		return &exast.Boolean{Value: c.Bool}
	case typed.ConstThis:
		return &exast.Var{Name: "struct"}
	}
	return &exast.Nil{}
}

func lowerArgs(ctx *Context, args []typed.Expr) []exast.Node {
	if len(args) == 0 {
		return nil
	}
	out := make([]exast.Node, len(args))
	for i, a := range args {
		out[i] = lowerExpr(ctx, a)
	}
	return out
}

var binaryOps = map[typed.BinaryOp]string{
	typed.OpAdd:   "+",
	typed.OpSub:   "-",
	typed.OpMul:   "*",
	typed.OpDiv:   "/",
	typed.OpEq:    "==",
	typed.OpNotEq: "!=",
	typed.OpLt:    "<",
	typed.OpLte:   "<=",
	typed.OpGt:    ">",
	typed.OpGte:   ">=",
	typed.OpAnd:   "&&",
	typed.OpOr:    "||",
}

var bitwiseOps = map[typed.BinaryOp]string{
	typed.OpBitAnd: "band",
	typed.OpBitOr:  "bor",
	typed.OpBitXor: "bxor",
	typed.OpShl:    "bsl",
	typed.OpShr:    "bsr",
}

func lowerBinary(ctx *Context, b *typed.Binary) exast.Node {
	switch b.Op {
	case typed.OpInterval:
		return rangeNode(ctx, b.Left, b.Right, true)
	case typed.OpNullCoal:
		// case a do nil -> b; value -> value end evaluates a once.
		name := uniqueName("value", ctx.taken)
		return &exast.Case{
			Subject: lowerExpr(ctx, b.Left),
			Clauses: []*exast.Clause{
				{Pattern: &exast.PLiteral{Value: &exast.Nil{}}, Body: lowerExpr(ctx, b.Right)},
				{Pattern: &exast.PVar{Name: name}, Body: &exast.Var{Name: name}},
			},
		}
	}
	left := lowerExpr(ctx, b.Left)
	right := lowerExpr(ctx, b.Right)
	return binaryNode(ctx, b.Op, left, right, b.Left.ExprType(), b.Right.ExprType())
}

// binaryNode applies op to already lowered operands, choosing the Elixir
// spelling from the operand types.
func binaryNode(ctx *Context, op typed.BinaryOp, left, right exast.Node, lt, rt *typed.Type) exast.Node {
	switch op {
	case typed.OpAdd:
		if lt.IsString() || rt.IsString() {
			return &exast.Binary{Op: "<>", Left: stringify(left, lt), Right: stringify(right, rt)}
		}
		if lt.IsArray() {
			return &exast.Binary{Op: "++", Left: left, Right: right}
		}
	case typed.OpDiv:
		if lt.IsInt() && rt.IsInt() {
			return &exast.Binary{Op: "/", Left: left, Right: right}
		}
	case typed.OpMod:
		return &exast.Call{Name: "rem", Args: []exast.Node{left, right}}
	}
	if name, ok := bitwiseOps[op]; ok {
		return &exast.Call{Module: "Bitwise", Name: name, Args: []exast.Node{left, right}}
	}
	if sym, ok := binaryOps[op]; ok {
		return &exast.Binary{Op: sym, Left: left, Right: right}
	}
	return &exast.Placeholder{Message: "unsupported operator " + op.String()}
}

// stringify converts a non-string operand of <> to a string.
func stringify(n exast.Node, t *typed.Type) exast.Node {
	if t.IsString() {
		return n
	}
	if _, ok := n.(*exast.String); ok {
		return n
	}
	return &exast.Call{Name: "to_string", Args: []exast.Node{n}}
}

func lowerUnary(ctx *Context, u *typed.Unary) exast.Node {
	switch u.Op {
	case typed.OpNot:
		return &exast.Unary{Op: "!", Operand: lowerExpr(ctx, u.Operand)}
	case typed.OpNeg:
		if c, ok := typed.Unparen(u.Operand).(*typed.Const); ok && c.Kind == typed.ConstInt {
			return &exast.Integer{Value: -c.Int}
		}
		return &exast.Unary{Op: "-", Operand: lowerExpr(ctx, u.Operand)}
	case typed.OpBitNot:
		return &exast.Call{Module: "Bitwise", Name: "bnot", Args: []exast.Node{lowerExpr(ctx, u.Operand)}}
	}
	// ++ and -- only have a target form as statements.
	ctx.errorf(u.Pos, "%s used as a value", u.Op)
	return &exast.Placeholder{Message: "increment used as a value"}
}

func lowerField(ctx *Context, f *typed.Field) exast.Node {
	if ref, ok := typed.Unparen(f.Object).(*typed.TypeRef); ok {
		return &exast.Call{Module: ref.Name, Name: FuncName(f.Name)}
	}
	obj := lowerExpr(ctx, f.Object)
	ot := f.Object.ExprType()
	if f.Name == "length" {
		switch {
		case ot.IsString():
			return &exast.Call{Module: "String", Name: "length", Args: []exast.Node{obj}}
		case ot.IsArray():
			return &exast.Call{Name: "length", Args: []exast.Node{obj}}
		}
	}
	return &exast.Dot{Target: obj, Field: VarName(f.Name)}
}

func lowerIndex(ctx *Context, ix *typed.Index) exast.Node {
	if name, ok := ctx.element(ix); ok {
		return &exast.Var{Name: name}
	}
	obj := lowerExpr(ctx, ix.Object)
	key := lowerExpr(ctx, ix.Index)
	switch ot := ix.Object.ExprType(); {
	case ot.IsArray():
		return &exast.Call{Module: "Enum", Name: "at", Args: []exast.Node{obj, key}}
	case ot.IsMap():
		return &exast.Call{Module: "Map", Name: "get", Args: []exast.Node{obj, key}}
	}
	return &exast.Access{Target: obj, Key: key}
}

// method maps a source method on a receiver kind to a remote call taking
// the receiver first.
type method struct {
	module string
	name   string
}

var arrayMethods = map[string]method{
	"concat":   {"", "++"},
	"join":     {"Enum", "join"},
	"map":      {"Enum", "map"},
	"filter":   {"Enum", "filter"},
	"contains": {"Enum", "member?"},
	"indexOf":  {"Enum", "find_index"},
	"copy":     {"", ""},
	"reverse":  {"Enum", "reverse"},
	"slice":    {"Enum", "slice"},
}

var stringMethods = map[string]method{
	"toUpperCase": {"String", "upcase"},
	"toLowerCase": {"String", "downcase"},
	"split":       {"String", "split"},
	"charAt":      {"String", "at"},
	"substr":      {"String", "slice"},
	"trim":        {"String", "trim"},
}

var mapMethods = map[string]method{
	"get":    {"Map", "get"},
	"exists": {"Map", "has_key?"},
	"keys":   {"Map", "keys"},
	"copy":   {"", ""},
}

func lowerCall(ctx *Context, c *typed.Call) exast.Node {
	args := lowerArgs(ctx, c.Args)
	switch fn := typed.Unparen(c.Fn).(type) {
	case *typed.Field:
		if ref, ok := typed.Unparen(fn.Object).(*typed.TypeRef); ok {
			if ref.Name == ctx.module {
				return &exast.Call{Name: FuncName(fn.Name), Args: args}
			}
			return &exast.Call{Module: ref.Name, Name: FuncName(fn.Name), Args: args}
		}
		return lowerMethodCall(ctx, fn, c, args)
	case *typed.Local:
		return &exast.AnonCall{Fun: &exast.Var{Name: ctx.NameOf(fn.Var)}, Args: args}
	case *typed.Func:
		return &exast.AnonCall{Fun: lowerFunc(ctx, fn), Args: args}
	}
	return &exast.AnonCall{Fun: lowerExpr(ctx, c.Fn), Args: args}
}

func lowerMethodCall(ctx *Context, fn *typed.Field, c *typed.Call, args []exast.Node) exast.Node {
	recv := lowerExpr(ctx, fn.Object)
	rt := fn.Object.ExprType()

	var table map[string]method
	switch {
	case rt.IsArray():
		table = arrayMethods
	case rt.IsString():
		table = stringMethods
	case rt.IsMap():
		table = mapMethods
	}
	if m, ok := table[fn.Name]; ok {
		switch {
		case m.name == "":
			// Values are immutable: a copy is the value itself.
			return recv
		case m.name == "++" && len(args) == 1:
			return &exast.Binary{Op: "++", Left: recv, Right: args[0]}
		case fn.Name == "indexOf" && len(args) == 1:
			probe := uniqueName("x", ctx.taken)
			match := &exast.Fn{Clauses: []*exast.FnClause{{
				Params: []exast.Pattern{&exast.PVar{Name: probe}},
				Body:   &exast.Binary{Op: "==", Left: &exast.Var{Name: probe}, Right: args[0]},
			}}}
			find := &exast.Call{Module: m.module, Name: m.name, Args: []exast.Node{recv, match}}
			return &exast.Binary{Op: "||", Left: find, Right: &exast.Integer{Value: -1}}
		}
		return &exast.Call{Module: m.module, Name: m.name, Args: append([]exast.Node{recv}, args...)}
	}
	if mutatingMethods[fn.Name] && (rt.IsArray() || rt.IsMap()) {
		ctx.warnf(c.Pos, "result of in-place %s used as a value", fn.Name)
	}
	return &exast.Call{Target: recv, Name: FuncName(fn.Name), Args: args}
}

func lowerFunc(ctx *Context, f *typed.Func) exast.Node {
	// A closure body is its own scope for loop control and returns.
	depth := ctx.loopDepth
	ctx.loopDepth = 0
	defer func() { ctx.loopDepth = depth }()

	clause := &exast.FnClause{Body: lowerBody(ctx, f.Body)}
	for _, p := range f.Params {
		clause.Params = append(clause.Params, &exast.PVar{Name: ctx.NameOf(p)})
	}
	return &exast.Fn{Clauses: []*exast.FnClause{clause}}
}

func lowerTry(ctx *Context, t *typed.Try) exast.Node {
	node := &exast.Try{Body: lowerBody(ctx, t.Body)}
	for _, c := range t.Catches {
		var pat exast.Pattern = exast.Wildcard()
		if c.Var != nil {
			pat = &exast.PVar{Name: ctx.NameOf(c.Var)}
		}
		node.Rescue = append(node.Rescue, &exast.Clause{Pattern: pat, Body: lowerBody(ctx, c.Body)})
	}
	return node
}

// ctorValue builds a tagged-union value: the constructor atom alone, or a
// tuple tagged with it.
func ctorValue(enum *typed.EnumInfo, index int, args []exast.Node) exast.Node {
	ctor := enum.Ctor(index)
	if ctor == nil {
		return &exast.Placeholder{Message: "unknown constructor " + strconv.Itoa(index) + " of " + enum.Name}
	}
	tag := &exast.Atom{Name: AtomName(ctor.Name)}
	if len(args) == 0 && ctor.Arity() == 0 {
		return tag
	}
	return &exast.Tuple{Elems: append([]exast.Node{tag}, args...)}
}

// lowerEnumParam lowers a bare positional extraction. Inside a clause that
// binds the position it is the bound name; otherwise elem/2 on the tuple.
func lowerEnumParam(ctx *Context, ep *typed.EnumParam) exast.Node {
	if p := ctx.planFor(ep.Subject); p != nil && !p.reassigned {
		if p.covers(ep) && p.entries[ep.Index].Name != "" {
			return &exast.Var{Name: p.entries[ep.Index].Name}
		}
		ctx.warnf(ep.Pos, "extraction %s[%d] has no binding in the enclosing clause; kept", ep.Enum.Name, ep.Index)
	}
	return elemCall(ctx, ep)
}

// elemCall reads position ep.Index of the tagged tuple; the tag is element 0.
func elemCall(ctx *Context, ep *typed.EnumParam) exast.Node {
	return &exast.Call{Name: "elem", Args: []exast.Node{lowerExpr(ctx, ep.Subject), &exast.Integer{Value: int64(ep.Index + 1)}}}
}

// lowerEnumIndex yields the constructor index of a tagged-union value as a
// case over its constructors.
func lowerEnumIndex(ctx *Context, ei *typed.EnumIndex) exast.Node {
	t := ei.Subject.ExprType()
	if t == nil || t.Enum == nil {
		ctx.errorf(ei.Pos, "constructor index of a value that is not a tagged union")
		return &exast.Placeholder{Message: "constructor index of non-enum"}
	}
	node := &exast.Case{Subject: lowerExpr(ctx, ei.Subject)}
	for i, c := range t.Enum.Ctors {
		tag := &exast.PLiteral{Value: &exast.Atom{Name: AtomName(c.Name)}}
		var pat exast.Pattern = tag
		if c.Arity() > 0 {
			elems := []exast.Pattern{tag}
			for range c.Params {
				elems = append(elems, exast.Wildcard())
			}
			pat = &exast.PTuple{Elems: elems}
		}
		node.Clauses = append(node.Clauses, &exast.Clause{Pattern: pat, Body: &exast.Integer{Value: int64(i)}})
	}
	return node
}
