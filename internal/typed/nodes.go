// Package typed defines the fully type-resolved source tree that the front
// end hands to the lowering core. Nodes are plain structs behind the Expr
// interface; statements are expressions whose value is ignored.
package typed

// Pos is a source position. The zero value means "unknown".
type Pos struct {
	File   string
	Line   int
	Column int
}

// Info carries the position and resolved type shared by every node.
type Info struct {
	Pos  Pos
	Type *Type
}

// Position returns the node's source position.
func (i *Info) Position() Pos { return i.Pos }

// ExprType returns the node's resolved type.
func (i *Info) ExprType() *Type { return i.Type }

// SetPos records the node's source position.
func (i *Info) SetPos(p Pos) { i.Pos = p }

// SetType overrides the node's resolved type.
func (i *Info) SetType(t *Type) { i.Type = t }

// Expr is the interface for all typed tree nodes
type Expr interface {
	Position() Pos
	ExprType() *Type
	exprNode()
}

// Unit is one compilation unit: a target module worth of functions.
type Unit struct {
	Module    string
	Path      string
	Requires  []string
	Enums     []*EnumInfo
	Functions []*Function
}

// Function is a top-level function of a unit.
type Function struct {
	Name   string
	Public bool
	Params []*Var
	Return *Type
	Body   Expr
	Pos    Pos
}

// Var is a resolved local variable. ID is unique within a unit.
type Var struct {
	ID        int
	Name      string
	Type      *Type
	Generated bool // compiler-injected temporary with no source-level meaning
}

// ConstKind identifies the literal kind of a Const node.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNull
	ConstThis
)

// Const is a literal value.
type Const struct {
	Info
	Kind  ConstKind
	Int   int64
	Float string // keep original text for fidelity
	Str   string
	Bool  bool
}

func (*Const) exprNode() {}

// Local references a variable.
type Local struct {
	Info
	Var *Var
}

func (*Local) exprNode() {}

// VarDecl declares a variable with an optional initializer.
type VarDecl struct {
	Info
	Var  *Var
	Init Expr // nil if uninitialized
}

func (*VarDecl) exprNode() {}

// Assign assigns Value to Target. Op is OpNone for plain assignment and the
// arithmetic operator for compound forms such as +=.
type Assign struct {
	Info
	Target Expr
	Op     BinaryOp
	Value  Expr
}

func (*Assign) exprNode() {}

// Binary is a binary operation.
type Binary struct {
	Info
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Unary is a unary operation. Postfix distinguishes x++ from ++x.
type Unary struct {
	Info
	Op      UnaryOp
	Postfix bool
	Operand Expr
}

func (*Unary) exprNode() {}

// Field is a field or method access. Static is set when Object is a TypeRef.
type Field struct {
	Info
	Object Expr
	Name   string
	Static bool
}

func (*Field) exprNode() {}

// Index is an array or map index access.
type Index struct {
	Info
	Object Expr
	Index  Expr
}

func (*Index) exprNode() {}

// Call is a function or method call.
type Call struct {
	Info
	Fn   Expr
	Args []Expr
}

func (*Call) exprNode() {}

// New constructs a class instance.
type New struct {
	Info
	Class string
	Args  []Expr
}

func (*New) exprNode() {}

// ArrayDecl is an array literal.
type ArrayDecl struct {
	Info
	Elems []Expr
}

func (*ArrayDecl) exprNode() {}

// ObjectField is one field of an ObjectDecl.
type ObjectField struct {
	Name  string
	Value Expr
}

// ObjectDecl is an anonymous structure literal.
type ObjectDecl struct {
	Info
	Fields []ObjectField
}

func (*ObjectDecl) exprNode() {}

// Paren is a parenthesized expression.
type Paren struct {
	Info
	Expr Expr
}

func (*Paren) exprNode() {}

// Block is a statement sequence; its value is the value of the last statement.
type Block struct {
	Info
	Stmts []Expr
}

func (*Block) exprNode() {}

// If is a conditional. Else is nil when absent.
type If struct {
	Info
	Cond Expr
	Then Expr
	Else Expr
}

func (*If) exprNode() {}

// While is a while or do-while loop.
type While struct {
	Info
	Cond    Expr
	Body    Expr
	DoWhile bool
}

func (*While) exprNode() {}

// For is the declarative loop form. KeyVar is set for key/value iteration,
// in which case Var binds the value. Iter is either an integer interval
// (Binary with OpInterval) or an iterable collection.
type For struct {
	Info
	Var    *Var
	KeyVar *Var
	Iter   Expr
	Body   Expr
}

func (*For) exprNode() {}

// CtorPattern matches one constructor of a tagged union. A nil entry in
// Params means the front end did not retain that parameter's name.
type CtorPattern struct {
	Enum   *EnumInfo
	Ctor   int
	Params []*Var
}

// Case is one switch case: either literal Values or a constructor pattern.
type Case struct {
	Pos    Pos
	Values []Expr
	Ctor   *CtorPattern
	Guard  Expr
	Body   Expr
}

// Switch is a multi-way branch. Subject may be wrapped in EnumIndex by the
// front end when cases match constructors.
type Switch struct {
	Info
	Subject Expr
	Cases   []*Case
	Default Expr
}

func (*Switch) exprNode() {}

// EnumParam extracts the positional parameter Index of constructor Ctor
// from Subject.
type EnumParam struct {
	Info
	Subject Expr
	Enum    *EnumInfo
	Ctor    int
	Index   int
}

func (*EnumParam) exprNode() {}

// EnumIndex yields the constructor index of a tagged-union value.
type EnumIndex struct {
	Info
	Subject Expr
}

func (*EnumIndex) exprNode() {}

// EnumCtor builds a tagged-union value.
type EnumCtor struct {
	Info
	Enum *EnumInfo
	Ctor int
	Args []Expr
}

func (*EnumCtor) exprNode() {}

// Func is an anonymous function.
type Func struct {
	Info
	Params []*Var
	Body   Expr
}

func (*Func) exprNode() {}

// Return leaves the enclosing function. Value is nil for bare returns.
type Return struct {
	Info
	Value Expr
}

func (*Return) exprNode() {}

// Break leaves the enclosing loop.
type Break struct {
	Info
}

func (*Break) exprNode() {}

// Continue skips to the next iteration of the enclosing loop.
type Continue struct {
	Info
}

func (*Continue) exprNode() {}

// Throw raises Value.
type Throw struct {
	Info
	Value Expr
}

func (*Throw) exprNode() {}

// Catch is one catch clause of a Try.
type Catch struct {
	Var  *Var
	Body Expr
}

// Try runs Body and dispatches raised values to Catches.
type Try struct {
	Info
	Body    Expr
	Catches []*Catch
}

func (*Try) exprNode() {}

// Cast is a checked or unchecked cast; lowering ignores it.
type Cast struct {
	Info
	Expr Expr
}

func (*Cast) exprNode() {}

// TypeRef references a module or class by name, e.g. the object of a static call.
type TypeRef struct {
	Info
	Name string
}

func (*TypeRef) exprNode() {}

// Raw is target-language code passed through verbatim.
type Raw struct {
	Info
	Code string
}

func (*Raw) exprNode() {}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpNone BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNotEq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpInterval // start...end, exclusive
	OpNullCoal
)

var binaryOpNames = map[BinaryOp]string{
	OpNone:     "",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpEq:       "==",
	OpNotEq:    "!=",
	OpLt:       "<",
	OpLte:      "<=",
	OpGt:       ">",
	OpGte:      ">=",
	OpAnd:      "&&",
	OpOr:       "||",
	OpBitAnd:   "&",
	OpBitOr:    "|",
	OpBitXor:   "^",
	OpShl:      "<<",
	OpShr:      ">>",
	OpInterval: "...",
	OpNullCoal: "??",
}

// String returns the operator's source symbol.
func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return "?"
}

// LookupBinaryOp maps a source symbol back to its operator.
func LookupBinaryOp(sym string) (BinaryOp, bool) {
	for op, s := range binaryOpNames {
		if s == sym && op != OpNone {
			return op, true
		}
	}
	return OpNone, false
}

// UnaryOp is a unary operator.
type UnaryOp int

const (
	OpIncrement UnaryOp = iota
	OpDecrement
	OpNot
	OpNeg
	OpBitNot
)

var unaryOpNames = map[UnaryOp]string{
	OpIncrement: "++",
	OpDecrement: "--",
	OpNot:       "!",
	OpNeg:       "-",
	OpBitNot:    "~",
}

// String returns the operator's source symbol.
func (op UnaryOp) String() string {
	if s, ok := unaryOpNames[op]; ok {
		return s
	}
	return "?"
}

// LookupUnaryOp maps a source symbol back to its operator.
func LookupUnaryOp(sym string) (UnaryOp, bool) {
	for op, s := range unaryOpNames {
		if s == sym {
			return op, true
		}
	}
	return 0, false
}
