package typed

// Constructors for the common node shapes. The unit file decoder and tests
// build trees through these so that resolved types are filled in
// consistently.

// IntLit returns an Int literal.
func IntLit(v int64) *Const {
	return &Const{Info: Info{Type: TypeInt}, Kind: ConstInt, Int: v}
}

// FloatLit returns a Float literal.
func FloatLit(text string) *Const {
	return &Const{Info: Info{Type: TypeFloat}, Kind: ConstFloat, Float: text}
}

// StringLit returns a String literal.
func StringLit(s string) *Const {
	return &Const{Info: Info{Type: TypeString}, Kind: ConstString, Str: s}
}

// BoolLit returns a Bool literal.
func BoolLit(b bool) *Const {
	return &Const{Info: Info{Type: TypeBool}, Kind: ConstBool, Bool: b}
}

// NullLit returns the null literal.
func NullLit() *Const {
	return &Const{Info: Info{Type: TypeDynamic}, Kind: ConstNull}
}

// Ref returns a reference to v.
func Ref(v *Var) *Local {
	return &Local{Info: Info{Type: v.Type}, Var: v}
}

// Decl declares v with init.
func Decl(v *Var, init Expr) *VarDecl {
	return &VarDecl{Info: Info{Type: TypeVoid}, Var: v, Init: init}
}

// Set assigns value to target.
func Set(target, value Expr) *Assign {
	return &Assign{Info: Info{Type: target.ExprType()}, Target: target, Value: value}
}

// Bin returns a binary operation. Comparison and logical operators yield
// Bool; everything else takes the left operand's type.
func Bin(op BinaryOp, left, right Expr) *Binary {
	t := left.ExprType()
	switch op {
	case OpEq, OpNotEq, OpLt, OpLte, OpGt, OpGte, OpAnd, OpOr:
		t = TypeBool
	}
	return &Binary{Info: Info{Type: t}, Op: op, Left: left, Right: right}
}

// Incr returns v++ (postfix) or ++v.
func Incr(v *Var, postfix bool) *Unary {
	return &Unary{Info: Info{Type: v.Type}, Op: OpIncrement, Postfix: postfix, Operand: Ref(v)}
}

// Dot returns object.name with the given result type.
func Dot(object Expr, name string, t *Type) *Field {
	return &Field{Info: Info{Type: t}, Object: object, Name: name}
}

// At returns object[index].
func At(object, index Expr) *Index {
	var t *Type
	if ot := object.ExprType(); ot != nil {
		t = ot.Elem()
	}
	return &Index{Info: Info{Type: t}, Object: object, Index: index}
}

// CallOf returns fn(args...) with the given result type.
func CallOf(t *Type, fn Expr, args ...Expr) *Call {
	return &Call{Info: Info{Type: t}, Fn: fn, Args: args}
}

// Static returns a call to module.name(args...).
func Static(t *Type, module, name string, args ...Expr) *Call {
	ref := &TypeRef{Info: Info{Type: TypeDynamic}, Name: module}
	return CallOf(t, &Field{Info: Info{Type: TypeDynamic}, Object: ref, Name: name, Static: true}, args...)
}

// Array returns an array literal of elem-typed values.
func Array(elem *Type, elems ...Expr) *ArrayDecl {
	return &ArrayDecl{Info: Info{Type: ArrayOf(elem)}, Elems: elems}
}

// Seq returns a block of stmts; its type is the last statement's.
func Seq(stmts ...Expr) *Block {
	t := TypeVoid
	if len(stmts) > 0 && stmts[len(stmts)-1].ExprType() != nil {
		t = stmts[len(stmts)-1].ExprType()
	}
	return &Block{Info: Info{Type: t}, Stmts: stmts}
}

// Extract returns the extraction of parameter index of constructor ctor
// from subject.
func Extract(subject Expr, enum *EnumInfo, ctor, index int) *EnumParam {
	var t *Type
	if c := enum.Ctor(ctor); c != nil && index < len(c.Params) {
		t = c.Params[index].Type
	}
	return &EnumParam{Info: Info{Type: t}, Subject: subject, Enum: enum, Ctor: ctor, Index: index}
}

// Construct builds constructor ctor of enum with args.
func Construct(enum *EnumInfo, ctor int, args ...Expr) *EnumCtor {
	return &EnumCtor{Info: Info{Type: EnumType(enum)}, Enum: enum, Ctor: ctor, Args: args}
}
