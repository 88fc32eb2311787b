package typed

import (
	"strings"
	"testing"
)

func TestParseType(t *testing.T) {
	opt := &EnumInfo{Name: "Option", Ctors: []*CtorInfo{{Name: "None"}, {Name: "Some", Index: 1}}}
	enums := map[string]*EnumInfo{"Option": opt}

	tests := []struct {
		input string
		want  string
	}{
		{"Int", "Int"},
		{"Array<String>", "Array<String>"},
		{"Map<String, Array<Int>>", "Map<String, Array<Int>>"},
		{" Option<Int> ", "Option<Int>"},
		{"haxe.io.Bytes", "haxe.io.Bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input, enums)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.String())
			}
		})
	}

	got, _ := ParseType("Option", enums)
	if !got.IsEnum || got.Enum != opt {
		t.Error("expected enum names to resolve to the enum")
	}
}

func TestParseTypeErrors(t *testing.T) {
	tests := []string{"", "Array", "Map<Int>", "Array<Int", "Int>", "Array<Int;>"}
	for _, input := range tests {
		if _, err := ParseType(input, nil); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestTypeEqual(t *testing.T) {
	if !ArrayOf(TypeInt).Equal(ArrayOf(TypeInt)) {
		t.Error("expected Array<Int> == Array<Int>")
	}
	if ArrayOf(TypeInt).Equal(ArrayOf(TypeString)) {
		t.Error("expected Array<Int> != Array<String>")
	}
	if TypeInt.Equal(nil) {
		t.Error("expected Int != nil")
	}
	if ArrayOf(TypeBool).Elem() != TypeBool {
		t.Error("expected element type Bool")
	}
	if MapOf(TypeString, TypeInt).Elem() != nil {
		t.Error("expected maps to have no element type")
	}
}

func TestOperatorLookup(t *testing.T) {
	for _, sym := range []string{"+", "==", "...", "??", "<<"} {
		op, ok := LookupBinaryOp(sym)
		if !ok || op.String() != sym {
			t.Errorf("expected %s to round trip, got %v %v", sym, op, ok)
		}
	}
	if _, ok := LookupBinaryOp(""); ok {
		t.Error("expected the empty symbol not to resolve")
	}
	if op, ok := LookupUnaryOp("++"); !ok || op != OpIncrement {
		t.Errorf("expected ++ to be OpIncrement, got %v", op)
	}
}

func TestWalkHelpers(t *testing.T) {
	x := &Var{ID: 1, Name: "x", Type: TypeInt}
	y := &Var{ID: 2, Name: "y", Type: TypeInt}
	body := Seq(
		Decl(y, Bin(OpAdd, Ref(x), Ref(x))),
		&If{Cond: Bin(OpGt, Ref(y), IntLit(0)), Then: Incr(y, true)},
		&Paren{Expr: Ref(y)},
	)

	if got := CountRefs(body, x); got != 2 {
		t.Errorf("expected 2 refs to x, got %d", got)
	}
	if !Assigns(body, y) {
		t.Error("expected y to be assigned")
	}
	if Assigns(body, x) {
		t.Error("expected x not to be assigned")
	}
	if !IsLocalOf(&Paren{Expr: &Cast{Expr: Ref(x)}}, x) {
		t.Error("expected wrapped reference to match")
	}
	if len(Stmts(body)) != 3 || len(Stmts(IntLit(1))) != 1 || Stmts(nil) != nil {
		t.Error("unexpected Stmts result")
	}
}

func TestSameRef(t *testing.T) {
	a := &Var{ID: 1, Name: "a"}
	b := &Var{ID: 2, Name: "b"}
	this := &Const{Kind: ConstThis}
	tests := []struct {
		name string
		l, r Expr
		want bool
	}{
		{"same local", Ref(a), Ref(a), true},
		{"other local", Ref(a), Ref(b), false},
		{"field path", Dot(Ref(a), "f", nil), Dot(&Paren{Expr: Ref(a)}, "f", nil), true},
		{"other field", Dot(Ref(a), "f", nil), Dot(Ref(a), "g", nil), false},
		{"this", this, &Const{Kind: ConstThis}, true},
		{"literal", IntLit(1), IntLit(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameRef(tt.l, tt.r); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPrintUnit(t *testing.T) {
	enum := &EnumInfo{Name: "Result", Ctors: []*CtorInfo{
		{Name: "Ok", Params: []ParamInfo{{Name: "value", Type: TypeInt}}},
	}}
	tmp := &Var{ID: 3, Name: "_g", Type: TypeInt, Generated: true}
	u := &Unit{
		Module: "Demo",
		Enums:  []*EnumInfo{enum},
		Functions: []*Function{{
			Name:   "run",
			Public: true,
			Body:   Seq(Decl(tmp, IntLit(1))),
		}},
	}
	out := PrintUnit(u)
	for _, want := range []string{"Unit: Demo", "0 Ok(value: Int)", "Function: run (public)", "Params: none", "VarDecl: _g#3 (generated)", "Const: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
