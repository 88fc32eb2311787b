package lower

import (
	"strings"
	"testing"

	"github.com/lhaig/exlower/internal/typed"
)

func ctorCase(enum *typed.EnumInfo, ctor int, params []*typed.Var, guard typed.Expr, body ...typed.Expr) *typed.Case {
	return &typed.Case{
		Ctor:  &typed.CtorPattern{Enum: enum, Ctor: ctor, Params: params},
		Guard: guard,
		Body:  typed.Seq(body...),
	}
}

func switchOn(subject typed.Expr, cases ...*typed.Case) *typed.Switch {
	return &typed.Switch{Subject: subject, Cases: cases}
}

func doThing() typed.Expr {
	return typed.Static(typed.TypeVoid, "Demo", "doThing")
}

func TestExtractionAliasBindsOnce(t *testing.T) {
	enum := resultEnum()
	tests := []struct {
		name string
		body func(f *fixture, r *typed.Var) ([]*typed.Var, []typed.Expr)
	}{
		{
			name: "temp then alias",
			body: func(f *fixture, r *typed.Var) ([]*typed.Var, []typed.Expr) {
				t0 := f.temp("t0", typed.TypeInt)
				v := f.local("v", typed.TypeInt)
				return []*typed.Var{nil}, []typed.Expr{
					typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
					typed.Decl(v, typed.Ref(t0)),
					use(typed.Ref(v)),
				}
			},
		},
		{
			name: "two temporaries",
			body: func(f *fixture, r *typed.Var) ([]*typed.Var, []typed.Expr) {
				t0 := f.temp("t0", typed.TypeInt)
				t1 := f.temp("t1", typed.TypeInt)
				v := f.local("v", typed.TypeInt)
				return []*typed.Var{nil}, []typed.Expr{
					typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
					typed.Decl(t1, typed.Ref(t0)),
					typed.Decl(v, typed.Ref(t1)),
					use(typed.Ref(v)),
				}
			},
		},
		{
			name: "declared pattern name",
			body: func(f *fixture, r *typed.Var) ([]*typed.Var, []typed.Expr) {
				v := f.local("v", typed.TypeInt)
				t0 := f.temp("t0", typed.TypeInt)
				return []*typed.Var{v}, []typed.Expr{
					typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
					use(typed.Ref(t0)),
				}
			},
		},
	}

	want := "case r do\n  {:ok, v} -> use(v)\n  _ -> nil\nend"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{}
			r := f.local("r", typed.EnumType(enum))
			params, body := tt.body(f, r)
			def, res := lowerFn(t, DefaultOptions(), []*typed.Var{r},
				switchOn(typed.Ref(r), ctorCase(enum, 0, params, nil, body...)),
			)
			expectBody(t, def, want)
			if res.Diagnostics.WarningCount() != 0 {
				t.Errorf("expected no warnings, got %s", res.Diagnostics.Format("demo"))
			}
		})
	}
}

func TestTemporaryNamesDoNotLeak(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	t0 := f.temp("t0", typed.TypeInt)
	v := f.local("v", typed.TypeInt)
	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r), ctorCase(enum, 0, []*typed.Var{nil}, nil,
			typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
			typed.Decl(v, typed.Ref(t0)),
			use(typed.Ref(v)),
		)),
	)
	if out := render(def.Body); strings.Contains(out, "t0") {
		t.Fatalf("expected no temporary in output, got:\n%s", out)
	}
	if got := res.Export.Names[t0.ID]; got != "v" {
		t.Errorf("expected t0 exported as v, got %q", got)
	}
}

func TestUnusedPatternPosition(t *testing.T) {
	enum := resultEnum()
	tests := []struct {
		name   string
		keep   bool
		params []*typed.Var
		ctor   int
		want   string
	}{
		{"keeps derived name", true, []*typed.Var{nil}, 0, "{:ok, _value}"},
		{"bare wildcard", false, []*typed.Var{nil}, 0, "{:ok, _}"},
		{"keeps declared name", true, []*typed.Var{{ID: 100, Name: "reason", Type: typed.TypeString}}, 1, "{:error, _reason}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{}
			r := f.local("r", typed.EnumType(enum))
			opts := DefaultOptions()
			opts.KeepUnusedNames = tt.keep
			def, _ := lowerFn(t, opts, []*typed.Var{r},
				switchOn(typed.Ref(r), ctorCase(enum, tt.ctor, tt.params, nil, doThing())),
			)
			out := render(def.Body)
			if !strings.Contains(out, tt.want+" -> do_thing()") {
				t.Fatalf("expected clause %q, got:\n%s", tt.want, out)
			}
		})
	}
}

func TestUnreadExtractionIsElided(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	t0 := f.temp("t0", typed.TypeInt)
	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r), ctorCase(enum, 0, []*typed.Var{nil}, nil,
			typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
			doThing(),
		)),
	)
	expectBody(t, def, "case r do\n  {:ok, _value} -> do_thing()\n  _ -> nil\nend")
	if res.Diagnostics.Count() != 0 {
		t.Errorf("expected no diagnostics, got %s", res.Diagnostics.Format("demo"))
	}
}

func TestGuardedClausesNameIndependently(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	t0 := f.temp("t0", typed.TypeInt)
	big := f.local("big", typed.TypeInt)
	t1 := f.temp("t1", typed.TypeInt)
	small := f.local("small", typed.TypeInt)

	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r),
			ctorCase(enum, 0, []*typed.Var{nil},
				typed.Bin(typed.OpGt, typed.Extract(typed.Ref(r), enum, 0, 0), typed.IntLit(0)),
				typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
				typed.Decl(big, typed.Ref(t0)),
				use(typed.Ref(big)),
			),
			ctorCase(enum, 0, []*typed.Var{nil},
				typed.Bin(typed.OpLt, typed.Extract(typed.Ref(r), enum, 0, 0), typed.IntLit(0)),
				typed.Decl(t1, typed.Extract(typed.Ref(r), enum, 0, 0)),
				typed.Decl(small, typed.Ref(t1)),
				use(typed.Ref(small)),
			),
		),
	)
	want := "case r do\n" +
		"  {:ok, big} when big > 0 -> use(big)\n" +
		"  {:ok, small} when small < 0 -> use(small)\n" +
		"  _ -> nil\n" +
		"end"
	expectBody(t, def, want)
	if got := res.Export.Names[t0.ID]; got != "big" {
		t.Errorf("expected t0 -> big, got %q", got)
	}
	if got := res.Export.Names[t1.ID]; got != "small" {
		t.Errorf("expected t1 -> small, got %q", got)
	}
}

func TestBareExtractionUsesConstructorParamName(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r),
			ctorCase(enum, 0, []*typed.Var{nil},
				typed.Bin(typed.OpLt, typed.Extract(typed.Ref(r), enum, 0, 0), typed.IntLit(0)),
				use(typed.Extract(typed.Ref(r), enum, 0, 0)),
			),
		),
	)
	want := "case r do\n  {:ok, value} when value < 0 -> use(value)\n  _ -> nil\nend"
	expectBody(t, def, want)
}

func TestDerivedNameAvoidsLocals(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	value := f.local("value", typed.TypeInt)
	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{r, value},
		switchOn(typed.Ref(r),
			ctorCase(enum, 0, []*typed.Var{nil}, nil,
				use(typed.Extract(typed.Ref(r), enum, 0, 0), typed.Ref(value)),
			),
		),
	)
	out := render(def.Body)
	if !strings.Contains(out, "{:ok, value1} -> use(value1, value)") {
		t.Fatalf("expected derived name to avoid the parameter, got:\n%s", out)
	}
}

func TestCompleteSwitchHasNoDefault(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r),
			ctorCase(enum, 0, []*typed.Var{nil}, nil, doThing()),
			ctorCase(enum, 1, []*typed.Var{nil}, nil, doThing()),
		),
	)
	want := "case r do\n  {:ok, _value} -> do_thing()\n  {:error, _reason} -> do_thing()\nend"
	expectBody(t, def, want)
}

func TestMismatchedExtractionIsKept(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	x := f.local("x", typed.TypeString)
	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{r},
		switchOn(typed.Ref(r), ctorCase(enum, 0, []*typed.Var{nil}, nil,
			typed.Decl(x, typed.Extract(typed.Ref(r), enum, 1, 0)),
			use(typed.Ref(x)),
		)),
	)
	want := "case r do\n  {:ok, _value} ->\n    x = elem(r, 1)\n    use(x)\n  _ -> nil\nend"
	expectBody(t, def, want)
	if res.Diagnostics.WarningCount() != 1 {
		t.Fatalf("expected 1 warning, got %d", res.Diagnostics.WarningCount())
	}
	if msg := res.Diagnostics.All()[0].Message; !strings.Contains(msg, "does not match the enclosing clause pattern") {
		t.Errorf("unexpected warning %q", msg)
	}
}

func TestUnusedExtractionFromTemporaryIsDropped(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	g := f.temp("_g", typed.EnumType(enum))
	tmp := f.temp("t", typed.TypeString)
	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{g},
		switchOn(typed.Ref(g), ctorCase(enum, 0, []*typed.Var{nil}, nil,
			typed.Decl(tmp, typed.Extract(typed.Ref(g), enum, 1, 0)),
			doThing(),
		)),
	)
	expectBody(t, def, "case _g do\n  {:ok, _value} -> do_thing()\n  _ -> nil\nend")
	if res.Diagnostics.WarningCount() != 1 {
		t.Fatalf("expected 1 warning, got %d", res.Diagnostics.WarningCount())
	}
	if msg := res.Diagnostics.All()[0].Message; !strings.Contains(msg, "internal temporary _g elided") {
		t.Errorf("unexpected warning %q", msg)
	}
}

func TestReassignedSubjectKeepsExtractions(t *testing.T) {
	enum := resultEnum()
	f := &fixture{}
	r := f.local("r", typed.EnumType(enum))
	other := f.local("other", typed.EnumType(enum))
	t0 := f.local("t0", typed.TypeInt)
	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{r, other},
		switchOn(typed.Ref(r), ctorCase(enum, 0, []*typed.Var{nil}, nil,
			typed.Decl(t0, typed.Extract(typed.Ref(r), enum, 0, 0)),
			typed.Set(typed.Ref(r), typed.Ref(other)),
			use(typed.Ref(t0), typed.Ref(r)),
		)),
	)
	out := render(def.Body)
	if !strings.Contains(out, "t0 = elem(r, 1)") {
		t.Fatalf("expected the extraction to be kept, got:\n%s", out)
	}
}

func TestZeroArityConstructorIsAtom(t *testing.T) {
	enum := &typed.EnumInfo{Name: "Color", Ctors: []*typed.CtorInfo{
		{Name: "Red", Index: 0},
		{Name: "DarkBlue", Index: 1},
	}}
	f := &fixture{}
	c := f.local("c", typed.EnumType(enum))
	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{c},
		ret(switchOn(typed.Ref(c),
			ctorCase(enum, 0, nil, nil, typed.StringLit("red")),
			ctorCase(enum, 1, nil, nil, typed.Construct(enum, 0)),
		)),
	)
	want := "case c do\n  :red -> \"red\"\n  :dark_blue -> :red\nend"
	expectBody(t, def, want)
}
