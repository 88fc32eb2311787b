package lower

import (
	"strings"
	"testing"

	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

func findLoop(n exast.Node) *exast.WhileLoop {
	var found *exast.WhileLoop
	exast.Inspect(n, func(x exast.Node) bool {
		if w, ok := x.(*exast.WhileLoop); ok && found == nil {
			found = w
		}
		return found == nil
	})
	return found
}

func sumLoop(f *fixture, declarative bool) []typed.Expr {
	sum := f.local("sum", typed.TypeInt)
	i := f.local("i", typed.TypeInt)
	step := typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(i)))
	if declarative {
		return []typed.Expr{
			typed.Decl(sum, typed.IntLit(0)),
			&typed.For{Var: i, Iter: typed.Bin(typed.OpInterval, typed.IntLit(0), typed.IntLit(5)), Body: typed.Seq(step)},
			ret(typed.Ref(sum)),
		}
	}
	return []typed.Expr{
		typed.Decl(sum, typed.IntLit(0)),
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(5)),
			Body: typed.Seq(step, typed.Incr(i, true)),
		},
		ret(typed.Ref(sum)),
	}
}

const sumWant = "sum = 0\n" +
	"sum = Enum.reduce(0..4, sum, fn i, sum ->\n" +
	"  sum = sum + i\n" +
	"  sum\n" +
	"end)\n" +
	"sum"

func TestCounterLoopBecomesReduce(t *testing.T) {
	def, _ := lowerFn(t, DefaultOptions(), nil, sumLoop(&fixture{}, false)...)
	expectBody(t, def, sumWant)

	var each *exast.Call
	exast.Inspect(def.Body, func(n exast.Node) bool {
		if c, ok := n.(*exast.Call); ok && c.Intent != "" {
			each = c
		}
		return true
	})
	if each == nil || each.Intent != exast.IntentRange {
		t.Fatalf("expected a range intent call, got %+v", each)
	}
	if len(each.LoopState) != 1 || each.LoopState[0] != "sum" {
		t.Errorf("expected loop state [sum], got %v", each.LoopState)
	}
}

func TestDeclarativeLoopLowersIdentically(t *testing.T) {
	def, _ := lowerFn(t, DefaultOptions(), nil, sumLoop(&fixture{}, true)...)
	expectBody(t, def, sumWant)
}

func TestSynthesisDisabledKeepsStructuralLoop(t *testing.T) {
	opts := DefaultOptions()
	opts.SynthesizeLoops = false
	def, _ := lowerFn(t, opts, nil, sumLoop(&fixture{}, false)...)
	w := findLoop(def.Body)
	if w == nil || !w.Fallback {
		t.Fatal("expected a fallback loop")
	}
	if out := render(def.Body); !strings.Contains(out, "Enum.reduce_while(Stream.iterate(0, &(&1 + 1)), {sum, i}, fn _, {sum, i} ->") {
		t.Fatalf("unexpected fallback rendering:\n%s", out)
	}
}

func TestUnitIsDeterministic(t *testing.T) {
	first, _ := lowerFn(t, DefaultOptions(), nil, sumLoop(&fixture{}, false)...)
	// Shift every id: only names may influence the output.
	second, _ := lowerFn(t, DefaultOptions(), nil, sumLoop(&fixture{next: 1000}, false)...)
	if render(first.Body) != render(second.Body) {
		t.Fatalf("expected identical output, got:\n%s\nand:\n%s", render(first.Body), render(second.Body))
	}
}

func TestHoistedCollectionLoop(t *testing.T) {
	f := &fixture{}
	items := f.local("items", typed.ArrayOf(typed.TypeString))
	g := f.temp("_g", typed.TypeInt)
	g1 := f.temp("_g1", typed.ArrayOf(typed.TypeString))
	item := f.local("item", typed.TypeString)

	def, res := lowerFn(t, DefaultOptions(), []*typed.Var{items},
		typed.Decl(g, typed.IntLit(0)),
		typed.Decl(g1, typed.Ref(items)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(g), typed.Dot(typed.Ref(g1), "length", typed.TypeInt)),
			Body: typed.Seq(
				typed.Decl(item, typed.At(typed.Ref(g1), typed.Ref(g))),
				typed.Incr(g, false),
				use(typed.Ref(item)),
			),
		},
	)
	expectBody(t, def, "Enum.each(items, fn item -> use(item) end)")
	if !res.Export.Infrastructure[g.ID] || !res.Export.Infrastructure[g1.ID] {
		t.Error("expected the counter and hoisted array to be marked infrastructure")
	}
}

func TestIndexedLoopNamesElement(t *testing.T) {
	f := &fixture{}
	items := f.local("items", typed.ArrayOf(typed.TypeString))
	i := f.local("i", typed.TypeInt)

	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{items},
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.Dot(typed.Ref(items), "length", typed.TypeInt)),
			Body: typed.Seq(
				use(typed.At(typed.Ref(items), typed.Ref(i))),
				typed.Incr(i, true),
			),
		},
	)
	expectBody(t, def, "Enum.each(items, fn item -> use(item) end)")
}

func TestMapEntryLoop(t *testing.T) {
	f := &fixture{}
	m := f.local("m", typed.MapOf(typed.TypeString, typed.TypeInt))
	it := f.temp("it", typed.TypeDynamic)
	e := f.temp("e", typed.TypeDynamic)
	k := f.local("k", typed.TypeString)
	v := f.local("v", typed.TypeInt)

	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{m},
		typed.Decl(it, typed.CallOf(typed.TypeDynamic, typed.Dot(typed.Ref(m), "keyValueIterator", typed.TypeDynamic))),
		&typed.While{
			Cond: typed.CallOf(typed.TypeBool, typed.Dot(typed.Ref(it), "hasNext", typed.TypeDynamic)),
			Body: typed.Seq(
				typed.Decl(e, typed.CallOf(typed.TypeDynamic, typed.Dot(typed.Ref(it), "next", typed.TypeDynamic))),
				typed.Decl(k, typed.Dot(typed.Ref(e), "key", typed.TypeString)),
				typed.Decl(v, typed.Dot(typed.Ref(e), "value", typed.TypeInt)),
				use(typed.Ref(k), typed.Ref(v)),
			),
		},
	)
	expectBody(t, def, "Enum.each(m, fn {k, v} -> use(k, v) end)")
}

func TestFilteredAppendBecomesComprehension(t *testing.T) {
	f := &fixture{}
	xs := f.local("xs", typed.ArrayOf(typed.TypeInt))
	out := f.local("out", typed.ArrayOf(typed.TypeInt))
	i := f.temp("i", typed.TypeInt)
	x := f.local("x", typed.TypeInt)

	def, _ := lowerFn(t, DefaultOptions(), []*typed.Var{xs},
		typed.Decl(out, typed.Array(typed.TypeInt)),
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.Dot(typed.Ref(xs), "length", typed.TypeInt)),
			Body: typed.Seq(
				typed.Decl(x, typed.At(typed.Ref(xs), typed.Ref(i))),
				typed.Incr(i, false),
				&typed.If{
					Cond: typed.Bin(typed.OpGt, typed.Ref(x), typed.IntLit(0)),
					Then: typed.CallOf(typed.TypeVoid, typed.Dot(typed.Ref(out), "push", typed.TypeDynamic),
						typed.Bin(typed.OpMul, typed.Ref(x), typed.IntLit(2))),
				},
			),
		},
		ret(typed.Ref(out)),
	)
	expectBody(t, def, "for x <- xs, x > 0, do: x * 2")
}

func TestComprehensionsDisabled(t *testing.T) {
	f := &fixture{}
	xs := f.local("xs", typed.ArrayOf(typed.TypeInt))
	out := f.local("out", typed.ArrayOf(typed.TypeInt))
	i := f.temp("i", typed.TypeInt)
	x := f.local("x", typed.TypeInt)

	opts := DefaultOptions()
	opts.Comprehensions = false
	def, _ := lowerFn(t, opts, []*typed.Var{xs},
		typed.Decl(out, typed.Array(typed.TypeInt)),
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.Dot(typed.Ref(xs), "length", typed.TypeInt)),
			Body: typed.Seq(
				typed.Decl(x, typed.At(typed.Ref(xs), typed.Ref(i))),
				typed.Incr(i, false),
				typed.CallOf(typed.TypeVoid, typed.Dot(typed.Ref(out), "push", typed.TypeDynamic), typed.Ref(x)),
			),
		},
		ret(typed.Ref(out)),
	)
	want := "out = []\n" +
		"out = Enum.reduce(xs, out, fn x, out ->\n" +
		"  out = out ++ [x]\n" +
		"  out\n" +
		"end)\n" +
		"out"
	expectBody(t, def, want)
}

func TestUnrolledAppendsBecomeLiteral(t *testing.T) {
	f := &fixture{}
	list := f.local("list", typed.ArrayOf(typed.TypeInt))
	def, _ := lowerFn(t, DefaultOptions(), nil,
		typed.Decl(list, typed.Array(typed.TypeInt)),
		typed.Set(typed.Ref(list), typed.Bin(typed.OpAdd, typed.Ref(list), typed.Array(typed.TypeInt, typed.IntLit(1)))),
		typed.Set(typed.Ref(list), typed.Bin(typed.OpAdd, typed.Ref(list), typed.Array(typed.TypeInt, typed.IntLit(2)))),
		typed.Ref(list),
	)
	expectBody(t, def, "[1, 2]")
}

func TestUnrolledPushesKeepBinding(t *testing.T) {
	f := &fixture{}
	parts := f.local("parts", typed.ArrayOf(typed.TypeString))
	push := func(s string) typed.Expr {
		return typed.CallOf(typed.TypeVoid, typed.Dot(typed.Ref(parts), "push", typed.TypeDynamic), typed.StringLit(s))
	}
	def, _ := lowerFn(t, DefaultOptions(), nil,
		typed.Decl(parts, typed.Array(typed.TypeString)),
		push("a"),
		push("b"),
		use(typed.Ref(parts)),
	)
	expectBody(t, def, "parts = [\"a\", \"b\"]\nuse(parts)")
}

func TestLoopShapesThatStayStructural(t *testing.T) {
	tests := []struct {
		name  string
		stmts func(f *fixture) []typed.Expr
	}{
		{
			name: "break in body",
			stmts: func(f *fixture) []typed.Expr {
				i := f.local("i", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(i, typed.IntLit(0)),
					&typed.While{
						Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(10)),
						Body: typed.Seq(
							&typed.If{Cond: typed.Bin(typed.OpEq, typed.Ref(i), typed.IntLit(5)), Then: &typed.Break{}},
							use(typed.Ref(i)),
							typed.Incr(i, true),
						),
					},
				}
			},
		},
		{
			name: "counter read after loop",
			stmts: func(f *fixture) []typed.Expr {
				i := f.local("i", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(i, typed.IntLit(0)),
					&typed.While{
						Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(3)),
						Body: typed.Seq(use(typed.Ref(i)), typed.Incr(i, true)),
					},
					use(typed.Ref(i)),
				}
			},
		},
		{
			name: "counter reassigned in body",
			stmts: func(f *fixture) []typed.Expr {
				i := f.local("i", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(i, typed.IntLit(0)),
					&typed.While{
						Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(3)),
						Body: typed.Seq(typed.Set(typed.Ref(i), typed.IntLit(2)), typed.Incr(i, true)),
					},
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, res := lowerFn(t, DefaultOptions(), nil, tt.stmts(&fixture{})...)
			w := findLoop(def.Body)
			if w == nil || !w.Fallback {
				t.Fatalf("expected a fallback loop, got:\n%s", render(def.Body))
			}
			if res.Diagnostics.HasErrors() {
				t.Errorf("unexpected errors: %s", res.Diagnostics.Format("demo"))
			}
		})
	}
}

func TestBreakBecomesHalt(t *testing.T) {
	f := &fixture{}
	i := f.local("i", typed.TypeInt)
	def, _ := lowerFn(t, DefaultOptions(), nil,
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(10)),
			Body: typed.Seq(
				&typed.If{Cond: typed.Bin(typed.OpEq, typed.Ref(i), typed.IntLit(5)), Then: &typed.Break{}},
				use(typed.Ref(i)),
				typed.Incr(i, true),
			),
		},
	)
	want := "i = 0\n" +
		"i = Enum.reduce_while(Stream.iterate(0, &(&1 + 1)), i, fn _, i ->\n" +
		"  if i < 10 do\n" +
		"    if i == 5 do\n" +
		"      {:halt, i}\n" +
		"    else\n" +
		"      use(i)\n" +
		"      i = i + 1\n" +
		"      {:cont, i}\n" +
		"    end\n" +
		"  else\n" +
		"    {:halt, i}\n" +
		"  end\n" +
		"end)"
	expectBody(t, def, want)
}

func TestClassifyRangeShapes(t *testing.T) {
	f := &fixture{}
	c := f.temp("_g", typed.TypeInt)
	n := f.temp("_g1", typed.TypeInt)
	i := f.local("i", typed.TypeInt)
	limit := f.local("limit", typed.TypeInt)
	stmts := []typed.Expr{
		typed.Decl(c, typed.IntLit(2)),
		typed.Decl(n, typed.Ref(limit)),
		&typed.While{
			Cond: typed.Bin(typed.OpLt, typed.Ref(c), typed.Ref(n)),
			Body: typed.Seq(typed.Decl(i, typed.Incr(c, true)), use(typed.Ref(i))),
		},
	}
	ctx := NewContext("Demo", "demo.yaml", DefaultOptions())
	ctx.beginFunction(&typed.Function{Name: "run", Params: []*typed.Var{limit}, Body: typed.Seq(stmts...)})
	intent, span := Classify(ctx, stmts, 0)
	rl, ok := intent.(*RangeLoop)
	if !ok {
		t.Fatalf("expected RangeLoop, got %T", intent)
	}
	if span != 3 {
		t.Errorf("expected span 3, got %d", span)
	}
	if rl.UserVar != i {
		t.Errorf("expected user variable i, got %v", rl.UserVar)
	}
	if !typed.IsLocalOf(rl.End, limit) {
		t.Errorf("expected hoisted bound to be the limit expression")
	}
	if got := render(Synthesize(ctx, intent)); got != "Enum.each(2..(limit - 1)//1, fn i -> use(i) end)" {
		t.Errorf("unexpected synthesis %q", got)
	}
}

func TestClassifyRejectsEmptyBody(t *testing.T) {
	f := &fixture{}
	i := f.local("i", typed.TypeInt)
	stmts := []typed.Expr{
		typed.Decl(i, typed.IntLit(0)),
		&typed.While{Cond: typed.Bin(typed.OpLt, typed.Ref(i), typed.IntLit(3))},
	}
	ctx := NewContext("Demo", "demo.yaml", DefaultOptions())
	if intent, _ := Classify(ctx, stmts, 0); intent != nil {
		t.Fatalf("expected no intent, got %T", intent)
	}
}

// loopStateOf returns the state of the first loop in n, synthesized or
// structural.
func loopStateOf(n exast.Node) ([]string, bool) {
	var state []string
	found := false
	exast.Inspect(n, func(x exast.Node) bool {
		if found {
			return false
		}
		switch l := x.(type) {
		case *exast.Call:
			if l.Intent != "" {
				state, found = l.LoopState, true
			}
		case *exast.WhileLoop:
			state, found = l.LoopState, true
		}
		return !found
	})
	return state, found
}

func TestLoopVariableReassignedInBody(t *testing.T) {
	tests := []struct {
		name   string
		params func(f *fixture) []*typed.Var
		stmts  func(f *fixture, params []*typed.Var) []typed.Expr
		head   string
	}{
		{
			name: "range counter alias",
			params: func(f *fixture) []*typed.Var {
				return []*typed.Var{f.local("limit", typed.TypeInt)}
			},
			stmts: func(f *fixture, params []*typed.Var) []typed.Expr {
				sum := f.local("sum", typed.TypeInt)
				c := f.temp("_g", typed.TypeInt)
				n := f.temp("_g1", typed.TypeInt)
				i := f.local("i", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(sum, typed.IntLit(0)),
					typed.Decl(c, typed.IntLit(0)),
					typed.Decl(n, typed.Ref(params[0])),
					&typed.While{
						Cond: typed.Bin(typed.OpLt, typed.Ref(c), typed.Ref(n)),
						Body: typed.Seq(
							typed.Decl(i, typed.Incr(c, true)),
							typed.Set(typed.Ref(i), typed.Bin(typed.OpMul, typed.Ref(i), typed.IntLit(2))),
							typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(i))),
						),
					},
					ret(typed.Ref(sum)),
				}
			},
			head: "fn i, sum ->",
		},
		{
			name: "hoisted collection element",
			params: func(f *fixture) []*typed.Var {
				return []*typed.Var{f.local("items", typed.ArrayOf(typed.TypeInt))}
			},
			stmts: func(f *fixture, params []*typed.Var) []typed.Expr {
				sum := f.local("sum", typed.TypeInt)
				g := f.temp("_g", typed.TypeInt)
				g1 := f.temp("_g1", typed.ArrayOf(typed.TypeInt))
				x := f.local("x", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(sum, typed.IntLit(0)),
					typed.Decl(g, typed.IntLit(0)),
					typed.Decl(g1, typed.Ref(params[0])),
					&typed.While{
						Cond: typed.Bin(typed.OpLt, typed.Ref(g), typed.Dot(typed.Ref(g1), "length", typed.TypeInt)),
						Body: typed.Seq(
							typed.Decl(x, typed.At(typed.Ref(g1), typed.Ref(g))),
							typed.Incr(g, false),
							typed.Set(typed.Ref(x), typed.Bin(typed.OpMul, typed.Ref(x), typed.IntLit(2))),
							typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(x))),
						),
					},
					ret(typed.Ref(sum)),
				}
			},
			head: "fn x, sum ->",
		},
		{
			name: "map entry value",
			params: func(f *fixture) []*typed.Var {
				return []*typed.Var{f.local("m", typed.MapOf(typed.TypeString, typed.TypeInt))}
			},
			stmts: func(f *fixture, params []*typed.Var) []typed.Expr {
				m := params[0]
				sum := f.local("sum", typed.TypeInt)
				it := f.temp("it", typed.TypeDynamic)
				e := f.temp("e", typed.TypeDynamic)
				k := f.local("k", typed.TypeString)
				v := f.local("v", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(sum, typed.IntLit(0)),
					typed.Decl(it, typed.CallOf(typed.TypeDynamic, typed.Dot(typed.Ref(m), "keyValueIterator", typed.TypeDynamic))),
					&typed.While{
						Cond: typed.CallOf(typed.TypeBool, typed.Dot(typed.Ref(it), "hasNext", typed.TypeDynamic)),
						Body: typed.Seq(
							typed.Decl(e, typed.CallOf(typed.TypeDynamic, typed.Dot(typed.Ref(it), "next", typed.TypeDynamic))),
							typed.Decl(k, typed.Dot(typed.Ref(e), "key", typed.TypeString)),
							typed.Decl(v, typed.Dot(typed.Ref(e), "value", typed.TypeInt)),
							typed.Set(typed.Ref(v), typed.Bin(typed.OpAdd, typed.Ref(v), typed.IntLit(1))),
							use(typed.Ref(k)),
							typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(v))),
						),
					},
					ret(typed.Ref(sum)),
				}
			},
			head: "fn {k, v}, sum ->",
		},
		{
			name: "declarative element",
			params: func(f *fixture) []*typed.Var {
				return []*typed.Var{f.local("xs", typed.ArrayOf(typed.TypeInt))}
			},
			stmts: func(f *fixture, params []*typed.Var) []typed.Expr {
				sum := f.local("sum", typed.TypeInt)
				x := f.local("x", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(sum, typed.IntLit(0)),
					&typed.For{Var: x, Iter: typed.Ref(params[0]), Body: typed.Seq(
						typed.Set(typed.Ref(x), typed.Bin(typed.OpMul, typed.Ref(x), typed.IntLit(2))),
						typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(x))),
					)},
					ret(typed.Ref(sum)),
				}
			},
			head: "fn x, sum ->",
		},
		{
			name: "declarative element with break",
			params: func(f *fixture) []*typed.Var {
				return []*typed.Var{f.local("xs", typed.ArrayOf(typed.TypeInt))}
			},
			stmts: func(f *fixture, params []*typed.Var) []typed.Expr {
				sum := f.local("sum", typed.TypeInt)
				x := f.local("x", typed.TypeInt)
				return []typed.Expr{
					typed.Decl(sum, typed.IntLit(0)),
					&typed.For{Var: x, Iter: typed.Ref(params[0]), Body: typed.Seq(
						typed.Set(typed.Ref(x), typed.Bin(typed.OpMul, typed.Ref(x), typed.IntLit(2))),
						&typed.If{Cond: typed.Bin(typed.OpGt, typed.Ref(x), typed.IntLit(10)), Then: &typed.Break{}},
						typed.Set(typed.Ref(sum), typed.Bin(typed.OpAdd, typed.Ref(sum), typed.Ref(x))),
					)},
					ret(typed.Ref(sum)),
				}
			},
			head: "fn x, sum ->",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{}
			params := tt.params(f)
			def, res := lowerFn(t, DefaultOptions(), params, tt.stmts(f, params)...)
			if res.Diagnostics.HasErrors() {
				t.Fatalf("unexpected errors: %s", res.Diagnostics.Format("demo"))
			}
			state, ok := loopStateOf(def.Body)
			if !ok {
				t.Fatalf("expected a loop, got:\n%s", render(def.Body))
			}
			if len(state) != 1 || state[0] != "sum" {
				t.Errorf("expected loop state [sum], got %v", state)
			}
			if out := render(def.Body); !strings.Contains(out, tt.head) {
				t.Errorf("expected %q in:\n%s", tt.head, out)
			}
		})
	}
}

func TestForOverNonIterableWarns(t *testing.T) {
	f := &fixture{}
	x := f.local("x", typed.TypeInt)
	_, res := lowerFn(t, DefaultOptions(), nil,
		&typed.For{Var: x, Iter: typed.IntLit(3), Body: typed.Seq(use(typed.Ref(x)))},
	)
	if res.Diagnostics.WarningCount() != 1 {
		t.Fatalf("expected 1 warning, got: %s", res.Diagnostics.Format("demo"))
	}
	if out := res.Diagnostics.Format("demo"); !strings.Contains(out, "for loop over non-iterable Int") {
		t.Errorf("unexpected warning:\n%s", out)
	}

	_, res = lowerFn(t, DefaultOptions(), nil, sumLoop(&fixture{}, true)...)
	if res.Diagnostics.Count() != 0 {
		t.Errorf("expected no diagnostics for a range loop, got: %s", res.Diagnostics.Format("demo"))
	}
}
