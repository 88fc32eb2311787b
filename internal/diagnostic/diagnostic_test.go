package diagnostic

import "testing"

func TestFormat(t *testing.T) {
	d := New()
	d.ErrorfInFile("todo.yaml", 3, 10, "no lowering rule for %s", "*typed.New")
	d.WarningWithHintInFile("", 5, 1, "extraction of Ok[0] kept", "match the value in a case clause instead")
	d.ErrorWithTrace("todo.yaml", 1, 1, "visit ceiling exceeded", []string{"Block", "While"})

	want := "error[todo.yaml:3:10]: no lowering rule for *typed.New\n" +
		"warning[fallback.yaml:5:1]: extraction of Ok[0] kept\n" +
		"  hint: match the value in a case clause instead\n" +
		"error[todo.yaml:1:1]: visit ceiling exceeded\n" +
		"  trace: Block > While"
	if got := d.Format("fallback.yaml"); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := New().Format("x"); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestCounts(t *testing.T) {
	d := New()
	if d.HasErrors() {
		t.Fatal("expected no errors in a new collection")
	}
	d.WarningfInFile("a", 1, 1, "w")
	d.Errorf(2, 1, "e")

	other := New()
	other.WarningfInFile("b", 1, 1, "w2")
	d.Merge(other)
	d.Merge(nil)

	if d.Count() != 3 || d.WarningCount() != 2 || len(d.Errors()) != 1 || !d.HasErrors() {
		t.Fatalf("unexpected counts: total=%d warnings=%d errors=%d", d.Count(), d.WarningCount(), len(d.Errors()))
	}
	if d.All()[2].File != "b" {
		t.Errorf("expected merged diagnostics last, got %+v", d.All())
	}
}

func TestTraceIsCopied(t *testing.T) {
	trace := []string{"Block"}
	d := New()
	d.ErrorWithTrace("a", 1, 1, "boom", trace)
	trace[0] = "changed"
	if got := d.Errors()[0].Trace[0]; got != "Block" {
		t.Fatalf("expected trace to be copied, got %q", got)
	}
}
