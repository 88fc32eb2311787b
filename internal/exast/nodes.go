// Package exast is the target syntax tree: Elixir constructs produced by the
// lowering pass and consumed by the printer. Every node owns its children;
// a subtree that must appear twice is duplicated with Clone, never shared.
package exast

import "github.com/lhaig/exlower/internal/typed"

// Loop intents recorded on synthesized nodes.
const (
	IntentRange         = "range"
	IntentCollection    = "collection"
	IntentMapEntry      = "map_entry"
	IntentUnrolled      = "unrolled_list"
	IntentComprehension = "comprehension"
)

// Meta is the bookkeeping record carried by every node. Downstream passes
// read it; the lowering pass only inspects fields it wrote itself.
type Meta struct {
	Pos       typed.Pos
	Type      *typed.Type
	Pure      bool
	Constant  bool
	NeedsTemp bool     // value must be bound to a variable before reuse
	Intent    string   // loop intent for synthesized loops, "" otherwise
	LoopState []string // outer variables assigned inside a loop body
	Fallback  bool     // structural loop lowering, not a recognized intent
}

// Metadata returns the node's metadata record.
func (m *Meta) Metadata() *Meta { return m }

// Node is the interface for all target nodes.
type Node interface {
	Metadata() *Meta
	node()
}

// Module is a defmodule with its function definitions.
type Module struct {
	Meta
	Name string
	Defs []*Def
}

func (*Module) node() {}

// Def is a named function definition; Private selects defp.
type Def struct {
	Meta
	Name    string
	Private bool
	Params  []Pattern
	Guard   Node
	Body    Node
}

func (*Def) node() {}

// Atom is an atom literal such as :ok.
type Atom struct {
	Meta
	Name string
}

func (*Atom) node() {}

// Integer is an integer literal.
type Integer struct {
	Meta
	Value int64
}

func (*Integer) node() {}

// Float is a float literal kept in source form.
type Float struct {
	Meta
	Text string
}

func (*Float) node() {}

// String is a string literal.
type String struct {
	Meta
	Value string
}

func (*String) node() {}

// Boolean is true or false.
type Boolean struct {
	Meta
	Value bool
}

func (*Boolean) node() {}

// Nil is the nil literal.
type Nil struct {
	Meta
}

func (*Nil) node() {}

// Var references a bound variable.
type Var struct {
	Meta
	Name string
}

func (*Var) node() {}

// Call is a named call. Module selects a remote call (Enum.map); Target
// selects a call on a value (mod.fun); both empty means a local call.
type Call struct {
	Meta
	Module string
	Target Node
	Name   string
	Args   []Node
}

func (*Call) node() {}

// AnonCall applies an anonymous function value: fun.(args).
type AnonCall struct {
	Meta
	Fun  Node
	Args []Node
}

func (*AnonCall) node() {}

// Binary is an infix operation using the Elixir operator spelling.
type Binary struct {
	Meta
	Op    string
	Left  Node
	Right Node
}

func (*Binary) node() {}

// Unary is a prefix operation.
type Unary struct {
	Meta
	Op      string
	Operand Node
}

func (*Unary) node() {}

// Access is target[key].
type Access struct {
	Meta
	Target Node
	Key    Node
}

func (*Access) node() {}

// Dot is target.field.
type Dot struct {
	Meta
	Target Node
	Field  string
}

func (*Dot) node() {}

// Match binds Pattern to Value: pattern = value.
type Match struct {
	Meta
	Pattern Pattern
	Value   Node
}

func (*Match) node() {}

// Block is a sequence whose value is its last expression.
type Block struct {
	Meta
	Exprs []Node
}

func (*Block) node() {}

// If is if/else, or unless when Unless is set. Else may be nil.
type If struct {
	Meta
	Cond   Node
	Then   Node
	Else   Node
	Unless bool
}

func (*If) node() {}

// Clause is one pattern clause of a case or rescue.
type Clause struct {
	Pattern Pattern
	Guard   Node
	Body    Node
}

// Case is a case expression over Subject.
type Case struct {
	Meta
	Subject Node
	Clauses []*Clause
}

func (*Case) node() {}

// Try is try/rescue/after.
type Try struct {
	Meta
	Body   Node
	Rescue []*Clause
	After  Node
}

func (*Try) node() {}

// FnClause is one clause of an anonymous function.
type FnClause struct {
	Params []Pattern
	Guard  Node
	Body   Node
}

// Fn is an anonymous function.
type Fn struct {
	Meta
	Clauses []*FnClause
}

func (*Fn) node() {}

// Generator is one `pattern <- source` of a comprehension.
type Generator struct {
	Pattern Pattern
	Source  Node
}

// For is a comprehension: for generators, filters, into: Into, do: Body.
type For struct {
	Meta
	Generators []*Generator
	Filters    []Node
	Into       Node
	Body       Node
}

func (*For) node() {}

// WhileLoop is the structural lowering of a loop no intent recognized.
// The printer renders it as Enum.reduce_while over Stream.iterate, threading
// Meta.LoopState through the accumulator. When Over is set the loop walks
// the elements of Over instead, binding each to Binding, and Cond is nil.
type WhileLoop struct {
	Meta
	Cond    Node
	Body    Node
	DoWhile bool
	Over    Node
	Binding Pattern
}

func (*WhileLoop) node() {}

// LoopControl ends the current iteration of a WhileLoop: Halt stops the loop,
// otherwise iteration continues.
type LoopControl struct {
	Meta
	Halt bool
}

func (*LoopControl) node() {}

// Range is first..last, with an optional step (first..last//step).
type Range struct {
	Meta
	First Node
	Last  Node
	Step  Node
}

func (*Range) node() {}

// List is a list literal, [elems | tail] when Tail is set.
type List struct {
	Meta
	Elems []Node
	Tail  Node
}

func (*List) node() {}

// Tuple is a tuple literal.
type Tuple struct {
	Meta
	Elems []Node
}

func (*Tuple) node() {}

// Pair is one key => value entry of a map literal.
type Pair struct {
	Key   Node
	Value Node
}

// Map is %{k => v}, or %{update | k => v} when Update is set.
type Map struct {
	Meta
	Pairs  []*Pair
	Update Node
}

func (*Map) node() {}

// StructField is one field: value entry of a struct literal.
type StructField struct {
	Name  string
	Value Node
}

// Struct is %Module{field: value}.
type Struct struct {
	Meta
	Module string
	Fields []*StructField
}

func (*Struct) node() {}

// KeywordPair is one key: value entry of a keyword list.
type KeywordPair struct {
	Key   string
	Value Node
}

// Keyword is a keyword list [key: value].
type Keyword struct {
	Meta
	Pairs []*KeywordPair
}

func (*Keyword) node() {}

// Raise raises Value.
type Raise struct {
	Meta
	Value Node
}

func (*Raise) node() {}

// Raw is target code emitted verbatim.
type Raw struct {
	Meta
	Code string
}

func (*Raw) node() {}

// Placeholder marks a construct the lowering pass could not represent. The
// printer renders it visibly so the failure shows in the generated code.
type Placeholder struct {
	Meta
	Message string
}

func (*Placeholder) node() {}
