package lower

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"
	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/typed"
)

// Context is the state threaded through one unit's lowering. It is owned by
// a single goroutine. Scoped state (binding plans, loop frames) is pushed by
// the construct that introduces it; every push returns the function that
// restores the previous view.
type Context struct {
	opts   Options
	log    *slog.Logger
	diags  *diagnostic.Diagnostics
	unitID uuid.UUID
	module string
	file   string

	function string
	names    map[int]string // var id -> final name
	exported map[int]string // clause-scoped names, for Export only
	infra    map[int]bool
	reads    map[int]int    // var id -> read count in the current function
	taken    map[string]bool // names declared in the current function

	plans     []*BindingPlan
	frames    []*loopFrame
	loopDepth int

	visits int
	trace  []string
}

// loopFrame rewrites coll[counter] to the per-element variable inside a
// synthesized collection loop body.
type loopFrame struct {
	counter *typed.Var
	coll    typed.Expr
	elem    string
}

// NewContext returns a fresh context for lowering one unit.
func NewContext(module, file string, opts Options) *Context {
	if opts.UnusedPrefix == "" {
		opts.UnusedPrefix = "_"
	}
	if opts.MaxVisits <= 0 {
		opts.MaxVisits = DefaultMaxVisits
	}
	id := uuid.New()
	return &Context{
		opts:     opts,
		log:      opts.logger().With("unit", module, "unit_id", id.String()),
		diags:    diagnostic.New(),
		unitID:   id,
		module:   module,
		file:     file,
		names:    make(map[int]string),
		exported: make(map[int]string),
		infra:    make(map[int]bool),
		reads:    make(map[int]int),
		taken:    make(map[string]bool),
	}
}

// Options returns the options the context was created with.
func (c *Context) Options() Options { return c.opts }

// Diagnostics returns the diagnostics recorded so far.
func (c *Context) Diagnostics() *diagnostic.Diagnostics { return c.diags }

// UnitID identifies this lowering run in logs, exports and runaway reports.
func (c *Context) UnitID() uuid.UUID { return c.unitID }

// beginFunction resets the per-function state: visit counter, trace and
// read counts. Names and infrastructure marks are unit-wide.
func (c *Context) beginFunction(fn *typed.Function) {
	c.function = fn.Name
	c.visits = 0
	c.trace = c.trace[:0]
	c.plans = nil
	c.frames = nil
	c.loopDepth = 0
	c.reads = countReads(fn.Body)
	c.taken = make(map[string]bool)
	for _, p := range fn.Params {
		c.taken[VarName(p.Name)] = true
	}
	typed.Inspect(fn.Body, func(e typed.Expr) bool {
		for _, v := range declaredVars(e) {
			c.taken[VarName(v.Name)] = true
		}
		return true
	})
}

// NameOf returns the final target name of v. Clause plans are consulted
// innermost first; otherwise the name is derived once and remembered.
func (c *Context) NameOf(v *typed.Var) string {
	for i := len(c.plans) - 1; i >= 0; i-- {
		if n, ok := c.plans[i].renames[v.ID]; ok {
			return n
		}
	}
	if n, ok := c.names[v.ID]; ok {
		return n
	}
	n := VarName(v.Name)
	if c.reads[v.ID] == 0 {
		n = unusedName(c.opts.UnusedPrefix, n)
	}
	c.names[v.ID] = n
	return n
}

// Rename fixes the final name of v for the rest of the unit.
func (c *Context) Rename(v *typed.Var, name string) {
	c.names[v.ID] = name
}

// Used reports whether v is read anywhere in the current function.
func (c *Context) Used(v *typed.Var) bool {
	return c.reads[v.ID] > 0
}

// MarkInfrastructure records v as a compiler-injected temporary.
func (c *Context) MarkInfrastructure(v *typed.Var) {
	c.infra[v.ID] = true
}

// IsInfrastructure reports whether v has no source-level meaning: flagged
// by the front end, absorbed by a loop intent, or (with NameHeuristics)
// named like a front-end temporary.
func (c *Context) IsInfrastructure(v *typed.Var) bool {
	if v == nil {
		return false
	}
	if v.Generated || c.infra[v.ID] {
		return true
	}
	return c.opts.NameHeuristics && isInfraName(v.Name)
}

// ActivePlan returns the innermost binding plan, or nil outside a clause.
func (c *Context) ActivePlan() *BindingPlan {
	if len(c.plans) == 0 {
		return nil
	}
	return c.plans[len(c.plans)-1]
}

func (c *Context) pushPlan(p *BindingPlan) func() {
	c.plans = append(c.plans, p)
	return func() {
		c.plans = c.plans[:len(c.plans)-1]
		maps.Copy(c.exported, p.renames)
	}
}

// planFor returns the innermost plan matching on subject.
func (c *Context) planFor(subject typed.Expr) *BindingPlan {
	subject = typed.Unparen(subject)
	for i := len(c.plans) - 1; i >= 0; i-- {
		p := c.plans[i]
		if p.Subject == subject || typed.SameRef(p.Subject, subject) {
			return p
		}
	}
	return nil
}

// isRedundant reports whether any active plan proved stmt redundant.
func (c *Context) isRedundant(stmt typed.Expr) bool {
	for i := len(c.plans) - 1; i >= 0; i-- {
		if c.plans[i].redundant[stmt] {
			return true
		}
	}
	return false
}

func (c *Context) pushFrame(f *loopFrame) func() {
	c.frames = append(c.frames, f)
	return func() { c.frames = c.frames[:len(c.frames)-1] }
}

// element returns the per-element name when e is coll[counter] of an
// enclosing synthesized collection loop.
func (c *Context) element(e *typed.Index) (string, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		f := c.frames[i]
		if typed.IsLocalOf(e.Index, f.counter) && typed.SameRef(e.Object, f.coll) {
			return f.elem, true
		}
	}
	return "", false
}

func (c *Context) enterLoop() func() {
	c.loopDepth++
	return func() { c.loopDepth-- }
}

// enter counts a node visit and pushes it on the trace. Exceeding the
// ceiling unwinds the current function with a RunawayError.
func (c *Context) enter(e typed.Expr) func() {
	c.visits++
	c.trace = append(c.trace, frameLabel(e))
	if c.visits > c.opts.MaxVisits {
		panic(bailout{err: c.runaway(false)})
	}
	return func() { c.trace = c.trace[:len(c.trace)-1] }
}

func (c *Context) runaway(cyclic bool) *RunawayError {
	return &RunawayError{
		Unit:     c.unitID,
		Module:   c.module,
		Function: c.function,
		Visits:   c.visits,
		Cyclic:   cyclic,
		Trace:    tail(c.trace),
	}
}

func frameLabel(e typed.Expr) string {
	name := fmt.Sprintf("%T", e)
	if len(name) > len("*typed.") {
		name = name[len("*typed."):]
	}
	if p := e.Position(); p.Line > 0 {
		return fmt.Sprintf("%s@%d:%d", name, p.Line, p.Column)
	}
	return name
}

func (c *Context) position(pos typed.Pos) (string, int, int) {
	file := pos.File
	if file == "" {
		file = c.file
	}
	return file, pos.Line, pos.Column
}

func (c *Context) warnf(pos typed.Pos, format string, args ...any) {
	file, line, col := c.position(pos)
	c.diags.WarningfInFile(file, line, col, format, args...)
}

func (c *Context) errorf(pos typed.Pos, format string, args ...any) {
	file, line, col := c.position(pos)
	c.diags.ErrorfInFile(file, line, col, format, args...)
}

// Export is a read-only snapshot of the naming decisions of one unit, for
// passes that run after lowering.
type Export struct {
	UnitID         uuid.UUID
	Module         string
	Names          map[int]string
	Infrastructure map[int]bool
}

// Export returns a deep copy of the rename table and infrastructure set.
// Clause-scoped names are included under the variable they renamed.
func (c *Context) Export() Export {
	names := make(map[int]string, len(c.names)+len(c.exported))
	maps.Copy(names, c.names)
	maps.Copy(names, c.exported)
	return Export{
		UnitID:         c.unitID,
		Module:         c.module,
		Names:          names,
		Infrastructure: maps.Clone(c.infra),
	}
}
