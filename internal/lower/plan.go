package lower

import (
	"fmt"
	"sort"

	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/typed"
)

// PlanEntry is the binding decision for one constructor parameter position.
type PlanEntry struct {
	Index int
	Name  string // final bound name; "" when nothing ever names the position
	Used  bool

	vars       []*typed.Var // every source variable denoting this value
	declared   *typed.Var
	extraction *typed.VarDecl
	alias      *typed.Var
}

// BindingPlan is the authoritative table of pattern bindings for one case
// clause. It lives only while that clause is lowered.
type BindingPlan struct {
	Subject typed.Expr
	Enum    *typed.EnumInfo
	Ctor    int

	entries    []*PlanEntry
	redundant  map[typed.Expr]bool // statements the pattern already binds
	renames    map[int]string
	reassigned bool // subject assigned in the clause; extractions are kept
}

// Entry returns the entry for parameter index.
func (p *BindingPlan) Entry(index int) (*PlanEntry, bool) {
	if index < 0 || index >= len(p.entries) {
		return nil, false
	}
	return p.entries[index], true
}

// Entries returns all entries in parameter order.
func (p *BindingPlan) Entries() []*PlanEntry {
	return append([]*PlanEntry(nil), p.entries...)
}

// IsRedundant reports whether stmt was proven to re-bind a value the
// pattern binds.
func (p *BindingPlan) IsRedundant(stmt typed.Expr) bool {
	return p.redundant[stmt]
}

// covers reports whether ep extracts a position this plan owns.
func (p *BindingPlan) covers(ep *typed.EnumParam) bool {
	return sameEnum(p.Enum, ep.Enum) && p.Ctor == ep.Ctor && ep.Index >= 0 && ep.Index < len(p.entries)
}

func sameEnum(a, b *typed.EnumInfo) bool {
	return a == b || (a != nil && b != nil && a.Name == b.Name)
}

// extraction matches `var t = subject.params[i]` for this plan's subject.
func (p *BindingPlan) extraction(e typed.Expr) (*typed.VarDecl, int, bool) {
	decl, ok := e.(*typed.VarDecl)
	if !ok || decl.Init == nil {
		return nil, 0, false
	}
	ep, ok := typed.Unparen(decl.Init).(*typed.EnumParam)
	if !ok || !p.covers(ep) {
		return nil, 0, false
	}
	subj := typed.Unparen(ep.Subject)
	if subj != p.Subject && !typed.SameRef(subj, p.Subject) {
		return nil, 0, false
	}
	return decl, ep.Index, true
}

// planClause builds the binding plan for one constructor clause.
//
// Names come from, in order of preference: the user-facing end of an
// extraction alias chain, the pattern's declared parameter, the first
// extraction variable, and the constructor's declared parameter name.
func planClause(ctx *Context, subject typed.Expr, cp *typed.CtorPattern, guard, body typed.Expr) *BindingPlan {
	ctor := cp.Enum.Ctor(cp.Ctor)
	p := &BindingPlan{
		Subject:   typed.Unparen(subject),
		Enum:      cp.Enum,
		Ctor:      cp.Ctor,
		entries:   make([]*PlanEntry, ctor.Arity()),
		redundant: make(map[typed.Expr]bool),
		renames:   make(map[int]string),
	}
	for i := range p.entries {
		p.entries[i] = &PlanEntry{Index: i}
	}
	for i, v := range cp.Params {
		if v != nil && i < len(p.entries) {
			p.entries[i].declared = v
			p.entries[i].vars = append(p.entries[i].vars, v)
		}
	}

	if l, ok := p.Subject.(*typed.Local); ok && typed.Assigns(body, l.Var) {
		p.reassigned = true
	}

	if !p.reassigned {
		stmts := typed.Stmts(body)
		for k, s := range stmts {
			decl, idx, ok := p.extraction(s)
			if !ok || p.entries[idx].extraction != nil {
				continue
			}
			e := p.entries[idx]
			e.extraction = decl
			chain := aliasChain(stmts, k, body)
			for _, d := range chain {
				p.redundant[d] = true
				e.vars = append(e.vars, d.Var)
			}
			if len(chain) > 1 {
				e.alias = chain[len(chain)-1].Var
			}
		}

		// Remaining extractions of an owned position, at any depth, re-bind
		// a value the pattern already holds.
		typed.Inspect(body, func(x typed.Expr) bool {
			if decl, idx, ok := p.extraction(x); ok && !p.redundant[decl] {
				p.redundant[decl] = true
				p.entries[idx].vars = append(p.entries[idx].vars, decl.Var)
			}
			return true
		})
	}

	p.markUsage(guard, body)
	p.nameEntries(ctx, ctor)
	return p
}

// aliasChain returns the extraction at stmts[k] followed by up to two
// immediate `var b = a` aliases. An alias is only followed when the
// variable it copies is never reassigned, and when the copy itself is
// reassigned only if nothing else reads the original.
func aliasChain(stmts []typed.Expr, k int, body typed.Expr) []*typed.VarDecl {
	chain := []*typed.VarDecl{stmts[k].(*typed.VarDecl)}
	cur := chain[0].Var
	for hop := 1; hop <= 2 && k+hop < len(stmts); hop++ {
		a, ok := stmts[k+hop].(*typed.VarDecl)
		if !ok || a.Init == nil || !typed.IsLocalOf(a.Init, cur) {
			break
		}
		if typed.Assigns(body, cur) {
			break
		}
		if typed.Assigns(body, a.Var) && typed.CountRefs(body, cur) > 1 {
			break
		}
		chain = append(chain, a)
		cur = a.Var
	}
	return chain
}

func (p *BindingPlan) nameEntries(ctx *Context, ctor *typed.CtorInfo) {
	taken := make(map[string]bool)
	for _, e := range p.entries {
		var name string
		switch {
		case e.alias != nil:
			name = VarName(e.alias.Name)
		case e.declared != nil:
			name = VarName(e.declared.Name)
		case e.extraction != nil && !ctx.IsInfrastructure(e.extraction.Var):
			name = VarName(e.extraction.Var.Name)
		default:
			for _, v := range e.vars {
				if !ctx.IsInfrastructure(v) {
					name = VarName(v.Name)
					break
				}
			}
			if name == "" && e.Index < len(ctor.Params) && ctor.Params[e.Index].Name != "" {
				// Derived names must not shadow a variable of the function.
				base := VarName(ctor.Params[e.Index].Name)
				if ctx.taken[base] {
					base = uniqueName(base, ctx.taken)
				}
				name = base
			}
			if name == "" && len(e.vars) > 0 {
				name = VarName(e.vars[0].Name)
			}
		}
		if name == "" && e.Used {
			name = fmt.Sprintf("arg%d", e.Index)
		}
		if name != "" {
			name = uniqueName(name, taken)
			taken[name] = true
		}
		e.Name = name
		for _, v := range e.vars {
			if name != "" {
				p.renames[v.ID] = name
			}
		}
	}
}

// markUsage sets Used on every entry whose value is read in the guard or
// body outside the statements the plan elides.
func (p *BindingPlan) markUsage(guard, body typed.Expr) {
	owner := make(map[int]*PlanEntry)
	for _, e := range p.entries {
		for _, v := range e.vars {
			owner[v.ID] = e
		}
	}
	mark := func(x typed.Expr) {
		switch n := x.(type) {
		case *typed.Local:
			if e, ok := owner[n.Var.ID]; ok {
				e.Used = true
			}
		case *typed.EnumParam:
			subj := typed.Unparen(n.Subject)
			if !p.reassigned && p.covers(n) && (subj == p.Subject || typed.SameRef(subj, p.Subject)) {
				p.entries[n.Index].Used = true
			}
		}
	}
	walkReads(guard, p.redundant, mark)
	walkReads(body, p.redundant, mark)
}

// pattern renders the clause pattern: the constructor atom, alone for
// zero-parameter constructors, otherwise tagged in a tuple with one slot per
// position.
func (p *BindingPlan) pattern(ctx *Context) exast.Pattern {
	ctor := p.Enum.Ctor(p.Ctor)
	tag := &exast.Atom{Name: AtomName(ctor.Name)}
	if len(p.entries) == 0 {
		return &exast.PLiteral{Value: tag}
	}
	elems := []exast.Pattern{&exast.PLiteral{Value: tag}}
	for _, e := range p.entries {
		elems = append(elems, p.slot(ctx, e))
	}
	return &exast.PTuple{Elems: elems}
}

func (p *BindingPlan) slot(ctx *Context, e *PlanEntry) exast.Pattern {
	if e.Used && e.Name != "" {
		return &exast.PVar{Name: e.Name}
	}
	if ctx.opts.KeepUnusedNames && e.Name != "" {
		return &exast.PWildcard{Name: unusedName(ctx.opts.UnusedPrefix, e.Name)}
	}
	return exast.Wildcard()
}

// RenamedVars returns the ids of all variables the plan renames, sorted.
func (p *BindingPlan) RenamedVars() []int {
	ids := make([]int, 0, len(p.renames))
	for id := range p.renames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
