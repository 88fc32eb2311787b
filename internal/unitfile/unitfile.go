// Package unitfile decodes typed units from their YAML wire format.
//
// A unit document carries a header (module, requires, enums, functions) and
// one body tree per function. Tree nodes are written as single-key mappings
// naming the node kind, with optional "at" (source line:col) and "type"
// siblings:
//
//	body:
//	  - decl: {var: {id: 1, name: sum, type: Int}, init: 0}
//	  - for:
//	      var: {id: 2, name: i, type: Int}
//	      iter: {binary: {op: "...", left: 0, right: 5}}
//	      body:
//	        - assign: {target: {local: 1}, op: "+", value: {local: 2}}
//	  - return: {local: 1}
//
// Plain scalars are literals, and a sequence in expression position is a
// block. Variables are declared once with a mapping and referenced
// afterwards by id; ids are unique within a unit.
package unitfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lhaig/exlower/internal/typed"
	"gopkg.in/yaml.v3"
)

// Error is a decode error located in the unit document.
type Error struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

type unitDoc struct {
	Module    string        `yaml:"module"`
	Path      string        `yaml:"path,omitempty"`
	Requires  []string      `yaml:"requires,omitempty"`
	Enums     []enumDoc     `yaml:"enums,omitempty"`
	Functions []functionDoc `yaml:"functions,omitempty"`
}

type enumDoc struct {
	Name  string    `yaml:"name"`
	Ctors []ctorDoc `yaml:"ctors"`
}

type ctorDoc struct {
	Name   string     `yaml:"name"`
	Params []paramDoc `yaml:"params,omitempty"`
}

type paramDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type functionDoc struct {
	Name   string    `yaml:"name"`
	Public bool      `yaml:"public,omitempty"`
	Params []varDoc  `yaml:"params,omitempty"`
	Return string    `yaml:"return,omitempty"`
	At     string    `yaml:"at,omitempty"`
	Body   yaml.Node `yaml:"body,omitempty"`
}

type varDoc struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type,omitempty"`
	Generated bool   `yaml:"generated,omitempty"`
}

// Load reads and decodes a unit file.
func Load(path string) (*typed.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit %s: %w", path, err)
	}
	return Decode(data, path)
}

// Decode parses a unit document. path names the document in errors and is
// the default source file recorded in node positions.
func Decode(data []byte, path string) (*typed.Unit, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc unitDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Path: path, Msg: "empty unit file"}
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Module == "" {
		return nil, &Error{Path: path, Msg: "module is required"}
	}

	d := &decoder{
		path:  path,
		file:  path,
		enums: make(map[string]*typed.EnumInfo),
		vars:  make(map[int]*typed.Var),
	}
	if doc.Path != "" {
		d.file = doc.Path
	}

	u := &typed.Unit{Module: doc.Module, Path: d.file, Requires: doc.Requires}
	enums, err := d.decodeEnums(doc.Enums)
	if err != nil {
		return nil, err
	}
	u.Enums = enums

	seen := make(map[string]bool)
	for i := range doc.Functions {
		fd := &doc.Functions[i]
		if fd.Name == "" {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("functions[%d]: name is required", i)}
		}
		if seen[fd.Name] {
			return nil, &Error{Path: path, Msg: fmt.Sprintf("functions[%d]: duplicate function %s", i, fd.Name)}
		}
		seen[fd.Name] = true
		fn, err := d.decodeFunction(fd)
		if err != nil {
			return nil, err
		}
		u.Functions = append(u.Functions, fn)
	}
	return u, nil
}

type decoder struct {
	path  string
	file  string
	enums map[string]*typed.EnumInfo
	vars  map[int]*typed.Var
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	e := &Error{Path: d.path, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

// decodeEnums registers every enum name before resolving constructor
// parameter types, so enums may refer to each other in any order.
func (d *decoder) decodeEnums(docs []enumDoc) ([]*typed.EnumInfo, error) {
	infos := make([]*typed.EnumInfo, len(docs))
	for i, ed := range docs {
		if ed.Name == "" {
			return nil, &Error{Path: d.path, Msg: fmt.Sprintf("enums[%d]: name is required", i)}
		}
		if _, dup := d.enums[ed.Name]; dup {
			return nil, &Error{Path: d.path, Msg: fmt.Sprintf("enums[%d]: duplicate enum %s", i, ed.Name)}
		}
		infos[i] = &typed.EnumInfo{Name: ed.Name}
		d.enums[ed.Name] = infos[i]
	}
	for i, ed := range docs {
		for j, cd := range ed.Ctors {
			if cd.Name == "" {
				return nil, &Error{Path: d.path, Msg: fmt.Sprintf("enums[%d].ctors[%d]: name is required", i, j)}
			}
			if infos[i].CtorByName(cd.Name) != nil {
				return nil, &Error{Path: d.path, Msg: fmt.Sprintf("enums[%d] (%s): duplicate constructor %s", i, ed.Name, cd.Name)}
			}
			ctor := &typed.CtorInfo{Name: cd.Name, Index: j}
			for k, pd := range cd.Params {
				t, err := d.parseType(pd.Type)
				if err != nil {
					return nil, &Error{Path: d.path, Msg: fmt.Sprintf("enums[%d].ctors[%d].params[%d]: %v", i, j, k, err)}
				}
				ctor.Params = append(ctor.Params, typed.ParamInfo{Name: pd.Name, Type: t})
			}
			infos[i].Ctors = append(infos[i].Ctors, ctor)
		}
	}
	return infos, nil
}

func (d *decoder) decodeFunction(fd *functionDoc) (*typed.Function, error) {
	fn := &typed.Function{Name: fd.Name, Public: fd.Public, Return: typed.TypeVoid}
	if fd.At != "" {
		pos, err := d.parsePos(fd.At)
		if err != nil {
			return nil, d.errorf(&fd.Body, "function %s: %v", fd.Name, err)
		}
		fn.Pos = pos
	}
	if fd.Return != "" {
		t, err := d.parseType(fd.Return)
		if err != nil {
			return nil, &Error{Path: d.path, Msg: fmt.Sprintf("function %s: return: %v", fd.Name, err)}
		}
		fn.Return = t
	}
	for _, vd := range fd.Params {
		v, err := d.declare(vd, nil)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fd.Name, err)
		}
		fn.Params = append(fn.Params, v)
	}
	if fd.Body.Kind == 0 {
		fn.Body = typed.Seq()
		return fn, nil
	}
	body, err := d.expr(&fd.Body)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func (d *decoder) parseType(text string) (*typed.Type, error) {
	if text == "" {
		return typed.TypeDynamic, nil
	}
	return typed.ParseType(text, d.enums)
}

// parsePos parses "line:col" or "line".
func (d *decoder) parsePos(text string) (typed.Pos, error) {
	line, col, hasCol := strings.Cut(text, ":")
	pos := typed.Pos{File: d.file}
	var err error
	if pos.Line, err = strconv.Atoi(strings.TrimSpace(line)); err != nil {
		return typed.Pos{}, fmt.Errorf("invalid position %q", text)
	}
	if hasCol {
		if pos.Column, err = strconv.Atoi(strings.TrimSpace(col)); err != nil {
			return typed.Pos{}, fmt.Errorf("invalid position %q", text)
		}
	}
	return pos, nil
}

// declare registers a variable. Declaring an id twice is allowed only when
// both declarations agree on the name.
func (d *decoder) declare(vd varDoc, n *yaml.Node) (*typed.Var, error) {
	if vd.Name == "" {
		return nil, d.errorf(n, "var %d: name is required", vd.ID)
	}
	if prev, ok := d.vars[vd.ID]; ok {
		if prev.Name != vd.Name {
			return nil, d.errorf(n, "var %d redeclared as %s (was %s)", vd.ID, vd.Name, prev.Name)
		}
		return prev, nil
	}
	t, err := d.parseType(vd.Type)
	if err != nil {
		return nil, d.errorf(n, "var %s: %v", vd.Name, err)
	}
	v := &typed.Var{ID: vd.ID, Name: vd.Name, Type: t, Generated: vd.Generated}
	d.vars[vd.ID] = v
	return v, nil
}

// variable decodes a variable slot: a mapping declares, an id refers.
func (d *decoder) variable(n *yaml.Node) (*typed.Var, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		var vd varDoc
		if err := n.Decode(&vd); err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		return d.declare(vd, n)
	case yaml.ScalarNode:
		id, err := d.integer(n)
		if err != nil {
			return nil, err
		}
		v, ok := d.vars[id]
		if !ok {
			return nil, d.errorf(n, "unknown var %d", id)
		}
		return v, nil
	}
	return nil, d.errorf(n, "expected a var declaration or id")
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func (d *decoder) str(n *yaml.Node) (string, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", d.errorf(n, "expected a string")
	}
	return n.Value, nil
}

func (d *decoder) integer(n *yaml.Node) (int, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return 0, d.errorf(n, "expected an integer")
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return 0, d.errorf(n, "%v", err)
	}
	return v, nil
}

func (d *decoder) flag(n *yaml.Node) (bool, error) {
	n = resolve(n)
	if n == nil {
		return false, nil
	}
	if n.Kind != yaml.ScalarNode || n.Tag != "!!bool" {
		return false, d.errorf(n, "expected a boolean")
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, d.errorf(n, "%v", err)
	}
	return b, nil
}

// fields splits a mapping into its keys, rejecting anything not in allowed.
func (d *decoder) fields(n *yaml.Node, kind string, allowed ...string) (map[string]*yaml.Node, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "%s: expected a mapping", kind)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		ok := false
		for _, a := range allowed {
			if a == key {
				ok = true
				break
			}
		}
		if !ok {
			return nil, d.errorf(n.Content[i], "%s: unknown field %q", kind, key)
		}
		out[key] = n.Content[i+1]
	}
	return out, nil
}

// need decodes a required expression field.
func (d *decoder) need(f map[string]*yaml.Node, parent *yaml.Node, kind, key string) (typed.Expr, error) {
	n, ok := f[key]
	if !ok {
		return nil, d.errorf(parent, "%s: %s is required", kind, key)
	}
	return d.expr(n)
}

// optional decodes an expression field that may be absent or null.
func (d *decoder) optional(f map[string]*yaml.Node, key string) (typed.Expr, error) {
	n, ok := f[key]
	if !ok || isNull(n) {
		return nil, nil
	}
	return d.expr(n)
}

func (d *decoder) exprs(n *yaml.Node) ([]typed.Expr, error) {
	n = resolve(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list")
	}
	out := make([]typed.Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// body decodes a statement position; absent means an empty block.
func (d *decoder) body(f map[string]*yaml.Node, key string) (typed.Expr, error) {
	n, ok := f[key]
	if !ok || isNull(n) {
		return typed.Seq(), nil
	}
	return d.expr(n)
}

type annotated interface {
	SetPos(typed.Pos)
	SetType(*typed.Type)
}

func (d *decoder) expr(n *yaml.Node) (typed.Expr, error) {
	n = resolve(n)
	if n == nil {
		return nil, d.errorf(nil, "missing expression")
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.literal(n)
	case yaml.SequenceNode:
		stmts, err := d.exprs(n)
		if err != nil {
			return nil, err
		}
		return typed.Seq(stmts...), nil
	case yaml.MappingNode:
		return d.form(n)
	}
	return nil, d.errorf(n, "unexpected node")
}

func (d *decoder) literal(n *yaml.Node) (typed.Expr, error) {
	switch n.Tag {
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		return typed.IntLit(v), nil
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, d.errorf(n, "%v", err)
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, d.errorf(n, "float literal %s is not finite", n.Value)
		}
		return typed.FloatLit(n.Value), nil
	case "!!bool":
		b, err := d.flag(n)
		if err != nil {
			return nil, err
		}
		return typed.BoolLit(b), nil
	case "!!null":
		return typed.NullLit(), nil
	case "!!str":
		return typed.StringLit(n.Value), nil
	}
	return nil, d.errorf(n, "unsupported literal tag %s", n.Tag)
}

// form decodes a node mapping: one kind key plus optional at and type.
func (d *decoder) form(n *yaml.Node) (typed.Expr, error) {
	var (
		kind     string
		value    *yaml.Node
		at, typ  *yaml.Node
		kindNode *yaml.Node
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "at":
			at = val
		case "type":
			typ = val
		default:
			if kind != "" {
				return nil, d.errorf(key, "node has two kinds: %s and %s", kind, key.Value)
			}
			kind, value, kindNode = key.Value, val, key
		}
	}
	if kind == "" {
		return nil, d.errorf(n, "node has no kind")
	}

	e, err := d.build(kind, value, kindNode)
	if err != nil {
		return nil, err
	}

	a, ok := e.(annotated)
	if !ok {
		return e, nil
	}
	if at != nil {
		text, err := d.str(at)
		if err != nil {
			return nil, err
		}
		pos, err := d.parsePos(text)
		if err != nil {
			return nil, d.errorf(at, "%v", err)
		}
		a.SetPos(pos)
	}
	if typ != nil {
		text, err := d.str(typ)
		if err != nil {
			return nil, err
		}
		t, err := d.parseType(text)
		if err != nil {
			return nil, d.errorf(typ, "%v", err)
		}
		a.SetType(t)
	}
	return e, nil
}
