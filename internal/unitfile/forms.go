package unitfile

import (
	"github.com/lhaig/exlower/internal/typed"
	"gopkg.in/yaml.v3"
)

// build decodes the value of a node mapping whose kind key is kind.
func (d *decoder) build(kind string, n, key *yaml.Node) (typed.Expr, error) {
	switch kind {
	case "this":
		return &typed.Const{Info: typed.Info{Type: typed.TypeDynamic}, Kind: typed.ConstThis}, nil

	case "local":
		v, err := d.variable(n)
		if err != nil {
			return nil, err
		}
		return typed.Ref(v), nil

	case "decl":
		f, err := d.fields(n, kind, "var", "init")
		if err != nil {
			return nil, err
		}
		vn, ok := f["var"]
		if !ok {
			return nil, d.errorf(key, "decl: var is required")
		}
		v, err := d.variable(vn)
		if err != nil {
			return nil, err
		}
		init, err := d.optional(f, "init")
		if err != nil {
			return nil, err
		}
		return typed.Decl(v, init), nil

	case "assign":
		f, err := d.fields(n, kind, "target", "op", "value")
		if err != nil {
			return nil, err
		}
		target, err := d.need(f, key, kind, "target")
		if err != nil {
			return nil, err
		}
		value, err := d.need(f, key, kind, "value")
		if err != nil {
			return nil, err
		}
		a := typed.Set(target, value)
		if on, ok := f["op"]; ok && !isNull(on) {
			if a.Op, err = d.binaryOp(on); err != nil {
				return nil, err
			}
		}
		return a, nil

	case "binary":
		f, err := d.fields(n, kind, "op", "left", "right")
		if err != nil {
			return nil, err
		}
		on, ok := f["op"]
		if !ok {
			return nil, d.errorf(key, "binary: op is required")
		}
		op, err := d.binaryOp(on)
		if err != nil {
			return nil, err
		}
		left, err := d.need(f, key, kind, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.need(f, key, kind, "right")
		if err != nil {
			return nil, err
		}
		return typed.Bin(op, left, right), nil

	case "unary":
		return d.unary(n, key)

	case "field":
		f, err := d.fields(n, kind, "object", "name", "static")
		if err != nil {
			return nil, err
		}
		object, err := d.need(f, key, kind, "object")
		if err != nil {
			return nil, err
		}
		name, err := d.str(f["name"])
		if err != nil {
			return nil, err
		}
		static, err := d.flag(f["static"])
		if err != nil {
			return nil, err
		}
		fld := typed.Dot(object, name, typed.TypeDynamic)
		_, isRef := object.(*typed.TypeRef)
		fld.Static = static || isRef
		return fld, nil

	case "index":
		f, err := d.fields(n, kind, "object", "index")
		if err != nil {
			return nil, err
		}
		object, err := d.need(f, key, kind, "object")
		if err != nil {
			return nil, err
		}
		index, err := d.need(f, key, kind, "index")
		if err != nil {
			return nil, err
		}
		ix := typed.At(object, index)
		if ix.Type == nil {
			ix.Type = typed.TypeDynamic
		}
		return ix, nil

	case "call":
		f, err := d.fields(n, kind, "fn", "args")
		if err != nil {
			return nil, err
		}
		fn, err := d.need(f, key, kind, "fn")
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		return typed.CallOf(typed.TypeDynamic, fn, args...), nil

	case "method":
		f, err := d.fields(n, kind, "object", "name", "args")
		if err != nil {
			return nil, err
		}
		object, err := d.need(f, key, kind, "object")
		if err != nil {
			return nil, err
		}
		name, err := d.str(f["name"])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		return typed.CallOf(typed.TypeDynamic, typed.Dot(object, name, typed.TypeDynamic), args...), nil

	case "static":
		f, err := d.fields(n, kind, "module", "name", "args")
		if err != nil {
			return nil, err
		}
		module, err := d.str(f["module"])
		if err != nil {
			return nil, err
		}
		name, err := d.str(f["name"])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		return typed.Static(typed.TypeDynamic, module, name, args...), nil

	case "new":
		f, err := d.fields(n, kind, "class", "args")
		if err != nil {
			return nil, err
		}
		class, err := d.str(f["class"])
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		return &typed.New{Info: typed.Info{Type: &typed.Type{Name: class}}, Class: class, Args: args}, nil

	case "array":
		elems, err := d.exprs(n)
		if err != nil {
			return nil, err
		}
		elem := typed.TypeDynamic
		if len(elems) > 0 && elems[0].ExprType() != nil {
			elem = elems[0].ExprType()
		}
		return typed.Array(elem, elems...), nil

	case "object":
		return d.object(n)

	case "paren":
		inner, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		return &typed.Paren{Info: typed.Info{Type: inner.ExprType()}, Expr: inner}, nil

	case "block":
		stmts, err := d.exprs(n)
		if err != nil {
			return nil, err
		}
		return typed.Seq(stmts...), nil

	case "if":
		f, err := d.fields(n, kind, "cond", "then", "else")
		if err != nil {
			return nil, err
		}
		cond, err := d.need(f, key, kind, "cond")
		if err != nil {
			return nil, err
		}
		then, err := d.body(f, "then")
		if err != nil {
			return nil, err
		}
		els, err := d.optional(f, "else")
		if err != nil {
			return nil, err
		}
		t := typed.TypeVoid
		if els != nil {
			t = then.ExprType()
		}
		return &typed.If{Info: typed.Info{Type: t}, Cond: cond, Then: then, Else: els}, nil

	case "while":
		f, err := d.fields(n, kind, "cond", "body", "do")
		if err != nil {
			return nil, err
		}
		cond, err := d.need(f, key, kind, "cond")
		if err != nil {
			return nil, err
		}
		body, err := d.body(f, "body")
		if err != nil {
			return nil, err
		}
		doWhile, err := d.flag(f["do"])
		if err != nil {
			return nil, err
		}
		return &typed.While{Info: typed.Info{Type: typed.TypeVoid}, Cond: cond, Body: body, DoWhile: doWhile}, nil

	case "for":
		return d.forLoop(n, key)

	case "switch":
		return d.switchExpr(n, key)

	case "param":
		f, err := d.fields(n, kind, "subject", "enum", "ctor", "index")
		if err != nil {
			return nil, err
		}
		subject, err := d.need(f, key, kind, "subject")
		if err != nil {
			return nil, err
		}
		enum, ctor, err := d.ctor(f["enum"], f["ctor"], key)
		if err != nil {
			return nil, err
		}
		index, err := d.integer(f["index"])
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= enum.Ctor(ctor).Arity() {
			return nil, d.errorf(f["index"], "param: %s.%s has no parameter %d", enum.Name, enum.Ctor(ctor).Name, index)
		}
		return typed.Extract(subject, enum, ctor, index), nil

	case "enumindex":
		subject, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		return &typed.EnumIndex{Info: typed.Info{Type: typed.TypeInt}, Subject: subject}, nil

	case "construct":
		f, err := d.fields(n, kind, "enum", "ctor", "args")
		if err != nil {
			return nil, err
		}
		enum, ctor, err := d.ctor(f["enum"], f["ctor"], key)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(f["args"])
		if err != nil {
			return nil, err
		}
		if want := enum.Ctor(ctor).Arity(); len(args) != want {
			return nil, d.errorf(key, "construct: %s.%s takes %d arguments, got %d", enum.Name, enum.Ctor(ctor).Name, want, len(args))
		}
		return typed.Construct(enum, ctor, args...), nil

	case "func":
		f, err := d.fields(n, kind, "params", "body")
		if err != nil {
			return nil, err
		}
		params, err := d.variables(f["params"])
		if err != nil {
			return nil, err
		}
		body, err := d.body(f, "body")
		if err != nil {
			return nil, err
		}
		return &typed.Func{Info: typed.Info{Type: typed.TypeDynamic}, Params: params, Body: body}, nil

	case "return":
		var value typed.Expr
		if !isNull(n) {
			v, err := d.expr(n)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &typed.Return{Info: typed.Info{Type: typed.TypeVoid}, Value: value}, nil

	case "break":
		return &typed.Break{Info: typed.Info{Type: typed.TypeVoid}}, nil

	case "continue":
		return &typed.Continue{Info: typed.Info{Type: typed.TypeVoid}}, nil

	case "throw":
		value, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		return &typed.Throw{Info: typed.Info{Type: typed.TypeVoid}, Value: value}, nil

	case "try":
		return d.tryExpr(n, key)

	case "cast":
		inner, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		return &typed.Cast{Info: typed.Info{Type: inner.ExprType()}, Expr: inner}, nil

	case "typeref":
		name, err := d.str(n)
		if err != nil {
			return nil, err
		}
		return &typed.TypeRef{Info: typed.Info{Type: typed.TypeDynamic}, Name: name}, nil

	case "raw":
		code, err := d.str(n)
		if err != nil {
			return nil, err
		}
		return &typed.Raw{Info: typed.Info{Type: typed.TypeDynamic}, Code: code}, nil
	}
	return nil, d.errorf(key, "unknown node kind %q", kind)
}

func (d *decoder) binaryOp(n *yaml.Node) (typed.BinaryOp, error) {
	sym, err := d.str(n)
	if err != nil {
		return typed.OpNone, err
	}
	op, ok := typed.LookupBinaryOp(sym)
	if !ok {
		return typed.OpNone, d.errorf(n, "unknown binary operator %q", sym)
	}
	return op, nil
}

func (d *decoder) unary(n, key *yaml.Node) (typed.Expr, error) {
	f, err := d.fields(n, "unary", "op", "operand", "postfix")
	if err != nil {
		return nil, err
	}
	sym, err := d.str(f["op"])
	if err != nil {
		return nil, err
	}
	op, ok := typed.LookupUnaryOp(sym)
	if !ok {
		return nil, d.errorf(f["op"], "unknown unary operator %q", sym)
	}
	operand, err := d.need(f, key, "unary", "operand")
	if err != nil {
		return nil, err
	}
	postfix, err := d.flag(f["postfix"])
	if err != nil {
		return nil, err
	}
	t := operand.ExprType()
	if op == typed.OpNot {
		t = typed.TypeBool
	}
	return &typed.Unary{Info: typed.Info{Type: t}, Op: op, Postfix: postfix, Operand: operand}, nil
}

// object decodes an anonymous structure; field order follows the document.
func (d *decoder) object(n *yaml.Node) (typed.Expr, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "object: expected a mapping")
	}
	obj := &typed.ObjectDecl{Info: typed.Info{Type: typed.TypeDynamic}}
	for i := 0; i+1 < len(n.Content); i += 2 {
		value, err := d.expr(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, typed.ObjectField{Name: n.Content[i].Value, Value: value})
	}
	return obj, nil
}

func (d *decoder) variables(n *yaml.Node) ([]*typed.Var, error) {
	n = resolve(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of vars")
	}
	var out []*typed.Var
	for _, c := range n.Content {
		v, err := d.variable(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) forLoop(n, key *yaml.Node) (typed.Expr, error) {
	f, err := d.fields(n, "for", "var", "key", "iter", "body")
	if err != nil {
		return nil, err
	}
	vn, ok := f["var"]
	if !ok {
		return nil, d.errorf(key, "for: var is required")
	}
	v, err := d.variable(vn)
	if err != nil {
		return nil, err
	}
	loop := &typed.For{Info: typed.Info{Type: typed.TypeVoid}, Var: v}
	if kn, ok := f["key"]; ok && !isNull(kn) {
		if loop.KeyVar, err = d.variable(kn); err != nil {
			return nil, err
		}
	}
	if loop.Iter, err = d.need(f, key, "for", "iter"); err != nil {
		return nil, err
	}
	if loop.Body, err = d.body(f, "body"); err != nil {
		return nil, err
	}
	return loop, nil
}

// ctor resolves an enum name and a constructor given by name or index.
func (d *decoder) ctor(enumNode, ctorNode, key *yaml.Node) (*typed.EnumInfo, int, error) {
	if enumNode == nil || ctorNode == nil {
		return nil, 0, d.errorf(key, "enum and ctor are required")
	}
	name, err := d.str(enumNode)
	if err != nil {
		return nil, 0, err
	}
	enum, ok := d.enums[name]
	if !ok {
		return nil, 0, d.errorf(enumNode, "unknown enum %s", name)
	}
	ctorNode = resolve(ctorNode)
	if ctorNode.Tag == "!!int" {
		index, err := d.integer(ctorNode)
		if err != nil {
			return nil, 0, err
		}
		if enum.Ctor(index) == nil {
			return nil, 0, d.errorf(ctorNode, "%s has no constructor %d", name, index)
		}
		return enum, index, nil
	}
	cname, err := d.str(ctorNode)
	if err != nil {
		return nil, 0, err
	}
	c := enum.CtorByName(cname)
	if c == nil {
		return nil, 0, d.errorf(ctorNode, "%s has no constructor %s", name, cname)
	}
	return enum, c.Index, nil
}

func (d *decoder) switchExpr(n, key *yaml.Node) (typed.Expr, error) {
	f, err := d.fields(n, "switch", "subject", "cases", "default")
	if err != nil {
		return nil, err
	}
	sw := &typed.Switch{Info: typed.Info{Type: typed.TypeVoid}}
	if sw.Subject, err = d.need(f, key, "switch", "subject"); err != nil {
		return nil, err
	}
	cases := resolve(f["cases"])
	if !isNull(cases) {
		if cases.Kind != yaml.SequenceNode {
			return nil, d.errorf(cases, "switch: cases must be a list")
		}
		for _, cn := range cases.Content {
			c, err := d.switchCase(cn)
			if err != nil {
				return nil, err
			}
			sw.Cases = append(sw.Cases, c)
		}
	}
	if sw.Default, err = d.optional(f, "default"); err != nil {
		return nil, err
	}
	if sw.Default != nil && len(sw.Cases) > 0 {
		sw.Type = sw.Cases[0].Body.ExprType()
	}
	return sw, nil
}

func (d *decoder) switchCase(n *yaml.Node) (*typed.Case, error) {
	f, err := d.fields(n, "case", "values", "ctor", "guard", "body", "at")
	if err != nil {
		return nil, err
	}
	c := &typed.Case{}
	if at, ok := f["at"]; ok {
		text, err := d.str(at)
		if err != nil {
			return nil, err
		}
		if c.Pos, err = d.parsePos(text); err != nil {
			return nil, d.errorf(at, "%v", err)
		}
	}
	if c.Values, err = d.exprs(f["values"]); err != nil {
		return nil, err
	}
	if cn, ok := f["ctor"]; ok {
		if len(c.Values) > 0 {
			return nil, d.errorf(cn, "case: values and ctor are mutually exclusive")
		}
		if c.Ctor, err = d.ctorPattern(cn); err != nil {
			return nil, err
		}
	}
	if c.Ctor == nil && len(c.Values) == 0 {
		return nil, d.errorf(n, "case: one of values or ctor is required")
	}
	if c.Guard, err = d.optional(f, "guard"); err != nil {
		return nil, err
	}
	if c.Body, err = d.body(f, "body"); err != nil {
		return nil, err
	}
	return c, nil
}

// ctorPattern decodes {enum, ctor, params}. A null param slot is a
// parameter whose name the front end did not keep.
func (d *decoder) ctorPattern(n *yaml.Node) (*typed.CtorPattern, error) {
	f, err := d.fields(n, "ctor", "enum", "ctor", "params")
	if err != nil {
		return nil, err
	}
	enum, ctor, err := d.ctor(f["enum"], f["ctor"], n)
	if err != nil {
		return nil, err
	}
	pat := &typed.CtorPattern{Enum: enum, Ctor: ctor}
	params := resolve(f["params"])
	if isNull(params) {
		return pat, nil
	}
	if params.Kind != yaml.SequenceNode {
		return nil, d.errorf(params, "ctor: params must be a list")
	}
	if arity := enum.Ctor(ctor).Arity(); len(params.Content) > arity {
		return nil, d.errorf(params, "ctor: %s.%s has %d parameters, got %d", enum.Name, enum.Ctor(ctor).Name, arity, len(params.Content))
	}
	for _, pn := range params.Content {
		if isNull(pn) {
			pat.Params = append(pat.Params, nil)
			continue
		}
		v, err := d.variable(pn)
		if err != nil {
			return nil, err
		}
		pat.Params = append(pat.Params, v)
	}
	return pat, nil
}

func (d *decoder) tryExpr(n, key *yaml.Node) (typed.Expr, error) {
	f, err := d.fields(n, "try", "body", "catches")
	if err != nil {
		return nil, err
	}
	t := &typed.Try{Info: typed.Info{Type: typed.TypeVoid}}
	if t.Body, err = d.body(f, "body"); err != nil {
		return nil, err
	}
	catches := resolve(f["catches"])
	if isNull(catches) {
		return nil, d.errorf(key, "try: at least one catch is required")
	}
	if catches.Kind != yaml.SequenceNode {
		return nil, d.errorf(catches, "try: catches must be a list")
	}
	for _, cn := range catches.Content {
		cf, err := d.fields(cn, "catch", "var", "body")
		if err != nil {
			return nil, err
		}
		vn, ok := cf["var"]
		if !ok {
			return nil, d.errorf(cn, "catch: var is required")
		}
		v, err := d.variable(vn)
		if err != nil {
			return nil, err
		}
		body, err := d.body(cf, "body")
		if err != nil {
			return nil, err
		}
		t.Catches = append(t.Catches, &typed.Catch{Var: v, Body: body})
	}
	return t, nil
}
