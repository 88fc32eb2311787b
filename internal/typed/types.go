package typed

import (
	"fmt"
	"strings"
)

// Type represents a statically resolved type handed over by the front end
type Type struct {
	Name       string    // "Int", "Float", "String", "Bool", "Void", "Dynamic", "Array", "Map", enum or class name
	IsEnum     bool
	Enum       *EnumInfo // non-nil if IsEnum
	IsGeneric  bool      // true if TypeParams is non-empty
	TypeParams []*Type   // e.g., [TypeInt] for Array<Int>
}

// EnumInfo describes a tagged union and its constructors in declaration order
type EnumInfo struct {
	Name  string
	Ctors []*CtorInfo
}

// CtorInfo describes one constructor of a tagged union
type CtorInfo struct {
	Name   string
	Index  int
	Params []ParamInfo // empty for zero-parameter constructors
}

// ParamInfo holds a constructor parameter's declared name and type
type ParamInfo struct {
	Name string
	Type *Type
}

// Builtin types
var (
	TypeInt     = &Type{Name: "Int"}
	TypeFloat   = &Type{Name: "Float"}
	TypeString  = &Type{Name: "String"}
	TypeBool    = &Type{Name: "Bool"}
	TypeVoid    = &Type{Name: "Void"}
	TypeDynamic = &Type{Name: "Dynamic"}
)

// ArrayOf returns the Array<T> type.
func ArrayOf(elem *Type) *Type {
	return &Type{Name: "Array", IsGeneric: true, TypeParams: []*Type{elem}}
}

// MapOf returns the Map<K, V> type.
func MapOf(key, value *Type) *Type {
	return &Type{Name: "Map", IsGeneric: true, TypeParams: []*Type{key, value}}
}

// EnumType returns the type of values of the given tagged union.
func EnumType(info *EnumInfo) *Type {
	return &Type{Name: info.Name, IsEnum: true, Enum: info}
}

// Ctor returns the constructor at index, or nil when out of range.
func (e *EnumInfo) Ctor(index int) *CtorInfo {
	if e == nil || index < 0 || index >= len(e.Ctors) {
		return nil
	}
	return e.Ctors[index]
}

// CtorByName looks a constructor up by name.
func (e *EnumInfo) CtorByName(name string) *CtorInfo {
	if e == nil {
		return nil
	}
	for _, c := range e.Ctors {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Arity returns the number of positional parameters of the constructor.
func (c *CtorInfo) Arity() int {
	if c == nil {
		return 0
	}
	return len(c.Params)
}

// ParseType resolves a textual type reference such as "Array<Int>" or
// "Map<String, Array<Int>>". Enum names are resolved against enums; any other
// identifier is treated as a class type.
func ParseType(text string, enums map[string]*EnumInfo) (*Type, error) {
	p := &typeParser{src: text, enums: enums}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q in type %q", p.src[p.pos:], text)
	}
	return t, nil
}

type typeParser struct {
	src   string
	pos   int
	enums map[string]*EnumInfo
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (*Type, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isTypeNameChar(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, fmt.Errorf("expected type name in %q", p.src)
	}

	var args []*Type
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("unterminated type arguments in %q", p.src)
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("unexpected %q in type %q", p.src[p.pos], p.src)
		}
	}

	switch name {
	case "Int":
		return TypeInt, nil
	case "Float":
		return TypeFloat, nil
	case "String":
		return TypeString, nil
	case "Bool":
		return TypeBool, nil
	case "Void":
		return TypeVoid, nil
	case "Dynamic":
		return TypeDynamic, nil
	case "Array":
		if len(args) != 1 {
			return nil, fmt.Errorf("Array takes 1 type argument, got %d", len(args))
		}
		return ArrayOf(args[0]), nil
	case "Map":
		if len(args) != 2 {
			return nil, fmt.Errorf("Map takes 2 type arguments, got %d", len(args))
		}
		return MapOf(args[0], args[1]), nil
	}

	if info, ok := p.enums[name]; ok {
		t := EnumType(info)
		if len(args) > 0 {
			t.IsGeneric = true
			t.TypeParams = args
		}
		return t, nil
	}
	return &Type{Name: name, IsGeneric: len(args) > 0, TypeParams: args}, nil
}

func isTypeNameChar(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IsArray reports whether t is Array<T>.
func (t *Type) IsArray() bool { return t != nil && t.Name == "Array" }

// IsMap reports whether t is Map<K, V>.
func (t *Type) IsMap() bool { return t != nil && t.Name == "Map" }

// IsInt reports whether t is Int.
func (t *Type) IsInt() bool { return t != nil && t.Name == "Int" }

// IsString reports whether t is String.
func (t *Type) IsString() bool { return t != nil && t.Name == "String" }

// Elem returns the element type of an Array, or nil.
func (t *Type) Elem() *Type {
	if t.IsArray() && len(t.TypeParams) == 1 {
		return t.TypeParams[0]
	}
	return nil
}

// Equal checks if two types are equal
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Name != other.Name {
		return false
	}
	if t.IsGeneric != other.IsGeneric {
		return false
	}
	if t.IsGeneric {
		if len(t.TypeParams) != len(other.TypeParams) {
			return false
		}
		for i := range t.TypeParams {
			if !t.TypeParams[i].Equal(other.TypeParams[i]) {
				return false
			}
		}
	}
	return true
}

// String returns the string representation of the type
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.IsGeneric && len(t.TypeParams) > 0 {
		params := make([]string, len(t.TypeParams))
		for i, p := range t.TypeParams {
			params[i] = p.String()
		}
		return t.Name + "<" + strings.Join(params, ", ") + ">"
	}
	return t.Name
}
