package types

import (
	"errors"
	"sort"
	"strings"
)

// Kind is the tag of a resolved type, it is also the value of the "kind" field in the serialized form.
type Kind string

const (
	StringKind   Kind = "string"
	IntKind      Kind = "int"
	DoubleKind   Kind = "double"
	BoolKind     Kind = "bool"
	ObjectKind   Kind = "Object"
	ArrayKind    Kind = "Array"
	OptionalKind Kind = "Optional"
	RefKind      Kind = "Ref"

	//pseudo-types, they only exist during compilation.

	AnyKind  Kind = "Any"
	NoneKind Kind = "none"
)

var (
	ErrUnreachable = errors.New("unreachable")
)

// A Type is a fully resolved type: Primitive, *Object, *Array, *Optional or *Ref, or one of the
// two compiler-local pseudo-types Any and None. Values are immutable once built.
type Type interface {
	Kind() Kind
	isType()
}

type Primitive Kind

const (
	String Primitive = Primitive(StringKind)
	Int    Primitive = Primitive(IntKind)
	Double Primitive = Primitive(DoubleKind)
	Bool   Primitive = Primitive(BoolKind)
)

func (p Primitive) Kind() Kind { return Kind(p) }
func (Primitive) isType()      {}

// IsNumeric returns true for int and double.
func (p Primitive) IsNumeric() bool {
	return p == Int || p == Double
}

func IsPrimitiveKind(k Kind) bool {
	switch k {
	case StringKind, IntKind, DoubleKind, BoolKind:
		return true
	}
	return false
}

type Object struct {
	Fields map[string]Type
}

func NewObject(fields map[string]Type) *Object {
	if fields == nil {
		fields = map[string]Type{}
	}
	return &Object{Fields: fields}
}

func (*Object) Kind() Kind { return ObjectKind }
func (*Object) isType()    {}

// FieldNames returns the sorted names of the fields.
func (o *Object) FieldNames() []string {
	names := make([]string, 0, len(o.Fields))
	for name := range o.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *Object) Field(name string) (Type, bool) {
	t, ok := o.Fields[name]
	return t, ok
}

type Array struct {
	Elem Type
}

func NewArray(elem Type) *Array {
	return &Array{Elem: elem}
}

func (*Array) Kind() Kind { return ArrayKind }
func (*Array) isType()    {}

type Optional struct {
	Inner Type
}

func NewOptional(inner Type) *Optional {
	return &Optional{Inner: inner}
}

func (*Optional) Kind() Kind { return OptionalKind }
func (*Optional) isType()    {}

// A Ref is a pointer to a single record of a hierarchical store.
type Ref struct {
	Store string
}

func NewRef(store string) *Ref {
	return &Ref{Store: store}
}

func (*Ref) Kind() Kind { return RefKind }
func (*Ref) isType()    {}

type anyType struct{}

func (anyType) Kind() Kind { return AnyKind }
func (anyType) isType()    {}

type noneType struct{}

func (noneType) Kind() Kind { return NoneKind }
func (noneType) isType()    {}

var (
	// Any matches every type, it is the target of expressions whose value is discarded.
	Any Type = anyType{}

	// None is the target type of functions returning nothing.
	None Type = noneType{}
)

func IsAny(t Type) bool {
	return t.Kind() == AnyKind
}

func IsNone(t Type) bool {
	return t.Kind() == NoneKind
}

// Stringify returns a short human readable representation of t, it is used in error messages.
func Stringify(t Type) string {
	buf := &strings.Builder{}
	stringify(t, buf)
	return buf.String()
}

func stringify(t Type, buf *strings.Builder) {
	switch t := t.(type) {
	case Primitive:
		buf.WriteString(string(t))
	case *Object:
		buf.WriteByte('{')
		for i, name := range t.FieldNames() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(name)
			buf.WriteString(": ")
			stringify(t.Fields[name], buf)
		}
		buf.WriteByte('}')
	case *Array:
		buf.WriteString("Array<")
		stringify(t.Elem, buf)
		buf.WriteByte('>')
	case *Optional:
		buf.WriteString("Optional<")
		stringify(t.Inner, buf)
		buf.WriteByte('>')
	case *Ref:
		buf.WriteString("Ref<")
		buf.WriteString(t.Store)
		buf.WriteByte('>')
	case anyType:
		buf.WriteString("any")
	case noneType:
		buf.WriteString("none")
	default:
		panic(ErrUnreachable)
	}
}
