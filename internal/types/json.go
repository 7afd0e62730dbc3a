package types

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// The serialized form of a type is the schema document understood by the VM:
//
//	{"kind": "int", "data": null}
//	{"kind": "Array", "data": [<elem>]}
//	{"kind": "Optional", "data": [<inner>]}
//	{"kind": "Object", "data": {"<field>": <type>, ...}}
//	{"kind": "Ref", "data": "<store>"}

var (
	ErrInvalidTypeDocument = errors.New("invalid type document")
)

type document struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	return marshalDocument(Kind(p), nil)
}

func (o *Object) MarshalJSON() ([]byte, error) {
	fields := o.Fields
	if fields == nil {
		fields = map[string]Type{}
	}
	return marshalDocument(ObjectKind, fields)
}

func (a *Array) MarshalJSON() ([]byte, error) {
	return marshalDocument(ArrayKind, []Type{a.Elem})
}

func (o *Optional) MarshalJSON() ([]byte, error) {
	return marshalDocument(OptionalKind, []Type{o.Inner})
}

func (r *Ref) MarshalJSON() ([]byte, error) {
	return marshalDocument(RefKind, r.Store)
}

func (anyType) MarshalJSON() ([]byte, error) {
	return marshalDocument(AnyKind, nil)
}

func (noneType) MarshalJSON() ([]byte, error) {
	return marshalDocument(NoneKind, nil)
}

func marshalDocument(kind Kind, data any) ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		Data any  `json:"data"`
	}{kind, data})
}

// Decode parses the serialized form of a type.
func Decode(data []byte) (Type, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTypeDocument, err)
	}

	switch doc.Kind {
	case StringKind, IntKind, DoubleKind, BoolKind:
		return Primitive(doc.Kind), nil
	case AnyKind:
		return Any, nil
	case NoneKind:
		return None, nil
	case RefKind:
		var store string
		if err := json.Unmarshal(doc.Data, &store); err != nil || store == "" {
			return nil, fmt.Errorf("%w: a Ref should have a store name as data", ErrInvalidTypeDocument)
		}
		return NewRef(store), nil
	case ArrayKind, OptionalKind:
		var inner []json.RawMessage
		if err := json.Unmarshal(doc.Data, &inner); err != nil || len(inner) != 1 {
			return nil, fmt.Errorf("%w: %s should have a single element list as data", ErrInvalidTypeDocument, doc.Kind)
		}
		innerType, err := Decode(inner[0])
		if err != nil {
			return nil, err
		}
		if doc.Kind == ArrayKind {
			return NewArray(innerType), nil
		}
		return NewOptional(innerType), nil
	case ObjectKind:
		var rawFields map[string]json.RawMessage
		if err := json.Unmarshal(doc.Data, &rawFields); err != nil {
			return nil, fmt.Errorf("%w: an Object should have a field map as data", ErrInvalidTypeDocument)
		}
		fields := make(map[string]Type, len(rawFields))
		for name, rawField := range rawFields {
			fieldType, err := Decode(rawField)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			fields[name] = fieldType
		}
		return NewObject(fields), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTypeDocument, doc.Kind)
	}
}
