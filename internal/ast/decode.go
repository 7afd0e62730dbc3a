package ast

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mattpair/conder-sub001/internal/types"
)

// Nodes are serialized as tagged documents, the "kind" field selects the node type:
//
//	{"kind": "VariableCreation", "name": "v", "type": {"kind": "int"}, "value": {"kind": "NumberLiteral", "value": 1}}
//	{"kind": "If", "condition": {...}, "body": [...]}
//	{"kind": "VariableReference", "name": "users", "dots": [{"kind": "MethodInvocation", "name": "len", "args": []}]}

const (
	VARIABLE_REFERENCE_KIND = "VariableReference"
	VARIABLE_CREATION_KIND  = "VariableCreation"
	RETURN_STATEMENT_KIND   = "ReturnStatement"
	IF_KIND                 = "If"
	FOR_IN_KIND             = "ForIn"
	STRING_LITERAL_KIND     = "StringLiteral"
	NUMBER_LITERAL_KIND     = "NumberLiteral"
	ARRAY_LITERAL_KIND      = "ArrayLiteral"
	OBJECT_LITERAL_KIND     = "ObjectLiteral"
	ANON_FUNCTION_KIND      = "AnonFunction"
	FIELD_ACCESS_KIND       = "FieldAccess"
	METHOD_INVOCATION_KIND  = "MethodInvocation"
)

var (
	ErrInvalidNodeDocument = errors.New("invalid node document")
)

type nodeDocument struct {
	Kind      string            `json:"kind"`
	Name      string            `json:"name"`
	RowVar    string            `json:"rowVar"`
	Type      json.RawMessage   `json:"type"`
	Value     json.RawMessage   `json:"value"`
	Condition json.RawMessage   `json:"condition"`
	Iterable  json.RawMessage   `json:"iterable"`
	Body      []json.RawMessage `json:"body"`
	Dots      []json.RawMessage `json:"dots"`
	Args      []json.RawMessage `json:"args"`
	Elements  []json.RawMessage `json:"elements"`
	Fields    []struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	} `json:"fields"`
	Loc Location `json:"loc"`
}

// FunctionDocument is the serialized form of a Function.
type FunctionDocument struct {
	Name      string `json:"name"`
	Parameter *struct {
		Name string          `json:"name"`
		Type json.RawMessage `json:"type"`
	} `json:"parameter"`
	ReturnType json.RawMessage   `json:"returnType"`
	Body       []json.RawMessage `json:"body"`
	Loc        Location          `json:"loc"`
}

// DecodeFunction builds a Function from its serialized form. An absent or null return type
// means that the function returns nothing, a parameter without type is untyped.
func DecodeFunction(doc FunctionDocument) (*Function, error) {
	fn := &Function{
		NodeBase: NodeBase{Loc: doc.Loc},
		Name:     doc.Name,
	}

	if doc.Parameter != nil {
		if doc.Parameter.Name == "" {
			return nil, fmt.Errorf("%w: parameter of function %s has no name", ErrInvalidNodeDocument, doc.Name)
		}
		paramType := types.Any
		if !isAbsent(doc.Parameter.Type) {
			t, err := types.Decode(doc.Parameter.Type)
			if err != nil {
				return nil, fmt.Errorf("parameter of function %s: %w", doc.Name, err)
			}
			paramType = t
		}
		fn.Parameter = &Parameter{Name: doc.Parameter.Name, Type: paramType}
	}

	if !isAbsent(doc.ReturnType) {
		t, err := types.Decode(doc.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("return type of function %s: %w", doc.Name, err)
		}
		fn.ReturnType = t
	}

	body, err := decodeStatements(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("body of function %s: %w", doc.Name, err)
	}
	fn.Body = body
	return fn, nil
}

func DecodeStatement(data []byte) (Statement, error) {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNodeDocument, err)
	}
	base := NodeBase{Loc: doc.Loc}

	switch doc.Kind {
	case VARIABLE_REFERENCE_KIND:
		return decodeVariableReference(doc)
	case VARIABLE_CREATION_KIND:
		if doc.Name == "" {
			return nil, fmtMissingField(doc.Kind, "name")
		}
		if isAbsent(doc.Type) {
			return nil, fmtMissingField(doc.Kind, "type")
		}
		t, err := types.Decode(doc.Type)
		if err != nil {
			return nil, err
		}
		value, err := decodeRequiredAssignable(doc.Kind, "value", doc.Value)
		if err != nil {
			return nil, err
		}
		return &VariableCreation{NodeBase: base, Name: doc.Name, Type: t, Value: value}, nil
	case RETURN_STATEMENT_KIND:
		stmt := &ReturnStatement{NodeBase: base}
		if !isAbsent(doc.Value) {
			value, err := DecodeAssignable(doc.Value)
			if err != nil {
				return nil, err
			}
			stmt.Value = value
		}
		return stmt, nil
	case IF_KIND:
		condition, err := decodeRequiredAssignable(doc.Kind, "condition", doc.Condition)
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(doc.Body)
		if err != nil {
			return nil, err
		}
		return &If{NodeBase: base, Condition: condition, Body: body}, nil
	case FOR_IN_KIND:
		iterable, err := decodeRequiredAssignable(doc.Kind, "iterable", doc.Iterable)
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(doc.Body)
		if err != nil {
			return nil, err
		}
		return &ForIn{NodeBase: base, RowVarName: doc.RowVar, Iterable: iterable, Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a statement kind", ErrInvalidNodeDocument, doc.Kind)
	}
}

func DecodeAssignable(data []byte) (Assignable, error) {
	var doc nodeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNodeDocument, err)
	}
	base := NodeBase{Loc: doc.Loc}

	switch doc.Kind {
	case VARIABLE_REFERENCE_KIND:
		return decodeVariableReference(doc)
	case STRING_LITERAL_KIND:
		var s string
		if err := json.Unmarshal(doc.Value, &s); err != nil {
			return nil, fmt.Errorf("%w: the value of a string literal should be a string", ErrInvalidNodeDocument)
		}
		return &StringLiteral{NodeBase: base, Value: s}, nil
	case NUMBER_LITERAL_KIND:
		text := string(bytes.Trim(bytes.TrimSpace(doc.Value), `"`))
		if text == "" || text == "null" {
			return nil, fmtMissingField(doc.Kind, "value")
		}
		return &NumberLiteral{NodeBase: base, Text: text}, nil
	case ARRAY_LITERAL_KIND:
		elements, err := decodeAssignables(doc.Elements)
		if err != nil {
			return nil, err
		}
		return &ArrayLiteral{NodeBase: base, Elements: elements}, nil
	case OBJECT_LITERAL_KIND:
		lit := &ObjectLiteral{NodeBase: base}
		for _, field := range doc.Fields {
			value, err := decodeRequiredAssignable(doc.Kind, "fields."+field.Name, field.Value)
			if err != nil {
				return nil, err
			}
			lit.Fields = append(lit.Fields, FieldLiteral{Name: field.Name, Value: value})
		}
		return lit, nil
	case ANON_FUNCTION_KIND:
		if doc.RowVar == "" {
			return nil, fmtMissingField(doc.Kind, "rowVar")
		}
		body, err := decodeStatements(doc.Body)
		if err != nil {
			return nil, err
		}
		return &AnonFunction{NodeBase: base, RowVarName: doc.RowVar, Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not an assignable kind", ErrInvalidNodeDocument, doc.Kind)
	}
}

func decodeVariableReference(doc nodeDocument) (*VariableReference, error) {
	if doc.Name == "" {
		return nil, fmtMissingField(doc.Kind, "name")
	}
	ref := &VariableReference{NodeBase: NodeBase{Loc: doc.Loc}, Name: doc.Name}

	for _, rawDot := range doc.Dots {
		var dotDoc nodeDocument
		if err := json.Unmarshal(rawDot, &dotDoc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidNodeDocument, err)
		}
		if dotDoc.Name == "" {
			return nil, fmtMissingField(dotDoc.Kind, "name")
		}
		base := NodeBase{Loc: dotDoc.Loc}

		switch dotDoc.Kind {
		case FIELD_ACCESS_KIND:
			ref.Dots = append(ref.Dots, &FieldAccess{NodeBase: base, Name: dotDoc.Name})
		case METHOD_INVOCATION_KIND:
			args, err := decodeAssignables(dotDoc.Args)
			if err != nil {
				return nil, err
			}
			ref.Dots = append(ref.Dots, &MethodInvocation{NodeBase: base, Name: dotDoc.Name, Args: args})
		default:
			return nil, fmt.Errorf("%w: %q is not a dot statement kind", ErrInvalidNodeDocument, dotDoc.Kind)
		}
	}
	return ref, nil
}

func decodeStatements(docs []json.RawMessage) ([]Statement, error) {
	statements := make([]Statement, 0, len(docs))
	for _, doc := range docs {
		stmt, err := DecodeStatement(doc)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func decodeAssignables(docs []json.RawMessage) ([]Assignable, error) {
	assignables := make([]Assignable, 0, len(docs))
	for _, doc := range docs {
		a, err := DecodeAssignable(doc)
		if err != nil {
			return nil, err
		}
		assignables = append(assignables, a)
	}
	return assignables, nil
}

func decodeRequiredAssignable(kind string, field string, data json.RawMessage) (Assignable, error) {
	if isAbsent(data) {
		return nil, fmtMissingField(kind, field)
	}
	return DecodeAssignable(data)
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func fmtMissingField(kind string, field string) error {
	return fmt.Errorf("%w: %s node has no %s", ErrInvalidNodeDocument, kind, field)
}
