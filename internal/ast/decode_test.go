package ast

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/mattpair/conder-sub001/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFunction(t *testing.T) {
	var doc FunctionDocument
	err := json.Unmarshal([]byte(`{
		"name": "addUser",
		"parameter": {"name": "u", "type": {"kind": "Object", "data": {"name": {"kind": "string"}}}},
		"body": [
			{
				"kind": "VariableReference", "name": "users",
				"dots": [{"kind": "MethodInvocation", "name": "append", "args": [{"kind": "VariableReference", "name": "u"}]}],
				"loc": {"line": 2, "column": 3}
			}
		]
	}`), &doc)
	require.NoError(t, err)

	fn, err := DecodeFunction(doc)
	require.NoError(t, err)

	assert.Equal(t, "addUser", fn.Name)
	assert.Nil(t, fn.ReturnType)
	require.NotNil(t, fn.Parameter)
	assert.Equal(t, "u", fn.Parameter.Name)
	assert.True(t, types.Equal(types.NewObject(map[string]types.Type{"name": types.String}), fn.Parameter.Type))

	require.Len(t, fn.Body, 1)
	ref := fn.Body[0].(*VariableReference)
	assert.Equal(t, "users", ref.Name)
	assert.Equal(t, "2:3", ref.Base().Loc.String())
	require.Len(t, ref.Dots, 1)

	invocation := ref.Dots[0].(*MethodInvocation)
	assert.Equal(t, "append", invocation.Name)
	require.Len(t, invocation.Args, 1)
	assert.True(t, invocation.Args[0].(*VariableReference).IsBare())

	t.Run("untyped parameter", func(t *testing.T) {
		fn, err := DecodeFunction(FunctionDocument{
			Name: "f",
			Parameter: &struct {
				Name string          `json:"name"`
				Type json.RawMessage `json:"type"`
			}{Name: "p"},
			ReturnType: json.RawMessage(`null`),
		})
		require.NoError(t, err)
		assert.Equal(t, types.Any, fn.Parameter.Type)
		assert.Nil(t, fn.ReturnType)
		assert.Empty(t, fn.Body)
	})
}

func TestDecodeStatement(t *testing.T) {
	t.Run("variable creation", func(t *testing.T) {
		stmt, err := DecodeStatement([]byte(`{"kind": "VariableCreation", "name": "v", "type": {"kind": "double"}, "value": {"kind": "NumberLiteral", "value": 1.5}}`))
		require.NoError(t, err)

		creation := stmt.(*VariableCreation)
		assert.Equal(t, "v", creation.Name)
		assert.Equal(t, types.Double, creation.Type)
		assert.Equal(t, "1.5", creation.Value.(*NumberLiteral).Text)
	})

	t.Run("number literal given as a string", func(t *testing.T) {
		stmt, err := DecodeStatement([]byte(`{"kind": "ReturnStatement", "value": {"kind": "NumberLiteral", "value": "12"}}`))
		require.NoError(t, err)
		assert.Equal(t, "12", stmt.(*ReturnStatement).Value.(*NumberLiteral).Text)
	})

	t.Run("return nothing", func(t *testing.T) {
		stmt, err := DecodeStatement([]byte(`{"kind": "ReturnStatement"}`))
		require.NoError(t, err)
		assert.True(t, stmt.(*ReturnStatement).ReturnsNothing())
	})

	t.Run("if", func(t *testing.T) {
		stmt, err := DecodeStatement([]byte(`{
			"kind": "If",
			"condition": {"kind": "VariableReference", "name": "b"},
			"body": [{"kind": "ReturnStatement", "value": {"kind": "StringLiteral", "value": "yes"}}]
		}`))
		require.NoError(t, err)

		ifStmt := stmt.(*If)
		assert.Equal(t, "b", ifStmt.Condition.(*VariableReference).Name)
		require.Len(t, ifStmt.Body, 1)
		assert.Equal(t, "yes", ifStmt.Body[0].(*ReturnStatement).Value.(*StringLiteral).Value)
	})

	t.Run("for in", func(t *testing.T) {
		stmt, err := DecodeStatement([]byte(`{"kind": "ForIn", "rowVar": "row", "iterable": {"kind": "VariableReference", "name": "users"}, "body": []}`))
		require.NoError(t, err)
		assert.Equal(t, "row", stmt.(*ForIn).RowVarName)
	})

	t.Run("literals are not statements", func(t *testing.T) {
		_, err := DecodeStatement([]byte(`{"kind": "StringLiteral", "value": "s"}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := DecodeStatement([]byte(`{"kind": "VariableCreation", "name": "v", "type": {"kind": "int"}}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)

		_, err = DecodeStatement([]byte(`{"kind": "If", "body": []}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)

		_, err = DecodeStatement([]byte(`{"kind": "VariableReference"}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)
	})
}

func TestDecodeAssignable(t *testing.T) {
	t.Run("object literal keeps the field order", func(t *testing.T) {
		a, err := DecodeAssignable([]byte(`{
			"kind": "ObjectLiteral",
			"fields": [
				{"name": "z", "value": {"kind": "StringLiteral", "value": "s"}},
				{"name": "a", "value": {"kind": "ArrayLiteral", "elements": [{"kind": "NumberLiteral", "value": 1}]}}
			]
		}`))
		require.NoError(t, err)

		lit := a.(*ObjectLiteral)
		require.Len(t, lit.Fields, 2)
		assert.Equal(t, "z", lit.Fields[0].Name)
		assert.Equal(t, "a", lit.Fields[1].Name)
		assert.Len(t, lit.Fields[1].Value.(*ArrayLiteral).Elements, 1)
	})

	t.Run("anonymous function", func(t *testing.T) {
		a, err := DecodeAssignable([]byte(`{
			"kind": "AnonFunction", "rowVar": "row",
			"body": [{"kind": "ReturnStatement", "value": {"kind": "VariableReference", "name": "row"}}]
		}`))
		require.NoError(t, err)
		assert.Equal(t, "row", a.(*AnonFunction).RowVarName)

		_, err = DecodeAssignable([]byte(`{"kind": "AnonFunction", "body": []}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)
	})

	t.Run("field access chain", func(t *testing.T) {
		a, err := DecodeAssignable([]byte(`{"kind": "VariableReference", "name": "u", "dots": [{"kind": "FieldAccess", "name": "name"}]}`))
		require.NoError(t, err)

		ref := a.(*VariableReference)
		assert.False(t, ref.IsBare())
		assert.Equal(t, "name", ref.Dots[0].DotName())
	})

	t.Run("invalid documents", func(t *testing.T) {
		_, err := DecodeAssignable([]byte(`{"kind": "StringLiteral", "value": 1}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)

		_, err = DecodeAssignable([]byte(`{"kind": "NumberLiteral"}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)

		_, err = DecodeAssignable([]byte(`{"kind": "VariableReference", "name": "u", "dots": [{"kind": "Index", "name": "i"}]}`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)

		_, err = DecodeAssignable([]byte(`[]`))
		assert.ErrorIs(t, err, ErrInvalidNodeDocument)
	})
}
