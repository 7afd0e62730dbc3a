package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalType(t *testing.T) {
	t.Run("primitive", func(t *testing.T) {
		b, err := json.Marshal(String)
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"string","data":null}`, string(b))
	})

	t.Run("object fields are sorted", func(t *testing.T) {
		b, err := json.Marshal(NewObject(map[string]Type{
			"b": Int,
			"a": NewArray(NewRef("users")),
		}))
		require.NoError(t, err)
		assert.Equal(t,
			`{"kind":"Object","data":{"a":{"kind":"Array","data":[{"kind":"Ref","data":"users"}]},"b":{"kind":"int","data":null}}}`,
			string(b))
	})

	t.Run("type nested in an interface value", func(t *testing.T) {
		var typ Type = NewOptional(Double)
		b, err := json.Marshal(typ)
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"Optional","data":[{"kind":"double","data":null}]}`, string(b))
	})
}

func TestDecodeType(t *testing.T) {
	t.Run("nested document", func(t *testing.T) {
		typ, err := Decode([]byte(`{
			"kind": "Object",
			"data": {
				"name": {"kind": "string", "data": null},
				"posts": {"kind": "Array", "data": [{"kind": "Ref", "data": "posts"}]},
				"bio": {"kind": "Optional", "data": [{"kind": "string"}]}
			}
		}`))
		require.NoError(t, err)

		expected := NewObject(map[string]Type{
			"name":  String,
			"posts": NewArray(NewRef("posts")),
			"bio":   NewOptional(String),
		})
		assert.True(t, Equal(expected, typ))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Decode([]byte(`{"kind": "Map", "data": null}`))
		assert.ErrorIs(t, err, ErrInvalidTypeDocument)
	})

	t.Run("array without element type", func(t *testing.T) {
		_, err := Decode([]byte(`{"kind": "Array", "data": []}`))
		assert.ErrorIs(t, err, ErrInvalidTypeDocument)
	})

	t.Run("reference without store", func(t *testing.T) {
		_, err := Decode([]byte(`{"kind": "Ref", "data": null}`))
		assert.ErrorIs(t, err, ErrInvalidTypeDocument)
	})
}
