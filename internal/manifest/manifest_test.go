package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const USERS_MANIFEST_JSON = `{
	"version": "1.2.0",
	"entities": [
		{"kind": "Struct", "name": "User", "schema": {"kind": "Object", "data": {"name": {"kind": "string"}}}},
		{"kind": "HierarchicalStore", "name": "users", "schema": {"kind": "Object", "data": {"name": {"kind": "string"}}}},
		{"kind": "Enum", "name": "Color", "variants": ["Red", "Green"]},
		{
			"kind": "Function",
			"name": "count",
			"returnType": {"kind": "int"},
			"body": [
				{
					"kind": "ReturnStatement",
					"value": {"kind": "VariableReference", "name": "users", "dots": [{"kind": "MethodInvocation", "name": "len"}]}
				}
			]
		}
	]
}`

const USERS_MANIFEST_YAML = `
version: "1.0.0"
entities:
  - kind: HierarchicalStore
    name: users
    schema:
      kind: Object
      data:
        name: {kind: string}
  - kind: Function
    name: echo
    parameter: {name: s, type: {kind: string}}
    returnType: {kind: string}
    body:
      - kind: ReturnStatement
        value: {kind: VariableReference, name: s}
`

func TestNew(t *testing.T) {
	userSchema := types.NewObject(map[string]types.Type{"name": types.String})

	t.Run("entities keep their declaration order", func(t *testing.T) {
		m, err := New(
			&HierarchicalStore{Name: "users", Schema: userSchema},
			&Struct{Name: "User", Schema: userSchema},
			NewFunction(&ast.Function{Name: "f"}),
		)
		require.NoError(t, err)

		names := []string{}
		for _, e := range m.Entities() {
			names = append(names, e.EntityName())
		}
		assert.Equal(t, []string{"users", "User", "f"}, names)
		assert.Equal(t, []string{"User", "f", "users"}, m.Names())
		assert.Equal(t, 3, m.Len())
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		_, err := New(
			&Struct{Name: "User", Schema: userSchema},
			&HierarchicalStore{Name: "User", Schema: userSchema},
		)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		_, err := New(&Enum{})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("lookups are kind-aware", func(t *testing.T) {
		m, err := New(
			&HierarchicalStore{Name: "users", Schema: userSchema},
			NewFunction(&ast.Function{Name: "f"}),
		)
		require.NoError(t, err)

		store, ok := m.GetStore("users")
		require.True(t, ok)
		assert.Equal(t, "users", store.ReferenceType().Store)

		_, ok = m.GetStore("f")
		assert.False(t, ok)

		_, ok = m.GetFunction("f")
		assert.True(t, ok)

		_, ok = m.Get("missing")
		assert.False(t, ok)
	})
}

func TestParse(t *testing.T) {
	t.Run("JSON document", func(t *testing.T) {
		m, err := Parse([]byte(USERS_MANIFEST_JSON), JSONFormat)
		require.NoError(t, err)
		assert.Equal(t, 4, m.Len())
		assert.Len(t, m.Fingerprint(), 64)

		fn, ok := m.GetFunction("count")
		require.True(t, ok)
		assert.False(t, fn.HasParameter())
		assert.Equal(t, types.Int, fn.Decl.ReturnType)
		require.Len(t, fn.Decl.Body, 1)
		assert.IsType(t, &ast.ReturnStatement{}, fn.Decl.Body[0])

		enum, ok := m.Get("Color")
		require.True(t, ok)
		assert.Equal(t, []string{"Red", "Green"}, enum.(*Enum).Variants)
	})

	t.Run("YAML document", func(t *testing.T) {
		m, err := Parse([]byte(USERS_MANIFEST_YAML), YAMLFormat)
		require.NoError(t, err)

		fn, ok := m.GetFunction("echo")
		require.True(t, ok)
		require.True(t, fn.HasParameter())
		assert.Equal(t, "s", fn.Decl.Parameter.Name)
		assert.Equal(t, types.String, fn.Decl.Parameter.Type)
	})

	t.Run("the fingerprint does not depend on whitespace", func(t *testing.T) {
		m1, err := Parse([]byte(`{"version": "1.0.0", "entities": []}`), JSONFormat)
		require.NoError(t, err)
		m2, err := Parse([]byte("{\n\"version\":\"1.0.0\",\n\"entities\":[]\n}"), JSONFormat)
		require.NoError(t, err)
		assert.Equal(t, m1.Fingerprint(), m2.Fingerprint())
	})

	t.Run("documents not matching the manifest schema are rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "1.0.0"}`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)

		_, err = Parse([]byte(`{"version": "1.0.0", "entities": [{"kind": "Struct", "name": "S"}]}`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)

		_, err = Parse([]byte(`{"version": "1.0.0", "entities": [{"kind": "Table", "name": "t"}]}`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)
	})

	t.Run("numbers are validated against the manifest schema", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": 1, "entities": []}`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)

		m, err := Parse([]byte(`{"version": "1.0.0", "entities": [
			{"kind": "Function", "name": "one", "returnType": {"kind": "double"},
			 "body": [{"kind": "ReturnStatement", "value": {"kind": "NumberLiteral", "value": 1.5, "loc": {"line": 3, "column": 12}}}]}
		]}`), JSONFormat)
		require.NoError(t, err)

		fn, ok := m.GetFunction("one")
		require.True(t, ok)
		ret := fn.Decl.Body[0].(*ast.ReturnStatement)
		assert.Equal(t, "1.5", ret.Value.(*ast.NumberLiteral).Text)
		assert.Equal(t, 3, ret.Value.Base().Loc.Line)
	})

	t.Run("invalid JSON is rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "1.0.0",`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)
	})

	t.Run("unsupported versions are rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "2.0.0", "entities": []}`), JSONFormat)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)

		_, err = Parse([]byte(`{"version": "latest", "entities": []}`), JSONFormat)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("store schemas should be object types", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "1.0.0", "entities": [
			{"kind": "HierarchicalStore", "name": "s", "schema": {"kind": "int"}}
		]}`), JSONFormat)
		assert.ErrorIs(t, err, ErrInvalidManifestDocument)
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"version": "1.0.0", "entities": [
			{"kind": "Enum", "name": "E", "variants": []},
			{"kind": "Enum", "name": "E", "variants": []}
		]}`), JSONFormat)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(USERS_MANIFEST_YAML), 0o600))

	m, err := Load(yamlPath)
	require.NoError(t, err)
	_, ok := m.GetStore("users")
	assert.True(t, ok)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Equal(t, YAMLFormat, FormatOf("a.YAML"))
	assert.Equal(t, JSONFormat, FormatOf("a.json"))
	assert.Equal(t, JSONFormat, FormatOf("manifest"))
}
