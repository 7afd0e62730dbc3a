package manifest

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/types"
)

const (
	// documents whose version does not satisfy this constraint are rejected.
	FORMAT_VERSION_CONSTRAINT = "^1.0.0"

	MANIFEST_SCHEMA_URL = "manifest.schema.json"
)

type Format int

const (
	JSONFormat Format = iota
	YAMLFormat
)

var (
	ErrInvalidManifestDocument = errors.New("invalid manifest document")
	ErrUnsupportedVersion      = errors.New("unsupported manifest version")

	//go:embed manifest.schema.json
	MANIFEST_JSON_SCHEMA string

	manifestSchema          *jsonschema.Schema
	formatVersionConstraint = mustParseConstraint(FORMAT_VERSION_CONSTRAINT)
)

func init() {
	//remove loaders for file: and http(s): URIs
	clear(jsonschema.Loaders)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(MANIFEST_SCHEMA_URL, strings.NewReader(MANIFEST_JSON_SCHEMA)); err != nil {
		panic(err)
	}
	manifestSchema = compiler.MustCompile(MANIFEST_SCHEMA_URL)
}

func mustParseConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

type document struct {
	Version  string            `json:"version"`
	Entities []json.RawMessage `json:"entities"`
}

type entityDocument struct {
	Kind     EntityKind      `json:"kind"`
	Name     string          `json:"name"`
	Schema   json.RawMessage `json:"schema"`
	Variants []string        `json:"variants"`
}

// FormatOf guesses the format of a manifest file from its extension, JSON is the default.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat
	default:
		return JSONFormat
	}
}

// Load reads and parses the manifest document at path.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(content, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses a manifest document: the document is validated against the manifest JSON schema,
// its version is checked and then its entities are decoded in declaration order.
func Parse(content []byte, format Format) (*Manifest, error) {
	jsonContent := content
	if format == YAMLFormat {
		converted, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
		}
		jsonContent = converted
	}

	//numbers are kept as json.Number values, the form the schema validator expects.
	var v any
	decoder := json.NewDecoder(bytes.NewReader(jsonContent))
	decoder.UseNumber()
	if err := decoder.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
	}
	if err := manifestSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
	}

	var doc document
	if err := json.Unmarshal(jsonContent, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
	}

	version, err := semver.NewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnsupportedVersion, doc.Version, err)
	}
	if !formatVersionConstraint.Check(version) {
		return nil, fmt.Errorf("%w %s, expected %s", ErrUnsupportedVersion, version, FORMAT_VERSION_CONSTRAINT)
	}

	m := &Manifest{}
	for i, raw := range doc.Entities {
		entity, err := decodeEntity(raw)
		if err != nil {
			return nil, fmt.Errorf("entity #%d: %w", i, err)
		}
		if err := m.add(entity); err != nil {
			return nil, err
		}
	}

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, jsonContent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
	}
	sum := sha256.Sum256(compacted.Bytes())
	m.fingerprint = hex.EncodeToString(sum[:])

	return m, nil
}

func decodeEntity(raw json.RawMessage) (Entity, error) {
	var doc entityDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
	}

	switch doc.Kind {
	case StructKind, HierarchicalStoreKind:
		schema, err := decodeObjectSchema(doc.Name, doc.Schema)
		if err != nil {
			return nil, err
		}
		if doc.Kind == StructKind {
			return &Struct{Name: doc.Name, Schema: schema}, nil
		}
		return &HierarchicalStore{Name: doc.Name, Schema: schema}, nil
	case EnumKind:
		return &Enum{Name: doc.Name, Variants: doc.Variants}, nil
	case FunctionKind:
		var fnDoc ast.FunctionDocument
		if err := json.Unmarshal(raw, &fnDoc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidManifestDocument, err)
		}
		decl, err := ast.DecodeFunction(fnDoc)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", doc.Name, err)
		}
		return NewFunction(decl), nil
	default:
		return nil, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidManifestDocument, doc.Kind)
	}
}

func decodeObjectSchema(entityName string, raw json.RawMessage) (*types.Object, error) {
	t, err := types.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("schema of %s: %w", entityName, err)
	}
	obj, ok := t.(*types.Object)
	if !ok {
		return nil, fmt.Errorf("%w: the schema of %s should be an object type, not %s", ErrInvalidManifestDocument, entityName, types.Stringify(t))
	}
	return obj, nil
}
