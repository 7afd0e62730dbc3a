package schema

import (
	"errors"
	"fmt"

	"github.com/mattpair/conder-sub001/internal/manifest"
	"github.com/mattpair/conder-sub001/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const FUNCTION_PARAMETER_SCHEMA_PREFIX = "__func__"

var (
	ErrSchemaCollision = errors.New("schema collision")
)

// A Registry assigns a stable index to the schema of every struct and of every function parameter,
// it also maps store names to the schema of their elements. A Registry is not modified after Build
// returns and can be shared by concurrent compilations.
type Registry struct {
	schemas []types.Type
	index   map[string]int
	stores  map[string]*types.Object
}

// Build walks the manifest once in declaration order.
func Build(m *manifest.Manifest) (*Registry, error) {
	r := &Registry{
		index:  map[string]int{},
		stores: map[string]*types.Object{},
	}

	for _, entity := range m.Entities() {
		switch e := entity.(type) {
		case *manifest.Struct:
			if err := r.add(e.Name, e.Schema); err != nil {
				return nil, err
			}
		case *manifest.Function:
			if !e.HasParameter() {
				continue
			}
			if err := r.add(FunctionParameterSchemaName(e.Decl.Name), e.Decl.Parameter.Type); err != nil {
				return nil, err
			}
		case *manifest.HierarchicalStore:
			if _, ok := r.stores[e.Name]; ok {
				return nil, fmt.Errorf("%w: store %s is declared twice", ErrSchemaCollision, e.Name)
			}
			r.stores[e.Name] = e.Schema
		case *manifest.Enum:
		default:
			panic(types.ErrUnreachable)
		}
	}
	return r, nil
}

func (r *Registry) add(name string, schema types.Type) error {
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("%w: a schema named %s already exists", ErrSchemaCollision, name)
	}
	r.index[name] = len(r.schemas)
	r.schemas = append(r.schemas, schema)
	return nil
}

func FunctionParameterSchemaName(functionName string) string {
	return FUNCTION_PARAMETER_SCHEMA_PREFIX + functionName
}

// IndexOf returns the index of the schema registered under name.
func (r *Registry) IndexOf(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

func (r *Registry) FunctionParameterIndex(functionName string) (int, bool) {
	return r.IndexOf(FunctionParameterSchemaName(functionName))
}

// Schemas returns the flat schema table.
func (r *Registry) Schemas() []types.Type {
	return slices.Clone(r.schemas)
}

func (r *Registry) Stores() map[string]*types.Object {
	return maps.Clone(r.stores)
}

func (r *Registry) StoreSchema(name string) (*types.Object, bool) {
	schema, ok := r.stores[name]
	return schema, ok
}

// StoreNames returns the sorted names of the stores.
func (r *Registry) StoreNames() []string {
	names := maps.Keys(r.stores)
	slices.Sort(names)
	return names
}
