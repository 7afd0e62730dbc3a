package manifest

import (
	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/types"
)

type EntityKind string

const (
	StructKind            EntityKind = "Struct"
	EnumKind              EntityKind = "Enum"
	FunctionKind          EntityKind = "Function"
	HierarchicalStoreKind EntityKind = "HierarchicalStore"
)

// An Entity is a named declaration of a manifest: *Struct, *Enum, *Function or *HierarchicalStore.
type Entity interface {
	EntityName() string
	EntityKind() EntityKind
}

type Struct struct {
	Name   string
	Schema *types.Object
}

func (s *Struct) EntityName() string     { return s.Name }
func (s *Struct) EntityKind() EntityKind { return StructKind }

type Enum struct {
	Name     string
	Variants []string
}

func (e *Enum) EntityName() string     { return e.Name }
func (e *Enum) EntityKind() EntityKind { return EnumKind }

type Function struct {
	Decl *ast.Function
}

func NewFunction(decl *ast.Function) *Function {
	return &Function{Decl: decl}
}

func (f *Function) EntityName() string     { return f.Decl.Name }
func (f *Function) EntityKind() EntityKind { return FunctionKind }

// HasParameter returns true if the function takes a (single) parameter.
func (f *Function) HasParameter() bool {
	return f.Decl.Parameter != nil
}

// A HierarchicalStore is a named collection of records held by the document database,
// the schema of its elements is always an object type.
type HierarchicalStore struct {
	Name   string
	Schema *types.Object
}

func (s *HierarchicalStore) EntityName() string     { return s.Name }
func (s *HierarchicalStore) EntityKind() EntityKind { return HierarchicalStoreKind }

// ReferenceType returns the type of pointers to the records of the store.
func (s *HierarchicalStore) ReferenceType() *types.Ref {
	return types.NewRef(s.Name)
}
