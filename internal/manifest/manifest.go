package manifest

import (
	"errors"
	"fmt"

	"github.com/tidwall/btree"
)

var (
	ErrDuplicateName = errors.New("duplicate entity name")
	ErrEmptyName     = errors.New("entity has an empty name")
)

// A Manifest is the fully resolved set of declarations a program is compiled from.
// It is not modified after construction and can be shared between goroutines.
type Manifest struct {
	entities []Entity //declaration order
	index    btree.Map[string, Entity]

	fingerprint string //set if the manifest was parsed from a document
}

func New(entities ...Entity) (*Manifest, error) {
	m := &Manifest{}
	for _, e := range entities {
		if err := m.add(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) add(e Entity) error {
	name := e.EntityName()
	if name == "" {
		return fmt.Errorf("%w (%s)", ErrEmptyName, e.EntityKind())
	}
	if prev, ok := m.index.Get(name); ok {
		return fmt.Errorf("%w: %s is declared as a %s and as a %s", ErrDuplicateName, name, prev.EntityKind(), e.EntityKind())
	}
	m.index.Set(name, e)
	m.entities = append(m.entities, e)
	return nil
}

func (m *Manifest) Len() int {
	return len(m.entities)
}

// Entities returns the entities in declaration order.
func (m *Manifest) Entities() []Entity {
	return append([]Entity(nil), m.entities...)
}

// Names returns the sorted names of all entities.
func (m *Manifest) Names() []string {
	names := make([]string, 0, m.index.Len())
	m.index.Scan(func(name string, _ Entity) bool {
		names = append(names, name)
		return true
	})
	return names
}

func (m *Manifest) Get(name string) (Entity, bool) {
	return m.index.Get(name)
}

func (m *Manifest) GetStore(name string) (*HierarchicalStore, bool) {
	e, ok := m.index.Get(name)
	if !ok {
		return nil, false
	}
	store, ok := e.(*HierarchicalStore)
	return store, ok
}

func (m *Manifest) GetFunction(name string) (*Function, bool) {
	e, ok := m.index.Get(name)
	if !ok {
		return nil, false
	}
	fn, ok := e.(*Function)
	return fn, ok
}

// Functions returns the functions in declaration order.
func (m *Manifest) Functions() []*Function {
	var functions []*Function
	for _, e := range m.entities {
		if fn, ok := e.(*Function); ok {
			functions = append(functions, fn)
		}
	}
	return functions
}

// Fingerprint returns the hex-encoded SHA-256 of the compacted document the manifest was parsed from,
// the result is empty if the manifest was not built from a document.
func (m *Manifest) Fingerprint() string {
	return m.fingerprint
}
