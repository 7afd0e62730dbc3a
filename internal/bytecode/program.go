package bytecode

import (
	"github.com/goccy/go-json"
	"github.com/mattpair/conder-sub001/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Program is the output document consumed by the virtual machine:
//
//	{"PROCEDURES": {<name>: [<instruction>...]}, "SCHEMAS": [<schema>...], "STORES": {<name>: <schema>}}
type Program struct {
	Procedures map[string][]Instruction
	Schemas    []types.Type
	Stores     map[string]*types.Object

	// FrameSizes maps each procedure to the number of heap slots its frame needs,
	// it is not part of the serialized document.
	FrameSizes map[string]int
}

func NewProgram() *Program {
	return &Program{
		Procedures: map[string][]Instruction{},
		Stores:     map[string]*types.Object{},
		FrameSizes: map[string]int{},
	}
}

type programDocument struct {
	Procedures map[string][]Instruction `json:"PROCEDURES"`
	Schemas    []types.Type             `json:"SCHEMAS"`
	Stores     map[string]*types.Object `json:"STORES"`
}

func (p *Program) document() programDocument {
	doc := programDocument{
		Procedures: make(map[string][]Instruction, len(p.Procedures)),
		Schemas:    p.Schemas,
		Stores:     p.Stores,
	}
	for name, ops := range p.Procedures {
		if ops == nil {
			ops = []Instruction{}
		}
		doc.Procedures[name] = ops
	}
	if doc.Schemas == nil {
		doc.Schemas = []types.Type{}
	}
	if doc.Stores == nil {
		doc.Stores = map[string]*types.Object{}
	}
	return doc
}

// MarshalJSON serializes the program, object keys are sorted so the output is deterministic.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.document())
}

func (p *Program) MarshalIndent(indent string) ([]byte, error) {
	return json.MarshalIndent(p.document(), "", indent)
}

// ProcedureNames returns the sorted names of the procedures.
func (p *Program) ProcedureNames() []string {
	names := maps.Keys(p.Procedures)
	slices.Sort(names)
	return names
}
