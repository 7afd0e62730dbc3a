package bytecode

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// OpKind is the wire name of an opcode of the virtual machine.
type OpKind string

const (
	//stack & heap
	Instantiate         OpKind = "instantiate"
	CopyFromHeap        OpKind = "copyFromHeap"
	MoveStackTopToHeap  OpKind = "moveStackTopToHeap"
	OverwriteHeap       OpKind = "overwriteHeap"
	TruncateHeap        OpKind = "truncateHeap"
	PopStack            OpKind = "popStack"
	ReturnStackTop      OpKind = "returnStackTop"
	EnforceSchemaOnHeap OpKind = "enforceSchemaOnHeap"
	Noop                OpKind = "noop"

	//objects & arrays
	SetField    OpKind = "setField"
	GetField    OpKind = "getField"
	FieldExists OpKind = "fieldExists"
	ArrayPush   OpKind = "arrayPush"
	ArrayLen    OpKind = "arrayLen"

	//control flow, the address of a jump is the index of an instruction
	NegatePrev      OpKind = "negatePrev"
	ConditionalGoto OpKind = "conditionalGoto"
	Goto            OpKind = "gotoOp"

	//comparison & logic
	Equal   OpKind = "equal"
	Less    OpKind = "less"
	LessEq  OpKind = "lesseq"
	BoolAnd OpKind = "boolAnd"
	BoolOr  OpKind = "boolOr"

	//stores
	GetAllFromStore  OpKind = "getAllFromStore"
	QueryStore       OpKind = "queryStore"
	InsertFromStack  OpKind = "insertFromStack"
	StoreLen         OpKind = "storeLen"
	FindOneInStore   OpKind = "findOneInStore"
	DeleteOneInStore OpKind = "deleteOneInStore"
	CreateUpdateDoc  OpKind = "createUpdateDoc"
	SetNestedField   OpKind = "setNestedField"
	UpdateOne        OpKind = "updateOne"
)

const (
	// identity field of the records of a store.
	ID_FIELD = "_id"

	PUSH_UPDATE_OPERATOR = "$push"
)

// IsJump returns true if the data of the instruction is the address of another instruction.
func (k OpKind) IsJump() bool {
	return k == ConditionalGoto || k == Goto
}

// An Instruction is serialized as {"kind": <opcode>, "data": <payload or null>}.
type Instruction struct {
	Kind OpKind `json:"kind"`
	Data any    `json:"data"`
}

// A Projection selects the fields returned by a store query: {"<field>": 0} excludes a field.
type Projection map[string]int

// StoreTarget is the payload of instructions acting on the record a pointer designates.
type StoreTarget struct {
	Store string `json:"store"`
}

type SchemaCheck struct {
	HeapPos int `json:"heap_pos"`
	Schema  int `json:"schema"`
}

func InstantiateString(s string) Instruction {
	return Instruction{Kind: Instantiate, Data: s}
}

func InstantiateInt(i int64) Instruction {
	return Instruction{Kind: Instantiate, Data: i}
}

func InstantiateDouble(f float64) Instruction {
	return Instruction{Kind: Instantiate, Data: Double(f)}
}

// Double is the data of a double instantiation. It is serialized with a fraction or an exponent
// so that 1.0 does not reach the VM as the integer 1.
type Double float64

func (d Double) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %v is not a finite double", ErrInvalidOperand, f)
	}

	b := strconv.AppendFloat(nil, f, 'g', -1, 64)
	if !bytes.ContainsAny(b, ".e") {
		b = append(b, ".0"...)
	}
	return b, nil
}

func InstantiateEmptyObject() Instruction {
	return Instruction{Kind: Instantiate, Data: map[string]any{}}
}

func InstantiateEmptyArray() Instruction {
	return Instruction{Kind: Instantiate, Data: []any{}}
}

func MakeCopyFromHeap(slot int) Instruction {
	return Instruction{Kind: CopyFromHeap, Data: slot}
}

func MakeMoveStackTopToHeap() Instruction {
	return Instruction{Kind: MoveStackTopToHeap}
}

func MakeTruncateHeap(count int) Instruction {
	return Instruction{Kind: TruncateHeap, Data: count}
}

func MakeReturnStackTop() Instruction {
	return Instruction{Kind: ReturnStackTop}
}

func MakeEnforceSchemaOnHeap(heapPos int, schema int) Instruction {
	return Instruction{Kind: EnforceSchemaOnHeap, Data: SchemaCheck{HeapPos: heapPos, Schema: schema}}
}

func MakeNoop() Instruction {
	return Instruction{Kind: Noop}
}

// MakeSetField pops a value and a field name and sets the field of the object at the given depth.
func MakeSetField(depth int) Instruction {
	return Instruction{Kind: SetField, Data: depth}
}

// MakeGetField pops a field name and pushes the field of the object at the given depth.
func MakeGetField(depth int) Instruction {
	return Instruction{Kind: GetField, Data: depth}
}

func MakeArrayPush() Instruction {
	return Instruction{Kind: ArrayPush}
}

func MakeArrayLen() Instruction {
	return Instruction{Kind: ArrayLen}
}

func MakeNegatePrev() Instruction {
	return Instruction{Kind: NegatePrev}
}

// MakeConditionalGoto pops a boolean and jumps to address if it is true.
func MakeConditionalGoto(address int) Instruction {
	return Instruction{Kind: ConditionalGoto, Data: address}
}

func MakeGoto(address int) Instruction {
	return Instruction{Kind: Goto, Data: address}
}

func MakeGetAllFromStore(store string) Instruction {
	return Instruction{Kind: GetAllFromStore, Data: store}
}

func MakeQueryStore(store string, projection Projection) Instruction {
	return Instruction{Kind: QueryStore, Data: []any{store, projection}}
}

// MakeInsertFromStack pops a value and inserts it in the store, nothing is pushed.
func MakeInsertFromStack(store string) Instruction {
	return Instruction{Kind: InsertFromStack, Data: store}
}

func MakeStoreLen(store string) Instruction {
	return Instruction{Kind: StoreLen, Data: store}
}

func MakeFindOneInStore(store string, projection Projection) Instruction {
	return Instruction{Kind: FindOneInStore, Data: []any{StoreTarget{Store: store}, projection}}
}

func MakeDeleteOneInStore(store string) Instruction {
	return Instruction{Kind: DeleteOneInStore, Data: StoreTarget{Store: store}}
}

// MakeCreateUpdateDoc pushes an update document, for example {"$push": {}}.
func MakeCreateUpdateDoc(doc map[string]any) Instruction {
	return Instruction{Kind: CreateUpdateDoc, Data: doc}
}

// MakeSetNestedField pops a value and sets it in the update document under operator at the dotted path.
func MakeSetNestedField(operator string, dottedPath string) Instruction {
	return Instruction{Kind: SetNestedField, Data: []string{operator, dottedPath}}
}

// MakeUpdateOne pops an update document and a pointer and applies the update to the designated record.
func MakeUpdateOne(store string) Instruction {
	return Instruction{Kind: UpdateOne, Data: store}
}

// JumpAddress returns the address of a jump instruction.
func (i Instruction) JumpAddress() (int, bool) {
	if !i.Kind.IsJump() {
		return 0, false
	}
	address, ok := i.Data.(int)
	return address, ok
}

// String returns the disassembled form of the instruction, see Format.
func (i Instruction) String() string {
	if i.Data == nil {
		return string(i.Kind)
	}
	data, err := json.Marshal(i.Data)
	if err != nil {
		return string(i.Kind) + " <invalid data>"
	}
	return string(i.Kind) + " " + string(data)
}
