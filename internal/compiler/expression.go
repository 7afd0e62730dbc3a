package compiler

import (
	"math"
	"strconv"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/types"
)

// assignableCompiler compiles an expression that should leave a single value of the target type
// on the stack. produced is the type of that value.
type assignableCompiler struct {
	c        *compiler
	target   types.Type
	ops      []bytecode.Instruction
	produced types.Type
}

var _ ast.AssignableVisitor = (*assignableCompiler)(nil)

func (c *compiler) compileAssignable(a ast.Assignable, target types.Type) ([]bytecode.Instruction, types.Type, error) {
	ac := &assignableCompiler{c: c, target: target}
	if err := a.AcceptAssignable(ac); err != nil {
		return nil, nil, err
	}
	return ac.ops, ac.produced, nil
}

func (a *assignableCompiler) emit(ops ...bytecode.Instruction) {
	a.ops = append(a.ops, ops...)
}

func (a *assignableCompiler) VisitVariableReference(ref *ast.VariableReference) error {
	entry, ok := a.c.heap.get(ref.Name)
	if !ok {
		store, ok := a.c.manifest.GetStore(ref.Name)
		if !ok {
			return makeError(ErrUnresolvedSymbol, ref, fmtUnresolvedSymbol(ref.Name))
		}
		ops, produced, err := a.c.compileStoreReference(store, ref, a.target)
		if err != nil {
			return err
		}
		a.emit(ops...)
		a.produced = produced
		return nil
	}

	if types.IsNone(a.target) {
		return makeError(ErrTypeMismatch, ref, RETURNING_VALUE_FROM_VOID_FUNCTION)
	}

	a.emit(bytecode.MakeCopyFromHeap(entry.slot))

	ops, current, err := a.c.compileChain(ref.Dots, entry.typ)
	if err != nil {
		return err
	}
	a.emit(ops...)

	if !types.Equal(a.target, current) {
		return makeError(ErrTypeMismatch, ref, fmtTypesNotEqual(a.target, current))
	}
	a.produced = current
	return nil
}

func (a *assignableCompiler) VisitStringLiteral(lit *ast.StringLiteral) error {
	if a.target != types.String && !types.IsAny(a.target) {
		return makeError(ErrTypeMismatch, lit, fmtLiteralNotAssignable("string", a.target))
	}
	a.emit(bytecode.InstantiateString(lit.Value))
	a.produced = types.String
	return nil
}

// VisitNumberLiteral instantiates an integer or a double depending on the target type. If the target
// is Any the literal is an integer if its text is a valid integer.
func (a *assignableCompiler) VisitNumberLiteral(lit *ast.NumberLiteral) error {
	kind := a.target
	if types.IsAny(kind) {
		kind = types.Double
		if _, err := strconv.ParseInt(lit.Text, 10, 64); err == nil {
			kind = types.Int
		}
	}

	switch kind {
	case types.Int:
		i, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil {
			return makeError(ErrTypeMismatch, lit, fmtInvalidNumberLiteral(lit.Text, types.Int))
		}
		a.emit(bytecode.InstantiateInt(i))
		a.produced = types.Int
	case types.Double:
		f, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return makeError(ErrTypeMismatch, lit, fmtInvalidNumberLiteral(lit.Text, types.Double))
		}
		a.emit(bytecode.InstantiateDouble(f))
		a.produced = types.Double
	default:
		return makeError(ErrTypeMismatch, lit, fmtLiteralNotAssignable("number", a.target))
	}
	return nil
}

func (a *assignableCompiler) VisitArrayLiteral(lit *ast.ArrayLiteral) error {
	var elemType types.Type

	switch target := a.target.(type) {
	case *types.Array:
		elemType = target.Elem
	default:
		if !types.IsAny(target) {
			return makeError(ErrTypeMismatch, lit, fmtLiteralNotAssignable("array", a.target))
		}
		elemType = types.Any
	}

	a.emit(bytecode.InstantiateEmptyArray())
	for _, elem := range lit.Elements {
		ops, _, err := a.c.compileAssignable(elem, elemType)
		if err != nil {
			return err
		}
		a.emit(ops...)
		a.emit(bytecode.MakeArrayPush())
	}
	a.produced = types.NewArray(elemType)
	return nil
}

// VisitObjectLiteral compiles an object literal, the set of fields of the literal should be the set of
// fields of the target object type.
func (a *assignableCompiler) VisitObjectLiteral(lit *ast.ObjectLiteral) error {
	target, isObject := a.target.(*types.Object)
	if !isObject && !types.IsAny(a.target) {
		return makeError(ErrTypeMismatch, lit, fmtLiteralNotAssignable("object", a.target))
	}

	seen := make(map[string]struct{}, len(lit.Fields))
	for _, field := range lit.Fields {
		if _, ok := seen[field.Name]; ok {
			return makeError(ErrTypeMismatch, lit, fmtDuplicateFieldInObjectLiteral(field.Name))
		}
		seen[field.Name] = struct{}{}

		if isObject {
			if _, ok := target.Field(field.Name); !ok {
				return makeError(ErrTypeMismatch, lit, fmtUnexpectedFieldInObjectLiteral(field.Name))
			}
		}
	}

	if isObject {
		for _, name := range target.FieldNames() {
			if _, ok := seen[name]; !ok {
				return makeError(ErrTypeMismatch, lit, fmtMissingFieldInObjectLiteral(name))
			}
		}
	}

	producedFields := make(map[string]types.Type, len(lit.Fields))
	a.emit(bytecode.InstantiateEmptyObject())

	for _, field := range lit.Fields {
		var fieldType types.Type = types.Any
		if isObject {
			fieldType, _ = target.Field(field.Name)
		}

		ops, produced, err := a.c.compileAssignable(field.Value, fieldType)
		if err != nil {
			return err
		}
		a.emit(bytecode.InstantiateString(field.Name))
		a.emit(ops...)
		a.emit(bytecode.MakeSetField(1))
		producedFields[field.Name] = produced
	}

	if isObject {
		a.produced = target
	} else {
		a.produced = types.NewObject(producedFields)
	}
	return nil
}

func (a *assignableCompiler) VisitAnonFunction(fn *ast.AnonFunction) error {
	return makeError(ErrUnsupportedConstruct, fn, UNEXPECTED_ANON_FUNCTION)
}
