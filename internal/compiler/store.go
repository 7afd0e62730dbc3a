package compiler

import (
	"strings"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/manifest"
	"github.com/mattpair/conder-sub001/internal/types"
)

const (
	APPEND_METHOD_NAME = "append"
	LEN_METHOD_NAME    = "len"
	SELECT_METHOD_NAME = "select"
	REF_METHOD_NAME    = "ref"
	DELETE_METHOD_NAME = "delete"
	DEREF_METHOD_NAME  = "deref"
)

// compileStoreReference compiles a reference to a store: either the bare name of the store, that fetches all
// the records, or the name followed by a single method invocation (append, len, select).
func (c *compiler) compileStoreReference(store *manifest.HierarchicalStore, ref *ast.VariableReference, target types.Type) ([]bytecode.Instruction, types.Type, error) {
	switch len(ref.Dots) {
	case 0:
		if types.IsNone(target) {
			return nil, nil, makeError(ErrTypeMismatch, ref, STORE_REFERENCE_RETURNS_DATA_NOT_NONE)
		}
		produced := types.NewArray(store.Schema)
		if !types.Equal(target, produced) {
			return nil, nil, makeError(ErrTypeMismatch, ref, fmtStoreContainsOtherType(store.Name, store.Schema, target))
		}
		return []bytecode.Instruction{bytecode.MakeGetAllFromStore(store.Name)}, produced, nil
	case 1:
	default:
		return nil, nil, makeError(ErrUnsupportedConstruct, ref.Dots[1], CHAINED_STORE_METHODS_NOT_SUPPORTED)
	}

	invocation, ok := ref.Dots[0].(*ast.MethodInvocation)
	if !ok {
		return nil, nil, makeError(ErrTypeMismatch, ref.Dots[0], ACCESSING_FIELD_ON_STORE)
	}

	switch invocation.Name {
	case APPEND_METHOD_NAME:
		return c.compileStoreAppend(store, invocation, target)
	case LEN_METHOD_NAME:
		if len(invocation.Args) != 0 {
			return nil, nil, makeError(ErrTypeMismatch, invocation, LEN_TAKES_NO_ARGUMENTS)
		}
		if !types.Equal(target, types.Int) {
			return nil, nil, makeError(ErrTypeMismatch, invocation, fmtTypesNotEqual(target, types.Int))
		}
		return []bytecode.Instruction{bytecode.MakeStoreLen(store.Name)}, types.Int, nil
	case SELECT_METHOD_NAME:
		return c.compileStoreSelect(store, invocation, target)
	default:
		return nil, nil, makeError(ErrTypeMismatch, invocation, fmtMethodDoesNotExistOnStores(invocation.Name))
	}
}

// compileStoreAppend inserts each argument in the store, one instruction per argument.
// Insertions push nothing: appending is only allowed in statement position.
func (c *compiler) compileStoreAppend(store *manifest.HierarchicalStore, invocation *ast.MethodInvocation, target types.Type) ([]bytecode.Instruction, types.Type, error) {
	if !types.IsAny(target) {
		return nil, nil, makeError(ErrTypeMismatch, invocation, APPENDING_TO_STORE_DOES_NOT_RETURN_DATA)
	}

	var ops []bytecode.Instruction
	for _, arg := range invocation.Args {
		argOps, _, err := c.compileAssignable(arg, store.Schema)
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, argOps...)
		ops = append(ops, bytecode.MakeInsertFromStack(store.Name))
	}
	return ops, types.NewArray(store.ReferenceType()), nil
}

// compileStoreSelect compiles the two supported forms of select:
//
//	store.select(row => row)        all the records
//	store.select(row => row.ref())  pointers to all the records
func (c *compiler) compileStoreSelect(store *manifest.HierarchicalStore, invocation *ast.MethodInvocation, target types.Type) ([]bytecode.Instruction, types.Type, error) {
	if len(invocation.Args) != 1 {
		return nil, nil, makeError(ErrUnsupportedConstruct, invocation, SELECT_TAKES_ONE_ARGUMENT)
	}
	if types.IsNone(target) {
		return nil, nil, makeError(ErrTypeMismatch, invocation, SELECT_MUST_YIELD_RESULT)
	}

	fn, ok := invocation.Args[0].(*ast.AnonFunction)
	if !ok {
		return nil, nil, makeError(ErrUnsupportedConstruct, invocation.Args[0], SELECT_REQUIRES_ANON_FUNCTION)
	}
	if len(fn.Body) != 1 {
		return nil, nil, makeError(ErrUnsupportedConstruct, fn, SELECT_FUNCTION_SINGLE_STATEMENT)
	}

	returnStmt, ok := fn.Body[0].(*ast.ReturnStatement)
	if !ok || returnStmt.ReturnsNothing() {
		return nil, nil, makeError(ErrUnsupportedConstruct, fn.Body[0], SELECT_SHOULD_RETURN_RESULTS)
	}

	returned, ok := returnStmt.Value.(*ast.VariableReference)
	if !ok || returned.Name != fn.RowVarName || len(returned.Dots) > 1 {
		return nil, nil, makeError(ErrUnsupportedConstruct, returnStmt.Value, SELECT_ONLY_RETURNS_ROW_OR_POINTER)
	}

	if returned.IsBare() {
		produced := types.NewArray(store.Schema)
		if !types.Equal(target, produced) {
			return nil, nil, makeError(ErrTypeMismatch, invocation, fmtTypesNotEqual(target, produced))
		}
		return []bytecode.Instruction{bytecode.MakeGetAllFromStore(store.Name)}, produced, nil
	}

	refInvocation, ok := returned.Dots[0].(*ast.MethodInvocation)
	if !ok {
		return nil, nil, makeError(ErrUnsupportedConstruct, returned.Dots[0], SELECT_ONLY_RETURNS_ROW_OR_POINTER)
	}
	if refInvocation.Name != REF_METHOD_NAME {
		return nil, nil, makeError(ErrUnsupportedConstruct, refInvocation, fmtUnknownRowVariableMethod(refInvocation.Name))
	}
	if len(refInvocation.Args) != 0 {
		return nil, nil, makeError(ErrUnsupportedConstruct, refInvocation, REF_TAKES_NO_ARGUMENTS)
	}

	produced := types.NewArray(store.ReferenceType())
	if !types.Equal(target, produced) {
		return nil, nil, makeError(ErrTypeMismatch, invocation, fmtTypesNotEqual(target, produced))
	}

	//only the identity of the records is returned
	projection := bytecode.Projection{}
	for _, name := range store.Schema.FieldNames() {
		projection[name] = 0
	}
	return []bytecode.Instruction{bytecode.MakeQueryStore(store.Name, projection)}, produced, nil
}

// chainCompiler walks the field accesses and method invocations following a value of type current.
type chainCompiler struct {
	c       *compiler
	current types.Type
	ops     []bytecode.Instruction
}

var _ ast.DotVisitor = (*chainCompiler)(nil)

func (c *compiler) compileChain(dots []ast.DotStatement, current types.Type) ([]bytecode.Instruction, types.Type, error) {
	cc := &chainCompiler{c: c, current: current}
	for _, dot := range dots {
		if err := dot.AcceptDot(cc); err != nil {
			return nil, nil, err
		}
	}
	return cc.ops, cc.current, nil
}

func (cc *chainCompiler) emit(ops ...bytecode.Instruction) {
	cc.ops = append(cc.ops, ops...)
}

func (cc *chainCompiler) VisitFieldAccess(dot *ast.FieldAccess) error {
	obj, ok := cc.current.(*types.Object)
	if !ok {
		return makeError(ErrTypeMismatch, dot, fmtCannotAccessFieldOn(dot.Name, cc.current))
	}
	fieldType, ok := obj.Field(dot.Name)
	if !ok {
		return makeError(ErrTypeMismatch, dot, fmtFieldDoesNotExist(dot.Name, obj))
	}

	cc.emit(bytecode.InstantiateString(dot.Name), bytecode.MakeGetField(1))
	cc.current = fieldType
	return nil
}

func (cc *chainCompiler) VisitMethodInvocation(dot *ast.MethodInvocation) error {
	switch current := cc.current.(type) {
	case *types.Ref:
		store, ok := cc.c.manifest.GetStore(current.Store)
		if !ok {
			return makeError(ErrUnresolvedSymbol, dot, fmtStoreOfReferenceNotFound(current.Store))
		}
		return cc.compilePointerMethod(store, dot)
	case *types.Array:
		if dot.Name != LEN_METHOD_NAME {
			return makeError(ErrTypeMismatch, dot, fmtMethodDoesNotExistOn(dot.Name, current))
		}
		if len(dot.Args) != 0 {
			return makeError(ErrTypeMismatch, dot, LEN_TAKES_NO_ARGUMENTS)
		}
		cc.emit(bytecode.MakeArrayLen())
		cc.current = types.Int
		return nil
	default:
		return makeError(ErrTypeMismatch, dot, fmtMethodDoesNotExistOn(dot.Name, current))
	}
}

func (cc *chainCompiler) compilePointerMethod(store *manifest.HierarchicalStore, dot *ast.MethodInvocation) error {
	switch dot.Name {
	case DELETE_METHOD_NAME:
		if len(dot.Args) != 0 {
			return makeError(ErrTypeMismatch, dot, DELETE_TAKES_NO_ARGUMENTS)
		}
		cc.emit(bytecode.MakeDeleteOneInStore(store.Name))
		cc.current = types.Bool
		return nil
	case DEREF_METHOD_NAME:
		switch len(dot.Args) {
		case 0:
			cc.emit(bytecode.MakeFindOneInStore(store.Name, bytecode.Projection{bytecode.ID_FIELD: 0}))
		case 1:
			ops, err := cc.c.compileDerefMutation(store, dot.Args[0])
			if err != nil {
				return err
			}
			cc.emit(ops...)
		default:
			return makeError(ErrTypeMismatch, dot, DEREF_TAKES_AT_MOST_ONE_ARGUMENT)
		}
		cc.current = types.NewOptional(store.Schema)
		return nil
	default:
		return makeError(ErrTypeMismatch, dot, REFERENCES_ONLY_SUPPORT_DEREF_AND_DELETE)
	}
}

// compileDerefMutation compiles the only supported mutation of the record a pointer designates:
//
//	ptr.deref(row => {
//		row.a.b.append(value)
//		return row
//	})
//
// The value is pushed onto the nested array a.b of the record.
func (c *compiler) compileDerefMutation(store *manifest.HierarchicalStore, arg ast.Assignable) ([]bytecode.Instruction, error) {
	fn, ok := arg.(*ast.AnonFunction)
	if !ok {
		return nil, makeError(ErrUnsupportedConstruct, arg, DEREF_REQUIRES_ANON_FUNCTION)
	}
	if len(fn.Body) != 2 {
		return nil, makeError(ErrUnsupportedConstruct, fn, DEREF_FUNCTION_TWO_STATEMENTS)
	}

	returnStmt, ok := fn.Body[1].(*ast.ReturnStatement)
	if !ok || returnStmt.ReturnsNothing() {
		return nil, makeError(ErrUnsupportedConstruct, fn.Body[1], DEREF_FUNCTION_SHOULD_RETURN_ROW)
	}
	returned, ok := returnStmt.Value.(*ast.VariableReference)
	if !ok || returned.Name != fn.RowVarName || !returned.IsBare() {
		return nil, makeError(ErrUnsupportedConstruct, returnStmt, DEREF_FUNCTION_SHOULD_RETURN_ROW)
	}

	mutation, ok := fn.Body[0].(*ast.VariableReference)
	if !ok || mutation.Name != fn.RowVarName || len(mutation.Dots) < 2 {
		return nil, makeError(ErrUnsupportedConstruct, fn.Body[0], DEREF_FUNCTION_SHOULD_APPEND_TO_FIELD)
	}

	last := len(mutation.Dots) - 1
	appendInvocation, ok := mutation.Dots[last].(*ast.MethodInvocation)
	if !ok || appendInvocation.Name != APPEND_METHOD_NAME || len(appendInvocation.Args) != 1 {
		return nil, makeError(ErrUnsupportedConstruct, mutation.Dots[last], DEREF_FUNCTION_SHOULD_APPEND_TO_FIELD)
	}

	//resolve the type of the nested array
	var (
		path    []string
		current types.Type = store.Schema
	)
	for _, dot := range mutation.Dots[:last] {
		access, ok := dot.(*ast.FieldAccess)
		if !ok {
			return nil, makeError(ErrUnsupportedConstruct, dot, DEREF_FUNCTION_SHOULD_APPEND_TO_FIELD)
		}
		obj, ok := current.(*types.Object)
		if !ok {
			return nil, makeError(ErrTypeMismatch, access, fmtCannotAccessFieldOn(access.Name, current))
		}
		fieldType, ok := obj.Field(access.Name)
		if !ok {
			return nil, makeError(ErrTypeMismatch, access, fmtFieldDoesNotExist(access.Name, obj))
		}
		path = append(path, access.Name)
		current = fieldType
	}

	array, ok := current.(*types.Array)
	if !ok {
		return nil, makeError(ErrTypeMismatch, appendInvocation, TARGET_OF_NESTED_APPEND_SHOULD_BE_ARRAY)
	}

	valueOps, _, err := c.compileAssignable(appendInvocation.Args[0], array.Elem)
	if err != nil {
		return nil, err
	}

	ops := []bytecode.Instruction{
		bytecode.MakeCreateUpdateDoc(map[string]any{bytecode.PUSH_UPDATE_OPERATOR: map[string]any{}}),
	}
	ops = append(ops, valueOps...)
	ops = append(ops,
		bytecode.MakeSetNestedField(bytecode.PUSH_UPDATE_OPERATOR, strings.Join(path, ".")),
		bytecode.MakeUpdateOne(store.Name),
	)
	return ops, nil
}
