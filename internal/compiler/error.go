package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maruel/natural"
	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/schema"
	"github.com/mattpair/conder-sub001/internal/types"
	"golang.org/x/exp/slices"
)

const (
	FUNCTION_FAILS_TO_RETURN_ON_ALL_PATHS = "function fails to return a value on all paths"
	RETURNING_NOTHING_WHEN_VALUE_EXPECTED = "returning nothing when a value is expected"
	RETURNING_VALUE_FROM_VOID_FUNCTION    = "returning a value from a function that returns nothing"
	FOR_IN_NOT_SUPPORTED                  = "for in loops are not supported"
	UNEXPECTED_ANON_FUNCTION              = "anonymous functions are only supported as arguments of select and deref"

	APPENDING_TO_STORE_DOES_NOT_RETURN_DATA  = "appending to a store does not return any data"
	CHAINED_STORE_METHODS_NOT_SUPPORTED      = "invoking methods on the result of a store method is not supported"
	ACCESSING_FIELD_ON_STORE                 = "accessing a field on a store does not make sense"
	STORE_REFERENCE_RETURNS_DATA_NOT_NONE    = "a store reference returns data, not nothing"
	SELECT_TAKES_ONE_ARGUMENT                = "select may only be called with one argument"
	SELECT_MUST_YIELD_RESULT                 = "select must yield some result"
	SELECT_REQUIRES_ANON_FUNCTION            = "select must be invoked with an anonymous function"
	SELECT_FUNCTION_SINGLE_STATEMENT         = "select functions only support one statement"
	SELECT_SHOULD_RETURN_RESULTS             = "it only makes sense to select from a store if you are going to return results"
	SELECT_ONLY_RETURNS_ROW_OR_POINTER       = "select functions may only return the row variable or a pointer to it"
	REF_TAKES_NO_ARGUMENTS                   = "ref should not be called with any arguments"
	DELETE_TAKES_NO_ARGUMENTS                = "deleting a pointer takes no arguments"
	DEREF_TAKES_AT_MOST_ONE_ARGUMENT         = "deref takes at most one argument"
	DEREF_REQUIRES_ANON_FUNCTION             = "deref must be invoked with an anonymous function"
	DEREF_FUNCTION_TWO_STATEMENTS            = "deref functions should contain exactly two statements: an append to a nested array of the row and a return of the row"
	DEREF_FUNCTION_SHOULD_APPEND_TO_FIELD    = "the first statement of a deref function should append a single value to a nested array field of the row"
	DEREF_FUNCTION_SHOULD_RETURN_ROW         = "the last statement of a deref function should return the row variable"
	REFERENCES_ONLY_SUPPORT_DEREF_AND_DELETE = "references only support the deref and delete methods"
	LEN_TAKES_NO_ARGUMENTS                   = "len takes no arguments"
	TARGET_OF_NESTED_APPEND_SHOULD_BE_ARRAY  = "append can only be called on an array field"
)

var (
	ErrUnresolvedSymbol     = errors.New("unresolved symbol")
	ErrDuplicateSymbol      = errors.New("duplicate symbol")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrControlFlow          = errors.New("control flow violation")

	// the registry reports collisions between schema names
	ErrSchemaCollision = schema.ErrSchemaCollision
)

// A CompileError is a failure located in the body of a function, it unwraps to its kind (ErrTypeMismatch, ...).
type CompileError struct {
	Kind     error
	Message  string
	Location ast.Location
}

func (e *CompileError) Error() string {
	if e.Location.IsKnown() {
		return e.Location.String() + ": " + e.Message
	}
	return e.Message
}

func (e *CompileError) Unwrap() error {
	return e.Kind
}

func makeError(kind error, node ast.Node, msg string) *CompileError {
	err := &CompileError{Kind: kind, Message: msg}
	if node != nil {
		err.Location = node.Base().Loc
	}
	return err
}

// A FunctionError wraps the error that made the compilation of a function fail.
type FunctionError struct {
	Function string
	Err      error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("while compiling function `%s`: %s", e.Function, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}

// A BatchError aggregates the failures of the compilation of a manifest, errors are sorted by function name.
type BatchError struct {
	Errors []*FunctionError
}

func newBatchError(errs []*FunctionError) *BatchError {
	errs = slices.Clone(errs)
	slices.SortFunc(errs, func(a, b *FunctionError) int {
		switch {
		case natural.Less(a.Function, b.Function):
			return -1
		case natural.Less(b.Function, a.Function):
			return 1
		default:
			return 0
		}
	})
	return &BatchError{Errors: errs}
}

func (e *BatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d function(s) failed to compile:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

func fmtUnresolvedSymbol(name string) string {
	return fmt.Sprintf("%s is neither a variable nor a store", name)
}

func fmtVariableAlreadyDeclared(name string) string {
	return fmt.Sprintf("variable %s is already declared", name)
}

func fmtNoParameterSchema(functionName string) string {
	return fmt.Sprintf("no parameter schema is registered for function %s", functionName)
}

func fmtUnreachableCodeAfter(returnLoc ast.Location) string {
	return fmt.Sprintf("unreachable code after the return statement at %s", returnLoc)
}

func fmtTypesNotEqual(expected, actual types.Type) string {
	return fmt.Sprintf("types are not equal: expected %s but got %s", types.Stringify(expected), types.Stringify(actual))
}

func fmtLiteralNotAssignable(literalKind string, target types.Type) string {
	return fmt.Sprintf("a(n) %s literal is not assignable to %s", literalKind, types.Stringify(target))
}

func fmtInvalidNumberLiteral(text string, target types.Type) string {
	return fmt.Sprintf("%s is not a valid %s literal", text, types.Stringify(target))
}

func fmtMissingFieldInObjectLiteral(name string) string {
	return fmt.Sprintf("missing field %s in object literal", name)
}

func fmtUnexpectedFieldInObjectLiteral(name string) string {
	return fmt.Sprintf("unexpected field in object literal: %s", name)
}

func fmtDuplicateFieldInObjectLiteral(name string) string {
	return fmt.Sprintf("field %s appears twice in object literal", name)
}

func fmtStoreContainsOtherType(store string, elem types.Type, target types.Type) string {
	return fmt.Sprintf("referencing %s returns an Array<%s>, not %s", store, types.Stringify(elem), types.Stringify(target))
}

func fmtMethodDoesNotExistOnStores(name string) string {
	return fmt.Sprintf("method %s doesn't exist on stores", name)
}

func fmtUnknownRowVariableMethod(name string) string {
	return fmt.Sprintf("unknown method %s called on row variable", name)
}

func fmtCannotAccessFieldOn(name string, t types.Type) string {
	return fmt.Sprintf("attempting to access field %s on a(n) %s", name, types.Stringify(t))
}

func fmtFieldDoesNotExist(name string, t types.Type) string {
	return fmt.Sprintf("attempting to access %s but it doesn't exist on type %s", name, types.Stringify(t))
}

func fmtMethodDoesNotExistOn(name string, t types.Type) string {
	return fmt.Sprintf("%s does not exist on %s", name, types.Stringify(t))
}

func fmtStoreOfReferenceNotFound(store string) string {
	return fmt.Sprintf("the store %s of the reference does not exist", store)
}
