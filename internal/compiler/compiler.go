package compiler

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/manifest"
	"github.com/mattpair/conder-sub001/internal/schema"
	"github.com/mattpair/conder-sub001/internal/types"
)

const PARAMETER_HEAP_POSITION = 0

type Options struct {
	// Trace receives a listing of the instructions emitted for each statement, nil disables tracing.
	Trace io.Writer

	// Logger is used by CompileManifest, the zero value discards all events.
	Logger zerolog.Logger

	// Workers is the maximum number of functions CompileManifest compiles in parallel,
	// values <= 0 mean the number of CPUs. Tracing forces a single worker.
	Workers int
}

// A Procedure is the compiled form of a function.
type Procedure struct {
	Name string
	Ops  []bytecode.Instruction

	// highest heap slot assigned during the compilation.
	MaxVars int

	// number of heap slots the frame of the procedure needs.
	FrameSize int
}

type compiler struct {
	fn       *ast.Function
	manifest *manifest.Manifest
	registry *schema.Registry
	heap     *heapManager

	trace  io.Writer
	indent int
}

// CompileFunction compiles the body of fn to a procedure. The registry should have been built from m,
// the errors returned are *FunctionError values wrapping a *CompileError.
func CompileFunction(fn *ast.Function, m *manifest.Manifest, registry *schema.Registry, opts Options) (*Procedure, error) {
	c := &compiler{
		fn:       fn,
		manifest: m,
		registry: registry,
		heap:     newHeapManager(),
		trace:    opts.Trace,
	}

	proc, err := c.compileFunction()
	if err != nil {
		return nil, &FunctionError{Function: fn.Name, Err: err}
	}
	return proc, nil
}

func (c *compiler) compileFunction() (*Procedure, error) {
	fn := c.fn

	if c.trace != nil {
		c.enterTracingBlock(fmt.Sprintf("(function %s)", fn.Name))
		defer c.leaveTracingBlock()
	}

	var prologue []bytecode.Instruction

	if fn.Parameter != nil {
		schemaIndex, ok := c.registry.FunctionParameterIndex(fn.Name)
		if !ok {
			return nil, makeError(ErrUnresolvedSymbol, fn, fmtNoParameterSchema(fn.Name))
		}
		prologue = append(prologue, bytecode.MakeEnforceSchemaOnHeap(PARAMETER_HEAP_POSITION, schemaIndex))
		c.printOps(0, prologue)

		if _, ok := c.heap.add(fn.Parameter.Name, fn.Parameter.Type); !ok {
			panic(types.ErrUnreachable)
		}
	}

	var target types.Type = types.None
	if fn.ReturnType != nil {
		target = fn.ReturnType
	}

	ops, alwaysReturns, err := c.compileStatements(fn.Body, target, 0, prologue)
	if err != nil {
		return nil, err
	}

	if !alwaysReturns && !types.IsNone(target) {
		return nil, makeError(ErrControlFlow, fn, FUNCTION_FAILS_TO_RETURN_ON_ALL_PATHS)
	}

	if err := bytecode.Verify(ops); err != nil {
		return nil, fmt.Errorf("invalid procedure: %w", err)
	}

	return &Procedure{
		Name:      fn.Name,
		Ops:       ops,
		MaxVars:   c.heap.maximumVars(),
		FrameSize: c.heap.slotCount(),
	}, nil
}
