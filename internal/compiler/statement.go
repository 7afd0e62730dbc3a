package compiler

import (
	"fmt"
	"reflect"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/types"
)

// statementCompiler compiles a list of statements. The addresses of the instructions it emits are
// offset by precedingOps: the number of instructions of the function that come before ops[0].
type statementCompiler struct {
	c            *compiler
	target       types.Type
	precedingOps int
	ops          []bytecode.Instruction

	alwaysReturns bool
	returnLoc     ast.Location
}

var _ ast.StatementVisitor = (*statementCompiler)(nil)

// compileStatements compiles stmts after the instructions already in ops, it returns the resulting
// instructions and whether the statements return on every path.
func (c *compiler) compileStatements(stmts []ast.Statement, target types.Type, precedingOps int, ops []bytecode.Instruction) ([]bytecode.Instruction, bool, error) {
	s := &statementCompiler{
		c:            c,
		target:       target,
		precedingOps: precedingOps,
		ops:          ops,
	}

	for _, stmt := range stmts {
		if s.alwaysReturns {
			return nil, false, makeError(ErrControlFlow, stmt, fmtUnreachableCodeAfter(s.returnLoc))
		}

		start := len(s.ops)
		if c.trace != nil {
			c.enterTracingBlock(fmt.Sprintf("(%s)", reflect.TypeOf(stmt).Elem().Name()))
		}

		err := stmt.AcceptStatement(s)

		if c.trace != nil {
			if _, isIf := stmt.(*ast.If); err == nil && !isIf {
				c.printOps(s.precedingOps+start, s.ops[start:])
			}
			c.leaveTracingBlock()
		}
		if err != nil {
			return nil, false, err
		}
	}
	return s.ops, s.alwaysReturns, nil
}

func (s *statementCompiler) emit(ops ...bytecode.Instruction) {
	s.ops = append(s.ops, ops...)
}

// VisitReferenceStatement compiles a variable reference evaluated for its side effects (e.g. store.append(x)).
func (s *statementCompiler) VisitReferenceStatement(stmt *ast.VariableReference) error {
	ops, _, err := s.c.compileAssignable(stmt, types.Any)
	if err != nil {
		return err
	}
	s.emit(ops...)
	return nil
}

func (s *statementCompiler) VisitVariableCreation(stmt *ast.VariableCreation) error {
	ops, _, err := s.c.compileAssignable(stmt.Value, stmt.Type)
	if err != nil {
		return err
	}

	if _, ok := s.c.heap.add(stmt.Name, stmt.Type); !ok {
		return makeError(ErrDuplicateSymbol, stmt, fmtVariableAlreadyDeclared(stmt.Name))
	}

	s.emit(ops...)
	s.emit(bytecode.MakeMoveStackTopToHeap())
	return nil
}

func (s *statementCompiler) VisitReturnStatement(stmt *ast.ReturnStatement) error {
	s.alwaysReturns = true
	s.returnLoc = stmt.Loc

	if stmt.ReturnsNothing() {
		if !types.IsNone(s.target) && !types.IsAny(s.target) {
			return makeError(ErrTypeMismatch, stmt, RETURNING_NOTHING_WHEN_VALUE_EXPECTED)
		}
		return nil
	}

	if types.IsNone(s.target) {
		return makeError(ErrTypeMismatch, stmt, RETURNING_VALUE_FROM_VOID_FUNCTION)
	}

	ops, _, err := s.c.compileAssignable(stmt.Value, s.target)
	if err != nil {
		return err
	}
	s.emit(ops...)
	s.emit(bytecode.MakeReturnStackTop())
	return nil
}

// VisitIf lowers an if statement to:
//
//	<condition> negatePrev conditionalGoto(end) <body> truncateHeap(n)|noop
//
// where end is the address of the instruction following the body.
func (s *statementCompiler) VisitIf(stmt *ast.If) error {
	conditionOps, _, err := s.c.compileAssignable(stmt.Condition, types.Bool)
	if err != nil {
		return err
	}
	start := len(s.ops)
	s.emit(conditionOps...)
	s.emit(bytecode.MakeNegatePrev())
	s.c.printOps(s.precedingOps+start, s.ops[start:])

	jumpAddress := s.precedingOps + len(s.ops)

	//the body is compiled first because the address of the jump depends on its length.
	s.c.heap.startLevel()
	bodyOps, _, err := s.c.compileStatements(stmt.Body, s.target, jumpAddress+1, nil)
	if err != nil {
		return err
	}
	newVarCount := s.c.heap.endLevel()

	jump := bytecode.MakeConditionalGoto(jumpAddress + len(bodyOps) + 1)
	s.emit(jump)
	s.emit(bodyOps...)

	//the jump targets the instruction after the body, it should always exist.
	end := bytecode.MakeNoop()
	if newVarCount > 0 {
		end = bytecode.MakeTruncateHeap(newVarCount)
	}
	s.emit(end)

	s.c.printOps(jumpAddress, []bytecode.Instruction{jump})
	s.c.printOps(jumpAddress+len(bodyOps)+1, []bytecode.Instruction{end})
	return nil
}

func (s *statementCompiler) VisitForIn(stmt *ast.ForIn) error {
	return makeError(ErrUnsupportedConstruct, stmt, FOR_IN_NOT_SUPPORTED)
}
