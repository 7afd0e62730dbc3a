package ast

import (
	"fmt"

	"github.com/mattpair/conder-sub001/internal/types"
)

// Location is the position of a node in the source file it was parsed from,
// the zero value means that the position is unknown.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) IsKnown() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.IsKnown() {
		return "<unknown location>"
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

type Node interface {
	Base() *NodeBase
}

type NodeBase struct {
	Loc Location
}

func (b *NodeBase) Base() *NodeBase {
	return b
}

// A Function is a name and type resolved function, the body is compiled to a procedure.
type Function struct {
	NodeBase
	Name       string
	Parameter  *Parameter //nil if the function has no parameter
	ReturnType types.Type //nil if the function returns nothing
	Body       []Statement
}

type Parameter struct {
	Name string
	Type types.Type //types.Any if the parameter is untyped
}

// ============ statements ============

// A Statement is one of *VariableReference, *VariableCreation, *ReturnStatement, *If and *ForIn.
type Statement interface {
	Node
	AcceptStatement(v StatementVisitor) error
}

// StatementVisitor should be implemented by any code dispatching on the kind of a statement,
// adding a statement kind adds a method to this interface.
type StatementVisitor interface {
	VisitReferenceStatement(stmt *VariableReference) error
	VisitVariableCreation(stmt *VariableCreation) error
	VisitReturnStatement(stmt *ReturnStatement) error
	VisitIf(stmt *If) error
	VisitForIn(stmt *ForIn) error
}

type VariableCreation struct {
	NodeBase
	Name  string
	Type  types.Type
	Value Assignable
}

func (s *VariableCreation) AcceptStatement(v StatementVisitor) error {
	return v.VisitVariableCreation(s)
}

type ReturnStatement struct {
	NodeBase
	Value Assignable //nil if nothing is returned
}

func (s *ReturnStatement) AcceptStatement(v StatementVisitor) error {
	return v.VisitReturnStatement(s)
}

func (s *ReturnStatement) ReturnsNothing() bool {
	return s.Value == nil
}

type If struct {
	NodeBase
	Condition Assignable
	Body      []Statement
}

func (s *If) AcceptStatement(v StatementVisitor) error {
	return v.VisitIf(s)
}

type ForIn struct {
	NodeBase
	RowVarName string
	Iterable   Assignable
	Body       []Statement
}

func (s *ForIn) AcceptStatement(v StatementVisitor) error {
	return v.VisitForIn(s)
}

// ============ assignables ============

// An Assignable is an expression: *VariableReference, *StringLiteral, *NumberLiteral, *ArrayLiteral,
// *ObjectLiteral or *AnonFunction.
type Assignable interface {
	Node
	AcceptAssignable(v AssignableVisitor) error
}

type AssignableVisitor interface {
	VisitVariableReference(expr *VariableReference) error
	VisitStringLiteral(expr *StringLiteral) error
	VisitNumberLiteral(expr *NumberLiteral) error
	VisitArrayLiteral(expr *ArrayLiteral) error
	VisitObjectLiteral(expr *ObjectLiteral) error
	VisitAnonFunction(expr *AnonFunction) error
}

// A VariableReference is a name followed by a (possibly empty) chain of field accesses and method
// invocations. It is both a statement and an assignable.
type VariableReference struct {
	NodeBase
	Name string
	Dots []DotStatement
}

func (r *VariableReference) AcceptStatement(v StatementVisitor) error {
	return v.VisitReferenceStatement(r)
}

func (r *VariableReference) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitVariableReference(r)
}

// IsBare returns true if the reference has no field accesses and no method invocations.
func (r *VariableReference) IsBare() bool {
	return len(r.Dots) == 0
}

type StringLiteral struct {
	NodeBase
	Value string
}

func (l *StringLiteral) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitStringLiteral(l)
}

// A NumberLiteral keeps the source text of the number: whether it is an integer or a double
// depends on the type it is assigned to.
type NumberLiteral struct {
	NodeBase
	Text string
}

func (l *NumberLiteral) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitNumberLiteral(l)
}

type ArrayLiteral struct {
	NodeBase
	Elements []Assignable
}

func (l *ArrayLiteral) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitArrayLiteral(l)
}

type ObjectLiteral struct {
	NodeBase
	Fields []FieldLiteral
}

type FieldLiteral struct {
	Name  string
	Value Assignable
}

func (l *ObjectLiteral) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitObjectLiteral(l)
}

// An AnonFunction only appears as the argument of a few store methods (select, deref),
// it receives a single row variable.
type AnonFunction struct {
	NodeBase
	RowVarName string
	Body       []Statement
}

func (f *AnonFunction) AcceptAssignable(v AssignableVisitor) error {
	return v.VisitAnonFunction(f)
}

// ============ dot statements ============

// A DotStatement is an element of the chain following the name of a variable reference:
// *FieldAccess or *MethodInvocation.
type DotStatement interface {
	Node
	AcceptDot(v DotVisitor) error
	DotName() string
}

type DotVisitor interface {
	VisitFieldAccess(dot *FieldAccess) error
	VisitMethodInvocation(dot *MethodInvocation) error
}

type FieldAccess struct {
	NodeBase
	Name string
}

func (d *FieldAccess) AcceptDot(v DotVisitor) error {
	return v.VisitFieldAccess(d)
}

func (d *FieldAccess) DotName() string {
	return d.Name
}

type MethodInvocation struct {
	NodeBase
	Name string
	Args []Assignable
}

func (d *MethodInvocation) AcceptDot(v DotVisitor) error {
	return v.VisitMethodInvocation(d)
}

func (d *MethodInvocation) DotName() string {
	return d.Name
}
