package ast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

type TraversalAction int

const (
	ContinueTraversal TraversalAction = iota
	Prune
	StopTraversal
)

type NodeHandler = func(node Node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error)

// Walk performs a pre-order traversal of the tree rooted at node (depth first), postHandle is
// called on a node after all its descendants have been visited. The ancestor chain passed to the
// handlers starts with nil.
func Walk(node Node, handle, postHandle NodeHandler) (err error) {
	defer func() {
		v := recover()

		switch val := v.(type) {
		case error:
			err = fmt.Errorf("%s:%w", debug.Stack(), val)
		case nil:
		case TraversalAction:
		default:
			panic(v)
		}
	}()

	ancestorChain := make([]Node, 0)
	walk(node, nil, &ancestorChain, handle, postHandle)
	return
}

func walk(node, parent Node, ancestorChain *[]Node, fn, afterFn NodeHandler) {
	if node == nil || reflect.ValueOf(node).IsNil() {
		return
	}

	*ancestorChain = append(*ancestorChain, parent)
	defer func() {
		*ancestorChain = (*ancestorChain)[:len(*ancestorChain)-1]
	}()

	if fn != nil {
		action, err := fn(node, parent, *ancestorChain, false)
		if err != nil {
			panic(err)
		}

		switch action {
		case StopTraversal:
			panic(StopTraversal)
		case Prune:
			return
		}
	}

	switch n := node.(type) {
	case *Function:
		walkStatements(n.Body, node, ancestorChain, fn, afterFn)
	case *VariableCreation:
		walk(n.Value, node, ancestorChain, fn, afterFn)
	case *ReturnStatement:
		if n.Value != nil {
			walk(n.Value, node, ancestorChain, fn, afterFn)
		}
	case *If:
		walk(n.Condition, node, ancestorChain, fn, afterFn)
		walkStatements(n.Body, node, ancestorChain, fn, afterFn)
	case *ForIn:
		walk(n.Iterable, node, ancestorChain, fn, afterFn)
		walkStatements(n.Body, node, ancestorChain, fn, afterFn)
	case *VariableReference:
		for _, dot := range n.Dots {
			walk(dot, node, ancestorChain, fn, afterFn)
		}
	case *MethodInvocation:
		for _, arg := range n.Args {
			walk(arg, node, ancestorChain, fn, afterFn)
		}
	case *ArrayLiteral:
		for _, elem := range n.Elements {
			walk(elem, node, ancestorChain, fn, afterFn)
		}
	case *ObjectLiteral:
		for _, field := range n.Fields {
			walk(field.Value, node, ancestorChain, fn, afterFn)
		}
	case *AnonFunction:
		walkStatements(n.Body, node, ancestorChain, fn, afterFn)
	case *StringLiteral, *NumberLiteral, *FieldAccess:
	default:
		panic(fmt.Errorf("cannot walk on %#v", n))
	}

	if afterFn != nil {
		action, err := afterFn(node, parent, *ancestorChain, true)
		if err != nil {
			panic(err)
		}
		if action == StopTraversal {
			panic(StopTraversal)
		}
	}
}

func walkStatements(statements []Statement, parent Node, ancestorChain *[]Node, fn, afterFn NodeHandler) {
	for _, stmt := range statements {
		walk(stmt, parent, ancestorChain, fn, afterFn)
	}
}
