package ast_test

import (
	"testing"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/stretchr/testify/assert"
)

func newFunction() *ast.Function {
	return &ast.Function{
		Name: "f",
		Body: []ast.Statement{
			&ast.VariableCreation{
				Name:  "v",
				Value: &ast.ArrayLiteral{Elements: []ast.Assignable{&ast.StringLiteral{Value: "a"}}},
			},
			&ast.If{
				Condition: &ast.VariableReference{Name: "cond"},
				Body: []ast.Statement{
					&ast.VariableReference{
						Name: "users",
						Dots: []ast.DotStatement{
							&ast.MethodInvocation{Name: "append", Args: []ast.Assignable{&ast.VariableReference{Name: "v"}}},
						},
					},
				},
			},
			&ast.ReturnStatement{Value: &ast.VariableReference{Name: "v"}},
		},
	}
}

func TestWalk(t *testing.T) {

	t.Run("prune", func(t *testing.T) {
		fn := newFunction()
		err := ast.Walk(fn, func(node, parent ast.Node, ancestorChain []ast.Node, _ bool) (ast.TraversalAction, error) {
			switch node.(type) {
			case *ast.Function:
				return ast.Prune, nil
			default:
				t.Fatal("the traversal should get pruned on the function")
			}
			return ast.ContinueTraversal, nil
		}, nil)
		assert.NoError(t, err)
	})

	t.Run("stop", func(t *testing.T) {
		fn := newFunction()
		err := ast.Walk(fn, func(node, parent ast.Node, ancestorChain []ast.Node, _ bool) (ast.TraversalAction, error) {
			switch node.(type) {
			case *ast.If:
				return ast.StopTraversal, nil
			case *ast.ReturnStatement:
				t.Fatal("the traversal should have stopped")
			}
			return ast.ContinueTraversal, nil
		}, nil)
		assert.NoError(t, err)
	})

	t.Run("traversal", func(t *testing.T) {
		fn := newFunction()
		creation := fn.Body[0]
		callCount := 0

		err := ast.Walk(fn, func(node, parent ast.Node, ancestorChain []ast.Node, _ bool) (ast.TraversalAction, error) {
			switch callCount {
			case 0:
				assert.IsType(t, (*ast.Function)(nil), node)
				assert.Equal(t, []ast.Node{nil}, ancestorChain)
			case 1:
				assert.Same(t, creation, node)
				assert.Equal(t, []ast.Node{nil, fn}, ancestorChain)
			case 2:
				assert.IsType(t, (*ast.ArrayLiteral)(nil), node)
				assert.Equal(t, []ast.Node{nil, fn, creation}, ancestorChain)
			case 3:
				assert.IsType(t, (*ast.StringLiteral)(nil), node)
			}
			callCount++
			return ast.ContinueTraversal, nil
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, 11, callCount)
	})

	t.Run("post handler", func(t *testing.T) {
		fn := newFunction()
		var visited []ast.Node

		err := ast.Walk(fn, nil, func(node, parent ast.Node, ancestorChain []ast.Node, after bool) (ast.TraversalAction, error) {
			assert.True(t, after)
			visited = append(visited, node)
			return ast.ContinueTraversal, nil
		})

		assert.NoError(t, err)
		if assert.Len(t, visited, 11) {
			assert.Same(t, fn, visited[10])
		}
	})
}

func TestCountNodes(t *testing.T) {
	assert.Equal(t, 11, ast.CountNodes(newFunction()))
	assert.Equal(t, 1, ast.CountNodes(&ast.Function{Name: "empty"}))
}
