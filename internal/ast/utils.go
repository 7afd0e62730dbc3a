package ast

// CountNodes returns the number of nodes in the tree rooted at root, root included.
func CountNodes(root Node) int {
	count := 0
	Walk(root, func(_, _ Node, _ []Node, _ bool) (TraversalAction, error) {
		count++
		return ContinueTraversal, nil
	}, nil)
	return count
}
