package pyast

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrNestingTooDeep reports a tree nested deeper than the walker allows.
var ErrNestingTooDeep = errors.New("syntax tree nested too deeply")

// DefaultMaxDepth bounds walks when callers do not configure a limit.
const DefaultMaxDepth = 10000

// VisitFunc is called for every node in pre-order. Returning false skips the
// node's children.
type VisitFunc func(node *sitter.Node, depth int) bool

type walkFrame struct {
	node  *sitter.Node
	depth int
}

// Walk visits root and its descendants in source order using an explicit
// stack. A maxDepth of zero disables the depth bound.
func Walk(root *sitter.Node, maxDepth int, visit VisitFunc) error {
	if root == nil || visit == nil {
		return nil
	}

	stack := []walkFrame{{node: root}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(frame.node, frame.depth) {
			continue
		}

		count := int(frame.node.ChildCount())
		if count == 0 {
			continue
		}
		if maxDepth > 0 && frame.depth+1 > maxDepth {
			return fmt.Errorf("%w: limit %d at line %d", ErrNestingTooDeep, maxDepth, Line(frame.node))
		}
		for i := count - 1; i >= 0; i-- {
			child := frame.node.Child(uint(i))
			if child != nil {
				stack = append(stack, walkFrame{node: child, depth: frame.depth + 1})
			}
		}
	}
	return nil
}

// NamedChildren returns node's named children in source order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := node.NamedChildCount()
	children := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// SameNode reports whether a and b cover the same span with the same type.
// Node handles are values, so identity is compared by position.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
