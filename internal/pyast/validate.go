package pyast

import sitter "github.com/tree-sitter/go-tree-sitter"

// firstRejectedConstruct finds constructs the grammar accepts without error
// nodes but Python 3 refuses to compile: Python 2 print and exec statements,
// the <> operator, "except E, name" clauses and misaligned statements within
// a suite.
func firstRejectedConstruct(root *sitter.Node, source []byte) *SyntaxError {
	var found *SyntaxError
	_ = Walk(root, 0, func(node *sitter.Node, _ int) bool {
		if found != nil {
			return false
		}
		found = rejectedConstruct(node, source)
		return found == nil
	})
	return found
}

func rejectedConstruct(node *sitter.Node, source []byte) *SyntaxError {
	switch node.Kind() {
	case "print_statement":
		return syntaxErrorAt(node, "Missing parentheses in call to 'print'")
	case "exec_statement":
		return syntaxErrorAt(node, "Missing parentheses in call to 'exec'")
	case "comparison_operator":
		if op := anonymousChild(node, "<>"); op != nil {
			return syntaxErrorAt(op, "invalid syntax near \"<>\"")
		}
	case "except_clause":
		if comma := anonymousChild(node, ","); comma != nil {
			return syntaxErrorAt(comma, "multiple exception types must be parenthesized")
		}
	case "module", "block":
		if stmt := misalignedStatement(node, source); stmt != nil {
			return syntaxErrorAt(stmt, "unexpected indent")
		}
	}
	return nil
}

func anonymousChild(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// misalignedStatement returns the first statement of a suite that opens a
// line at a different column than the suite's earlier statements. Module
// statements must start at column zero. Comments and statements sharing a
// line with another (a; b) are ignored.
func misalignedStatement(suite *sitter.Node, source []byte) *sitter.Node {
	column := -1
	if suite.Kind() == "module" {
		column = 0
	}
	for _, stmt := range NamedChildren(suite) {
		if KindOf(stmt) == KindComment || !startsLine(stmt, source) {
			continue
		}
		col := int(stmt.StartPosition().Column)
		if column < 0 {
			column = col
			continue
		}
		if col != column {
			return stmt
		}
	}
	return nil
}

func startsLine(node *sitter.Node, source []byte) bool {
	for i := int(node.StartByte()) - 1; i >= 0; i-- {
		switch source[i] {
		case ' ', '\t', '\f':
		case '\n', '\r':
			return true
		default:
			return false
		}
	}
	return true
}

func syntaxErrorAt(node *sitter.Node, message string) *SyntaxError {
	pos := node.StartPosition()
	return &SyntaxError{
		Message: message,
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
	}
}
