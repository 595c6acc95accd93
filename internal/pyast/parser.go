// Package pyast adapts the tree-sitter Python grammar into the syntax tree the
// analysis passes walk.
package pyast

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var (
	// ErrInvalidEncoding reports source text that is not valid UTF-8 or
	// contains NUL bytes.
	ErrInvalidEncoding = errors.New("source is not valid UTF-8 text")
	// ErrParserUnavailable reports a parser that could not be set up or
	// produced no tree.
	ErrParserUnavailable = errors.New("python parser unavailable")
)

var pythonSyntaxLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// SyntaxError is a grammar-level fault located at the first error or missing
// node of the tree.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	if e.Line <= 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// Tree owns a parsed tree and the source it was parsed from.
type Tree struct {
	source []byte
	tree   *sitter.Tree
}

// Parse converts source into a tree. It returns a *SyntaxError for grammar
// faults and ErrInvalidEncoding or ErrParserUnavailable for everything else.
// The caller must Close the returned tree.
func Parse(source []byte) (*Tree, error) {
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%w: invalid byte sequence", ErrInvalidEncoding)
	}
	if bytes.IndexByte(source, 0) >= 0 {
		return nil, fmt.Errorf("%w: source contains null bytes", ErrInvalidEncoding)
	}

	parser, err := newPythonParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: parser returned no tree", ErrParserUnavailable)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("%w: parser returned no root node", ErrParserUnavailable)
	}
	if root.HasError() {
		syntaxErr := firstSyntaxError(root, source)
		tree.Close()
		return nil, syntaxErr
	}
	if syntaxErr := firstRejectedConstruct(root, source); syntaxErr != nil {
		tree.Close()
		return nil, syntaxErr
	}

	return &Tree{source: source, tree: tree}, nil
}

func newPythonParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(pythonSyntaxLanguage); err != nil {
		parser.Close()
		return nil, fmt.Errorf("%w: %v", ErrParserUnavailable, err)
	}
	return parser, nil
}

// Close releases the native tree.
func (t *Tree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Text returns the exact source text covered by node.
func (t *Tree) Text(node *sitter.Node) string {
	return nodeText(node, t.source)
}

// Line returns the 1-based line of node's first byte.
func Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Row) + 1
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

func firstSyntaxError(root *sitter.Node, source []byte) *SyntaxError {
	var found *sitter.Node
	_ = Walk(root, 0, func(node *sitter.Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.IsMissing() || node.IsError() {
			found = node
			return false
		}
		return node.HasError()
	})
	if found == nil {
		return &SyntaxError{Message: "invalid syntax"}
	}

	pos := found.StartPosition()
	syntaxErr := &SyntaxError{
		Message: "invalid syntax",
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
	}
	if found.IsMissing() {
		syntaxErr.Message = fmt.Sprintf("expected %q", found.Kind())
		return syntaxErr
	}
	if snippet := errorSnippet(nodeText(found, source)); snippet != "" {
		syntaxErr.Message = fmt.Sprintf("invalid syntax near %q", snippet)
	}
	return syntaxErr
}

func errorSnippet(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	const maxSnippet = 40
	if utf8.RuneCountInString(text) > maxSnippet {
		runes := []rune(text)
		text = string(runes[:maxSnippet-3]) + "..."
	}
	return text
}
