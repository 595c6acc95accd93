package pyast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// spacedOperatorParents lists node types whose anonymous operator tokens are
// printed with a blank on each side.
var spacedOperatorParents = map[string]bool{
	"binary_operator":        true,
	"boolean_operator":       true,
	"comparison_operator":    true,
	"conditional_expression": true,
	"named_expression":       true,
	"not_operator":           true,
}

type printToken struct {
	text   string
	parent string
	named  bool
}

// Unparse renders node on one line in the layout Python's ast.unparse uses
// for expressions: plain string literals are re-quoted, commas and dict or
// lambda colons are followed by one space, binary operators are spaced and
// everything else is packed. Comments and line continuations are dropped.
func (t *Tree) Unparse(node *sitter.Node) string {
	if node == nil {
		return ""
	}

	var tokens []printToken
	_ = Walk(node, 0, func(n *sitter.Node, _ int) bool {
		switch n.Kind() {
		case "comment", "line_continuation":
			return false
		case "string":
			tokens = append(tokens, printToken{text: t.stringLiteral(n), parent: parentKind(n), named: true})
			return false
		}
		if n.ChildCount() > 0 {
			return true
		}
		if text := strings.TrimSpace(t.Text(n)); text != "" {
			tokens = append(tokens, printToken{text: text, parent: parentKind(n), named: n.IsNamed()})
		}
		return false
	})

	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && spaceBetween(tokens[i-1], tok) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.text)
	}
	return sb.String()
}

func parentKind(node *sitter.Node) string {
	if parent := node.Parent(); parent != nil {
		return parent.Kind()
	}
	return ""
}

func spaceBetween(prev, cur printToken) bool {
	switch {
	case prev.text == ",":
		return !isCloser(cur.text)
	case cur.text == "," || isCloser(cur.text):
		return false
	case isOpener(prev.text):
		return false
	case prev.text == "." || cur.text == ".":
		return false
	case cur.text == ":":
		return false
	case prev.text == ":":
		return prev.parent != "slice"
	case prev.text == "=" && !prev.named:
		return !packedAssignment(prev.parent)
	case cur.text == "=" && !cur.named:
		return !packedAssignment(cur.parent)
	case isSpacedOperator(prev) || isSpacedOperator(cur):
		return true
	case isKeyword(prev) || isKeyword(cur):
		return true
	case isOpener(cur.text):
		// Calls and subscripts hug their callee.
		return false
	default:
		return endsWord(prev.text) && startsWord(cur.text)
	}
}

func packedAssignment(parent string) bool {
	return parent == "keyword_argument" || parent == "default_parameter"
}

func isSpacedOperator(tok printToken) bool {
	return !tok.named && spacedOperatorParents[tok.parent]
}

func isKeyword(tok printToken) bool {
	return !tok.named && startsWord(tok.text)
}

func isOpener(text string) bool {
	return text == "(" || text == "[" || text == "{"
}

func isCloser(text string) bool {
	return text == ")" || text == "]" || text == "}"
}

func startsWord(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return isWordRune(r) || r == '\'' || r == '"'
}

func endsWord(text string) bool {
	r, _ := utf8.DecodeLastRuneInString(text)
	return isWordRune(r) || r == '\'' || r == '"'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stringLiteral re-quotes plain str literals the way Python's repr does.
// Bytes, f-strings and other prefixed literals keep their source text.
func (t *Tree) stringLiteral(node *sitter.Node) string {
	if value, ok := t.stringPartValue(node); ok {
		return pythonRepr(value)
	}
	return strings.Join(strings.Fields(t.Text(node)), " ")
}

// pythonRepr quotes s with single quotes unless s contains a single quote
// and no double quote, escaping as Python's str repr does.
func pythonRepr(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteRune(quote)
	return sb.String()
}
