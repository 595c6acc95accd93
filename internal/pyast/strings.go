package pyast

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Docstring returns the cleaned docstring of a function body. Only a plain
// str literal as the first statement qualifies; f-strings and bytes do not.
func (t *Tree) Docstring(body *sitter.Node) (string, bool) {
	stmt := FirstStatement(body)
	if KindOf(stmt) != KindExpressionStatement || stmt.NamedChildCount() != 1 {
		return "", false
	}

	expr := stmt.NamedChild(0)
	for expr != nil && expr.Kind() == "parenthesized_expression" && expr.NamedChildCount() == 1 {
		expr = expr.NamedChild(0)
	}

	value, ok := t.StringValue(expr)
	if !ok {
		return "", false
	}
	return CleanDoc(value), true
}

// StringValue decodes a str literal or an implicit concatenation of str
// literals. It reports false for anything else, including f-strings and
// bytes.
func (t *Tree) StringValue(node *sitter.Node) (string, bool) {
	switch KindOf(node) {
	case KindString:
		return t.stringPartValue(node)
	case KindConcatenatedString:
		var sb strings.Builder
		for _, part := range NamedChildren(node) {
			if KindOf(part) == KindComment {
				continue
			}
			value, ok := t.stringPartValue(part)
			if !ok {
				return "", false
			}
			sb.WriteString(value)
		}
		return sb.String(), true
	default:
		return "", false
	}
}

func (t *Tree) stringPartValue(node *sitter.Node) (string, bool) {
	if KindOf(node) != KindString {
		return "", false
	}

	var start, end *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_start":
			start = child
		case "string_end":
			end = child
		case "interpolation":
			return "", false
		}
	}
	if start == nil || end == nil || end.StartByte() < start.EndByte() {
		return "", false
	}

	prefix := strings.ToLower(strings.TrimRight(t.Text(start), `"'`))
	if strings.ContainsAny(prefix, "bft") {
		return "", false
	}

	body := string(t.source[start.EndByte():end.StartByte()])
	body = normalizeNewlines(body)
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return decodeEscapes(body), true
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// decodeEscapes applies Python str escape rules. Unknown escapes and named
// \N{...} escapes are kept verbatim.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			i++
		case '\\', '\'', '"':
			sb.WriteByte(next)
			i++
		case 'a':
			sb.WriteByte('\a')
			i++
		case 'b':
			sb.WriteByte('\b')
			i++
		case 'f':
			sb.WriteByte('\f')
			i++
		case 'n':
			sb.WriteByte('\n')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case 't':
			sb.WriteByte('\t')
			i++
		case 'v':
			sb.WriteByte('\v')
			i++
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			value, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			sb.WriteRune(rune(value))
			i = j - 1
		case 'x', 'u', 'U':
			width := 2
			switch next {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if r, ok := hexRune(s, i+2, width); ok {
				sb.WriteRune(r)
				i += 1 + width
				continue
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func hexRune(s string, from, width int) (rune, bool) {
	if from+width > len(s) {
		return 0, false
	}
	value, err := strconv.ParseUint(s[from:from+width], 16, 32)
	if err != nil || value > unicode.MaxRune {
		return 0, false
	}
	r := rune(value)
	if !utf8.ValidRune(r) {
		return utf8.RuneError, true
	}
	return r, true
}

// CleanDoc normalizes docstring indentation: tabs expand to 8 columns, the
// first line loses its leading blanks, the common margin of the remaining
// lines is removed and surrounding empty lines are dropped.
func CleanDoc(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = expandTabs(line, 8)
	}

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeftFunc(line, unicode.IsSpace)
		if content == "" {
			continue
		}
		indent := utf8.RuneCountInString(line) - utf8.RuneCountInString(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			lines[i] = dropRunes(lines[i], margin)
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(line string, size int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	column := 0
	for _, r := range line {
		switch r {
		case '\t':
			pad := size - column%size
			sb.WriteString(strings.Repeat(" ", pad))
			column += pad
		case '\n', '\r':
			sb.WriteRune(r)
			column = 0
		default:
			sb.WriteRune(r)
			column++
		}
	}
	return sb.String()
}

func dropRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}
