package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someblueman/codeanalysis/internal/analysis"
)

func run(t *testing.T, action, code string) analysis.Response {
	t.Helper()
	return analysis.NewEngine(analysis.DefaultOptions()).Execute(analysis.Request{Action: action, Code: code})
}

const sample = `import os
from .util import helper

class Shape(ABC):
    def area(self) -> float:
        """Compute the area.

        Subclasses override this.
        """
        return 0.0

@cache
def walk(node, depth: int = 0):
    if node and depth < 10:
        return [walk(c) for c in node.children]
    return []
`

func TestRendererFor(t *testing.T) {
	for format, want := range map[string]string{"": FormatJSON, "json": FormatJSON, "md": FormatMarkdown, "Markdown": FormatMarkdown, "text": FormatText} {
		renderer, err := RendererFor(format)
		require.NoError(t, err, format)
		assert.Equal(t, want, renderer.Name())
	}
	_, err := RendererFor("html")
	assert.Error(t, err)
}

func TestMarkdownAnalyze(t *testing.T) {
	var buf bytes.Buffer
	err := MarkdownRenderer{}.Render(&buf, []Entry{{Path: "shapes.py", Response: run(t, analysis.ActionAnalyze, sample)}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "## shapes.py")
	assert.Contains(t, out, "16 lines, 2 functions, 1 classes, 2 imports.")
	assert.Contains(t, out, "| area | 5 | false | 1 |")
	assert.Contains(t, out, "| Shape | 4 | ABC | 1 |")
	assert.Contains(t, out, "| .util | helper | 2 |")
	assert.Contains(t, out, "| abstract_class | Shape | 4 |")
	assert.Contains(t, out, "| comprehension | - | 15 |")
	assert.Contains(t, out, "| walk | 13 | 3 | low |")
}

func TestMarkdownSignaturesAndFailures(t *testing.T) {
	var buf bytes.Buffer
	err := MarkdownRenderer{}.Render(&buf, []Entry{
		{Path: "shapes.py", Response: run(t, analysis.ActionSignatures, sample)},
		{Path: "broken.py", Response: run(t, analysis.ActionAnalyze, "def broken(:\n    pass")},
		{Path: "missing.py", Err: errors.New("read missing.py: no such file")},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "| 5 | `def area(self) -> float` |  | Compute the area. |")
	assert.Contains(t, out, "| 13 | `def walk(node, depth: int)` | cache |  |")
	assert.Contains(t, out, "> Code had syntax issues, showing basic metrics only")
	assert.Contains(t, out, "- Lines: 2 (2 non-empty)")
	assert.Contains(t, out, "- Syntax error: `")
	assert.Contains(t, out, "**Failed:** read missing.py: no such file")
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := TextRenderer{}.Render(&buf, []Entry{
		{Path: "shapes.py", Response: run(t, analysis.ActionComplexity, sample)},
		{Path: "sigs.py", Response: run(t, analysis.ActionSignatures, sample)},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "shapes.py")
	assert.Contains(t, out, "Complexity")
	assert.Contains(t, out, "walk")
	assert.Contains(t, out, "low")
	assert.Contains(t, out, "def area(self) -> float")
	assert.Contains(t, out, "@cache")
	assert.Less(t, strings.Index(out, "area"), strings.Index(out, "walk"))
}

func TestJSONRenderer(t *testing.T) {
	var single bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&single, []Entry{{Path: "a.py", Response: run(t, analysis.ActionComplexity, "def f(): pass")}}))
	assert.JSONEq(t, `{"success":true,"output":{"f":{"complexity":1,"rating":"low","line":1}}}`, single.String())

	var many bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&many, []Entry{
		{Path: "a.py", Response: run(t, analysis.ActionComplexity, "def f(): pass")},
		{Path: "b.py", Err: errors.New("unreadable")},
	}))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(many.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a.py", decoded[0]["path"])
	assert.Equal(t, true, decoded[0]["success"])
	assert.Equal(t, "unreadable", decoded[1]["error"])
}
