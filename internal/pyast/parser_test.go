package pyast

import (
	"errors"
	"strings"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree
}

func findFirst(t *testing.T, tree *Tree, kind Kind) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	err := Walk(tree.Root(), 0, func(node *sitter.Node, _ int) bool {
		if found != nil {
			return false
		}
		if KindOf(node) == kind {
			found = node
			return false
		}
		return true
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if found == nil {
		t.Fatalf("no %s node found", kind)
	}
	return found
}

func TestParseValidModule(t *testing.T) {
	tree := mustParse(t, "x = 1\n")
	if KindOf(tree.Root()) != KindModule {
		t.Fatalf("expected module root, got %q", tree.Root().Kind())
	}
}

func TestParseReportsSyntaxError(t *testing.T) {
	_, err := Parse([]byte("def broken(:\n    pass"))
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %T (%v)", err, err)
	}
	if syntaxErr.Line < 1 {
		t.Fatalf("expected a 1-based line, got %d", syntaxErr.Line)
	}
	if !strings.Contains(syntaxErr.Error(), "syntax") && !strings.Contains(syntaxErr.Error(), "expected") {
		t.Fatalf("unexpected message %q", syntaxErr.Error())
	}
}

func TestParseRejectsConstructsTheGrammarTolerates(t *testing.T) {
	cases := []struct {
		src          string
		line, column int
	}{
		{"print \"hello\"\n", 1, 1},
		{"x = 1 <> 2\n", 1, 7},
		{"try:\n    pass\nexcept ValueError, e:\n    pass\n", 3, 18},
		{"def f():\n    x = 1\n      y = 2\n", 3, 7},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.src))
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("Parse(%q): expected *SyntaxError, got %v", tc.src, err)
		}
		if syntaxErr.Line != tc.line || syntaxErr.Column != tc.column {
			t.Fatalf("Parse(%q): got line %d column %d, want %d:%d", tc.src, syntaxErr.Line, syntaxErr.Column, tc.line, tc.column)
		}
	}
}

func TestParseRejectsInvalidEncoding(t *testing.T) {
	for name, src := range map[string][]byte{
		"invalid utf8": {'x', ' ', '=', ' ', 0xff, '\n'},
		"nul byte":     []byte("x = 1\x00\n"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Fatalf("expected ErrInvalidEncoding, got %v", err)
			}
		})
	}
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	tree := mustParse(t, "def a():\n    pass\n\ndef b():\n    def c():\n        pass\n")

	var names []string
	err := Walk(tree.Root(), 0, func(node *sitter.Node, _ int) bool {
		if fn, ok := tree.Function(node); ok {
			names = append(names, fn.Name)
		}
		return true
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if got := strings.Join(names, ","); got != "a,b,c" {
		t.Fatalf("expected a,b,c, got %s", got)
	}
}

func TestWalkDepthBound(t *testing.T) {
	src := "x = " + strings.Repeat("(", 60) + "1" + strings.Repeat(")", 60) + "\n"
	tree := mustParse(t, src)

	err := Walk(tree.Root(), 20, func(*sitter.Node, int) bool { return true })
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("expected ErrNestingTooDeep, got %v", err)
	}
	if err := Walk(tree.Root(), 0, func(*sitter.Node, int) bool { return true }); err != nil {
		t.Fatalf("unbounded walk returned error: %v", err)
	}
}

func TestFunctionAsyncAndDecorators(t *testing.T) {
	tree := mustParse(t, "@cache\n@route(\"/x\",\n       methods=[\"GET\"])\nasync def handler(req):\n    pass\n")
	fn, ok := tree.Function(findFirst(t, tree, KindFunction))
	if !ok {
		t.Fatal("expected a function")
	}
	if fn.Name != "handler" || !fn.Async {
		t.Fatalf("unexpected function %+v", fn)
	}
	if fn.Line != 4 {
		t.Fatalf("expected def line 4, got %d", fn.Line)
	}
	if len(fn.Decorators) != 2 {
		t.Fatalf("expected 2 decorators, got %d", len(fn.Decorators))
	}
	if got := tree.Unparse(fn.Decorators[0]); got != "cache" {
		t.Fatalf("unexpected first decorator %q", got)
	}
	if got := tree.Unparse(fn.Decorators[1]); got != `route('/x', methods=['GET'])` {
		t.Fatalf("unexpected second decorator %q", got)
	}
}

func TestParametersKeepPositionalOrKeywordOnly(t *testing.T) {
	tree := mustParse(t, "def f(a, /, b: int, c=1, d: str = 'x', *args, e, **kw):\n    pass\n")
	fn, _ := tree.Function(findFirst(t, tree, KindFunction))

	params := tree.Parameters(fn)
	var rendered []string
	for _, p := range params {
		if p.Annotation != nil {
			rendered = append(rendered, p.Name+": "+tree.Unparse(p.Annotation))
			continue
		}
		rendered = append(rendered, p.Name)
	}
	if got := strings.Join(rendered, ","); got != "b: int,c,d: str" {
		t.Fatalf("unexpected params %q", got)
	}
}

func TestClassBasesAndMethods(t *testing.T) {
	tree := mustParse(t, "class C(Base, abc.ABC, metaclass=Meta):\n    x = 1\n    def a(self): pass\n    @property\n    def b(self): pass\n    class Inner:\n        def c(self): pass\n")
	class, ok := tree.Class(findFirst(t, tree, KindClass))
	if !ok {
		t.Fatal("expected a class")
	}
	var bases []string
	for _, base := range class.Bases {
		bases = append(bases, tree.Unparse(base))
	}
	if got := strings.Join(bases, ","); got != "Base,abc.ABC" {
		t.Fatalf("unexpected bases %q", got)
	}
	if class.MethodCount() != 2 {
		t.Fatalf("expected 2 direct methods, got %d", class.MethodCount())
	}
}

func TestDocstringCleaning(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
		ok   bool
	}{
		{"single line", "def f():\n    \"\"\"Hello.\"\"\"\n", "Hello.", true},
		{"indented block", "def f():\n    \"\"\"Summary.\n\n        Details here.\n          More.\n    \"\"\"\n", "Summary.\n\nDetails here.\n  More.", true},
		{"escapes", "def f():\n    'tab\\there'\n", "tab\there", true},
		{"raw", "def f():\n    r'tab\\there'\n", `tab\there`, true},
		{"concatenated", "def f():\n    'a' 'b'\n", "ab", true},
		{"fstring", "def f():\n    f'{x}'\n", "", false},
		{"bytes", "def f():\n    b'x'\n", "", false},
		{"not first", "def f():\n    x = 1\n    'doc'\n", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := mustParse(t, tc.src)
			fn, _ := tree.Function(findFirst(t, tree, KindFunction))
			got, ok := tree.Docstring(fn.Body())
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Docstring() = %q, %v; want %q, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestUnparseCollapsesLineBreaks(t *testing.T) {
	tree := mustParse(t, "def f() -> Dict[\n    str,\n    int,\n]:\n    pass\n")
	fn, _ := tree.Function(findFirst(t, tree, KindFunction))
	if got := tree.Unparse(tree.ReturnType(fn)); got != "Dict[str, int,]" {
		t.Fatalf("unexpected unparse %q", got)
	}
}

func TestUnparseNormalizesLayout(t *testing.T) {
	tree := mustParse(t, "@d(a|b, key = f( 0 ), s=x[1 : 2], fn=lambda x:x, flag=not y)\n@e({\"k\":\"it's\"},b'x')\ndef g(x: \"Dict[str,int]\") -> Dict[str,int]:\n    pass\n")
	fn, _ := tree.Function(findFirst(t, tree, KindFunction))

	cases := []struct {
		node *sitter.Node
		want string
	}{
		{fn.Decorators[0], "d(a | b, key=f(0), s=x[1:2], fn=lambda x: x, flag=not y)"},
		{fn.Decorators[1], `e({'k': "it's"}, b'x')`},
		{tree.Parameters(fn)[0].Annotation, "'Dict[str,int]'"},
		{tree.ReturnType(fn), "Dict[str, int]"},
	}
	for _, tc := range cases {
		if got := tree.Unparse(tc.node); got != tc.want {
			t.Fatalf("Unparse() = %q, want %q", got, tc.want)
		}
	}
}

func TestKindOfIgnoresAnonymousTokens(t *testing.T) {
	tree := mustParse(t, "if x:\n    pass\n")
	ifNode := findFirst(t, tree, KindIf)
	keyword := ifNode.Child(0)
	if keyword == nil || KindOf(keyword) != KindOther {
		t.Fatalf("expected anonymous if keyword to classify as other")
	}
	if KindIf.String() != "if_statement" {
		t.Fatalf("unexpected kind name %q", KindIf.String())
	}
}
