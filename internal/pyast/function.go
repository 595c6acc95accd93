package pyast

import sitter "github.com/tree-sitter/go-tree-sitter"

// Function is a def or async def statement.
type Function struct {
	Node  *sitter.Node
	Name  string
	Async bool
	// Line is the line of the def keyword, not of the first decorator.
	Line int
	// Decorators holds the decorator expressions without the leading @.
	Decorators []*sitter.Node
}

// Parameter is a regular positional-or-keyword parameter.
type Parameter struct {
	Name       string
	Annotation *sitter.Node
}

// Class is a class statement.
type Class struct {
	Node  *sitter.Node
	Name  string
	Line  int
	Bases []*sitter.Node
	Body  *sitter.Node
}

// Function returns the function declared by node, which must be a
// function_definition.
func (t *Tree) Function(node *sitter.Node) (Function, bool) {
	if KindOf(node) != KindFunction {
		return Function{}, false
	}

	fn := Function{
		Node: node,
		Name: t.Text(node.ChildByFieldName("name")),
		Line: Line(node),
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		fn.Async = true
	}
	fn.Decorators = decoratorsOf(node)
	return fn, true
}

// decoratorsOf returns the decorator expressions applied to definition in
// source order. Definitions without a decorated_definition parent have none.
func decoratorsOf(definition *sitter.Node) []*sitter.Node {
	parent := definition.Parent()
	if KindOf(parent) != KindDecoratedDefinition {
		return nil
	}
	if !SameNode(parent.ChildByFieldName("definition"), definition) {
		return nil
	}

	var decorators []*sitter.Node
	for _, child := range NamedChildren(parent) {
		if KindOf(child) != KindDecorator {
			continue
		}
		for _, expr := range NamedChildren(child) {
			if KindOf(expr) == KindComment {
				continue
			}
			decorators = append(decorators, expr)
			break
		}
	}
	return decorators
}

// Parameters returns the function's positional-or-keyword parameters.
// Positional-only parameters, keyword-only parameters and the *args and
// **kwargs collectors are left out.
func (t *Tree) Parameters(fn Function) []Parameter {
	list := fn.Node.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}

	params := make([]Parameter, 0, list.NamedChildCount())
	for _, child := range NamedChildren(list) {
		switch child.Kind() {
		case "positional_separator":
			// Everything before "/" is positional-only.
			params = params[:0]
		case "keyword_separator", "list_splat_pattern":
			return params
		case "dictionary_splat_pattern":
			return params
		case "identifier":
			params = append(params, Parameter{Name: t.Text(child)})
		case "default_parameter":
			params = append(params, Parameter{Name: t.Text(child.ChildByFieldName("name"))})
		case "typed_default_parameter":
			params = append(params, Parameter{
				Name:       t.Text(child.ChildByFieldName("name")),
				Annotation: child.ChildByFieldName("type"),
			})
		case "typed_parameter":
			target := child.NamedChild(0)
			if target == nil {
				continue
			}
			switch target.Kind() {
			case "list_splat_pattern", "dictionary_splat_pattern":
				return params
			}
			params = append(params, Parameter{
				Name:       t.Text(target),
				Annotation: child.ChildByFieldName("type"),
			})
		}
	}
	return params
}

// ReturnType returns the return annotation, or nil.
func (t *Tree) ReturnType(fn Function) *sitter.Node {
	return fn.Node.ChildByFieldName("return_type")
}

// Body returns the function's block.
func (fn Function) Body() *sitter.Node {
	return fn.Node.ChildByFieldName("body")
}

// Class returns the class declared by node, which must be a class_definition.
// Keyword arguments such as metaclass= are not bases.
func (t *Tree) Class(node *sitter.Node) (Class, bool) {
	if KindOf(node) != KindClass {
		return Class{}, false
	}

	class := Class{
		Node: node,
		Name: t.Text(node.ChildByFieldName("name")),
		Line: Line(node),
		Body: node.ChildByFieldName("body"),
	}
	if args := node.ChildByFieldName("superclasses"); args != nil {
		for _, arg := range NamedChildren(args) {
			switch arg.Kind() {
			case "keyword_argument", "dictionary_splat", "comment":
				continue
			}
			class.Bases = append(class.Bases, arg)
		}
	}
	return class, true
}

// MethodCount counts functions declared directly in the class body,
// decorated ones included.
func (c Class) MethodCount() int {
	count := 0
	for _, stmt := range NamedChildren(c.Body) {
		switch KindOf(stmt) {
		case KindFunction:
			count++
		case KindDecoratedDefinition:
			if KindOf(stmt.ChildByFieldName("definition")) == KindFunction {
				count++
			}
		}
	}
	return count
}

// FirstStatement returns the first non-comment statement of a block.
func FirstStatement(block *sitter.Node) *sitter.Node {
	for _, stmt := range NamedChildren(block) {
		if KindOf(stmt) != KindComment {
			return stmt
		}
	}
	return nil
}
