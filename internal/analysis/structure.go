package analysis

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// Structure is the structural inventory of a module.
type Structure struct {
	Functions []FunctionRecord
	Classes   []ClassRecord
	Imports   []ImportRecord
}

// CollectStructure records every function, class and import in source order.
func CollectStructure(in Input) (Structure, error) {
	out := Structure{
		Functions: make([]FunctionRecord, 0),
		Classes:   make([]ClassRecord, 0),
		Imports:   make([]ImportRecord, 0),
	}
	tree := in.Tree

	err := pyast.Walk(tree.Root(), in.Options.MaxDepth, func(node *sitter.Node, _ int) bool {
		switch kind := pyast.KindOf(node); kind {
		case pyast.KindFunction:
			fn, _ := tree.Function(node)
			out.Functions = append(out.Functions, FunctionRecord{
				Name:  fn.Name,
				Line:  fn.Line,
				Async: fn.Async,
				Args:  len(tree.Parameters(fn)),
			})
		case pyast.KindClass:
			class, _ := tree.Class(node)
			out.Classes = append(out.Classes, ClassRecord{
				Name:    class.Name,
				Line:    class.Line,
				Bases:   renderAll(tree, class.Bases),
				Methods: class.MethodCount(),
			})
		default:
			if kind.IsImport() {
				out.Imports = append(out.Imports, importRecords(tree, node, kind)...)
				return false
			}
		}
		return true
	})
	if err != nil {
		return Structure{}, err
	}
	return out, nil
}

func importRecords(tree *pyast.Tree, node *sitter.Node, kind pyast.Kind) []ImportRecord {
	line := pyast.Line(node)

	if kind == pyast.KindImport {
		var records []ImportRecord
		for _, child := range pyast.NamedChildren(node) {
			if module := importedName(tree, child); module != "" {
				records = append(records, ImportRecord{Module: module, Line: line})
			}
		}
		return records
	}

	module, level := "__future__", 0
	moduleNode := node.ChildByFieldName("module_name")
	if kind == pyast.KindImportFrom {
		module, level = fromModule(tree, moduleNode)
	}

	var records []ImportRecord
	for _, child := range pyast.NamedChildren(node) {
		if moduleNode != nil && pyast.SameNode(child, moduleNode) {
			continue
		}
		name := importedName(tree, child)
		if child.Kind() == "wildcard_import" {
			name = "*"
		}
		if name == "" {
			continue
		}
		records = append(records, ImportRecord{Module: module, Name: name, Level: level, Line: line})
	}
	return records
}

// importedName returns the dotted name an import clause refers to, ignoring
// any "as" alias.
func importedName(tree *pyast.Tree, node *sitter.Node) string {
	switch node.Kind() {
	case "dotted_name":
		return tree.Unparse(node)
	case "aliased_import":
		return tree.Unparse(node.ChildByFieldName("name"))
	default:
		return ""
	}
}

func fromModule(tree *pyast.Tree, node *sitter.Node) (string, int) {
	if node == nil {
		return "", 0
	}
	if node.Kind() != "relative_import" {
		return tree.Unparse(node), 0
	}

	module, level := "", 0
	for _, child := range pyast.NamedChildren(node) {
		switch child.Kind() {
		case "import_prefix":
			level = strings.Count(tree.Text(child), ".")
		case "dotted_name":
			module = tree.Unparse(child)
		}
	}
	return module, level
}

func renderAll(tree *pyast.Tree, nodes []*sitter.Node) []string {
	rendered := make([]string, 0, len(nodes))
	for _, node := range nodes {
		rendered = append(rendered, tree.Unparse(node))
	}
	return rendered
}
