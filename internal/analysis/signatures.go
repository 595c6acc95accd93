package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// ExtractSignatures renders the signature of every function in source order.
func ExtractSignatures(in Input) ([]SignatureEntry, error) {
	signatures := make([]SignatureEntry, 0)
	tree := in.Tree

	err := pyast.Walk(tree.Root(), in.Options.MaxDepth, func(node *sitter.Node, _ int) bool {
		fn, ok := tree.Function(node)
		if !ok {
			return true
		}
		signatures = append(signatures, signatureOf(tree, fn, in.Options.DocstringLimit))
		return true
	})
	if err != nil {
		return nil, err
	}
	return signatures, nil
}

func signatureOf(tree *pyast.Tree, fn pyast.Function, docLimit int) SignatureEntry {
	params := make([]string, 0)
	for _, param := range tree.Parameters(fn) {
		if param.Annotation == nil {
			params = append(params, param.Name)
			continue
		}
		params = append(params, param.Name+": "+tree.Unparse(param.Annotation))
	}

	returnType := ""
	if annotation := tree.ReturnType(fn); annotation != nil {
		returnType = "-> " + tree.Unparse(annotation)
	}

	docstring, _ := tree.Docstring(fn.Body())

	return SignatureEntry{
		Name:       fn.Name,
		Params:     params,
		ReturnType: returnType,
		Async:      fn.Async,
		Docstring:  truncateRunes(docstring, docLimit),
		Line:       fn.Line,
		Decorators: renderAll(tree, fn.Decorators),
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
