package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// DetectPatterns reports recursion, comprehensions, abstract classes and
// decorators. Recursion matches callee identifiers against the function name
// only; nothing is scope resolved.
func DetectPatterns(in Input) ([]PatternEntry, error) {
	patterns := make([]PatternEntry, 0)
	tree := in.Tree

	var walkErr error
	err := pyast.Walk(tree.Root(), in.Options.MaxDepth, func(node *sitter.Node, _ int) bool {
		if walkErr != nil {
			return false
		}

		switch kind := pyast.KindOf(node); {
		case kind == pyast.KindFunction:
			fn, _ := tree.Function(node)
			calls, err := selfCalls(tree, fn, in.Options.MaxDepth)
			if err != nil {
				walkErr = err
				return false
			}
			for _, line := range calls {
				patterns = append(patterns, PatternEntry{Kind: PatternRecursion, Subject: fn.Name, Line: line})
			}
			for range fn.Decorators {
				patterns = append(patterns, PatternEntry{Kind: PatternDecorator, Subject: fn.Name, Line: fn.Line})
			}
		case kind.IsComprehension():
			patterns = append(patterns, PatternEntry{Kind: PatternComprehension, Line: pyast.Line(node)})
		case kind == pyast.KindClass:
			class, _ := tree.Class(node)
			for _, base := range class.Bases {
				if pyast.KindOf(base) == pyast.KindIdentifier && in.Options.isAbstractMarker(tree.Text(base)) {
					patterns = append(patterns, PatternEntry{Kind: PatternAbstractClass, Subject: class.Name, Line: class.Line})
				}
			}
		}
		return true
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

// selfCalls returns the lines of calls inside fn or its decorators whose
// callee is a bare identifier equal to fn's name.
func selfCalls(tree *pyast.Tree, fn pyast.Function, maxDepth int) ([]int, error) {
	var lines []int
	visit := func(node *sitter.Node, _ int) bool {
		if pyast.KindOf(node) != pyast.KindCall {
			return true
		}
		callee := node.ChildByFieldName("function")
		if pyast.KindOf(callee) == pyast.KindIdentifier && tree.Text(callee) == fn.Name {
			lines = append(lines, pyast.Line(node))
		}
		return true
	}
	for _, decorator := range fn.Decorators {
		if err := pyast.Walk(decorator, maxDepth, visit); err != nil {
			return nil, err
		}
	}
	if err := pyast.Walk(fn.Node, maxDepth, visit); err != nil {
		return nil, err
	}
	return lines, nil
}
