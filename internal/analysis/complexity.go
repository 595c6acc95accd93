package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// ComputeComplexity scores every function by counting decision points in its
// subtree. Nested functions count toward their enclosing functions as well as
// themselves.
func ComputeComplexity(in Input) (ComplexityReport, error) {
	report := make(ComplexityReport)
	tree := in.Tree

	var walkErr error
	err := pyast.Walk(tree.Root(), in.Options.MaxDepth, func(node *sitter.Node, _ int) bool {
		if walkErr != nil {
			return false
		}
		fn, ok := tree.Function(node)
		if !ok {
			return true
		}
		complexity, err := functionComplexity(fn, in.Options.MaxDepth)
		if err != nil {
			walkErr = err
			return false
		}
		report[fn.Name] = ComplexityEntry{
			Complexity: complexity,
			Rating:     in.Options.Rate(complexity),
			Line:       fn.Line,
		}
		return true
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// functionComplexity counts the decorators too, since they are evaluated as
// part of the definition.
func functionComplexity(fn pyast.Function, maxDepth int) (int, error) {
	complexity := 1
	visit := func(node *sitter.Node, _ int) bool {
		if isDecisionPoint(pyast.KindOf(node)) {
			complexity++
		}
		return true
	}
	for _, decorator := range fn.Decorators {
		if err := pyast.Walk(decorator, maxDepth, visit); err != nil {
			return 0, err
		}
	}
	if err := pyast.Walk(fn.Node, maxDepth, visit); err != nil {
		return 0, err
	}
	return complexity, nil
}

// isDecisionPoint reports nodes that add one execution path. Each binary
// boolean_operator node adds one, so an n-operand chain adds n-1.
func isDecisionPoint(kind pyast.Kind) bool {
	switch kind {
	case pyast.KindIf, pyast.KindElif, pyast.KindConditionalExpression,
		pyast.KindFor, pyast.KindWhile,
		pyast.KindBooleanOperator,
		pyast.KindExcept, pyast.KindExceptGroup,
		pyast.KindWith:
		return true
	default:
		return false
	}
}
