package pyast

import sitter "github.com/tree-sitter/go-tree-sitter"

// Kind is the closed set of grammar node types the analysis passes dispatch
// on. Every other node type maps to KindOther.
type Kind int

const (
	KindOther Kind = iota
	KindModule
	KindFunction
	KindDecoratedDefinition
	KindDecorator
	KindClass
	KindImport
	KindImportFrom
	KindFutureImport
	KindIf
	KindElif
	KindConditionalExpression
	KindFor
	KindWhile
	KindBooleanOperator
	KindExcept
	KindExceptGroup
	KindWith
	KindListComprehension
	KindSetComprehension
	KindDictComprehension
	KindGeneratorExpression
	KindCall
	KindIdentifier
	KindBlock
	KindExpressionStatement
	KindString
	KindConcatenatedString
	KindComment
)

var kindsByGrammarName = map[string]Kind{
	"module":                   KindModule,
	"function_definition":      KindFunction,
	"decorated_definition":     KindDecoratedDefinition,
	"decorator":                KindDecorator,
	"class_definition":         KindClass,
	"import_statement":         KindImport,
	"import_from_statement":    KindImportFrom,
	"future_import_statement":  KindFutureImport,
	"if_statement":             KindIf,
	"elif_clause":              KindElif,
	"conditional_expression":   KindConditionalExpression,
	"for_statement":            KindFor,
	"while_statement":          KindWhile,
	"boolean_operator":         KindBooleanOperator,
	"except_clause":            KindExcept,
	"except_group_clause":      KindExceptGroup,
	"with_statement":           KindWith,
	"list_comprehension":       KindListComprehension,
	"set_comprehension":        KindSetComprehension,
	"dictionary_comprehension": KindDictComprehension,
	"generator_expression":     KindGeneratorExpression,
	"call":                     KindCall,
	"identifier":               KindIdentifier,
	"block":                    KindBlock,
	"expression_statement":     KindExpressionStatement,
	"string":                   KindString,
	"concatenated_string":      KindConcatenatedString,
	"comment":                  KindComment,
}

var kindNames = func() map[Kind]string {
	names := make(map[Kind]string, len(kindsByGrammarName)+1)
	names[KindOther] = "other"
	for name, kind := range kindsByGrammarName {
		names[kind] = name
	}
	return names
}()

// KindOf classifies a grammar node. Anonymous tokens such as the "if"
// keyword never classify as statements.
func KindOf(node *sitter.Node) Kind {
	if node == nil || !node.IsNamed() {
		return KindOther
	}
	if kind, ok := kindsByGrammarName[node.Kind()]; ok {
		return kind
	}
	return KindOther
}

// String returns the grammar name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// IsComprehension reports list, set and dict comprehensions and generator
// expressions.
func (k Kind) IsComprehension() bool {
	switch k {
	case KindListComprehension, KindSetComprehension, KindDictComprehension, KindGeneratorExpression:
		return true
	default:
		return false
	}
}

// IsImport reports the plain, from and __future__ import statements.
func (k Kind) IsImport() bool {
	switch k {
	case KindImport, KindImportFrom, KindFutureImport:
		return true
	default:
		return false
	}
}
