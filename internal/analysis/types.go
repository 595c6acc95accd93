// Package analysis implements the Python structure, complexity, signature and
// pattern passes and the failure policy that wraps them.
package analysis

import "encoding/json"

// Built-in action names.
const (
	ActionAnalyze    = "analyze"
	ActionComplexity = "complexity"
	ActionSignatures = "signatures"
)

// Request asks the engine for one analytical view of Code. An empty Action
// selects ActionAnalyze.
type Request struct {
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// Response is the engine's only output shape. Output holds the action result
// or a *DegradedResult when Success is true; Error is set otherwise.
type Response struct {
	Success bool   `json:"success"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FunctionRecord describes one def or async def.
type FunctionRecord struct {
	Name  string `json:"name"`
	Line  int    `json:"line"`
	Async bool   `json:"async"`
	Args  int    `json:"args"`
}

// ClassRecord describes one class statement.
type ClassRecord struct {
	Name    string   `json:"name"`
	Line    int      `json:"line"`
	Bases   []string `json:"bases"`
	Methods int      `json:"methods"`
}

// ImportRecord is one imported module or name. Module is empty for
// "from . import x".
type ImportRecord struct {
	Module string `json:"module"`
	Name   string `json:"name,omitempty"`
	Level  int    `json:"level,omitempty"`
	Line   int    `json:"line"`
}

// Rating buckets a complexity score.
type Rating string

const (
	RatingLow    Rating = "low"
	RatingMedium Rating = "medium"
	RatingHigh   Rating = "high"
)

// ComplexityEntry is the complexity of one function.
type ComplexityEntry struct {
	Complexity int    `json:"complexity"`
	Rating     Rating `json:"rating"`
	Line       int    `json:"line"`
}

// ComplexityReport maps function names to their complexity. A later
// function with the same name replaces an earlier one.
type ComplexityReport map[string]ComplexityEntry

// SignatureEntry is the rendered signature of one function.
type SignatureEntry struct {
	Name       string   `json:"name"`
	Params     []string `json:"params"`
	ReturnType string   `json:"return_type"`
	Async      bool     `json:"async"`
	Docstring  string   `json:"docstring"`
	Line       int      `json:"line"`
	Decorators []string `json:"decorators"`
}

// PatternKind names a detected structural pattern.
type PatternKind string

const (
	PatternRecursion     PatternKind = "recursion"
	PatternComprehension PatternKind = "comprehension"
	PatternAbstractClass PatternKind = "abstract_class"
	PatternDecorator     PatternKind = "decorator"
)

// PatternEntry is one detected pattern. Subject is a function name for
// recursion and decorators, a class name for abstract classes and empty for
// comprehensions.
type PatternEntry struct {
	Kind    PatternKind
	Subject string
	Line    int
}

// MarshalJSON keys the subject by "function" or "class" depending on kind.
func (p PatternEntry) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type": p.Kind,
		"line": p.Line,
	}
	switch p.Kind {
	case PatternRecursion, PatternDecorator:
		out["function"] = p.Subject
	case PatternAbstractClass:
		out["class"] = p.Subject
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape written by MarshalJSON.
func (p *PatternEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     PatternKind `json:"type"`
		Function string      `json:"function"`
		Class    string      `json:"class"`
		Line     int         `json:"line"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Kind = raw.Type
	p.Line = raw.Line
	p.Subject = raw.Function
	if raw.Class != "" {
		p.Subject = raw.Class
	}
	return nil
}

// Summary counts the structural records of an AnalysisResult.
type Summary struct {
	FunctionCount int `json:"function_count"`
	ClassCount    int `json:"class_count"`
	ImportCount   int `json:"import_count"`
}

// AnalysisResult is the output of the analyze action.
type AnalysisResult struct {
	Functions  []FunctionRecord `json:"functions"`
	Classes    []ClassRecord    `json:"classes"`
	Imports    []ImportRecord   `json:"imports"`
	Complexity ComplexityReport `json:"complexity"`
	Patterns   []PatternEntry   `json:"patterns"`
	LineCount  int              `json:"line_count"`
	Summary    Summary          `json:"summary"`
}

// DegradedResult replaces the action result when the source cannot be
// analyzed. Exactly one of SyntaxError and Error is set.
type DegradedResult struct {
	Functions     []FunctionRecord `json:"functions"`
	Classes       []ClassRecord    `json:"classes"`
	Imports       []ImportRecord   `json:"imports"`
	Patterns      []PatternEntry   `json:"patterns"`
	TotalLines    int              `json:"total_lines"`
	NonEmptyLines int              `json:"non_empty_lines"`
	SyntaxError   string           `json:"syntax_error,omitempty"`
	Error         string           `json:"error,omitempty"`
	Note          string           `json:"note"`
	Summary       string           `json:"summary"`
}
