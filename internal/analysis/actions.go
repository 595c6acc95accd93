package analysis

import (
	"errors"
	"sort"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// ErrUnknownAction reports an action name with no registered pass.
var ErrUnknownAction = errors.New("unknown action")

// Input provides shared context for action implementations.
type Input struct {
	Tree    *pyast.Tree
	Options Options
	Lines   LineStats
}

// ActionFunc computes one analytical view of a parsed module.
type ActionFunc func(in Input) (any, error)

// ActionRegistry stores actions by name.
type ActionRegistry struct {
	actions map[string]ActionFunc
}

// NewActionRegistry constructs an empty action registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		actions: make(map[string]ActionFunc),
	}
}

// Register adds or replaces an action.
func (r *ActionRegistry) Register(name string, action ActionFunc) {
	if r == nil || name == "" || action == nil {
		return
	}
	r.actions[name] = action
}

// Lookup returns the action registered under name.
func (r *ActionRegistry) Lookup(name string) (ActionFunc, bool) {
	if r == nil {
		return nil, false
	}
	action, ok := r.actions[name]
	return action, ok
}

// Names returns registered action names sorted lexicographically.
func (r *ActionRegistry) Names() []string {
	if r == nil || len(r.actions) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultActionRegistry returns the built-in analyze, complexity and
// signatures actions.
func DefaultActionRegistry() *ActionRegistry {
	registry := NewActionRegistry()
	registry.Register(ActionAnalyze, func(in Input) (any, error) { return FullAnalysis(in) })
	registry.Register(ActionComplexity, func(in Input) (any, error) { return ComputeComplexity(in) })
	registry.Register(ActionSignatures, func(in Input) (any, error) { return ExtractSignatures(in) })
	return registry
}

// FullAnalysis combines the structural inventory, complexity and patterns.
func FullAnalysis(in Input) (*AnalysisResult, error) {
	structure, err := CollectStructure(in)
	if err != nil {
		return nil, err
	}
	complexity, err := ComputeComplexity(in)
	if err != nil {
		return nil, err
	}
	patterns, err := DetectPatterns(in)
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		Functions:  structure.Functions,
		Classes:    structure.Classes,
		Imports:    structure.Imports,
		Complexity: complexity,
		Patterns:   patterns,
		LineCount:  in.Lines.Total,
		Summary: Summary{
			FunctionCount: len(structure.Functions),
			ClassCount:    len(structure.Classes),
			ImportCount:   len(structure.Imports),
		},
	}, nil
}
