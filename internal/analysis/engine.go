package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// Degradation notes and summaries.
const (
	syntaxNote        = "Code had syntax issues, showing basic metrics only"
	unexpectedNote    = "Unexpected error during analysis, showing basic metrics only"
	syntaxSummaryFmt  = "%d lines (syntax error in parsing, basic analysis only)"
	unexpectedSummary = "%d lines (error during analysis, basic metrics only)"
)

// ValidationError rejects a request before any parsing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	errCodeRequired  = &ValidationError{Message: "code is required"}
	errCodeNotString = &ValidationError{Message: "code must be a string"}
)

// UnknownActionError names an action with no registered pass.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string { return "Unknown action: " + e.Action }

// Is matches ErrUnknownAction.
func (e *UnknownActionError) Is(target error) bool { return target == ErrUnknownAction }

// PassError is a fault raised by an action after a successful parse.
type PassError struct {
	Action string
	Err    error
}

func (e *PassError) Error() string { return e.Err.Error() }
func (e *PassError) Unwrap() error { return e.Err }

// InputError reports request bytes that are not a JSON object.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "Invalid JSON input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// Engine runs actions under the degradation policy. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine constructs an engine; zero option fields take their defaults.
func NewEngine(opts Options) *Engine {
	opts = opts.normalized()
	return &Engine{opts: opts, logger: opts.Logger}
}

// Actions returns the sorted names of the registered actions.
func (e *Engine) Actions() []string {
	return e.opts.Actions.Names()
}

// Analyze runs one request without applying the degradation policy. Errors
// are *ValidationError, *pyast.SyntaxError, *UnknownActionError, *PassError
// or a non-grammar parse error.
func (e *Engine) Analyze(req Request) (any, error) {
	if req.Code == "" {
		return nil, errCodeRequired
	}
	action := req.Action
	if action == "" {
		action = ActionAnalyze
	}

	tree, err := pyast.Parse([]byte(req.Code))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	run, ok := e.opts.Actions.Lookup(action)
	if !ok {
		return nil, &UnknownActionError{Action: action}
	}

	return e.runPass(action, run, Input{
		Tree:    tree,
		Options: e.opts,
		Lines:   CountLines(req.Code),
	})
}

func (e *Engine) runPass(action string, run ActionFunc, in Input) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PassError{Action: action, Err: fmt.Errorf("%s pass panicked: %v", action, r)}
		}
	}()
	output, err = run(in)
	if err != nil {
		return nil, &PassError{Action: action, Err: err}
	}
	return output, nil
}

// Execute runs one request and never fails: every fault becomes either a
// success=false response or a degraded line-metric result.
func (e *Engine) Execute(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = e.degrade(req, fmt.Errorf("unexpected panic: %v", r))
		}
	}()

	output, err := e.Analyze(req)
	if err == nil {
		return Response{Success: true, Output: output}
	}
	return e.respond(req, err)
}

func (e *Engine) respond(req Request, err error) Response {
	var (
		validationErr *ValidationError
		unknownErr    *UnknownActionError
		passErr       *PassError
	)
	switch {
	case errors.As(err, &validationErr):
		e.logger.Debug("request rejected", "error", err)
		return Response{Success: false, Error: validationErr.Message}
	case errors.As(err, &unknownErr):
		e.logger.Warn("unknown action", "action", unknownErr.Action)
		return Response{Success: false, Error: unknownErr.Error()}
	case errors.As(err, &passErr):
		e.logger.Warn("analysis pass failed", "action", passErr.Action, "error", passErr.Err)
		return Response{Success: false, Error: passErr.Error()}
	default:
		return e.degrade(req, err)
	}
}

// degrade reports line metrics in place of the action result. Grammar faults
// fill syntax_error; everything else fills error.
func (e *Engine) degrade(req Request, cause error) Response {
	lines := CountLines(req.Code)
	result := &DegradedResult{
		Functions:     make([]FunctionRecord, 0),
		Classes:       make([]ClassRecord, 0),
		Imports:       make([]ImportRecord, 0),
		Patterns:      make([]PatternEntry, 0),
		TotalLines:    lines.Total,
		NonEmptyLines: lines.NonEmpty,
	}

	var syntaxErr *pyast.SyntaxError
	if errors.As(cause, &syntaxErr) {
		e.logger.Debug("syntax error, degrading to line metrics", "line", syntaxErr.Line, "error", syntaxErr.Message)
		result.SyntaxError = syntaxErr.Error()
		result.Note = syntaxNote
		result.Summary = fmt.Sprintf(syntaxSummaryFmt, lines.Total)
		return Response{Success: true, Output: result}
	}

	e.logger.Warn("analysis failed, degrading to line metrics", "error", cause)
	result.Error = cause.Error()
	result.Note = unexpectedNote
	result.Summary = fmt.Sprintf(unexpectedSummary, lines.Total)
	return Response{Success: true, Output: result}
}

// ExecuteMap validates an already decoded request object and executes it.
func (e *Engine) ExecuteMap(raw map[string]any) Response {
	req, err := DecodeRequest(raw)
	if err != nil {
		return e.respond(req, err)
	}
	return e.Execute(req)
}

// ExecuteJSON decodes a JSON request object and executes it.
func (e *Engine) ExecuteJSON(data []byte) Response {
	raw, err := DecodeRequestJSON(data)
	if err != nil {
		e.logger.Debug("invalid request input", "error", err)
		return Response{Success: false, Error: err.Error()}
	}
	return e.ExecuteMap(raw)
}

// DecodeRequestJSON parses data as a JSON object. Failures are *InputError.
func DecodeRequestJSON(data []byte) (map[string]any, error) {
	if !utf8.Valid(data) {
		return nil, &InputError{Err: errors.New("input is not valid UTF-8")}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &InputError{Err: err}
	}
	raw, ok := decoded.(map[string]any)
	if !ok {
		return nil, &InputError{Err: fmt.Errorf("expected a JSON object, got %s", jsonTypeName(decoded))}
	}
	return raw, nil
}

// DecodeRequest converts a decoded request object. A missing or null action
// selects analyze; a non-string action is kept in text form so it fails as
// an unknown action.
func DecodeRequest(raw map[string]any) (Request, error) {
	var req Request
	switch action := raw["action"].(type) {
	case nil:
	case string:
		req.Action = action
	default:
		req.Action = fmt.Sprint(action)
	}

	switch code := raw["code"].(type) {
	case nil:
		return req, errCodeRequired
	case string:
		req.Code = code
	default:
		return req, errCodeNotString
	}
	return req, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
