// Package tool exposes the analysis engine as a callable tool with a
// self-describing parameter schema.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"

	"github.com/Someblueman/codeanalysis/internal/analysis"
)

// Tool identity.
const (
	Name            = "code_analysis"
	Description     = "Analyzes Python source code using a tree-sitter syntax tree. Computes complexity, extracts function signatures, and identifies structural patterns."
	ContentTypeJSON = "application/json"
)

// ToolSpec describes the tool and its parameters to callers that decide
// which tool to invoke.
type ToolSpec struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ParametersSchema json.RawMessage `json:"parameters_schema"`
}

// MarshalJSON also emits the schema as a string under parameters_json.
func (s ToolSpec) MarshalJSON() ([]byte, error) {
	type plain ToolSpec
	return json.Marshal(struct {
		plain
		ParametersJSON string `json:"parameters_json"`
	}{plain: plain(s), ParametersJSON: string(s.ParametersSchema)})
}

// ExecuteResponse is the result of one tool call. Output carries the JSON
// encoded analysis output when Success is true.
type ExecuteResponse struct {
	Success     bool   `json:"success"`
	Output      []byte `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
	ContentType string `json:"content_type"`
}

// Service binds the engine to the tool contract.
type Service struct {
	engine *analysis.Engine
	logger *slog.Logger
}

// NewService wraps engine. A nil engine uses the default options and a nil
// logger discards.
func NewService(engine *analysis.Engine, logger *slog.Logger) *Service {
	if engine == nil {
		engine = analysis.NewEngine(analysis.DefaultOptions())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{engine: engine, logger: logger}
}

// GetSpec returns the tool description and its JSON schema. The action enum
// follows the engine's registered actions.
func (s *Service) GetSpec() ToolSpec {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        s.engine.Actions(),
				"description": "Analysis action to perform",
			},
			"code": map[string]any{
				"type":        "string",
				"description": "Python source code to analyze",
			},
		},
		"required": []string{"code"},
	}
	data, err := json.Marshal(schema)
	if err != nil {
		// Only static values above; unreachable in practice.
		panic(fmt.Sprintf("marshal parameters schema: %v", err))
	}
	return ToolSpec{Name: Name, Description: Description, ParametersSchema: data}
}

// Execute decodes input as a request object and runs it.
func (s *Service) Execute(input []byte, contentType string) ExecuteResponse {
	if err := checkContentType(contentType); err != nil {
		s.logger.Debug("rejected content type", "content_type", contentType)
		return failure(err.Error())
	}

	raw, err := analysis.DecodeRequestJSON(input)
	if err != nil {
		s.logger.Debug("invalid tool input", "error", err)
		return failure(err.Error())
	}

	resp := s.engine.ExecuteMap(raw)
	if !resp.Success {
		return failure(resp.Error)
	}
	output, err := json.Marshal(resp.Output)
	if err != nil {
		s.logger.Error("encode analysis output", "error", err)
		return failure(fmt.Sprintf("encode output: %v", err))
	}
	return ExecuteResponse{Success: true, Output: output, ContentType: ContentTypeJSON}
}

// ExecuteContext runs Execute on a worker goroutine and gives up when ctx
// ends first. The abandoned call finishes in the background and its result
// is dropped.
func (s *Service) ExecuteContext(ctx context.Context, input []byte, contentType string) ExecuteResponse {
	if err := ctx.Err(); err != nil {
		return contextFailure(err)
	}

	done := make(chan ExecuteResponse, 1)
	go func() {
		done <- s.Execute(input, contentType)
	}()

	select {
	case resp := <-done:
		return resp
	case <-ctx.Done():
		s.logger.Warn("analysis abandoned", "error", ctx.Err())
		return contextFailure(ctx.Err())
	}
}

func contextFailure(err error) ExecuteResponse {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure("analysis timed out: " + err.Error())
	}
	return failure("analysis canceled: " + err.Error())
}

func failure(msg string) ExecuteResponse {
	return ExecuteResponse{Success: false, Error: msg, ContentType: ContentTypeJSON}
}

func checkContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("unsupported content type %q: %w", contentType, err)
	}
	if mediaType != ContentTypeJSON {
		return fmt.Errorf("unsupported content type %q", contentType)
	}
	return nil
}
