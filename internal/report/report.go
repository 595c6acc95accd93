// Package report renders analysis responses as JSON, Markdown or styled
// terminal text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Someblueman/codeanalysis/internal/analysis"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Entry is the analysis of one source. Err is set when the source could not
// be read.
type Entry struct {
	Path     string
	Response analysis.Response
	Err      error
}

// Renderer formats entries into an output artifact.
type Renderer interface {
	Name() string
	Render(w io.Writer, entries []Entry) error
}

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return JSONRenderer{}, nil
	case FormatMarkdown, "md":
		return MarkdownRenderer{}, nil
	case FormatText:
		return TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// JSONRenderer writes the response of a single entry as is, and an array of
// path-tagged responses for several entries.
type JSONRenderer struct{}

func (JSONRenderer) Name() string { return FormatJSON }

func (JSONRenderer) Render(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(entries) == 1 {
		return enc.Encode(entries[0].response())
	}

	type pathResponse struct {
		Path string `json:"path"`
		analysis.Response
	}
	out := make([]pathResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, pathResponse{Path: entry.Path, Response: entry.response()})
	}
	return enc.Encode(out)
}

func (e Entry) response() analysis.Response {
	if e.Err != nil {
		return analysis.Response{Success: false, Error: e.Err.Error()}
	}
	return e.Response
}

// fileView flattens one entry for the templates.
type fileView struct {
	Path       string
	Error      string
	Analysis   *analysis.AnalysisResult
	Complexity []complexityRow
	Signatures []analysis.SignatureEntry
	Degraded   *analysis.DegradedResult
}

type complexityRow struct {
	Name string
	analysis.ComplexityEntry
}

type reportView struct {
	Files []fileView
}

func buildView(entries []Entry) reportView {
	view := reportView{Files: make([]fileView, 0, len(entries))}
	for _, entry := range entries {
		file := fileView{Path: entry.Path}
		resp := entry.response()
		if !resp.Success {
			file.Error = resp.Error
			view.Files = append(view.Files, file)
			continue
		}

		switch out := resp.Output.(type) {
		case *analysis.AnalysisResult:
			file.Analysis = out
			file.Complexity = complexityRows(out.Complexity)
		case analysis.ComplexityReport:
			file.Complexity = complexityRows(out)
		case []analysis.SignatureEntry:
			file.Signatures = out
		case *analysis.DegradedResult:
			file.Degraded = out
		default:
			file.Error = fmt.Sprintf("unsupported output %T", resp.Output)
		}
		view.Files = append(view.Files, file)
	}
	return view
}

// complexityRows orders the report by declaration line, then name.
func complexityRows(report analysis.ComplexityReport) []complexityRow {
	rows := make([]complexityRow, 0, len(report))
	for name, entry := range report {
		rows = append(rows, complexityRow{Name: name, ComplexityEntry: entry})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Line != rows[j].Line {
			return rows[i].Line < rows[j].Line
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// signatureLine renders a signature as a def header.
func signatureLine(sig analysis.SignatureEntry) string {
	var sb strings.Builder
	if sig.Async {
		sb.WriteString("async ")
	}
	sb.WriteString("def ")
	sb.WriteString(sig.Name)
	sb.WriteString("(")
	sb.WriteString(strings.Join(sig.Params, ", "))
	sb.WriteString(")")
	if sig.ReturnType != "" {
		sb.WriteString(" ")
		sb.WriteString(sig.ReturnType)
	}
	return sb.String()
}

// importModule prefixes relative imports with their dots.
func importModule(rec analysis.ImportRecord) string {
	return strings.Repeat(".", rec.Level) + rec.Module
}

func patternSubject(p analysis.PatternEntry) string {
	if p.Subject == "" {
		return "-"
	}
	return p.Subject
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
