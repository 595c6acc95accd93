package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

const markdownTemplate = `# Code Analysis
{{range .Files}}
## {{.Path}}
{{if .Error}}
**Failed:** {{.Error}}
{{else if .Degraded}}
> {{.Degraded.Note}}

- Lines: {{.Degraded.TotalLines}} ({{.Degraded.NonEmptyLines}} non-empty)
{{- with .Degraded.SyntaxError}}
- Syntax error: ` + "`{{.}}`" + `
{{- end}}
{{- with .Degraded.Error}}
- Error: ` + "`{{.}}`" + `
{{- end}}
{{else}}
{{- with .Analysis}}
{{.LineCount}} lines, {{.Summary.FunctionCount}} functions, {{.Summary.ClassCount}} classes, {{.Summary.ImportCount}} imports.
{{- if .Functions}}

### Functions

| Function | Line | Async | Args |
|----------|------|-------|------|
{{- range .Functions}}
| {{.Name}} | {{.Line}} | {{.Async}} | {{.Args}} |
{{- end}}
{{- end}}
{{- if .Classes}}

### Classes

| Class | Line | Bases | Methods |
|-------|------|-------|---------|
{{- range .Classes}}
| {{.Name}} | {{.Line}} | {{cell (join .Bases ", ")}} | {{.Methods}} |
{{- end}}
{{- end}}
{{- if .Imports}}

### Imports

| Module | Name | Line |
|--------|------|------|
{{- range .Imports}}
| {{importModule .}} | {{.Name}} | {{.Line}} |
{{- end}}
{{- end}}
{{- if .Patterns}}

### Patterns

| Pattern | Subject | Line |
|---------|---------|------|
{{- range .Patterns}}
| {{.Kind}} | {{subject .}} | {{.Line}} |
{{- end}}
{{- end}}
{{- end}}
{{- if .Complexity}}

### Complexity

| Function | Line | Complexity | Rating |
|----------|------|------------|--------|
{{- range .Complexity}}
| {{.Name}} | {{.Line}} | {{.Complexity}} | {{.Rating}} |
{{- end}}
{{- end}}
{{- if .Signatures}}

### Signatures

| Line | Signature | Decorators | Docstring |
|------|-----------|------------|-----------|
{{- range .Signatures}}
| {{.Line}} | ` + "`{{cell (signature .)}}`" + ` | {{cell (join .Decorators ", ")}} | {{cell (truncate (firstLine .Docstring) 60)}} |
{{- end}}
{{- end}}
{{end}}
{{- end}}`

var markdownFuncs = template.FuncMap{
	"join":         strings.Join,
	"truncate":     truncate,
	"firstLine":    firstLine,
	"signature":    signatureLine,
	"subject":      patternSubject,
	"cell":         escapeCell,
	"importModule": importModule,
}

// MarkdownRenderer renders entries as Markdown tables.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Name() string { return FormatMarkdown }

func (MarkdownRenderer) Render(w io.Writer, entries []Entry) error {
	tmpl, err := template.New("report").Funcs(markdownFuncs).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	if err := tmpl.Execute(w, buildView(entries)); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

// escapeCell keeps pipes and line breaks from splitting a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
