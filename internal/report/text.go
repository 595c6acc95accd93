package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Someblueman/codeanalysis/internal/analysis"
)

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorError     = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")

	pathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	noteStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Italic(true)

	ratingStyles = map[analysis.Rating]lipgloss.Style{
		analysis.RatingLow:    lipgloss.NewStyle().Foreground(colorSuccess),
		analysis.RatingMedium: lipgloss.NewStyle().Foreground(colorWarning),
		analysis.RatingHigh:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}
)

// TextRenderer renders entries for a terminal. Colors follow the detected
// terminal profile and disappear when output is not a TTY.
type TextRenderer struct{}

func (TextRenderer) Name() string { return FormatText }

func (TextRenderer) Render(w io.Writer, entries []Entry) error {
	var sb strings.Builder
	for i, file := range buildView(entries).Files {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeTextFile(&sb, file)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTextFile(sb *strings.Builder, file fileView) {
	sb.WriteString(pathStyle.Render(file.Path))
	sb.WriteString("\n")

	switch {
	case file.Error != "":
		sb.WriteString("  " + errorStyle.Render("failed: "+file.Error) + "\n")
		return
	case file.Degraded != nil:
		d := file.Degraded
		sb.WriteString("  " + noteStyle.Render(d.Note) + "\n")
		fmt.Fprintf(sb, "  %d lines, %d non-empty\n", d.TotalLines, d.NonEmptyLines)
		if d.SyntaxError != "" {
			sb.WriteString("  " + errorStyle.Render("syntax error: "+d.SyntaxError) + "\n")
		}
		if d.Error != "" {
			sb.WriteString("  " + errorStyle.Render("error: "+d.Error) + "\n")
		}
		return
	}

	if a := file.Analysis; a != nil {
		fmt.Fprintf(sb, "  %s\n", dimStyle.Render(fmt.Sprintf("%d lines, %d functions, %d classes, %d imports",
			a.LineCount, a.Summary.FunctionCount, a.Summary.ClassCount, a.Summary.ImportCount)))
		if len(a.Classes) > 0 {
			sb.WriteString("  " + sectionStyle.Render("Classes") + "\n")
			for _, c := range a.Classes {
				bases := ""
				if len(c.Bases) > 0 {
					bases = "(" + strings.Join(c.Bases, ", ") + ")"
				}
				fmt.Fprintf(sb, "    %s%s %s\n", c.Name, bases, dimStyle.Render(fmt.Sprintf("line %d, %d methods", c.Line, c.Methods)))
			}
		}
		if len(a.Imports) > 0 {
			sb.WriteString("  " + sectionStyle.Render("Imports") + "\n")
			for _, imp := range a.Imports {
				name := importModule(imp)
				if imp.Name != "" {
					name = "from " + name + " import " + imp.Name
				}
				fmt.Fprintf(sb, "    %s %s\n", name, dimStyle.Render(fmt.Sprintf("line %d", imp.Line)))
			}
		}
		if len(a.Patterns) > 0 {
			sb.WriteString("  " + sectionStyle.Render("Patterns") + "\n")
			for _, p := range a.Patterns {
				fmt.Fprintf(sb, "    %s %s %s\n", p.Kind, patternSubject(p), dimStyle.Render(fmt.Sprintf("line %d", p.Line)))
			}
		}
	}

	if len(file.Complexity) > 0 {
		sb.WriteString("  " + sectionStyle.Render("Complexity") + "\n")
		for _, row := range file.Complexity {
			style, ok := ratingStyles[row.Rating]
			if !ok {
				style = dimStyle
			}
			fmt.Fprintf(sb, "    %-30s %3d %s %s\n", row.Name, row.Complexity,
				style.Render(string(row.Rating)), dimStyle.Render(fmt.Sprintf("line %d", row.Line)))
		}
	}

	if len(file.Signatures) > 0 {
		sb.WriteString("  " + sectionStyle.Render("Signatures") + "\n")
		for _, sig := range file.Signatures {
			for _, dec := range sig.Decorators {
				sb.WriteString("    " + dimStyle.Render("@"+dec) + "\n")
			}
			fmt.Fprintf(sb, "    %s %s\n", signatureLine(sig), dimStyle.Render(fmt.Sprintf("line %d", sig.Line)))
			if doc := firstLine(sig.Docstring); doc != "" {
				sb.WriteString("      " + dimStyle.Render(truncate(doc, 72)) + "\n")
			}
		}
	}
}
