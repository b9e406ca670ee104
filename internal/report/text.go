package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"jsvet/internal/engine"
	"jsvet/internal/rules"
)

// Severity palette. Styling degrades to plain text automatically when
// stdout is not a terminal or NO_COLOR is set.
var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	fileStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	ruleIDStyle  = lipgloss.NewStyle().Faint(true)
)

// textFormatter is the default human-readable output: violations
// grouped by file, one position-aligned row each, then a summary line.
type textFormatter struct{}

func (f *textFormatter) Name() string { return "text" }

func (f *textFormatter) Format(w io.Writer, rep *engine.Report) error {
	byFile, order := groupByFile(rep.Violations)

	for _, path := range order {
		fmt.Fprintln(w, fileStyle.Render(path))

		vs := byFile[path]
		posWidth := 0
		for _, v := range vs {
			if n := len(fmt.Sprintf("%d:%d", v.Line, v.Col)); n > posWidth {
				posWidth = n
			}
		}

		for _, v := range vs {
			pos := fmt.Sprintf("%-*s", posWidth, fmt.Sprintf("%d:%d", v.Line, v.Col))
			sev := fmt.Sprintf("%-7s", v.Severity)
			fmt.Fprintf(w, "  %s  %s  %s  %s\n",
				pos, styleSeverity(v.Severity, sev), v.Message, ruleIDStyle.Render(v.RuleID))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, summaryLine(rep))
	return nil
}

func styleSeverity(sev rules.Severity, text string) string {
	switch sev {
	case rules.SeverityError:
		return errorStyle.Render(text)
	case rules.SeverityWarning:
		return warningStyle.Render(text)
	}
	return text
}

func summaryLine(rep *engine.Report) string {
	checked := fmt.Sprintf("%d %s checked", rep.Files, pluralize("file", rep.Files))
	if rep.CacheHits > 0 {
		checked += fmt.Sprintf(" (%d from cache)", rep.CacheHits)
	}

	total := rep.Errors + rep.Warnings
	if total == 0 {
		return successStyle.Render("no problems") + " in " + checked
	}

	counts := fmt.Sprintf("%d %s (%d %s, %d %s)",
		total, pluralize("problem", total),
		rep.Errors, pluralize("error", rep.Errors),
		rep.Warnings, pluralize("warning", rep.Warnings))

	if rep.Errors > 0 {
		counts = errorStyle.Render(counts)
	} else {
		counts = warningStyle.Render(counts)
	}
	return counts + " in " + checked
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
