package report

import (
	"fmt"
	"io"

	"jsvet/internal/engine"
)

// compactFormatter prints one violation per line in the classic
// path:line:col shape editors and CI log scrapers parse.
type compactFormatter struct{}

func (f *compactFormatter) Name() string { return "compact" }

func (f *compactFormatter) Format(w io.Writer, rep *engine.Report) error {
	for _, v := range rep.Violations {
		fmt.Fprintf(w, "%s:%d:%d: %s [%s]\n", v.Path, v.Line, v.Col, v.Message, v.RuleID)
	}
	return nil
}
