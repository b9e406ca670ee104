package report

import (
	"encoding/json"
	"io"
	"time"

	"jsvet/internal/engine"
	"jsvet/internal/rules"
)

// jsonReport is the wire shape of a lint report. Field names are
// stable; consumers script against them.
type jsonReport struct {
	RunID        string            `json:"run_id"`
	StartedAt    time.Time         `json:"started_at"`
	DurationMs   int64             `json:"duration_ms"`
	Files        int               `json:"files"`
	Parsed       int               `json:"parsed"`
	CacheHits    int               `json:"cache_hits"`
	SyntaxErrors int               `json:"syntax_errors"`
	Errors       int               `json:"errors"`
	Warnings     int               `json:"warnings"`
	Violations   []rules.Violation `json:"violations"`
}

type jsonFormatter struct{}

func (f *jsonFormatter) Name() string { return "json" }

func (f *jsonFormatter) Format(w io.Writer, rep *engine.Report) error {
	payload := jsonReport{
		RunID:        rep.RunID,
		StartedAt:    rep.StartedAt,
		DurationMs:   rep.Duration.Milliseconds(),
		Files:        rep.Files,
		Parsed:       rep.Parsed,
		CacheHits:    rep.CacheHits,
		SyntaxErrors: rep.SyntaxErrors,
		Errors:       rep.Errors,
		Warnings:     rep.Warnings,
		Violations:   rep.Violations,
	}
	if payload.Violations == nil {
		payload.Violations = []rules.Violation{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
