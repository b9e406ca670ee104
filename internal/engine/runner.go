// Package engine drives the lint pipeline: target resolution, parallel
// per-file linting with cache lookups, and violation aggregation.
package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jsvet/internal/cache"
	"jsvet/internal/config"
	"jsvet/internal/logging"
	"jsvet/internal/parser"
	"jsvet/internal/rules"
	"jsvet/internal/source"
)

// ParseRuleID and ParseRuleName identify the pseudo-rule attached to
// syntax diagnostics. Parse errors flow through the same violation
// model as real rules so every formatter shows them.
const (
	ParseRuleID   = "parse"
	ParseRuleName = "syntax"
)

// Report aggregates the outcome of one lint run.
type Report struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	Files        int
	Parsed       int
	CacheHits    int
	SyntaxErrors int
	Errors       int
	Warnings     int
	Violations   []rules.Violation
}

// FileResult is the outcome for a single file. Watch mode relints
// files one at a time and consumes these directly.
type FileResult struct {
	Path       string
	Violations []rules.Violation
	FromCache  bool
}

// Runner lints sets of files against a configured rule registry.
type Runner struct {
	cfg         *config.Config
	registry    *rules.Registry
	store       *cache.Store // nil disables caching
	fingerprint string
	only        map[string]bool
	skip        map[string]bool
}

// NewRunner builds a runner. Pass a nil store to lint without a cache.
func NewRunner(cfg *config.Config, reg *rules.Registry, store *cache.Store) *Runner {
	return &Runner{
		cfg:         cfg,
		registry:    reg,
		store:       store,
		fingerprint: cfg.Fingerprint(),
	}
}

// SetRuleFilter restricts the run to the named rules (when only is
// non-empty) and drops the skipped ones. Entries match rule IDs or
// names, case-insensitively.
func (r *Runner) SetRuleFilter(only, skip []string) {
	r.only = normalizeFilter(only)
	r.skip = normalizeFilter(skip)
}

func normalizeFilter(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			m[k] = true
		}
	}
	return m
}

func (r *Runner) ruleEnabled(rule rules.Rule) bool {
	id := strings.ToLower(rule.ID())
	name := strings.ToLower(rule.Name())
	if r.skip[id] || r.skip[name] {
		return false
	}
	if r.only != nil && !r.only[id] && !r.only[name] {
		return false
	}
	return true
}

// cacheable reports whether cached results may be read and written.
// Filtered runs produce partial results and must bypass the cache.
func (r *Runner) cacheable() bool {
	return r.store != nil && len(r.only) == 0 && len(r.skip) == 0
}

// Run resolves paths (files as-is, directories recursively), lints
// every target in parallel, and returns the aggregated report. The
// first file failure cancels the remaining work.
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	timer := logging.StartTimer(logging.CategoryScan, "lint run")

	files, err := ResolveTargets(r.cfg, paths)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex // Protects results
	results := make([]*FileResult, 0, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.cfg.GetConcurrency())

	for _, path := range files {
		eg.Go(func() error {
			select {
			case sem <- struct{}{}: // Acquire token
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }() // Release token

			res, err := r.LintFile(egCtx, path)
			if err != nil {
				return err
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		report.Files++
		if res.FromCache {
			report.CacheHits++
		} else {
			report.Parsed++
		}
		report.Violations = append(report.Violations, res.Violations...)
	}

	SortViolations(report.Violations)
	report.Errors, report.Warnings = Tally(report.Violations)
	for _, v := range report.Violations {
		if v.RuleID == ParseRuleID {
			report.SyntaxErrors++
		}
	}

	report.Duration = timer.Stop()
	logging.Report("run %s: %d files (%d cached), %d errors, %d warnings in %s",
		report.RunID, report.Files, report.CacheHits, report.Errors,
		report.Warnings, report.Duration)

	r.recordRun(report)
	return report, nil
}

// LintFile lints a single file, consulting the cache first.
func (r *Runner) LintFile(ctx context.Context, path string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := source.Load(path)
	if err != nil {
		return nil, err
	}

	if r.cacheable() {
		if vs, ok := r.store.Get(path, f.Hash, r.fingerprint); ok {
			logging.CacheDebug("hit for %s", path)
			return &FileResult{Path: path, Violations: vs, FromCache: true}, nil
		}
	}

	vs, err := r.lint(ctx, f)
	if err != nil {
		return nil, err
	}

	if r.cacheable() {
		if err := r.store.Put(path, f.Hash, r.fingerprint, vs); err != nil {
			logging.CacheWarn("failed to cache result for %s: %v", path, err)
		}
	}

	return &FileResult{Path: path, Violations: vs}, nil
}

// lint parses f and runs every enabled rule. Syntax diagnostics come
// first, as violations under the parse pseudo-rule; the recovered tree
// is still checked against all rules.
func (r *Runner) lint(ctx context.Context, f *source.File) ([]rules.Violation, error) {
	timer := logging.StartTimer(logging.CategoryParse, "parse "+f.Path)
	tree, err := parser.Parse(ctx, f)
	timer.StopWithThreshold(100 * time.Millisecond)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	// Non-nil so a clean file caches as [] rather than null.
	violations := []rules.Violation{}
	for _, se := range tree.Errors() {
		violations = append(violations, rules.Violation{
			Path:     f.Path,
			Line:     se.Line,
			Col:      se.Col,
			RuleID:   ParseRuleID,
			RuleName: ParseRuleName,
			Severity: rules.SeverityError,
			Message:  se.Message,
		})
	}

	for _, rule := range r.registry.List() {
		if !r.ruleEnabled(rule) {
			continue
		}

		severity := rule.DefaultSeverity()
		var opts map[string]any
		if override, ok := r.cfg.RuleFor(rule.ID(), rule.Name()); ok {
			if override.Severity == string(rules.SeverityOff) {
				continue
			}
			if override.Severity != "" {
				severity = rules.Severity(override.Severity)
			}
			opts = override.Options
		}

		found := rule.Check(&rules.Context{File: f, Tree: tree, Options: opts})
		for i := range found {
			found[i].Severity = severity
		}
		violations = append(violations, found...)
	}

	logging.RulesDebug("%s: %d violation(s)", f.Path, len(violations))
	return violations, nil
}

func (r *Runner) recordRun(report *Report) {
	if r.store == nil {
		return
	}
	rec := &cache.RunRecord{
		ID:             report.RunID,
		StartedAt:      report.StartedAt,
		Duration:       report.Duration,
		FilesChecked:   report.Files,
		FilesFromCache: report.CacheHits,
		Errors:         report.Errors,
		Warnings:       report.Warnings,
	}
	if err := r.store.RecordRun(rec); err != nil {
		logging.CacheWarn("failed to record run %s: %v", report.RunID, err)
	}
}

// SortViolations orders violations by file, then line, then column,
// then rule ID.
func SortViolations(vs []rules.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.RuleID < b.RuleID
	})
}

// Tally counts violations by severity.
func Tally(vs []rules.Violation) (errors, warnings int) {
	for _, v := range vs {
		switch v.Severity {
		case rules.SeverityError:
			errors++
		case rules.SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
