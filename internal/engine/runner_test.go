package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jsvet/internal/cache"
	"jsvet/internal/config"
	"jsvet/internal/rules"
)

func newTestRunner(t *testing.T, cfg *config.Config, store *cache.Store) *Runner {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewRunner(cfg, rules.Builtin(), store)
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunnerRun_CleanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clean.js", "var x = 1;\n")

	rep, err := newTestRunner(t, nil, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Files != 1 || rep.Parsed != 1 || rep.CacheHits != 0 {
		t.Errorf("counters = files %d parsed %d hits %d, want 1/1/0",
			rep.Files, rep.Parsed, rep.CacheHits)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("clean file produced violations: %+v", rep.Violations)
	}
	if rep.Errors != 0 || rep.Warnings != 0 {
		t.Errorf("tally = %d errors %d warnings, want 0/0", rep.Errors, rep.Warnings)
	}
	if rep.RunID == "" {
		t.Error("report should carry a run ID")
	}
}

func TestRunnerRun_ReportsViolation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quoted.js", "var s = \"hi\";\n")

	rep, err := newTestRunner(t, nil, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Violations) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(rep.Violations), rep.Violations)
	}
	v := rep.Violations[0]
	if v.RuleID != "SG201" || v.Path != path || v.Line != 1 {
		t.Errorf("violation = %+v, want SG201 at %s:1", v, path)
	}
	if rep.Errors != 1 || rep.Warnings != 0 {
		t.Errorf("tally = %d errors %d warnings, want 1/0", rep.Errors, rep.Warnings)
	}
}

func TestRunnerRun_SortsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	// Written in reverse name order; the report must come back sorted.
	pathB := writeFile(t, dir, "b.js", "var s = \"b\";\n")
	pathA := writeFile(t, dir, "a.js", "var s = \"a\";\n")

	rep, err := newTestRunner(t, nil, nil).Run(context.Background(), []string{pathB, pathA})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(rep.Violations))
	}
	if rep.Violations[0].Path != pathA || rep.Violations[1].Path != pathB {
		t.Errorf("violations not sorted by path: %+v", rep.Violations)
	}
}

func TestRunnerRun_SyntaxErrorsSurface(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.js", "var x = (1;\n")

	rep, err := newTestRunner(t, nil, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.SyntaxErrors == 0 {
		t.Fatal("expected syntax errors for broken input")
	}
	found := false
	for _, v := range rep.Violations {
		if v.RuleID == ParseRuleID {
			found = true
			if v.Severity != rules.SeverityError {
				t.Errorf("parse violation severity = %s, want error", v.Severity)
			}
		}
	}
	if !found {
		t.Errorf("no parse violation in %+v", rep.Violations)
	}
}

func TestRunnerRun_SeverityOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quoted.js", "var s = \"hi\";\n")

	cfg := config.DefaultConfig()
	cfg.Rules = map[string]config.RuleConfig{
		"quotes": {Severity: "warning"},
	}

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(rep.Violations))
	}
	if rep.Violations[0].Severity != rules.SeverityWarning {
		t.Errorf("severity = %s, want warning", rep.Violations[0].Severity)
	}
	if rep.Errors != 0 || rep.Warnings != 1 {
		t.Errorf("tally = %d errors %d warnings, want 0/1", rep.Errors, rep.Warnings)
	}
}

func TestRunnerRun_RuleOffByID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quoted.js", "var s = \"hi\";\n")

	cfg := config.DefaultConfig()
	cfg.Rules = map[string]config.RuleConfig{
		"SG201": {Severity: "off"},
	}

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("disabled rule still reported: %+v", rep.Violations)
	}
}

func TestRunnerRun_RuleOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "long.js", "var aaa = 'aaaaaaaaaaaaaaaaa';\n")

	cfg := config.DefaultConfig()
	cfg.Rules = map[string]config.RuleConfig{
		"line-length": {Options: map[string]any{"max": 20}},
	}

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Violations) != 1 || rep.Violations[0].RuleID != "SG102" {
		t.Fatalf("got %+v, want a single SG102 violation", rep.Violations)
	}
	if rep.Violations[0].Col != 21 {
		t.Errorf("col = %d, want 21", rep.Violations[0].Col)
	}
}

func TestRunnerRun_OnlyFilter(t *testing.T) {
	dir := t.TempDir()
	// Double quotes and a missing semicolon.
	path := writeFile(t, dir, "two.js", "var s = \"hi\"\n")

	r := newTestRunner(t, nil, nil)
	r.SetRuleFilter([]string{"quotes"}, nil)

	rep, err := r.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Violations) != 1 || rep.Violations[0].RuleID != "SG201" {
		t.Errorf("got %+v, want only SG201", rep.Violations)
	}
}

func TestRunnerRun_SkipFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "two.js", "var s = \"hi\"\n")

	r := newTestRunner(t, nil, nil)
	r.SetRuleFilter(nil, []string{"sg201"})

	rep, err := r.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Violations) != 1 || rep.Violations[0].RuleID != "SG202" {
		t.Errorf("got %+v, want only SG202", rep.Violations)
	}
}

func TestRunnerRun_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "var s = \"a\";\n")
	writeFile(t, dir, "b.js", "var b = 1;\n")
	store := newTestStore(t)
	cfg := config.DefaultConfig()

	targets, err := ResolveTargets(cfg, []string{dir})
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}

	first, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), targets)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Parsed != 2 || first.CacheHits != 0 {
		t.Fatalf("first run: parsed %d hits %d, want 2/0", first.Parsed, first.CacheHits)
	}

	second, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), targets)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Parsed != 0 || second.CacheHits != 2 {
		t.Errorf("second run: parsed %d hits %d, want 0/2", second.Parsed, second.CacheHits)
	}
	if diff := cmp.Diff(first.Violations, second.Violations); diff != "" {
		t.Errorf("cached violations differ (-first +second):\n%s", diff)
	}
}

func TestRunnerRun_EditInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var a = 1;\n")
	store := newTestStore(t)
	cfg := config.DefaultConfig()

	if _, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	writeFile(t, dir, "a.js", "var a = 2;\n")

	rep, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rep.CacheHits != 0 || rep.Parsed != 1 {
		t.Errorf("edited file: parsed %d hits %d, want 1/0", rep.Parsed, rep.CacheHits)
	}
}

func TestRunnerRun_ConfigChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var a = 1;\n")
	store := newTestStore(t)

	if _, err := NewRunner(config.DefaultConfig(), rules.Builtin(), store).Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Rules = map[string]config.RuleConfig{
		"line-length": {Options: map[string]any{"max": 100}},
	}

	rep, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rep.CacheHits != 0 {
		t.Errorf("config change should miss the cache, got %d hits", rep.CacheHits)
	}
}

func TestRunnerRun_FilteredRunBypassesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var s = \"a\"\n")
	store := newTestStore(t)
	cfg := config.DefaultConfig()

	r := NewRunner(cfg, rules.Builtin(), store)
	r.SetRuleFilter([]string{"quotes"}, nil)
	if _, err := r.Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("filtered Run: %v", err)
	}

	// The partial result must not have been cached: a full run still
	// parses and reports the semicolon violation the filter dropped.
	full, err := NewRunner(cfg, rules.Builtin(), store).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("full Run: %v", err)
	}
	if full.CacheHits != 0 {
		t.Errorf("full run after filtered run hit the cache (%d hits)", full.CacheHits)
	}
	if len(full.Violations) != 2 {
		t.Errorf("full run got %d violations, want 2: %+v", len(full.Violations), full.Violations)
	}
}

func TestRunnerRun_RecordsRunHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var s = \"a\";\n")
	store := newTestStore(t)

	rep, err := NewRunner(config.DefaultConfig(), rules.Builtin(), store).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	last, err := store.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil {
		t.Fatal("run was not recorded")
	}
	if last.ID != rep.RunID {
		t.Errorf("recorded ID %s, want %s", last.ID, rep.RunID)
	}
	if last.FilesChecked != 1 || last.Errors != 1 {
		t.Errorf("recorded %d files %d errors, want 1/1", last.FilesChecked, last.Errors)
	}
}

func TestLintFile_MissingFile(t *testing.T) {
	r := newTestRunner(t, nil, nil)
	_, err := r.LintFile(context.Background(), filepath.Join(t.TempDir(), "gone.js"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLintFile_Direct(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var s = \"a\";\n")

	res, err := newTestRunner(t, nil, nil).LintFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LintFile: %v", err)
	}
	if res.Path != path || res.FromCache {
		t.Errorf("result = %+v, want fresh result for %s", res, path)
	}
	if len(res.Violations) != 1 {
		t.Errorf("got %d violations, want 1", len(res.Violations))
	}
}

func TestSortViolations(t *testing.T) {
	vs := []rules.Violation{
		{Path: "b.js", Line: 1, Col: 1, RuleID: "SG202"},
		{Path: "a.js", Line: 2, Col: 5, RuleID: "SG201"},
		{Path: "a.js", Line: 2, Col: 1, RuleID: "SG204"},
		{Path: "a.js", Line: 2, Col: 1, RuleID: "SG101"},
		{Path: "a.js", Line: 1, Col: 9, RuleID: "SG205"},
	}
	SortViolations(vs)

	want := []rules.Violation{
		{Path: "a.js", Line: 1, Col: 9, RuleID: "SG205"},
		{Path: "a.js", Line: 2, Col: 1, RuleID: "SG101"},
		{Path: "a.js", Line: 2, Col: 1, RuleID: "SG204"},
		{Path: "a.js", Line: 2, Col: 5, RuleID: "SG201"},
		{Path: "b.js", Line: 1, Col: 1, RuleID: "SG202"},
	}
	if diff := cmp.Diff(want, vs); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestTally(t *testing.T) {
	vs := []rules.Violation{
		{Severity: rules.SeverityError},
		{Severity: rules.SeverityWarning},
		{Severity: rules.SeverityError},
	}
	errs, warns := Tally(vs)
	if errs != 2 || warns != 1 {
		t.Errorf("Tally = %d/%d, want 2/1", errs, warns)
	}
}

func TestRunnerRun_ResolvesDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "var a = 1;\n")
	writeFile(t, dir, "sub/b.js", "var b = 2;\n")
	writeFile(t, dir, "node_modules/dep.js", "var dep = \"bad\";\n")

	rep, err := newTestRunner(t, nil, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Files != 2 {
		t.Errorf("Files = %d, want 2 (ignored dirs must not be linted)", rep.Files)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("unexpected violations: %+v", rep.Violations)
	}
}

func TestRunnerRun_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "var a = 1;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestRunner(t, nil, nil).Run(ctx, []string{path}); err == nil {
		t.Fatal("Run with canceled context should fail")
	}
}
