package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// resetLogging clears package state so each test starts cold.
func resetLogging() {
	CloseAll()
	configMu.Lock()
	config = loggingConfig{}
	configLoaded = false
	configMu.Unlock()
	logsDir = ""
	workspace = ""
	logLevel = LevelInfo
}

func writeLoggingConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".jsvet.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestAllCategoriesLog(t *testing.T) {
	t.Setenv("JSVET_DEBUG", "")
	tempDir := t.TempDir()

	writeLoggingConfig(t, tempDir, `logging:
  enabled: true
  level: debug
  categories:
    boot: true
    scan: true
    parse: true
    rules: true
    cache: true
    watch: true
    plugin: true
    report: true
`)

	resetLogging()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !IsEnabled() {
		t.Error("expected logging to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryScan,
		CategoryParse,
		CategoryRules,
		CategoryCache,
		CategoryWatch,
		CategoryPlugin,
		CategoryReport,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("category %s should be enabled", cat)
		}

		logger := Get(cat)
		logger.Info("test info message for %s", cat)
		logger.Debug("test debug message for %s", cat)
		logger.Warn("test warn message for %s", cat)
		logger.Error("test error message for %s", cat)
	}

	// Convenience functions
	Boot("boot log")
	Scan("scan log")
	Parse("parse log")
	Rules("rules log")
	Cache("cache log")
	Watch("watch log")
	Plugin("plugin log")
	Report("report log")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".jsvet", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.Contains(entry.Name(), string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("no log file found for category: %s", cat)
		}
	}
}

func TestLoggingDisabled(t *testing.T) {
	t.Setenv("JSVET_DEBUG", "")
	tempDir := t.TempDir()

	writeLoggingConfig(t, tempDir, `logging:
  enabled: false
  level: debug
`)

	resetLogging()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if IsEnabled() {
		t.Error("expected logging to be disabled")
	}
	if IsCategoryEnabled(CategoryScan) {
		t.Error("categories should be disabled when logging is off")
	}

	// All of these should be silent no-ops
	Boot("should not be logged")
	Scan("should not be logged")
	Get(CategoryRules).Error("should not be logged")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".jsvet", "logs")
	if entries, err := os.ReadDir(logsPath); err == nil && len(entries) > 0 {
		t.Errorf("expected no log files, found %d", len(entries))
	}
}

func TestCategoryToggle(t *testing.T) {
	t.Setenv("JSVET_DEBUG", "")
	tempDir := t.TempDir()

	writeLoggingConfig(t, tempDir, `logging:
  enabled: true
  level: debug
  categories:
    scan: true
    cache: false
`)

	resetLogging()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryScan) {
		t.Error("scan should be enabled")
	}
	if IsCategoryEnabled(CategoryCache) {
		t.Error("cache should be disabled")
	}
	if !IsCategoryEnabled(CategoryWatch) {
		t.Error("watch (not in config) should default to enabled")
	}

	Scan("should be logged")
	Cache("should not be logged")
	Watch("should be logged")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".jsvet", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}

	var hasScan, hasCache, hasWatch bool
	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, "scan") {
			hasScan = true
		}
		if strings.Contains(name, "cache") {
			hasCache = true
		}
		if strings.Contains(name, "watch") {
			hasWatch = true
		}
	}

	if !hasScan {
		t.Error("expected scan log file")
	}
	if hasCache {
		t.Error("should not have cache log file (disabled)")
	}
	if !hasWatch {
		t.Error("expected watch log file (default enabled)")
	}
}

func TestDebugEnvForcesLogging(t *testing.T) {
	t.Setenv("JSVET_DEBUG", "1")
	tempDir := t.TempDir()

	writeLoggingConfig(t, tempDir, `logging:
  enabled: false
`)

	resetLogging()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !IsEnabled() {
		t.Error("JSVET_DEBUG should force logging on")
	}
}

func TestTimerLogging(t *testing.T) {
	t.Setenv("JSVET_DEBUG", "")
	tempDir := t.TempDir()

	writeLoggingConfig(t, tempDir, `logging:
  enabled: true
  level: debug
`)

	resetLogging()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	timer := StartTimer(CategoryRules, "test operation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()

	if elapsed <= 0 {
		t.Error("timer should record a non-zero duration")
	}

	slow := StartTimer(CategoryScan, "slow operation")
	time.Sleep(time.Millisecond)
	if d := slow.StopWithThreshold(time.Nanosecond); d <= 0 {
		t.Error("threshold timer should record a non-zero duration")
	}

	CloseAll()
}
