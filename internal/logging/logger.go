// Package logging provides config-driven categorized file-based logging
// for jsvet. Logs are written to .jsvet/logs/ with separate files per
// category. Logging is controlled by logging.enabled in .jsvet.yaml;
// when false, no logs are written.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config resolution
	CategoryScan   Category = "scan"   // Target discovery, file walking
	CategoryParse  Category = "parse"  // Tree-sitter parsing
	CategoryRules  Category = "rules"  // Rule execution
	CategoryCache  Category = "cache"  // Result cache hits/misses
	CategoryWatch  Category = "watch"  // Filesystem watching
	CategoryPlugin Category = "plugin" // Custom rule scripts
	CategoryReport Category = "report" // Output formatting
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type loggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Dir        string          `yaml:"dir"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// configFile structure for reading the logging block of .jsvet.yaml
type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Logger wraps a standard logger with category and file output
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers      = make(map[Category]*Logger)
	loggersMu    sync.RWMutex
	logsDir      string
	workspace    string
	config       loggingConfig
	configLoaded bool
	configMu     sync.RWMutex
	logLevel     int // 0=debug, 1=info, 2=warn, 3=error
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config.
// Should be called once at startup with the workspace path.
func Initialize(ws string) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	workspace = ws

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not load config: %v\n", err)
		config.Enabled = false
	}

	dir := config.Dir
	if dir == "" {
		dir = filepath.Join(".jsvet", "logs")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspace, dir)
	}
	logsDir = dir

	// Only create the logs directory when logging is on
	if !config.Enabled {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	bootLogger := Get(CategoryBoot)
	bootLogger.Info("=== jsvet logging initialized ===")
	bootLogger.Info("Workspace: %s", workspace)
	bootLogger.Info("Logs directory: %s", logsDir)
	bootLogger.Info("Log level: %s", config.Level)

	if len(config.Categories) > 0 {
		enabledCount := 0
		for cat, enabled := range config.Categories {
			if enabled {
				enabledCount++
			}
			bootLogger.Debug("Category '%s': %v", cat, enabled)
		}
		bootLogger.Info("Enabled categories: %d/%d", enabledCount, len(config.Categories))
	} else {
		bootLogger.Info("All categories enabled (no category filter)")
	}

	return nil
}

// loadConfig reads the logging block from .jsvet.yaml
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	var data []byte
	var err error
	for _, name := range []string{".jsvet.yaml", ".jsvet.yml"} {
		data, err = os.ReadFile(filepath.Join(workspace, name))
		if err == nil {
			break
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			// No config file means logging stays off unless forced
			config = loggingConfig{Enabled: os.Getenv("JSVET_DEBUG") != ""}
			if config.Enabled {
				logLevel = LevelDebug
			}
			configLoaded = true
			return nil
		}
		return err
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	config = cf.Logging
	configLoaded = true

	// JSVET_DEBUG forces logging on regardless of the file
	if os.Getenv("JSVET_DEBUG") != "" {
		config.Enabled = true
		if config.Level == "" {
			config.Level = "debug"
		}
	}

	switch config.Level {
	case "debug":
		logLevel = LevelDebug
	case "info":
		logLevel = LevelInfo
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}

	return nil
}

// ReloadConfig reloads the config from disk.
// Call this if config changes at runtime.
func ReloadConfig() error {
	return loadConfig()
}

// IsEnabled returns whether file logging is enabled
func IsEnabled() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.Enabled
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.Enabled {
		return false
	}

	if config.Categories == nil {
		return true // All enabled by default
	}

	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if logging or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	if logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files
	date := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", date, category)
	logPath := filepath.Join(logsDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l

	return l
}

// Debug logs a debug message (only if level <= debug)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn)
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists)
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// BootWarn logs warning to the boot category
func BootWarn(format string, args ...interface{}) {
	Get(CategoryBoot).Warn(format, args...)
}

// BootError logs error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Scan logs to the scan category
func Scan(format string, args ...interface{}) {
	Get(CategoryScan).Info(format, args...)
}

// ScanDebug logs debug to the scan category
func ScanDebug(format string, args ...interface{}) {
	Get(CategoryScan).Debug(format, args...)
}

// ScanWarn logs warning to the scan category
func ScanWarn(format string, args ...interface{}) {
	Get(CategoryScan).Warn(format, args...)
}

// ScanError logs error to the scan category
func ScanError(format string, args ...interface{}) {
	Get(CategoryScan).Error(format, args...)
}

// Parse logs to the parse category
func Parse(format string, args ...interface{}) {
	Get(CategoryParse).Info(format, args...)
}

// ParseDebug logs debug to the parse category
func ParseDebug(format string, args ...interface{}) {
	Get(CategoryParse).Debug(format, args...)
}

// ParseWarn logs warning to the parse category
func ParseWarn(format string, args ...interface{}) {
	Get(CategoryParse).Warn(format, args...)
}

// ParseError logs error to the parse category
func ParseError(format string, args ...interface{}) {
	Get(CategoryParse).Error(format, args...)
}

// Rules logs to the rules category
func Rules(format string, args ...interface{}) {
	Get(CategoryRules).Info(format, args...)
}

// RulesDebug logs debug to the rules category
func RulesDebug(format string, args ...interface{}) {
	Get(CategoryRules).Debug(format, args...)
}

// RulesWarn logs warning to the rules category
func RulesWarn(format string, args ...interface{}) {
	Get(CategoryRules).Warn(format, args...)
}

// RulesError logs error to the rules category
func RulesError(format string, args ...interface{}) {
	Get(CategoryRules).Error(format, args...)
}

// Cache logs to the cache category
func Cache(format string, args ...interface{}) {
	Get(CategoryCache).Info(format, args...)
}

// CacheDebug logs debug to the cache category
func CacheDebug(format string, args ...interface{}) {
	Get(CategoryCache).Debug(format, args...)
}

// CacheWarn logs warning to the cache category
func CacheWarn(format string, args ...interface{}) {
	Get(CategoryCache).Warn(format, args...)
}

// CacheError logs error to the cache category
func CacheError(format string, args ...interface{}) {
	Get(CategoryCache).Error(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}

// WatchWarn logs warning to the watch category
func WatchWarn(format string, args ...interface{}) {
	Get(CategoryWatch).Warn(format, args...)
}

// WatchError logs error to the watch category
func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// Plugin logs to the plugin category
func Plugin(format string, args ...interface{}) {
	Get(CategoryPlugin).Info(format, args...)
}

// PluginDebug logs debug to the plugin category
func PluginDebug(format string, args ...interface{}) {
	Get(CategoryPlugin).Debug(format, args...)
}

// PluginWarn logs warning to the plugin category
func PluginWarn(format string, args ...interface{}) {
	Get(CategoryPlugin).Warn(format, args...)
}

// PluginError logs error to the plugin category
func PluginError(format string, args ...interface{}) {
	Get(CategoryPlugin).Error(format, args...)
}

// Report logs to the report category
func Report(format string, args ...interface{}) {
	Get(CategoryReport).Info(format, args...)
}

// ReportDebug logs debug to the report category
func ReportDebug(format string, args ...interface{}) {
	Get(CategoryReport).Debug(format, args...)
}

// ReportWarn logs warning to the report category
func ReportWarn(format string, args ...interface{}) {
	Get(CategoryReport).Warn(format, args...)
}

// ReportError logs error to the report category
func ReportError(format string, args ...interface{}) {
	Get(CategoryReport).Error(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
