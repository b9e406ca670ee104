package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the canonical config file name looked up at the workspace
// root. AltFileName is accepted as a fallback spelling.
const (
	FileName    = ".jsvet.yaml"
	AltFileName = ".jsvet.yml"

	// CurrentVersion is the config schema version this build writes.
	CurrentVersion = 1
)

// Config holds all jsvet configuration.
type Config struct {
	// Schema version of the config file.
	Version int `yaml:"version"`

	// File discovery
	Extensions []string `yaml:"extensions"`
	Ignore     []string `yaml:"ignore"`

	// Worker pool size for a lint run. Zero means one worker per CPU.
	Concurrency int `yaml:"concurrency"`

	// Per-rule settings keyed by rule ID or rule name.
	Rules map[string]RuleConfig `yaml:"rules"`

	// Result cache
	Cache CacheConfig `yaml:"cache"`

	// Custom rule scripts
	Plugins PluginsConfig `yaml:"plugins"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RuleConfig overrides one rule's severity and options.
type RuleConfig struct {
	Severity string         `yaml:"severity"` // error, warning, off
	Options  map[string]any `yaml:"options"`
}

// CacheConfig configures the SQLite result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// PluginsConfig configures loading of interpreted rule scripts.
type PluginsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig configures the per-category debug logs.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Dir        string          `yaml:"dir"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		Ignore: []string{
			"node_modules", "bower_components", "dist", "build",
			"coverage", "vendor", ".git",
		},
		Concurrency: 0,
		Rules:       map[string]RuleConfig{},

		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".jsvet/cache",
		},

		Plugins: PluginsConfig{
			Enabled: true,
			Dir:     ".jsvet/rules",
		},

		Logging: LoggingConfig{
			Enabled: false,
			Dir:     ".jsvet/logs",
			Level:   "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Find walks up from dir looking for a config file and returns its
// path. The boolean reports whether one was found.
func Find(dir string) (string, bool) {
	for {
		for _, name := range []string{FileName, AltFileName} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("JSVET_CACHE_DIR"); dir != "" {
		c.Cache.Dir = dir
	}
	if os.Getenv("JSVET_NO_CACHE") != "" {
		c.Cache.Enabled = false
	}
	if os.Getenv("JSVET_DEBUG") != "" {
		c.Logging.Enabled = true
	}
}

// ValidSeverities lists the accepted per-rule severity values.
var ValidSeverities = []string{"error", "warning", "off"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Version > CurrentVersion {
		return fmt.Errorf("config version %d is newer than this build supports (%d)", c.Version, CurrentVersion)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative: %d", c.Concurrency)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	for key, rc := range c.Rules {
		if rc.Severity == "" {
			continue
		}
		valid := false
		for _, s := range ValidSeverities {
			if rc.Severity == s {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("rule %q: invalid severity %q (valid: %v)", key, rc.Severity, ValidSeverities)
		}
	}

	return nil
}

// RuleFor returns the override for the first matching key. Callers pass
// both the rule ID and the rule name so either spelling works in the
// config file.
func (c *Config) RuleFor(keys ...string) (RuleConfig, bool) {
	for _, k := range keys {
		if rc, ok := c.Rules[k]; ok {
			return rc, true
		}
	}
	return RuleConfig{}, false
}

// MatchesExtension reports whether path has one of the configured
// source extensions.
func (c *Config) MatchesExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsIgnored reports whether the slash-separated relative path matches
// an ignore entry. Entries match whole path segments ("node_modules")
// or glob patterns against the full relative path ("test/fixtures/*").
func (c *Config) IsIgnored(rel string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, entry := range c.Ignore {
		if strings.ContainsAny(entry, "*?[") {
			if ok, err := filepath.Match(entry, rel); err == nil && ok {
				return true
			}
			continue
		}
		for _, seg := range segments {
			if seg == entry {
				return true
			}
		}
	}
	return false
}

// GetConcurrency returns the worker pool size, defaulting to the CPU
// count.
func (c *Config) GetConcurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.NumCPU()
}

// CacheDir resolves the cache directory against the workspace root.
func (c *Config) CacheDir(root string) string {
	return resolveDir(c.Cache.Dir, root)
}

// PluginDir resolves the plugin directory against the workspace root.
func (c *Config) PluginDir(root string) string {
	return resolveDir(c.Plugins.Dir, root)
}

// LogDir resolves the log directory against the workspace root.
func (c *Config) LogDir(root string) string {
	return resolveDir(c.Logging.Dir, root)
}

func resolveDir(dir, root string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// Fingerprint returns a stable digest of the effective configuration.
// Cached lint results are keyed on it, so any settings change (severity
// overrides, rule options, extensions) invalidates prior results.
func (c *Config) Fingerprint() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		// A plain struct always marshals; fall back to a constant so
		// the cache degrades instead of panicking.
		return "unfingerprintable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
