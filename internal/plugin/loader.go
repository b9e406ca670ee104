// Package plugin loads custom lint rules written as Go scripts and
// runs them in a yaegi interpreter. Scripts never get compiled into
// the binary and only see an allowlisted slice of the standard
// library.
//
// A plugin is a single .go file declaring:
//
//	func RuleID() string    // e.g. "X501"; the SG namespace is reserved
//	func RuleName() string  // slug, addressable from config
//	func Describe() string
//	func Check(path, source string) (string, error)
//
// Check returns a JSON array of findings:
// [{"line":1,"col":5,"message":"..."}].
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"jsvet/internal/logging"
	"jsvet/internal/rules"
)

// Finding is one position reported by a plugin's Check function.
type Finding struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Loader evaluates rule scripts from a directory.
type Loader struct {
	// Whitelist of allowed stdlib packages
	allowedImports map[string]bool
	timeout        time.Duration
}

// NewLoader creates a loader with the default import allowlist and a
// 5 second per-call timeout.
func NewLoader() *Loader {
	return &Loader{
		allowedImports: map[string]bool{
			"fmt":           true,
			"strings":       true,
			"strconv":       true,
			"regexp":        true,
			"unicode":       true,
			"encoding/json": true,
			"sort":          true,
			"errors":        true,

			// EXPLICITLY BLOCKED (unsafe packages):
			// "os" - filesystem access
			// "os/exec" - command execution
			// "net/http" - network access
			// "unsafe" - unsafe operations
		},
		timeout: 5 * time.Second,
	}
}

// Load evaluates every .go script in dir and returns the rules they
// declare. A missing directory is not an error, and a broken script is
// skipped with a warning so one bad plugin cannot take down the run.
func (l *Loader) Load(ctx context.Context, dir string) ([]rules.Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var loaded []rules.Rule
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		rule, err := l.loadScript(path)
		if err != nil {
			logging.PluginWarn("skipping %s: %v", entry.Name(), err)
			continue
		}

		logging.Plugin("loaded rule %s (%s) from %s", rule.ID(), rule.Name(), entry.Name())
		loaded = append(loaded, rule)
	}
	return loaded, nil
}

// loadScript evaluates one script and builds its rule.
func (l *Loader) loadScript(path string) (rules.Rule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	// Validate imports before evaluation
	if err := l.validateImports(string(code)); err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if _, err := i.Eval(wrapCode(string(code))); err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	id, err := evalString(i, "main.RuleID")
	if err != nil {
		return nil, err
	}
	name, err := evalString(i, "main.RuleName")
	if err != nil {
		return nil, err
	}
	desc, err := evalString(i, "main.Describe")
	if err != nil {
		return nil, err
	}

	if id == "" || name == "" {
		return nil, fmt.Errorf("RuleID and RuleName must be non-empty")
	}
	if strings.HasPrefix(strings.ToUpper(id), "SG") {
		return nil, fmt.Errorf("rule ID %q collides with the built-in SG namespace", id)
	}

	checkVal, err := i.Eval("main.Check")
	if err != nil {
		return nil, fmt.Errorf("Check function not found: %w", err)
	}
	checkFn, ok := checkVal.Interface().(func(string, string) (string, error))
	if !ok {
		return nil, fmt.Errorf("Check has incorrect signature (expected: func(path, source string) (string, error))")
	}

	return &scriptRule{
		id:      id,
		name:    name,
		desc:    desc,
		timeout: l.timeout,
		check:   checkFn,
	}, nil
}

// evalString fetches a func() string symbol and calls it.
func evalString(i *interp.Interpreter, sym string) (string, error) {
	v, err := i.Eval(sym)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", sym, err)
	}
	fn, ok := v.Interface().(func() string)
	if !ok {
		return "", fmt.Errorf("%s has incorrect signature (expected: func() string)", sym)
	}
	return fn(), nil
}

// validateImports checks that the script only imports allowed packages.
func (l *Loader) validateImports(code string) error {
	lines := strings.Split(code, "\n")
	var imports []string

	inImportBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inImportBlock = true
			continue
		}
		if inImportBlock && strings.HasPrefix(trimmed, ")") {
			inImportBlock = false
			continue
		}

		if inImportBlock {
			imports = append(imports, strings.Trim(trimmed, `"`))
		} else if strings.HasPrefix(trimmed, "import ") {
			pkg := strings.TrimPrefix(trimmed, "import ")
			imports = append(imports, strings.Trim(pkg, `"`))
		}
	}

	var forbidden []string
	for _, pkg := range imports {
		if pkg == "" {
			continue
		}
		if !l.allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}

	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports %v (allowed: %v)", forbidden, l.allowed())
	}
	return nil
}

// allowed returns the allowlist for error messages.
func (l *Loader) allowed() []string {
	pkgs := make([]string, 0, len(l.allowedImports))
	for pkg := range l.allowedImports {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// wrapCode wraps the script in a main package if needed.
func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}

// scriptRule adapts an interpreted script to the Rule interface.
type scriptRule struct {
	id      string
	name    string
	desc    string
	timeout time.Duration
	check   func(string, string) (string, error)
}

func (r *scriptRule) ID() string                      { return r.id }
func (r *scriptRule) Name() string                    { return r.name }
func (r *scriptRule) Description() string             { return r.desc }
func (r *scriptRule) Category() rules.Category        { return rules.CategoryCode }
func (r *scriptRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *scriptRule) Check(rc *rules.Context) []rules.Violation {
	out, err := r.invoke(rc.File.Path, string(rc.File.Content))
	if err != nil {
		return []rules.Violation{r.failure(rc, err)}
	}

	var findings []Finding
	if err := json.Unmarshal([]byte(out), &findings); err != nil {
		return []rules.Violation{r.failure(rc, fmt.Errorf("bad findings JSON: %w", err))}
	}

	var vs []rules.Violation
	for _, f := range findings {
		line, col := f.Line, f.Col
		if line < 1 {
			line = 1
		}
		if col < 1 {
			col = 1
		}
		vs = append(vs, rules.Violation{
			Path:     rc.File.Path,
			Line:     line,
			Col:      col,
			RuleID:   r.id,
			RuleName: r.name,
			Severity: rules.SeverityWarning,
			Message:  f.Message,
		})
	}
	return vs
}

// invoke runs the script's Check with a timeout. The interpreter has
// no preemption, so a stuck script is abandoned rather than killed.
func (r *scriptRule) invoke(path, source string) (string, error) {
	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		out, err := r.check(path, source)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- out
	}()

	select {
	case out := <-resultCh:
		return out, nil
	case err := <-errCh:
		return "", err
	case <-time.After(r.timeout):
		return "", fmt.Errorf("timed out after %s", r.timeout)
	}
}

// failure turns a plugin error into a single warning so the rest of
// the run proceeds.
func (r *scriptRule) failure(rc *rules.Context, err error) rules.Violation {
	logging.PluginWarn("rule %s failed on %s: %v", r.name, rc.File.Path, err)
	return rules.Violation{
		Path:     rc.File.Path,
		Line:     1,
		Col:      1,
		RuleID:   r.id,
		RuleName: r.name,
		Severity: rules.SeverityWarning,
		Message:  fmt.Sprintf("plugin %q: %v", r.name, err),
	}
}
