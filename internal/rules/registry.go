package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores rules keyed by both ID and name.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Rule
	byName map[string]Rule
}

// NewRegistry returns an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]Rule),
		byName: make(map[string]Rule),
	}
}

// Register adds a rule. Both the ID and the name must be unused.
func (r *Registry) Register(rule Rule) error {
	if rule == nil {
		return fmt.Errorf("rules: rule is nil")
	}
	id := strings.TrimSpace(rule.ID())
	name := strings.TrimSpace(rule.Name())
	if id == "" || name == "" {
		return fmt.Errorf("rules: rule ID and name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("rules: rule %q already registered", id)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("rules: rule name %q already registered", name)
	}
	r.byID[id] = rule
	r.byName[name] = rule
	return nil
}

// MustRegister registers a rule and panics on failure. Intended for
// built-in rules wired at startup.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Get looks a rule up by its ID or its name.
func (r *Registry) Get(key string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rule, ok := r.byID[key]; ok {
		return rule, true
	}
	rule, ok := r.byName[key]
	return rule, ok
}

// Has reports whether key resolves to a registered rule.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// List returns every registered rule ordered by ID.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, 0, len(r.byID))
	for _, rule := range r.byID {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Builtin returns a registry preloaded with every built-in rule.
func Builtin() *Registry {
	reg := NewRegistry()
	for _, rule := range builtinRules() {
		reg.MustRegister(rule)
	}
	return reg
}

func builtinRules() []Rule {
	return []Rule{
		&indentRule{},
		&lineLengthRule{},
		&trailingWhitespaceRule{},
		&eofNewlineRule{},
		&lineEndingsRule{},
		&quotesRule{},
		&semicolonsRule{},
		&braceStyleRule{},
		&namingRule{},
		&throwErrorRule{},
		&nativePrototypeRule{},
		&maxDepthRule{},
		&noElseReturnRule{},
		&eqeqeqRule{},
		&oneVarRule{},
	}
}
