// Package report renders finished lint runs for humans and machines.
package report

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"jsvet/internal/engine"
	"jsvet/internal/rules"
)

// Formatter renders a lint report to a writer.
type Formatter interface {
	Name() string
	Format(w io.Writer, rep *engine.Report) error
}

// Registry stores formatters by name, providing discovery and
// duplication safeguards.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter by its Name(). Duplicate names return an
// error.
func (r *Registry) Register(f Formatter) error {
	if f == nil {
		return fmt.Errorf("report: formatter is required")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("report: formatter name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; exists {
		return fmt.Errorf("report: formatter %q already registered", name)
	}

	r.formatters[name] = f
	return nil
}

// MustRegister panics on registration failure. Useful for init-time
// wiring.
func (r *Registry) MustRegister(f Formatter) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("report: formatter %q not found", name)
	}
	return f, nil
}

// List returns the sorted formatter names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a formatter is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.formatters[name]
	return ok
}

// Builtin returns a registry with the text, compact and json
// formatters registered.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(&textFormatter{})
	r.MustRegister(&compactFormatter{})
	r.MustRegister(&jsonFormatter{})
	return r
}

// groupByFile splits violations per file, preserving their order.
func groupByFile(vs []rules.Violation) (map[string][]rules.Violation, []string) {
	byFile := make(map[string][]rules.Violation)
	var order []string
	for _, v := range vs {
		if _, seen := byFile[v.Path]; !seen {
			order = append(order, v.Path)
		}
		byFile[v.Path] = append(byFile[v.Path], v)
	}
	return byFile, order
}
