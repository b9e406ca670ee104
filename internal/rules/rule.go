// Package rules defines the lint rule interface, the violation model,
// and the built-in rule set.
//
// Rule codes are stable: SG1xx covers layout (whitespace and line
// geometry), SG2xx covers code shape. A retired code is never reused.
package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
	"jsvet/internal/source"
)

// Severity classifies how a reported violation is treated.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityOff     Severity = "off"
)

// Category groups rules by the aspect of the source they inspect.
type Category string

const (
	CategoryLayout Category = "layout" // whitespace and line geometry
	CategoryCode   Category = "code"   // syntax tree shape
)

// Violation is a single finding at a source position.
type Violation struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Context carries everything a rule may inspect for one file.
type Context struct {
	File    *source.File
	Tree    *parser.Tree
	Options map[string]any
}

// Rule checks one documented convention.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Category() Category
	DefaultSeverity() Severity
	Check(rc *Context) []Violation
}

// report builds a violation for r at the given position. The engine
// overrides Severity afterwards when the rule is reconfigured.
func report(r Rule, rc *Context, line, col int, msg string) Violation {
	return Violation{
		Path:     rc.File.Path,
		Line:     line,
		Col:      col,
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Severity: r.DefaultSeverity(),
		Message:  msg,
	}
}

// intOption reads an integer rule option, accepting the numeric types
// YAML and JSON decoders produce.
func intOption(opts map[string]any, key string, def int) int {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func boolOption(opts map[string]any, key string, def bool) bool {
	if opts == nil {
		return def
	}
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return def
}

// firstNamedChild returns the first named child of n that is not a
// comment. Comments are extras and can appear anywhere in the tree.
func firstNamedChild(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// lastNamedChild returns the last named non-comment child of n.
func lastNamedChild(n *sitter.Node) *sitter.Node {
	var last *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			last = c
		}
	}
	return last
}
