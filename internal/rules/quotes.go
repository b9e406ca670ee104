package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// quotesRule prefers single-quoted strings. Double quotes are fine when
// the string itself contains a single quote, and inside JSX attributes.
type quotesRule struct{}

func (r *quotesRule) ID() string   { return "SG201" }
func (r *quotesRule) Name() string { return "quotes" }
func (r *quotesRule) Description() string {
	return "Use single quotes for strings, unless the string contains a single quote."
}
func (r *quotesRule) Category() Category        { return CategoryCode }
func (r *quotesRule) DefaultSeverity() Severity { return SeverityError }

func (r *quotesRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "string" {
			return true
		}
		text := rc.Tree.Text(n)
		if len(text) < 2 || !strings.HasPrefix(text, `"`) {
			return false
		}
		if strings.Contains(text[1:len(text)-1], "'") {
			return false // double quotes spare the escaping
		}
		if p := n.Parent(); p != nil && p.Type() == "jsx_attribute" {
			return false
		}
		line, col := rc.Tree.Start(n)
		out = append(out, report(r, rc, line, col, "string uses double quotes; prefer single quotes"))
		return false
	})
	return out
}
