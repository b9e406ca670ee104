package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// oneVarRule wants one variable per declaration statement. Loop headers
// are exempt: `for (var i = 0, len = xs.length; ...)` is idiomatic.
type oneVarRule struct{}

func (r *oneVarRule) ID() string   { return "SG210" }
func (r *oneVarRule) Name() string { return "one-var" }
func (r *oneVarRule) Description() string {
	return "Declare one variable per var/let/const statement."
}
func (r *oneVarRule) Category() Category        { return CategoryCode }
func (r *oneVarRule) DefaultSeverity() Severity { return SeverityError }

func (r *oneVarRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "variable_declaration", "lexical_declaration":
		default:
			return true
		}
		if p := n.Parent(); p != nil {
			switch p.Type() {
			case "for_statement", "for_in_statement":
				return true
			}
		}

		var second *sitter.Node
		count := 0
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() != "variable_declarator" {
				continue
			}
			count++
			if count == 2 {
				second = c
			}
		}
		if count > 1 {
			line, col := rc.Tree.Start(second)
			out = append(out, report(r, rc, line, col,
				fmt.Sprintf("declare one variable per '%s' statement", declarationKeyword(n))))
		}
		return true
	})
	return out
}
