package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// semicolonsRule requires explicit statement terminators instead of
// automatic semicolon insertion. Tree-sitter's inserted semicolon is a
// zero-width token, so a statement relying on ASI does not end in ";"
// in its source span.
type semicolonsRule struct{}

// Statement kinds whose grammar rule ends in a semicolon.
var semicolonStatements = map[string]bool{
	"expression_statement": true,
	"lexical_declaration":  true,
	"variable_declaration": true,
	"return_statement":     true,
	"throw_statement":      true,
	"break_statement":      true,
	"continue_statement":   true,
	"do_statement":         true,
	"debugger_statement":   true,
	"import_statement":     true,
}

func (r *semicolonsRule) ID() string   { return "SG202" }
func (r *semicolonsRule) Name() string { return "semicolons" }
func (r *semicolonsRule) Description() string {
	return "End statements with explicit semicolons; never rely on automatic insertion."
}
func (r *semicolonsRule) Category() Category        { return CategoryCode }
func (r *semicolonsRule) DefaultSeverity() Severity { return SeverityError }

func (r *semicolonsRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		typ := n.Type()

		needs := semicolonStatements[typ]
		if typ == "export_statement" {
			needs = exportNeedsSemicolon(n)
		}
		if !needs {
			return true
		}
		if typ == "variable_declaration" || typ == "lexical_declaration" {
			if p := n.Parent(); p != nil {
				switch p.Type() {
				case "for_statement", "for_in_statement":
					return true // the loop header carries its own punctuation
				}
			}
		}

		if strings.HasSuffix(rc.Tree.Text(n), ";") {
			return true
		}
		line, col := rc.Tree.End(n)
		out = append(out, report(r, rc, line, col, "missing semicolon"))
		return true
	})
	return out
}

// exportNeedsSemicolon: export clauses and default-exported expressions
// need a terminator; exported declarations are checked on their own (and
// function/class declarations never take one).
func exportNeedsSemicolon(n *sitter.Node) bool {
	return n.ChildByFieldName("declaration") == nil
}
