package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// eqeqeqRule requires the strict comparison operators.
type eqeqeqRule struct{}

func (r *eqeqeqRule) ID() string   { return "SG209" }
func (r *eqeqeqRule) Name() string { return "eqeqeq" }
func (r *eqeqeqRule) Description() string {
	return "Use === and !==; the loose operators coerce their operands."
}
func (r *eqeqeqRule) Category() Category        { return CategoryCode }
func (r *eqeqeqRule) DefaultSeverity() Severity { return SeverityError }

func (r *eqeqeqRule) Check(rc *Context) []Violation {
	allowNull := boolOption(rc.Options, "allow_null_compare", false)

	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "binary_expression" {
			return true
		}
		op := n.ChildByFieldName("operator")
		if op == nil {
			return true
		}
		opText := rc.Tree.Text(op)
		if opText != "==" && opText != "!=" {
			return true
		}
		if allowNull && (operandIsNull(n, "left") || operandIsNull(n, "right")) {
			return true
		}
		strict := "==="
		if opText == "!=" {
			strict = "!=="
		}
		line, col := rc.Tree.Start(op)
		out = append(out, report(r, rc, line, col,
			fmt.Sprintf("use '%s' instead of '%s'", strict, opText)))
		return true
	})
	return out
}

func operandIsNull(n *sitter.Node, field string) bool {
	c := n.ChildByFieldName(field)
	return c != nil && c.Type() == "null"
}
