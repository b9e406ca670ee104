package rules

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// throwErrorRule allows only Error objects to be thrown, so every
// exception carries a descriptive message and a stack trace. Values
// whose type cannot be known statically (identifiers, call results,
// member accesses) pass.
type throwErrorRule struct{}

func (r *throwErrorRule) ID() string   { return "SG205" }
func (r *throwErrorRule) Name() string { return "throw-error" }
func (r *throwErrorRule) Description() string {
	return "Throw only Error objects; bare values carry no message or stack trace."
}
func (r *throwErrorRule) Category() Category        { return CategoryCode }
func (r *throwErrorRule) DefaultSeverity() Severity { return SeverityError }

func (r *throwErrorRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "throw_statement" {
			return true
		}
		arg := firstNamedChild(n)
		for arg != nil && arg.Type() == "parenthesized_expression" {
			arg = firstNamedChild(arg)
		}
		if arg == nil {
			return true
		}
		if v := r.checkThrown(rc, arg); v != nil {
			out = append(out, *v)
		}
		return true
	})
	return out
}

func (r *throwErrorRule) checkThrown(rc *Context, arg *sitter.Node) *Violation {
	line, col := rc.Tree.Start(arg)
	bad := func(msg string) *Violation {
		v := report(r, rc, line, col, msg)
		return &v
	}

	switch arg.Type() {
	case "string", "template_string":
		return bad("throw an Error object instead of a string; strings carry no stack trace")
	case "number", "true", "false", "null":
		return bad("throw an Error object instead of a bare literal")
	case "object":
		return bad("throw an Error object instead of an object literal")
	case "array":
		return bad("throw an Error object instead of an array literal")
	case "binary_expression":
		return bad("throw an Error object instead of an expression result")
	case "identifier":
		if rc.Tree.Text(arg) == "undefined" {
			return bad("throw an Error object instead of undefined")
		}
	case "new_expression":
		if ctor := constructorName(arg); ctor != nil {
			name := rc.Tree.Text(ctor)
			if !strings.HasSuffix(name, "Error") {
				return bad(fmt.Sprintf("thrown constructor '%s' does not look like an Error", name))
			}
		}
	}
	return nil
}
