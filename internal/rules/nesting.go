package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

const defaultMaxDepth = 3

// Control statements that deepen nesting.
var controlStatements = map[string]bool{
	"if_statement":     true,
	"for_statement":    true,
	"for_in_statement": true,
	"while_statement":  true,
	"do_statement":     true,
	"switch_statement": true,
	"try_statement":    true,
}

// Nodes that start a new function body and therefore a fresh count.
var functionNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function":                       true,
	"function_expression":            true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// maxDepthRule keeps functions shallow: return early instead of nesting
// control flow.
type maxDepthRule struct{}

func (r *maxDepthRule) ID() string   { return "SG207" }
func (r *maxDepthRule) Name() string { return "max-depth" }
func (r *maxDepthRule) Description() string {
	return "Keep control flow at most 3 levels deep inside a function; return early instead of nesting."
}
func (r *maxDepthRule) Category() Category        { return CategoryCode }
func (r *maxDepthRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *maxDepthRule) Check(rc *Context) []Violation {
	max := intOption(rc.Options, "max", defaultMaxDepth)
	if max < 1 {
		max = defaultMaxDepth
	}

	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		if !functionNodes[n.Type()] {
			return true
		}
		body := n.ChildByFieldName("body")
		if body == nil || body.Type() != "statement_block" {
			return true // expression-bodied arrows hold no statements
		}
		r.measure(rc, body, 0, max, &out)
		return true // nested functions get their own count below
	})
	return out
}

// measure recurses through a function body counting control statement
// depth. Inner functions are skipped here; the outer walk measures them
// independently from zero.
func (r *maxDepthRule) measure(rc *Context, n *sitter.Node, depth, max int, out *[]Violation) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		typ := child.Type()
		if functionNodes[typ] {
			continue
		}
		next := depth
		if controlStatements[typ] && !isElseIf(child) {
			next = depth + 1
			if next == max+1 {
				line, col := rc.Tree.Start(child)
				*out = append(*out, report(r, rc, line, col,
					fmt.Sprintf("control flow nested %d levels deep (max %d); return early instead", next, max)))
			}
		}
		r.measure(rc, child, next, max, out)
	}
}

// isElseIf: an if directly under an else clause continues the chain and
// does not deepen it.
func isElseIf(n *sitter.Node) bool {
	p := n.Parent()
	return n.Type() == "if_statement" && p != nil && p.Type() == "else_clause"
}

// noElseReturnRule flags an else whose if branch already returned.
type noElseReturnRule struct{}

func (r *noElseReturnRule) ID() string   { return "SG208" }
func (r *noElseReturnRule) Name() string { return "no-else-return" }
func (r *noElseReturnRule) Description() string {
	return "When the if branch ends in a return, drop the else and return early."
}
func (r *noElseReturnRule) Category() Category        { return CategoryCode }
func (r *noElseReturnRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *noElseReturnRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "if_statement" {
			return true
		}
		alt := n.ChildByFieldName("alternative")
		if alt == nil || alt.Type() != "else_clause" {
			return true
		}
		// else-if chains stay untouched; only a terminal else is flagged.
		if inner := firstNamedChild(alt); inner != nil && inner.Type() == "if_statement" {
			return true
		}
		cons := n.ChildByFieldName("consequence")
		if cons == nil || !endsInReturn(cons) {
			return true
		}
		line, col := rc.Tree.Start(alt)
		out = append(out, report(r, rc, line, col,
			"unnecessary 'else' after 'return'; return early and drop the else"))
		return true
	})
	return out
}

func endsInReturn(n *sitter.Node) bool {
	switch n.Type() {
	case "return_statement":
		return true
	case "statement_block":
		last := lastNamedChild(n)
		return last != nil && last.Type() == "return_statement"
	}
	return false
}
