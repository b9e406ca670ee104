package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

// braceStyleRule enforces same-line opening braces and cuddled
// else/catch/finally (the one-true-brace style).
type braceStyleRule struct{}

// blockOwners are the constructs whose body block must open on the line
// the construct's header ends on. Bare blocks and object literals are
// not brace-placement targets.
var blockOwners = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function":                       true,
	"function_expression":            true,
	"arrow_function":                 true,
	"method_definition":              true,
	"if_statement":                   true,
	"else_clause":                    true,
	"for_statement":                  true,
	"for_in_statement":               true,
	"while_statement":                true,
	"do_statement":                   true,
	"try_statement":                  true,
	"catch_clause":                   true,
	"finally_clause":                 true,
}

func (r *braceStyleRule) ID() string   { return "SG203" }
func (r *braceStyleRule) Name() string { return "brace-style" }
func (r *braceStyleRule) Description() string {
	return "Put the opening brace on the same line as the statement; keep else, catch, and finally on the closing brace's line."
}
func (r *braceStyleRule) Category() Category        { return CategoryCode }
func (r *braceStyleRule) DefaultSeverity() Severity { return SeverityError }

func (r *braceStyleRule) Check(rc *Context) []Violation {
	var out []Violation
	parser.Walk(rc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "statement_block":
			if p := n.Parent(); p != nil && blockOwners[p.Type()] {
				out = append(out, r.checkOpening(rc, n)...)
			}
		case "class_body", "switch_body":
			out = append(out, r.checkOpening(rc, n)...)
		case "else_clause":
			out = append(out, r.checkCuddle(rc, n, "else")...)
		case "catch_clause":
			out = append(out, r.checkCuddle(rc, n, "catch")...)
		case "finally_clause":
			out = append(out, r.checkCuddle(rc, n, "finally")...)
		}
		return true
	})
	return out
}

// checkOpening compares the block's starting row against the token just
// before it (a closing paren, keyword, arrow, or parameter list).
func (r *braceStyleRule) checkOpening(rc *Context, block *sitter.Node) []Violation {
	prev := block.PrevSibling()
	if prev == nil {
		return nil
	}
	if block.StartPoint().Row == prev.EndPoint().Row {
		return nil
	}
	line, col := rc.Tree.Start(block)
	return []Violation{report(r, rc, line, col, "opening brace must be on the same line as its statement")}
}

// checkCuddle requires the clause keyword to sit on the row where the
// preceding block closed. A braceless consequence gets no cuddle check.
func (r *braceStyleRule) checkCuddle(rc *Context, clause *sitter.Node, keyword string) []Violation {
	prev := clause.PrevSibling()
	if prev == nil {
		return nil
	}
	switch prev.Type() {
	case "statement_block", "catch_clause":
	default:
		return nil
	}
	if clause.StartPoint().Row == prev.EndPoint().Row {
		return nil
	}
	line, col := rc.Tree.Start(clause)
	return []Violation{report(r, rc, line, col,
		fmt.Sprintf("'%s' must be on the same line as the closing brace", keyword))}
}
