package rules

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"jsvet/internal/parser"
)

const defaultIndentWidth = 4

// indentRule enforces space-only indentation in multiples of the
// configured width.
type indentRule struct{}

func (r *indentRule) ID() string   { return "SG101" }
func (r *indentRule) Name() string { return "indent" }
func (r *indentRule) Description() string {
	return "Indent with spaces, never tabs, in multiples of the configured width (default 4)."
}
func (r *indentRule) Category() Category        { return CategoryLayout }
func (r *indentRule) DefaultSeverity() Severity { return SeverityError }

func (r *indentRule) Check(rc *Context) []Violation {
	width := intOption(rc.Options, "width", defaultIndentWidth)
	if width <= 0 {
		width = defaultIndentWidth
	}
	exempt := continuationLines(rc.Tree)

	var out []Violation
	for _, line := range rc.File.Lines {
		if line.Text == "" || exempt[line.Num] {
			continue
		}
		indent := line.Text[:len(line.Text)-len(strings.TrimLeft(line.Text, " \t"))]
		if indent == "" {
			continue
		}
		if tab := strings.IndexByte(indent, '\t'); tab >= 0 {
			out = append(out, report(r, rc, line.Num, tab+1, "tab used for indentation"))
			continue
		}
		if indent == line.Text {
			continue // whitespace-only lines are trailing-whitespace territory
		}
		if len(indent)%width != 0 {
			out = append(out, report(r, rc, line.Num, 1,
				fmt.Sprintf("indentation of %d spaces is not a multiple of %d", len(indent), width)))
		}
	}
	return out
}

// continuationLines marks lines whose leading whitespace belongs to a
// multi-line token (template strings, strings with escaped newlines,
// block comments) rather than to indentation. The token's first line is
// still checked; the lines it spills onto are not.
func continuationLines(t *parser.Tree) map[int]bool {
	exempt := make(map[int]bool)
	if t == nil {
		return exempt
	}
	parser.Walk(t.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "template_string", "string", "comment":
			start := int(n.StartPoint().Row) + 1
			end := int(n.EndPoint().Row) + 1
			for line := start + 1; line <= end; line++ {
				exempt[line] = true
			}
			return false
		}
		return true
	})
	return exempt
}
