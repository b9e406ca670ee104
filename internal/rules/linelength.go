package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const defaultMaxLineLength = 80

// lineLengthRule limits line width.
type lineLengthRule struct{}

func (r *lineLengthRule) ID() string   { return "SG102" }
func (r *lineLengthRule) Name() string { return "line-length" }
func (r *lineLengthRule) Description() string {
	return "Keep lines at 80 characters or fewer. Lines holding a single unbreakable token (a long URL or path) are exempt by default."
}
func (r *lineLengthRule) Category() Category        { return CategoryLayout }
func (r *lineLengthRule) DefaultSeverity() Severity { return SeverityWarning }

func (r *lineLengthRule) Check(rc *Context) []Violation {
	max := intOption(rc.Options, "max", defaultMaxLineLength)
	if max <= 0 {
		max = defaultMaxLineLength
	}
	ignoreUnbreakable := boolOption(rc.Options, "ignore_unbreakable", true)

	var out []Violation
	for _, line := range rc.File.Lines {
		width := utf8.RuneCountInString(line.Text)
		if width <= max {
			continue
		}
		if ignoreUnbreakable && !strings.ContainsAny(strings.TrimLeft(line.Text, " \t"), " \t") {
			continue
		}
		out = append(out, report(r, rc, line.Num, max+1,
			fmt.Sprintf("line is %d characters long (max %d)", width, max)))
	}
	return out
}
