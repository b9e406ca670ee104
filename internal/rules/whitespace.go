package rules

import "strings"

// trailingWhitespaceRule flags spaces or tabs before the line break.
type trailingWhitespaceRule struct{}

func (r *trailingWhitespaceRule) ID() string   { return "SG103" }
func (r *trailingWhitespaceRule) Name() string { return "trailing-whitespace" }
func (r *trailingWhitespaceRule) Description() string {
	return "Lines must not end with spaces or tabs."
}
func (r *trailingWhitespaceRule) Category() Category        { return CategoryLayout }
func (r *trailingWhitespaceRule) DefaultSeverity() Severity { return SeverityError }

func (r *trailingWhitespaceRule) Check(rc *Context) []Violation {
	var out []Violation
	for _, line := range rc.File.Lines {
		trimmed := strings.TrimRight(line.Text, " \t")
		if len(trimmed) == len(line.Text) {
			continue
		}
		out = append(out, report(r, rc, line.Num, len(trimmed)+1, "trailing whitespace"))
	}
	return out
}

// eofNewlineRule wants files to end with exactly one newline.
type eofNewlineRule struct{}

func (r *eofNewlineRule) ID() string   { return "SG104" }
func (r *eofNewlineRule) Name() string { return "eof-newline" }
func (r *eofNewlineRule) Description() string {
	return "Files must end with exactly one newline character."
}
func (r *eofNewlineRule) Category() Category        { return CategoryLayout }
func (r *eofNewlineRule) DefaultSeverity() Severity { return SeverityError }

func (r *eofNewlineRule) Check(rc *Context) []Violation {
	content := rc.File.Content
	if len(content) == 0 || len(rc.File.Lines) == 0 {
		return nil
	}
	last := rc.File.Lines[len(rc.File.Lines)-1]

	if content[len(content)-1] != '\n' {
		return []Violation{report(r, rc, last.Num, len(last.Text)+1, "no newline at end of file")}
	}

	trailing := 0
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] == '\n' {
			trailing++
			continue
		}
		if content[i] == '\r' {
			continue
		}
		break
	}
	if trailing > 1 {
		return []Violation{report(r, rc, last.Num, 1, "multiple trailing newlines")}
	}
	return nil
}

// lineEndingsRule requires Unix line endings.
type lineEndingsRule struct{}

func (r *lineEndingsRule) ID() string   { return "SG105" }
func (r *lineEndingsRule) Name() string { return "line-endings" }
func (r *lineEndingsRule) Description() string {
	return "Use Unix (LF) line endings; CRLF and bare CR are flagged."
}
func (r *lineEndingsRule) Category() Category        { return CategoryLayout }
func (r *lineEndingsRule) DefaultSeverity() Severity { return SeverityError }

func (r *lineEndingsRule) Check(rc *Context) []Violation {
	var out []Violation
	for _, line := range rc.File.Lines {
		switch {
		case line.HasCR:
			out = append(out, report(r, rc, line.Num, len(line.Text)+1, "carriage return (CRLF) line ending"))
		case strings.HasSuffix(line.Text, "\r"):
			out = append(out, report(r, rc, line.Num, len(line.Text), "bare carriage return at end of line"))
		}
	}
	return out
}
