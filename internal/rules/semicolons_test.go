package rules

import (
	"strings"
	"testing"
)

func TestSemicolonsMissingVar(t *testing.T) {
	vs := lintSource(t, semicolonsRule{}, "var a = 1\n", nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	v := vs[0]
	if v.RuleID != "SG202" || v.Line != 1 || v.Col != 10 {
		t.Errorf("got %s at %d:%d, want SG202 at 1:10", v.RuleID, v.Line, v.Col)
	}
	if !strings.Contains(v.Message, "missing semicolon") {
		t.Errorf("message = %q", v.Message)
	}
}

func TestSemicolonsPresent(t *testing.T) {
	src := "var a = 1;\nfoo(a);\n"
	if vs := lintSource(t, semicolonsRule{}, src, nil); len(vs) != 0 {
		t.Errorf("terminated statements flagged: %+v", vs)
	}
}

func TestSemicolonsMissingReturn(t *testing.T) {
	src := "function f() {\n    return 1\n}\n"
	vs := lintSource(t, semicolonsRule{}, src, nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	if vs[0].Line != 2 {
		t.Errorf("line = %d, want 2", vs[0].Line)
	}
}

func TestSemicolonsMissingCall(t *testing.T) {
	src := "function f() {}\nf()\n"
	vs := lintSource(t, semicolonsRule{}, src, nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	if vs[0].Line != 2 {
		t.Errorf("line = %d, want 2", vs[0].Line)
	}
}

func TestSemicolonsFunctionDeclarationExempt(t *testing.T) {
	if vs := lintSource(t, semicolonsRule{}, "function f() {}\n", nil); len(vs) != 0 {
		t.Errorf("function declaration flagged: %+v", vs)
	}
}

func TestSemicolonsForHeaderExempt(t *testing.T) {
	src := "for (var i = 0; i < 3; i++) {\n    f(i);\n}\n"
	if vs := lintSource(t, semicolonsRule{}, src, nil); len(vs) != 0 {
		t.Errorf("for header declaration flagged: %+v", vs)
	}
}

func TestSemicolonsForOfExempt(t *testing.T) {
	src := "for (const item of items) {\n    f(item);\n}\n"
	if vs := lintSource(t, semicolonsRule{}, src, nil); len(vs) != 0 {
		t.Errorf("for-of declaration flagged: %+v", vs)
	}
}

func TestSemicolonsExportDefault(t *testing.T) {
	vs := lintSource(t, semicolonsRule{}, "export default 42\n", nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
}

func TestSemicolonsExportFunction(t *testing.T) {
	if vs := lintSource(t, semicolonsRule{}, "export function f() {}\n", nil); len(vs) != 0 {
		t.Errorf("exported function declaration flagged: %+v", vs)
	}
}

func TestSemicolonsThrow(t *testing.T) {
	src := "function f() {\n    throw new Error('boom')\n}\n"
	vs := lintSource(t, semicolonsRule{}, src, nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	if vs[0].Line != 2 {
		t.Errorf("line = %d, want 2", vs[0].Line)
	}
}
