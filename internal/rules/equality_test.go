package rules

import (
	"strings"
	"testing"
)

func TestEqeqeqLoose(t *testing.T) {
	vs := lintSource(t, eqeqeqRule{}, "if (a == b) {\n    f();\n}\n", nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	v := vs[0]
	if v.RuleID != "SG209" || !strings.Contains(v.Message, "===") {
		t.Errorf("got %s %q", v.RuleID, v.Message)
	}
	if v.Line != 1 || v.Col != 7 {
		t.Errorf("position %d:%d, want 1:7", v.Line, v.Col)
	}
}

func TestEqeqeqLooseNegation(t *testing.T) {
	vs := lintSource(t, eqeqeqRule{}, "if (a != b) {\n    f();\n}\n", nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	if !strings.Contains(vs[0].Message, "!==") {
		t.Errorf("message = %q", vs[0].Message)
	}
}

func TestEqeqeqStrict(t *testing.T) {
	if vs := lintSource(t, eqeqeqRule{}, "if (a === b) {\n    f();\n}\n", nil); len(vs) != 0 {
		t.Errorf("strict comparison flagged: %+v", vs)
	}
}

func TestEqeqeqNullCompare(t *testing.T) {
	src := "if (a == null) {\n    f();\n}\n"
	if vs := lintSource(t, eqeqeqRule{}, src, nil); len(vs) != 1 {
		t.Errorf("null compare not flagged by default, got %d", len(vs))
	}
	opts := map[string]any{"allow_null_compare": true}
	if vs := lintSource(t, eqeqeqRule{}, src, opts); len(vs) != 0 {
		t.Errorf("null compare flagged despite allow_null_compare: %+v", vs)
	}
	if vs := lintSource(t, eqeqeqRule{}, "if (a == b) { f(); }\n", opts); len(vs) != 1 {
		t.Errorf("allow_null_compare exempted a non-null comparison")
	}
}
