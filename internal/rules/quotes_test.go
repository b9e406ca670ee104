package rules

import (
	"strings"
	"testing"
)

func TestQuotesDouble(t *testing.T) {
	src := "var s = \"hello\";\n"
	vs := lintSource(t, quotesRule{}, src, nil)
	if len(vs) != 1 {
		t.Fatalf("got %d violations, want 1", len(vs))
	}
	v := vs[0]
	if v.RuleID != "SG201" || v.Line != 1 || v.Col != 9 {
		t.Errorf("got %s at %d:%d, want SG201 at 1:9", v.RuleID, v.Line, v.Col)
	}
	if !strings.Contains(v.Message, "single quotes") {
		t.Errorf("message = %q", v.Message)
	}
}

func TestQuotesSingle(t *testing.T) {
	if vs := lintSource(t, quotesRule{}, "var s = 'hello';\n", nil); len(vs) != 0 {
		t.Errorf("single-quoted string flagged: %+v", vs)
	}
}

func TestQuotesTemplate(t *testing.T) {
	if vs := lintSource(t, quotesRule{}, "var s = `hello`;\n", nil); len(vs) != 0 {
		t.Errorf("template string flagged: %+v", vs)
	}
}

func TestQuotesApostropheExempt(t *testing.T) {
	if vs := lintSource(t, quotesRule{}, "var s = \"don't\";\n", nil); len(vs) != 0 {
		t.Errorf("string containing a single quote flagged: %+v", vs)
	}
}

func TestQuotesJSXAttributeExempt(t *testing.T) {
	src := "var el = <div className=\"box\" />;\n"
	if vs := lintSource(t, quotesRule{}, src, nil); len(vs) != 0 {
		t.Errorf("JSX attribute value flagged: %+v", vs)
	}
}

func TestQuotesImport(t *testing.T) {
	vs := lintSource(t, quotesRule{}, "import util from \"util\";\n", nil)
	if len(vs) != 1 {
		t.Errorf("double-quoted import source not flagged, got %d", len(vs))
	}
}
