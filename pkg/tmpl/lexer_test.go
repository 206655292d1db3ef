package tmpl

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	src := "Hello {{ name }}!\n{% if x %}y{% endif %}{# note #}z"
	got, err := Tokenize(src, "t.html")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []Token{
		{Kind: TextToken, Text: "Hello ", TemplateID: "t.html", Line: 1},
		{Kind: InstructionToken, Text: "name", Keyword: "name", TemplateID: "t.html", Line: 1},
		{Kind: TextToken, Text: "!\n", TemplateID: "t.html", Line: 1},
		{Kind: InstructionToken, Text: "if x", Keyword: "if", TemplateID: "t.html", Line: 2},
		{Kind: TextToken, Text: "y", TemplateID: "t.html", Line: 2},
		{Kind: InstructionToken, Text: "endif", Keyword: "endif", TemplateID: "t.html", Line: 2},
		{Kind: TextToken, Text: "z", TemplateID: "t.html", Line: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeCountsNewlinesInsideTags(t *testing.T) {
	got, err := Tokenize("{{\nx\n}}{{ y }}", "t.html")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 tokens, got %d", len(got))
	}
	if got[0].Line != 1 || got[1].Line != 3 {
		t.Fatalf("lines = %d, %d; want 1, 3", got[0].Line, got[1].Line)
	}
	if got[0].Text != "x" {
		t.Fatalf("text = %q, want trimmed %q", got[0].Text, "x")
	}
}

func TestTokenizePlainBraces(t *testing.T) {
	src := "a { b } }} c"
	got, err := Tokenize(src, "t.html")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(got) != 1 || got[0].Text != src {
		t.Fatalf("got %v", got)
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	cases := []struct {
		src    string
		line   int
		opener string
	}{
		{"a\n\n{{ b", 3, "{{"},
		{"{% if x", 1, "{%"},
		{"x\n{# comment", 2, "{#"},
	}
	for _, c := range cases {
		_, err := Tokenize(c.src, "t.html")
		var lexErr *LexingError
		if !errors.As(err, &lexErr) {
			t.Fatalf("%q: want LexingError, got %v", c.src, err)
		}
		if lexErr.Line != c.line || lexErr.TemplateID != "t.html" {
			t.Fatalf("%q: location = %v", c.src, lexErr.Location())
		}
		if !strings.Contains(lexErr.Error(), "unterminated '"+c.opener+"'") {
			t.Fatalf("%q: message = %q", c.src, lexErr.Error())
		}
	}
}
