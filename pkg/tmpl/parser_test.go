package tmpl

import (
	"errors"
	"strings"
	"testing"
)

func TestParseBuildsTree(t *testing.T) {
	root, err := Parse("Hello {{ name }}!{% if a %}x{% endif %}", "t.html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	kids := root.Children()
	if len(kids) != 4 {
		t.Fatalf("want 4 children, got %d", len(kids))
	}
	if tn, ok := kids[0].(*TextNode); !ok || tn.Text != "Hello " {
		t.Fatalf("child 0 = %#v", kids[0])
	}
	if _, ok := kids[1].(*PrintNode); !ok {
		t.Fatalf("child 1 = %#v", kids[1])
	}
	if n, ok := kids[3].(*IfNode); !ok || len(n.then) != 1 {
		t.Fatalf("child 3 = %#v", kids[3])
	}
	if root.Token() != nil {
		t.Fatalf("root has a token")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src     string
		want    string
		line    int
		keyword string
	}{
		{"line1\n{% if x %}", "unexpected end of template, expected 'endif' to close the 'if' tag opened on line 2", 2, "if"},
		{"{% for x in xs %}{% if x %}{% endfor %}", "unexpected 'endfor', expected 'endif' to close the 'if' tag opened on line 1", 1, "endfor"},
		{"{% endif %}", "unexpected 'endif' with no open 'if' tag", 1, "endif"},
		{"a\n{{ }}", "empty tag", 2, ""},
		{"{% else %}", "'else' outside 'if'", 1, "else"},
		{"{% empty %}", "'empty' outside 'for'", 1, "empty"},
		{"{% if a %}{% else %}{% else %}{% endif %}", "'else' after 'else'", 1, "else"},
		{"{% if a %}{% else %}{% elif b %}{% endif %}", "'elif' after 'else'", 1, "elif"},
		{"{% for x in xs %}{% empty %}{% empty %}{% endfor %}", "'for' takes a single 'empty'", 1, "empty"},
		{"{% for x xs %}{% endfor %}", "expects 'for name in sequence'", 1, "for"},
		{"{% block a b %}{% endblock %}", "expects a single name", 1, "block"},
		{"{% block a %}{% endblock b %}", "closes block 'a'", 1, "endblock"},
		{"{% with x %}{% endwith %}", "expects 'with name = expr'", 1, "with"},
		{"{% if %}{% endif %}", "missing condition", 1, "if"},
		{"{% if a == %}{% endif %}", "needs two operands", 1, "if"},
		{"{% extends base %}", "expects a quoted template name", 1, "extends"},
		{"{% if a %}{% extends 'x' %}{% endif %}", "must be a top-level tag", 1, "extends"},
		{"{% include_sibling 'a/b.html' %}", "takes a bare file name", 1, "include_sibling"},
		{"{% include 'x' with y %}", "expects name=value bindings", 1, "include"},
		{"{% cycle %}", "needs at least one value", 1, "cycle"},
		{"{% incldue 'a.html' %}", "(did you mean 'include'?)", 1, "incldue"},
		{"x\n{% blok content %}x{% endblock %}", "(did you mean 'block'?)", 2, "blok"},
		{"{% block a %}X{% endblock %}{% extends 'x' %}", "'extends' must come before any other tag (line 1)", 1, "extends"},
		{"{{ name }}{% extends 'x' %}", "'extends' must come before any other tag", 1, "extends"},
	}
	for _, c := range cases {
		_, err := Parse(c.src, "t.html")
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Fatalf("%q: want SyntaxError, got %v", c.src, err)
		}
		if !strings.Contains(syn.Error(), c.want) {
			t.Fatalf("%q: error %q does not contain %q", c.src, syn.Error(), c.want)
		}
		loc := syn.Location()
		if loc.TemplateID != "t.html" || loc.Line != c.line || loc.Keyword != c.keyword {
			t.Fatalf("%q: location = %+v", c.src, loc)
		}
	}
}

func TestNoTagSuggestionForExpressions(t *testing.T) {
	_, err := Parse("{{ a b }}", "t.html")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("got %v", err)
	}
}

func TestErrorsPrintOneLine(t *testing.T) {
	_, err := Parse("line1\n{% if x %}", "page.html")
	want := "page.html, line 2, in 'if': syntax error: unexpected end of template, expected 'endif' to close the 'if' tag opened on line 2"
	if err == nil || err.Error() != want {
		t.Fatalf("got %v\nwant %s", err, want)
	}
}

func TestPretty(t *testing.T) {
	root, err := Parse("{% if a %}x{% else %}{{ y }}{% endif %}{% for i in xs %}{% block b %}z{% endblock %}{% empty %}e{% endfor %}", "t.html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := `Root
  If("a")
    Text("x")
  Else
    Print("y")
  For(i in "xs")
    Block(b)
      Text("z")
  Empty
    Text("e")
`
	if got := Pretty(root); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	root, err := Parse("a{% if x %}b{% elif y %}c{% else %}d{% endif %}", "t.html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var texts []string
	err = Walk(VisitorFunc(func(n Node) error {
		if tn, ok := n.(*TextNode); ok {
			texts = append(texts, tn.Text)
		}
		return nil
	}), root)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got := strings.Join(texts, ""); got != "abcd" {
		t.Fatalf("got %q", got)
	}
}
