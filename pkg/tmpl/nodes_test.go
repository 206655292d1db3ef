package tmpl

import (
	"strings"
	"testing"

	"github.com/neurodesk/pagetmpl/pkg/numfmt"
)

func TestPureTextIsIdentity(t *testing.T) {
	src := "Hello { world }\n  }} plain %} text\n"
	if got := renderString(t, New(), src, nil); got != src {
		t.Fatalf("got %q, want %q", got, src)
	}
}

func TestIfConditions(t *testing.T) {
	data := map[string]any{
		"a":  true,
		"b":  false,
		"n":  4,
		"s":  "hello",
		"xs": []int{1, 2, 3},
		"m":  map[string]int{"k": 1},
		"x":  "x",
	}
	cases := []struct {
		src  string
		want string
	}{
		{"{% if a and not b %}Y{% else %}N{% endif %}", "Y"},
		{"{% if b %}Y{% else %}N{% endif %}", "N"},
		{"{% if b or a %}Y{% endif %}", "Y"},
		{"{% if b || a && b %}Y{% else %}N{% endif %}", "N"},
		{"{% if 2 in xs %}Y{% endif %}", "Y"},
		{"{% if 'ell' in s %}Y{% endif %}", "Y"},
		{"{% if 'q' not in m %}Y{% endif %}", "Y"},
		{"{% if 'k' in m %}Y{% endif %}", "Y"},
		{"{% if n >= 3 && n <= 5 %}Y{% endif %}", "Y"},
		{"{% if n > 4 %}Y{% else %}N{% endif %}", "N"},
		{"{% if n != 4 %}Y{% else %}N{% endif %}", "N"},
		{"{% if x == 'x' %}Y{% endif %}", "Y"},
		{"{% if n == 4.0 %}Y{% endif %}", "Y"},
		{"{% if missing == none %}Y{% endif %}", "Y"},
		{"{% if b %}1{% elif n < 3 %}2{% elif s %}3{% else %}4{% endif %}", "3"},
		{"{% if b %}1{% elif b %}2{% else %}4{% endif %}", "4"},
	}
	e := New()
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			if got := renderString(t, e, c.src, data); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestForLoops(t *testing.T) {
	data := map[string]any{
		"xs":      []int{1, 2},
		"nothing": []string{},
		"m":       map[string]int{"b": 2, "a": 1},
		"pairs":   [][]any{{"x", 1}, {"y", 2}},
	}
	cases := []struct {
		src  string
		want string
	}{
		{"{% for x in xs %}{{ x }}{% empty %}none{% endfor %}", "12"},
		{"{% for x in nothing %}{{ x }}{% empty %}none{% endfor %}", "none"},
		{"{% for x in missing %}{{ x }}{% empty %}none{% endfor %}", "none"},
		{"{% for x in nothing %}{{ x }}{% else %}else{% endfor %}", "else"},
		{"{% for x in xs %}{{ forloop.counter }}/{{ forloop.length }}{% if not forloop.last %},{% endif %}{% endfor %}", "1/2,2/2"},
		{"{% for x in xs %}{{ forloop.counter0 }}{{ forloop.first }}{% endfor %}", "0true1false"},
		{"{% for k, v in m|items %}{{ k }}={{ v }};{% endfor %}", "a=1;b=2;"},
		{"{% for k in m %}{{ k }}{% endfor %}", "ab"},
		{"{% for name, n in pairs %}{{ name }}{{ n }}{% endfor %}", "x1y2"},
		{"{% for a in xs %}{% for b in xs %}{{ forloop.parentloop.counter }}{% endfor %}{% endfor %}", "1122"},
		{"{% for c in 'ab' %}[{{ c }}]{% endfor %}", "[a][b]"},
		{"{% for i in range(3) %}{{ i }}{% endfor %}", "012"},
		{"{% for x in xs %}{% cycle 'odd' 'even' %}{% endfor %}{% for x in xs %}{% cycle 'odd', 'even' %}{% endfor %}", "oddevenoddeven"},
	}
	e := New()
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			if got := renderString(t, e, c.src, data); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestForUnpackMismatch(t *testing.T) {
	tpl, err := New().FromString("{% for a, b in xs %}{% endfor %}", "test.html")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := tpl.Render(map[string]any{"xs": [][]int{{1, 2, 3}}}); err == nil {
		t.Fatalf("want unpack error")
	}
}

func TestCycleAdvancesPerRender(t *testing.T) {
	tpl, err := New().FromString("{% for x in xs %}{% cycle 'a' 'b' 'c' %}{% endfor %}", "test.html")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for i := 0; i < 2; i++ {
		out, err := tpl.Render(map[string]any{"xs": []int{1, 2, 3, 4}})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if out != "abca" {
			t.Fatalf("render %d: got %q", i, out)
		}
	}
}

func TestWithAndPassthrough(t *testing.T) {
	data := map[string]any{"user": user{Name: "Ada"}}
	cases := []struct {
		src  string
		want string
	}{
		{"{% with greeting = 'hi' %}{{ greeting }}{% endwith %}[{{ greeting }}]", "hi[]"},
		{"{% with user.name as n %}{{ n }}{% endwith %}", "Ada"},
		{"{% with n = 1 %}{% with n = 2 %}{{ n }}{% endwith %}{{ n }}{% endwith %}", "21"},
		{"a{% comment %}hidden {{ x }}{% endcomment %}b", "ab"},
		{"{{ lbrace }} x {{ rbrace }}", "{ x }"},
		{"{% lbrace %}{% lbrace %}", "{{"},
	}
	e := New()
	for _, c := range cases {
		if got := renderString(t, e, c.src, data); got != c.want {
			t.Fatalf("%q: got %q, want %q", c.src, got, c.want)
		}
	}
}

func TestNumbersAreLocalized(t *testing.T) {
	de, err := numfmt.Parse("de")
	if err != nil {
		t.Fatalf("parse locale: %v", err)
	}
	e := New(WithLocale(de))
	if got := renderString(t, e, "{{ x }}|{{ x|to2 }}|{{ n }}", map[string]any{"x": 2.5, "n": 1234567}); got != "2,5|2,50|1234567" {
		t.Fatalf("got %q", got)
	}
}

func TestAutoescape(t *testing.T) {
	e := New(WithAutoescape(true))
	data := map[string]any{"s": "<i>"}
	if got := renderString(t, e, "{{ s }}|{{ s|safe }}|{{ s|e }}", data); got != "&lt;i&gt;|<i>|&lt;i&gt;" {
		t.Fatalf("got %q", got)
	}
	if got := renderString(t, New(), "{{ s }}", data); got != "<i>" {
		t.Fatalf("without autoescape got %q", got)
	}
}

type shoutNode struct {
	BaseNode
}

func (n *shoutNode) Render(ctx *Context) (string, error) {
	s, err := RenderNodes(ctx, n.Children())
	return strings.ToUpper(s), err
}

func TestCustomTagAndFilter(t *testing.T) {
	e := New()
	e.RegisterTag(TagSpec{
		Keyword: "shout",
		EndWord: "endshout",
		New: func(p *Parser, tok *Token) (Node, error) {
			return &shoutNode{BaseNode: NewBaseNode(tok)}, nil
		},
	})
	e.RegisterFilter("double", func(v any, _ ...any) (any, error) {
		n, err := toInt(v)
		return n * 2, err
	}, "twice")
	got := renderString(t, e, "{% shout %}hi {{ n|double }}{% endshout %} {{ n|twice }}", map[string]any{"n": 2})
	if got != "HI 4 4" {
		t.Fatalf("got %q", got)
	}

	// Other engines keep the default registries.
	if _, err := New().FromString("{{ n|double }}", "test.html"); err == nil {
		t.Fatalf("filter leaked into a fresh engine")
	}
}
