package starlark

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neurodesk/pagetmpl/pkg/tmpl"
)

const helperSrc = `
RATE = 2

def shout(s, suffix="!"):
    return s.upper() + suffix

def initials(names):
    return "".join([n[0] for n in names])

def money(x):
    return x * RATE

def boom(x):
    fail("boom: " + str(x))

def chatty():
    print("hello")
    return "ok"

def _private():
    return None
`

func loadHelpers(t *testing.T, logger *slog.Logger) *Helpers {
	t.Helper()
	h, err := Load("helpers.star", helperSrc, logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

func TestNames(t *testing.T) {
	h := loadHelpers(t, nil)
	want := []string{"boom", "chatty", "initials", "money", "shout"}
	if diff := cmp.Diff(want, h.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestCall(t *testing.T) {
	h := loadHelpers(t, nil)
	tests := []struct {
		name string
		args []any
		want any
	}{
		{"shout", []any{"hi"}, "HI!"},
		{"shout", []any{tmpl.Safe("hi"), "?"}, "HI?"},
		{"initials", []any{[]string{"Ada", "Bob"}}, "AB"},
		{"money", []any{21}, 42},
		{"money", []any{1.5}, 3.0},
	}
	for _, tt := range tests {
		got, err := h.Call(tt.name, tt.args...)
		if err != nil {
			t.Fatalf("%s%v: %v", tt.name, tt.args, err)
		}
		if got != tt.want {
			t.Errorf("%s%v = %#v, want %#v", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestCallErrors(t *testing.T) {
	h := loadHelpers(t, nil)
	if _, err := h.Call("_private"); err == nil {
		t.Fatalf("private helpers must not be callable")
	}
	_, err := h.Call("boom", 7)
	if err == nil || !strings.Contains(err.Error(), "boom: 7") {
		t.Fatalf("got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("bad.star", "def (", nil); err == nil {
		t.Fatalf("want syntax error")
	}
	if _, err := LoadFile(t.TempDir()+"/missing.star", nil); err == nil {
		t.Fatalf("want read error")
	}
}

func TestPrintAndFallbackAreLogged(t *testing.T) {
	var buf bytes.Buffer
	h := loadHelpers(t, slog.New(slog.NewTextHandler(&buf, nil)))

	if _, err := h.Call("chatty"); err != nil {
		t.Fatalf("chatty: %v", err)
	}
	if !strings.Contains(buf.String(), "text=hello") {
		t.Fatalf("print not logged: %q", buf.String())
	}

	type point struct{ X, Y int }
	got, err := h.Call("shout", point{1, 2})
	if err != nil {
		t.Fatalf("shout: %v", err)
	}
	if got != "{1 2}!" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("conversion fallback not logged: %q", buf.String())
	}
}

func TestInstall(t *testing.T) {
	h := loadHelpers(t, nil)
	e := tmpl.New()
	h.Install(e)

	out, err := e.Render("{{ name|shout }} {{ name|shout('?') }} {{ shout('yo') }} {{ people|initials }} {{ 21|money }}",
		map[string]any{"name": "ada", "people": []any{"Ada", "Bob"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "ADA! ADA? YO! AB 42"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}

	_, err = e.Render("{{ n|boom }}", map[string]any{"n": 1})
	var rerr *tmpl.RenderingError
	if !errors.As(err, &rerr) {
		t.Fatalf("want RenderingError, got %v", err)
	}
}

func TestConversion(t *testing.T) {
	in := map[string]any{
		"list":   []any{1, "x", true, nil},
		"nested": map[string]any{"f": 0.5},
		"undef":  tmpl.Undefined{Path: "u"},
	}
	sv, err := ToStarlark(in)
	if err != nil {
		t.Fatalf("to starlark: %v", err)
	}
	want := map[string]any{
		"list":   []any{1, "x", true, nil},
		"nested": map[string]any{"f": 0.5},
		"undef":  nil,
	}
	if diff := cmp.Diff(want, FromStarlark(sv)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := ToStarlark(struct{}{}); err == nil {
		t.Fatalf("want error for struct")
	}
}
