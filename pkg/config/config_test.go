package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurodesk/pagetmpl/pkg/tmpl"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadAndBuildEngine(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"site.yaml": `
roots: [templates]
wrapper: layout.html
language: de
translations: messages.yaml
helpers: [helpers.star]
templates:
  greet.html: "{% block main %}{{ 'Hello'|_ }} {{ name|shout }} {{ 2.5 }}{% endblock %}"
`,
		"templates/layout.html": "<main>{% block main %}{% endblock %}</main>",
		"templates/plain.html":  "{{ price|to2 }}",
		"messages.yaml":         "de:\n  Hello: Hallo\n",
		"helpers.star":          "def shout(s):\n    return s.upper() + \"!\"\n",
	})

	cfg, err := Load(filepath.Join(dir, "site.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Roots[0] != filepath.Join(dir, "templates") {
		t.Fatalf("root not resolved: %s", cfg.Roots[0])
	}

	e, err := cfg.Engine()
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, ok := e.Filters().Lookup("shout"); !ok {
		t.Fatalf("helper not registered as a filter")
	}
	out, err := e.Render("greet.html", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<main>Hallo ADA! 2,5</main>"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	out, err = e.Render("plain.html", map[string]any{"price": 3})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "3,00" {
		t.Fatalf("got %q", out)
	}
}

func TestEngineOptionsOverride(t *testing.T) {
	cfg, err := Decode(strings.NewReader("strict: false\ntemplates:\n  a.html: \"{{ missing }}\"\n"), t.TempDir())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	e, err := cfg.Engine(tmpl.WithStrict(true))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if !e.Strict() {
		t.Fatalf("option did not override the configured strict flag")
	}
	if _, err := e.Render("a.html", nil); err == nil {
		t.Fatalf("want undefined variable error in strict mode")
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.txt": "x"})

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", "at least one root"},
		{"unknown key", "roots: [.]\nbogus: 1\n", "field bogus not found"},
		{"missing root", "roots: [nope]\n", "roots[0]"},
		{"root is file", "roots: [file.txt]\n", "not a directory"},
		{"duplicate roots", "roots: [., .]\n", "duplicate"},
		{"bad language", "roots: [.]\nlanguage: \"not a tag!\"\n", "parsing language"},
		{"missing helpers", "roots: [.]\nhelpers: [none.star]\n", "helpers[0]"},
		{"wrapper tags", "roots: [.]\nwrapper: \"{{ x }}\"\n", "wrapper must not contain template tags"},
		{"missing translations", "roots: [.]\ntranslations: none.yaml\n", "translations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml), dir)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInvalidInlineTemplate(t *testing.T) {
	cfg, err := Decode(strings.NewReader("templates:\n  bad.html: \"{% if x %}\"\n"), t.TempDir())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, err = cfg.Engine()
	if err == nil || !strings.Contains(err.Error(), `templates["bad.html"]`) {
		t.Fatalf("got %v", err)
	}
}
