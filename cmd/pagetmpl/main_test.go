package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"n=3", "f=2.5", "ok=true", "name=ada", "list=[1,\"x\"]", "eq=a=b"})
	if err != nil {
		t.Fatalf("parseSets: %v", err)
	}
	want := map[string]any{
		"n":    3,
		"f":    2.5,
		"ok":   true,
		"name": "ada",
		"list": []any{1, "x"},
		"eq":   "a=b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseSets([]string{"novalue"}); err == nil {
		t.Fatalf("want error for missing '='")
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "d.json")
	yamlPath := filepath.Join(dir, "d.yaml")
	if err := os.WriteFile(jsonPath, []byte(`{"items": [1, 2], "user": {"name": "ada"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("items: [1, 2]\nuser:\n  name: ada\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"items": []any{1, 2},
		"user":  map[string]any{"name": "ada"},
	}
	for _, path := range []string{jsonPath, yamlPath} {
		got, err := loadData(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, roots, verbose = "", nil, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"base.html": "<h1>{% block title %}Base{% endblock %}</h1>",
		"page.html": "{% extends 'base.html' %}{% block title %}{{ name }}{% endblock %}",
		"bad.html":  "{% for x in xs %}",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "render", "--root", dir, "--set", "name=Ada", "page.html")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<h1>Ada</h1>" {
		t.Fatalf("render output %q", out)
	}

	out, err = execute(t, "blocks", "--root", dir, "page.html")
	if err != nil {
		t.Fatalf("blocks: %v", err)
	}
	if out != "title\tbase.html > page.html\n" {
		t.Fatalf("blocks output %q", out)
	}

	out, err = execute(t, "check", "--root", dir, "page.html", "bad.html")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 templates failed") {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "ok   page.html") || !strings.Contains(out, "FAIL bad.html, line 1") {
		t.Fatalf("check output %q", out)
	}

	out, err = execute(t, "syntax", "--root", dir)
	if err != nil {
		t.Fatalf("syntax: %v", err)
	}
	if !strings.Contains(out, " include_sibling ") || !strings.Contains(out, " striptags ") {
		t.Fatalf("syntax output %q", out)
	}

	if _, err := execute(t, "tree", "page.html"); err == nil {
		t.Fatalf("want error without roots")
	}
}
