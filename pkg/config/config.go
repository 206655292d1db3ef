// Package config reads the YAML file that describes a template engine:
// where templates live, how they render, and which translations and
// helpers they can use.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/neurodesk/pagetmpl/pkg/i18n"
	"github.com/neurodesk/pagetmpl/pkg/numfmt"
	"github.com/neurodesk/pagetmpl/pkg/starlark"
	"github.com/neurodesk/pagetmpl/pkg/tmpl"
	v "github.com/neurodesk/pagetmpl/pkg/validator"

	"gopkg.in/yaml.v3"
)

// Config is the decoded configuration file. Relative paths are resolved
// against the directory holding the file.
type Config struct {
	Roots        []string               `yaml:"roots,omitempty"`
	Reload       bool                   `yaml:"reload,omitempty"`
	Strict       bool                   `yaml:"strict,omitempty"`
	Autoescape   bool                   `yaml:"autoescape,omitempty"`
	Wrapper      string                 `yaml:"wrapper,omitempty"`
	Language     string                 `yaml:"language,omitempty"`
	Translations string                 `yaml:"translations,omitempty"`
	Helpers      []string               `yaml:"helpers,omitempty"`
	Templates    map[string]tmpl.String `yaml:"templates,omitempty"`
}

// Load reads, resolves and validates the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a configuration from r, resolving relative paths against
// dir. Unknown keys are rejected.
func Decode(r io.Reader, dir string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.resolve(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, r := range c.Roots {
		c.Roots[i] = abs(r)
	}
	for i, h := range c.Helpers {
		c.Helpers[i] = abs(h)
	}
	c.Translations = abs(c.Translations)
}

func (c *Config) Validate() error {
	if len(c.Roots) == 0 && len(c.Templates) == 0 {
		return errors.New("config needs at least one root or inline template")
	}
	var translations error
	if c.Translations != "" {
		translations = v.FileExists(c.Translations, "translations")
	}
	_, language := numfmt.Parse(c.Language)
	return v.All(
		v.NoDuplicates(c.Roots, "roots"),
		v.Map(c.Roots, v.DirExists, "roots"),
		v.NoDuplicates(c.Helpers, "helpers"),
		v.Map(c.Helpers, v.FileExists, "helpers"),
		v.HasNoTemplateTags(c.Wrapper, "wrapper"),
		language,
		translations,
		v.MapDict(c.Templates, func(name string, _ tmpl.String) error {
			return v.All(
				v.NotEmpty(name, "template name"),
				v.HasNoTemplateTags(name, "template name"),
			)
		}, "templates"),
	)
}

// Engine builds an engine from the configuration. Inline templates are
// searched before the roots and are compiled up front so that syntax errors
// surface here. opts are applied after the configured options.
func (c *Config) Engine(opts ...tmpl.Option) (*tmpl.Engine, error) {
	numbers, err := numfmt.Parse(c.Language)
	if err != nil {
		return nil, err
	}

	var roots []tmpl.Root
	if len(c.Templates) > 0 {
		mem := make(tmpl.MemoryFS, len(c.Templates))
		for name, src := range c.Templates {
			mem[name] = string(src)
		}
		roots = append(roots, tmpl.FSRoot("<config>", mem))
	}
	for _, dir := range c.Roots {
		roots = append(roots, tmpl.DirRoot(dir))
	}

	all := []tmpl.Option{
		tmpl.WithRoots(roots...),
		tmpl.WithReload(c.Reload),
		tmpl.WithStrict(c.Strict),
		tmpl.WithAutoescape(c.Autoescape),
		tmpl.WithLocale(numbers),
	}
	if c.Wrapper != "" {
		all = append(all, tmpl.WithWrapper(c.Wrapper))
	}
	if c.Translations != "" {
		cat := i18n.NewCatalog(numbers.Tag())
		if err := cat.LoadFile(c.Translations); err != nil {
			return nil, fmt.Errorf("loading translations: %w", err)
		}
		all = append(all, tmpl.WithTranslator(cat))
	}
	e := tmpl.New(append(all, opts...)...)

	for _, path := range c.Helpers {
		h, err := starlark.LoadFile(path, e.Logger())
		if err != nil {
			return nil, err
		}
		h.Install(e)
		e.Logger().Debug("installed helpers", "file", path, "names", h.Names())
	}

	if err := v.MapDict(c.Templates, func(_ string, src tmpl.String) error {
		return src.Validate(e)
	}, "templates"); err != nil {
		return nil, err
	}
	return e, nil
}
