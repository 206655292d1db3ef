// Package i18n provides the message catalogs behind the gettext family of
// template filters.
package i18n

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Translator looks up the translation of a message id.
type Translator interface {
	Translate(key string) string
}

// Identity returns every key unchanged.
type Identity struct{}

func (Identity) Translate(key string) string { return key }

// Catalog is a Translator backed by an x/text message catalog. Missing
// messages translate to their key.
type Catalog struct {
	tag     language.Tag
	builder *catalog.Builder
}

// NewCatalog returns an empty catalog that translates into tag.
func NewCatalog(tag language.Tag) *Catalog {
	return &Catalog{
		tag:     tag,
		builder: catalog.NewBuilder(catalog.Fallback(tag)),
	}
}

// Language reports the target language.
func (c *Catalog) Language() language.Tag { return c.tag }

// Set registers msg as the translation of key for tag.
func (c *Catalog) Set(tag language.Tag, key, msg string) error {
	if err := c.builder.SetString(tag, key, msg); err != nil {
		return fmt.Errorf("setting message %q for %s: %w", key, tag, err)
	}
	return nil
}

// Translate implements Translator.
func (c *Catalog) Translate(key string) string {
	var out collector
	if err := c.builder.Context(c.tag, &out).Execute(key); err != nil {
		return key
	}
	return out.String()
}

// collector receives the rendered message from the catalog.
type collector struct {
	strings.Builder
}

func (c *collector) Render(msg string)     { c.WriteString(msg) }
func (c *collector) Arg(i int) interface{} { return nil }

// LoadYAML reads a document of the form
//
//	de:
//	  Next: Weiter
//	fr:
//	  Next: Suivant
//
// into c. Unknown language keys are an error.
func (c *Catalog) LoadYAML(r io.Reader) error {
	var doc map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding translations: %w", err)
	}
	for lang, messages := range doc {
		tag, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("translations: invalid language %q: %w", lang, err)
		}
		for key, msg := range messages {
			if err := c.Set(tag, key, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadFile is LoadYAML for a file on disk.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.LoadYAML(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
