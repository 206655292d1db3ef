package tmpl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/neurodesk/pagetmpl/pkg/i18n"
	"github.com/neurodesk/pagetmpl/pkg/numfmt"
)

// inlineID is the template identifier used for sources passed as strings.
const inlineID = "<string>"

// Engine compiles and renders templates. It owns the loader and cache, the
// filter and tag registries and the render settings.
type Engine struct {
	loader     *Loader
	filters    *FilterRegistry
	tags       *TagRegistry
	strict     bool
	autoescape bool
	numbers    *numfmt.Formatter
	translator i18n.Translator
	logger     *slog.Logger

	mu       sync.RWMutex
	builtins map[string]any
}

type Option func(*Engine)

// WithRoots appends search roots. Earlier roots win.
func WithRoots(roots ...Root) Option {
	return func(e *Engine) { e.loader.roots = append(e.loader.roots, roots...) }
}

// WithDirs appends directories as search roots.
func WithDirs(dirs ...string) Option {
	return func(e *Engine) {
		for _, d := range dirs {
			e.loader.roots = append(e.loader.roots, DirRoot(d))
		}
	}
}

// WithReload re-validates cached templates against file modification times
// on every lookup.
func WithReload(reload bool) Option {
	return func(e *Engine) { e.loader.reload = reload }
}

// WithWrapper makes page templates that declare top-level blocks but no
// extends inherit from the named layout.
func WithWrapper(name string) Option {
	return func(e *Engine) {
		if clean, err := cleanID(name); err == nil {
			e.loader.wrapper = clean
		}
	}
}

// WithStrict makes unresolved variables fail with UndefinedVariable.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithAutoescape HTML-escapes printed values that are not Safe.
func WithAutoescape(on bool) Option {
	return func(e *Engine) { e.autoescape = on }
}

// WithLocale sets the number formatter used for printed numbers.
func WithLocale(f *numfmt.Formatter) Option {
	return func(e *Engine) { e.numbers = f }
}

// WithTranslator backs the gettext filters with tr.
func WithTranslator(tr i18n.Translator) Option {
	return func(e *Engine) { e.translator = tr }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine with copies of DefaultFilters, DefaultTags and
// Builtins.
func New(opts ...Option) *Engine {
	e := &Engine{
		filters:  DefaultFilters.Clone(),
		tags:     DefaultTags.Clone(),
		builtins: maps.Clone(Builtins),
		numbers:  numfmt.New(language.English),
		logger:   slog.Default(),
	}
	e.loader = &Loader{engine: e, cache: NewCache()}
	for _, opt := range opts {
		opt(e)
	}
	if e.translator != nil {
		e.filters.Register("gettext", TranslateFilter(e.translator), "_", "trans")
	}
	return e
}

func (e *Engine) Loader() *Loader          { return e.loader }
func (e *Engine) Cache() *Cache            { return e.loader.cache }
func (e *Engine) Filters() *FilterRegistry { return e.filters }
func (e *Engine) Tags() *TagRegistry       { return e.tags }
func (e *Engine) Strict() bool             { return e.strict }
func (e *Engine) Logger() *slog.Logger     { return e.logger }

// RegisterFilter adds a filter to this engine. Templates compiled earlier
// are not affected.
func (e *Engine) RegisterFilter(name string, fn FilterFunc, aliases ...string) {
	e.filters.Register(name, fn, aliases...)
}

// RegisterTag adds a tag to this engine.
func (e *Engine) RegisterTag(spec TagSpec) {
	e.tags.Register(spec)
}

// SetGlobal binds name in the outermost frame of every render.
func (e *Engine) SetGlobal(name string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.builtins[name] = v
}

func (e *Engine) globals() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.builtins)
}

// Load returns the compiled template for id.
func (e *Engine) Load(id string) (*Template, error) {
	return e.loader.Load(id)
}

// FromString compiles src without caching it. id names the template in
// errors; it defaults to "<string>".
func (e *Engine) FromString(src, id string) (*Template, error) {
	if id == "" {
		id = inlineID
	}
	return e.compile(src, id, nil, false)
}

// Render renders a template given either its identifier or its source.
// Arguments containing a tag delimiter or a newline are treated as source.
func (e *Engine) Render(nameOrSource string, data map[string]any, extra ...map[string]any) (string, error) {
	var (
		t   *Template
		err error
	)
	if IsSource(nameOrSource) {
		t, err = e.inline(nameOrSource)
	} else {
		t, err = e.Load(nameOrSource)
	}
	if err != nil {
		return "", err
	}
	return t.Render(data, extra...)
}

// IsSource reports whether s looks like template source rather than an
// identifier.
func IsSource(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%") ||
		strings.Contains(s, "{#") || strings.Contains(s, "\n")
}

func (e *Engine) inline(src string) (*Template, error) {
	key := "string:" + hash(src)
	if t, ok := e.loader.cache.Get(key); ok && (!e.loader.reload || e.loader.fresh(t)) {
		return t, nil
	}
	t, err := e.compile(src, inlineID, nil, false)
	if err != nil {
		return nil, err
	}
	e.loader.cache.Put(key, t)
	return t, nil
}

func hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func (e *Engine) compile(src, id string, chain []string, wrap bool) (*Template, error) {
	p := newParser(e, id, chain)
	root, err := p.parse(src)
	if err != nil {
		return nil, err
	}
	if wrap && needsWrapper(root) {
		name := e.loader.wrapper
		tok := &Token{
			Kind:       InstructionToken,
			Text:       fmt.Sprintf("extends %q", name),
			Keyword:    "extends",
			TemplateID: id,
			Line:       1,
		}
		parent, err := p.Extend(name, tok)
		if err != nil {
			return nil, err
		}
		root.children = append([]Node{newExtendsFor(tok, name, parent)}, root.children...)
	}

	t := &Template{ID: id, root: root, engine: e}
	t.blocks, t.order = collectBlocks(root)
	for _, parent := range p.parents {
		t.sources = append(t.sources, parent.sources...)
	}
	e.logger.Debug("compiled template", "id", id, "blocks", len(t.order))
	return t, nil
}

// needsWrapper reports whether root declares top-level blocks and no parent.
func needsWrapper(root *RootNode) bool {
	hasBlock := false
	for _, c := range root.children {
		switch c.(type) {
		case *ExtendsNode:
			return false
		case *BlockNode:
			hasBlock = true
		}
	}
	return hasBlock
}
