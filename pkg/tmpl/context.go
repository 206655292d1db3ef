package tmpl

import "strings"

// Context is the mutable state of one render: a stack of variable frames,
// a stash for tags that keep state across invocations, and the template whose
// block registry is in effect.
type Context struct {
	frames   []map[string]any
	template *Template
	depth    int

	// Stash is render-local storage keyed by the tag that owns the entry.
	Stash map[any]any
}

// NewContext creates a context for rendering t. The outermost frame holds the
// engine's globals, followed by data.
func NewContext(t *Template, data map[string]any) *Context {
	if data == nil {
		data = map[string]any{}
	}
	return &Context{
		frames:   []map[string]any{t.engine.globals(), data},
		template: t,
		Stash:    map[any]any{},
	}
}

// Template returns the template whose blocks are being rendered.
func (c *Context) Template() *Template { return c.template }

// Push adds an innermost frame.
func (c *Context) Push(frame map[string]any) {
	c.frames = append(c.frames, frame)
}

// Pop removes the innermost frame.
func (c *Context) Pop() {
	if len(c.frames) > 0 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// Set binds name in the innermost frame.
func (c *Context) Set(name string, v any) {
	c.frames[len(c.frames)-1][name] = v
}

// Lookup finds name in the innermost frame that binds it.
func (c *Context) Lookup(name string) (any, error) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i][name]; ok {
			return v, nil
		}
	}
	return nil, ErrKeyNotFound
}

// Resolve evaluates a dotted path. When a word cannot be resolved it returns
// an UndefinedVariable naming the path up to and including that word.
func (c *Context) Resolve(path string, tok *Token) (any, error) {
	words := strings.Split(path, ".")
	cur, err := c.Lookup(words[0])
	if err != nil {
		return nil, &UndefinedVariable{Token: tok, Path: words[0]}
	}
	for i, w := range words[1:] {
		v, ok := lookupWord(cur, w)
		if !ok {
			return nil, &UndefinedVariable{Token: tok, Path: strings.Join(words[:i+2], ".")}
		}
		cur = v
	}
	return cur, nil
}

// IsDefined reports whether path resolves.
func (c *Context) IsDefined(path string) bool {
	_, err := c.Resolve(path, nil)
	return err == nil
}

func (c *Context) engine() *Engine { return c.template.engine }

func (c *Context) strict() bool { return c.template.engine.strict }
