package tmpl

import (
	"maps"
	"slices"
	"time"
)

// source records where a compiled template came from, for reload checks.
type source struct {
	root    int
	id      string
	modTime time.Time
}

// Template is a compiled template. It is read-only after compilation and
// safe to render concurrently.
type Template struct {
	ID      string
	root    *RootNode
	blocks  map[string][]*BlockNode
	order   []string
	engine  *Engine
	sources []source
}

// Root returns the compiled tree.
func (t *Template) Root() Node { return t.root }

// Blocks returns block titles in the order they were first registered.
func (t *Template) Blocks() []string { return slices.Clone(t.order) }

// BlockChain returns every block registered under title, least derived first.
func (t *Template) BlockChain(title string) []*BlockNode {
	return slices.Clone(t.blocks[title])
}

// Render renders the template with data. Bindings in extra take precedence
// over data.
func (t *Template) Render(data map[string]any, extra ...map[string]any) (string, error) {
	merged := make(map[string]any, len(data))
	maps.Copy(merged, data)
	for _, x := range extra {
		maps.Copy(merged, x)
	}
	return RenderNode(NewContext(t, merged), t.root)
}
