package tmpl

import (
	"maps"
	"slices"
	"sync"
)

// TagFunc builds the node for one occurrence of a tag. The node is appended
// to the innermost open node by the parser.
type TagFunc func(p *Parser, tok *Token) (Node, error)

// TagSpec describes a tag. Tags with an EndWord open a scope that the parser
// closes when it meets that word.
type TagSpec struct {
	Keyword string
	EndWord string
	New     TagFunc
}

// TagRegistry maps keywords to tag specs.
type TagRegistry struct {
	mu   sync.RWMutex
	tags map[string]TagSpec
	ends map[string]string
}

func NewTagRegistry() *TagRegistry {
	return &TagRegistry{tags: map[string]TagSpec{}, ends: map[string]string{}}
}

func (r *TagRegistry) Register(spec TagSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[spec.Keyword] = spec
	if spec.EndWord != "" {
		r.ends[spec.EndWord] = spec.Keyword
	}
}

func (r *TagRegistry) Lookup(keyword string) (TagSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tags[keyword]
	return spec, ok
}

// opener returns the keyword whose scope word closes.
func (r *TagRegistry) opener(word string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kw, ok := r.ends[word]
	return kw, ok
}

// Keywords returns the registered keywords in sorted order.
func (r *TagRegistry) Keywords() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tags))
}

func (r *TagRegistry) Clone() *TagRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &TagRegistry{tags: maps.Clone(r.tags), ends: maps.Clone(r.ends)}
}

// DefaultTags holds the tags every new Engine starts with.
var DefaultTags = builtinTags()

// RegisterTag adds a tag to DefaultTags.
func RegisterTag(spec TagSpec) {
	DefaultTags.Register(spec)
}

func builtinTags() *TagRegistry {
	r := NewTagRegistry()
	for _, spec := range []TagSpec{
		{Keyword: "for", EndWord: "endfor", New: newForNode},
		{Keyword: "empty", New: newEmptyNode},
		{Keyword: "if", EndWord: "endif", New: newIfNode},
		{Keyword: "elif", New: newElifNode},
		{Keyword: "else", New: newElseNode},
		{Keyword: "with", EndWord: "endwith", New: newWithNode},
		{Keyword: "extends", New: newExtendsNode},
		{Keyword: "block", EndWord: "endblock", New: newBlockNode},
		{Keyword: "include", New: newIncludeNode},
		{Keyword: "include_sibling", New: newIncludeNode},
		{Keyword: "cycle", New: newCycleNode},
		{Keyword: "comment", EndWord: "endcomment", New: newCommentNode},
		{Keyword: "lbrace", New: literalTag("{")},
		{Keyword: "rbrace", New: literalTag("}")},
	} {
		r.Register(spec)
	}
	return r
}
