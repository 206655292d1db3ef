package tmpl

import (
	"regexp"
	"slices"
)

// ExtendsNode splices the compiled root of the parent template in as its
// only child. The child template's blocks sit beside it in the root.
type ExtendsNode struct {
	BaseNode
	Name   string
	parent *Template
}

func newExtendsNode(p *Parser, tok *Token) (Node, error) {
	if p.Depth() != 1 {
		return nil, syntaxErrorf(tok, "'extends' must be a top-level tag")
	}
	for _, c := range p.Current().Children() {
		if _, ok := c.(*ExtendsNode); ok {
			return nil, syntaxErrorf(tok, "template may extend only one parent")
		}
	}
	for _, c := range p.Current().Children() {
		switch c.(type) {
		case *TextNode, *CommentNode:
		default:
			return nil, syntaxErrorf(tok, "'extends' must come before any other tag (line %d)", c.Token().Line)
		}
	}
	e, err := p.Expression(tok.Args(), tok)
	if err != nil {
		return nil, err
	}
	name, ok := e.Value().(string)
	if !e.IsLiteral() || !ok || name == "" {
		return nil, argsError(tok, "expects a quoted template name")
	}
	parent, err := p.Extend(name, tok)
	if err != nil {
		return nil, err
	}
	return newExtendsFor(tok, name, parent), nil
}

func newExtendsFor(tok *Token, name string, parent *Template) *ExtendsNode {
	n := &ExtendsNode{BaseNode: NewBaseNode(tok), Name: name, parent: parent}
	n.children = []Node{parent.root}
	return n
}

// Parent returns the compiled parent template.
func (n *ExtendsNode) Parent() *Template { return n.parent }

func (n *ExtendsNode) Render(ctx *Context) (string, error) {
	return RenderNodes(ctx, n.children)
}

// BlockNode is an overridable section. Every block of a title in the
// inheritance chain is registered in walk order; the first one registered
// renders the most derived override, and super renders the next one up.
type BlockNode struct {
	BaseNode
	Title string
}

var blockTitle = regexp.MustCompile(`^\w+$`)

func newBlockNode(_ *Parser, tok *Token) (Node, error) {
	title := tok.Args()
	if !blockTitle.MatchString(title) {
		return nil, argsError(tok, "expects a single name, got %q", title)
	}
	return &BlockNode{BaseNode: NewBaseNode(tok), Title: title}, nil
}

func (n *BlockNode) ExitScope(closing *Token) error {
	if args := closing.Args(); args != "" && args != n.Title {
		return syntaxErrorf(closing, "'%s %s' closes block '%s'", closing.Keyword, args, n.Title)
	}
	return nil
}

func (n *BlockNode) Render(ctx *Context) (string, error) {
	chain := ctx.Template().blocks[n.Title]
	switch slices.Index(chain, n) {
	case -1:
		// A block reached outside the current registry, e.g. from a partial.
		return renderBlockChain(ctx, []*BlockNode{n})
	case 0:
		return renderBlockChain(ctx, slices.Clone(chain))
	}
	return "", nil
}

// renderBlockChain renders the last block of chain with super bound to the
// rest of it.
func renderBlockChain(ctx *Context, chain []*BlockNode) (string, error) {
	if len(chain) == 0 {
		return "", nil
	}
	last, rest := chain[len(chain)-1], chain[:len(chain)-1]
	super := Func(func(...any) (any, error) {
		s, err := renderBlockChain(ctx, rest)
		return Safe(s), err
	})
	ctx.Push(map[string]any{"super": super})
	defer ctx.Pop()
	return RenderNodes(ctx, last.children)
}

// collectBlocks walks root in pre-order and groups blocks by title.
func collectBlocks(root Node) (map[string][]*BlockNode, []string) {
	blocks := map[string][]*BlockNode{}
	var order []string
	_ = Walk(VisitorFunc(func(n Node) error {
		if b, ok := n.(*BlockNode); ok {
			if _, seen := blocks[b.Title]; !seen {
				order = append(order, b.Title)
			}
			blocks[b.Title] = append(blocks[b.Title], b)
		}
		return nil
	}), root)
	return blocks, order
}
