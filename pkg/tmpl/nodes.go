package tmpl

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// RootNode is the synthetic top of every template.
type RootNode struct {
	BaseNode
}

// Render renders the children, or only the extends node when the template
// has a parent. Text outside blocks in a child template is not emitted.
func (n *RootNode) Render(ctx *Context) (string, error) {
	for _, c := range n.children {
		if ext, ok := c.(*ExtendsNode); ok {
			return RenderNode(ctx, ext)
		}
	}
	return RenderNodes(ctx, n.children)
}

// TextNode is literal template text.
type TextNode struct {
	BaseNode
	Text string
}

func (n *TextNode) Render(*Context) (string, error) { return n.Text, nil }

// LiteralNode emits fixed text for tags such as lbrace.
type LiteralNode struct {
	BaseNode
	Text string
}

func (n *LiteralNode) Render(*Context) (string, error) { return n.Text, nil }

func literalTag(text string) TagFunc {
	return func(p *Parser, tok *Token) (Node, error) {
		if tok.Args() != "" {
			return nil, argsError(tok, "takes no arguments")
		}
		return &LiteralNode{BaseNode: NewBaseNode(tok), Text: text}, nil
	}
}

// CommentNode swallows everything up to endcomment.
type CommentNode struct {
	BaseNode
}

func newCommentNode(_ *Parser, tok *Token) (Node, error) {
	return &CommentNode{BaseNode: NewBaseNode(tok)}, nil
}

func (n *CommentNode) Render(*Context) (string, error) { return "", nil }

// PrintNode writes the value of an expression. Besides a plain expression it
// accepts an or-chain `a or b || c`, which yields the first truthy value, and
// a ternary `test ?? a :: b`.
type PrintNode struct {
	BaseNode
	chain   []*Expression
	test    Conditions
	ifTrue  *Expression
	ifFalse *Expression
}

func newPrintNode(p *Parser, tok *Token) (Node, error) {
	n := &PrintNode{BaseNode: NewBaseNode(tok)}
	if parts := splitOp(tok.Text, "??"); len(parts) > 1 {
		if len(parts) > 2 {
			return nil, syntaxErrorf(tok, "ternary takes one '??'")
		}
		branches := splitOp(parts[1], "::")
		if len(branches) != 2 {
			return nil, syntaxErrorf(tok, "ternary expects 'test ?? a :: b'")
		}
		var err error
		if n.test, err = p.Conditions(parts[0], tok); err != nil {
			return nil, err
		}
		if n.ifTrue, err = p.Expression(branches[0], tok); err != nil {
			return nil, err
		}
		if n.ifFalse, err = p.Expression(branches[1], tok); err != nil {
			return nil, err
		}
		return n, nil
	}
	for _, part := range splitOp(tok.Text, "or", "||") {
		e, err := p.Expression(part, tok)
		if err != nil {
			return nil, err
		}
		n.chain = append(n.chain, e)
	}
	return n, nil
}

func (n *PrintNode) Render(ctx *Context) (string, error) {
	v, err := n.value(ctx)
	if err != nil {
		return "", err
	}
	return ctx.display(v), nil
}

func (n *PrintNode) value(ctx *Context) (any, error) {
	if n.test != nil {
		ok, err := n.test.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return n.ifTrue.Eval(ctx)
		}
		return n.ifFalse.Eval(ctx)
	}
	var v any
	for _, e := range n.chain {
		var err error
		if v, err = e.Eval(ctx); err != nil {
			return nil, err
		}
		if Truthy(v) {
			return v, nil
		}
	}
	return v, nil
}

// display converts v to output text: numbers are localised and other values
// are escaped when autoescaping is on.
func (c *Context) display(v any) string {
	switch t := v.(type) {
	case nil, Undefined:
		return ""
	case Safe:
		return string(t)
	case bool:
		return toText(t)
	}
	e := c.engine()
	if s, ok := e.numbers.Format(v); ok {
		return s
	}
	if e.autoescape {
		return html.EscapeString(toText(v))
	}
	return toText(v)
}

// Loop is bound to forloop inside a for body.
type Loop struct {
	Counter0   int
	Counter    int
	Length     int
	First      bool
	Last       bool
	Parentloop any
}

// ForNode iterates over a sequence. Children up to an empty tag form the
// body; the rest render when the sequence is empty.
type ForNode struct {
	BaseNode
	names    []string
	iterable *Expression
	body     []Node
	empty    []Node
}

var loopName = regexp.MustCompile(`^\w+$`)

func newForNode(p *Parser, tok *Token) (Node, error) {
	args := tok.Args()
	i, _, n := indexOp(args, "in")
	if i < 0 {
		return nil, argsError(tok, "expects 'for name in sequence'")
	}
	node := &ForNode{BaseNode: NewBaseNode(tok)}
	for _, name := range strings.Split(args[:i], ",") {
		name = strings.TrimSpace(name)
		if !loopName.MatchString(name) {
			return nil, argsError(tok, "has invalid loop variable %q", name)
		}
		node.names = append(node.names, name)
	}
	var err error
	if node.iterable, err = p.Expression(args[i+n:], tok); err != nil {
		return nil, err
	}
	return node, nil
}

func (n *ForNode) ExitScope(*Token) error {
	n.body = n.children
	for i, c := range n.children {
		if _, ok := c.(*EmptyNode); !ok {
			continue
		}
		for _, rest := range n.children[i+1:] {
			if _, ok := rest.(*EmptyNode); ok {
				return syntaxErrorf(rest.Token(), "'for' takes a single '%s'", rest.Token().Keyword)
			}
		}
		n.body, n.empty = n.children[:i], n.children[i+1:]
		n.children = append(slices.Clone(n.body), n.empty...)
		break
	}
	return nil
}

func (n *ForNode) Render(ctx *Context) (string, error) {
	v, err := n.iterable.Eval(ctx)
	if err != nil {
		return "", err
	}
	items, err := iterate(v)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return RenderNodes(ctx, n.empty)
	}

	parent, _ := ctx.Lookup("forloop")
	ctx.Push(map[string]any{})
	defer ctx.Pop()
	var b strings.Builder
	for i, item := range items {
		ctx.Set("forloop", &Loop{
			Counter0:   i,
			Counter:    i + 1,
			Length:     len(items),
			First:      i == 0,
			Last:       i == len(items)-1,
			Parentloop: parent,
		})
		if err := n.unpack(ctx, item); err != nil {
			return "", err
		}
		s, err := RenderNodes(ctx, n.body)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (n *ForNode) unpack(ctx *Context, item any) error {
	if len(n.names) == 1 {
		ctx.Set(n.names[0], item)
		return nil
	}
	values, err := iterate(item)
	if err != nil {
		return err
	}
	if len(values) != len(n.names) {
		return fmt.Errorf("cannot unpack %d values into %d names", len(values), len(n.names))
	}
	for i, name := range n.names {
		ctx.Set(name, values[i])
	}
	return nil
}

// EmptyNode separates a for body from its empty branch.
type EmptyNode struct {
	BaseNode
}

func newEmptyNode(p *Parser, tok *Token) (Node, error) {
	if _, ok := p.Current().(*ForNode); !ok {
		return nil, syntaxErrorf(tok, "'%s' outside 'for'", tok.Keyword)
	}
	return &EmptyNode{BaseNode: NewBaseNode(tok)}, nil
}

func (n *EmptyNode) Render(*Context) (string, error) { return "", nil }

// iterate lists the items of v. Mappings yield their keys in sorted order
// and strings their characters. nil and Undefined are empty.
func iterate(v any) ([]any, error) {
	if isNone(v) {
		return nil, nil
	}
	if s, ok := toStringValue(v); ok {
		out := make([]any, 0, utf8.RuneCountInString(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out, nil
	}
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		out := make([]any, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			out = append(out, k.Interface())
		}
		sort.Slice(out, func(i, j int) bool { return toText(out[i]) < toText(out[j]) })
		return out, nil
	}
	return nil, fmt.Errorf("%T is not iterable", v)
}

// IfNode renders its first branch when the test holds, otherwise the second.
// An elif becomes a nested IfNode in the second branch.
type IfNode struct {
	BaseNode
	test      Conditions
	then      []Node
	otherwise []Node
}

func newIfNode(p *Parser, tok *Token) (Node, error) {
	test, err := p.Conditions(tok.Args(), tok)
	if err != nil {
		return nil, err
	}
	return &IfNode{BaseNode: NewBaseNode(tok), test: test}, nil
}

func (n *IfNode) ExitScope(*Token) error {
	return n.partition()
}

func (n *IfNode) partition() error {
	n.then = n.children
	for i, c := range n.children {
		switch m := c.(type) {
		case *ElifNode:
			nested := &IfNode{BaseNode: NewBaseNode(m.tok), test: m.test}
			nested.children = slices.Clone(n.children[i+1:])
			if err := nested.partition(); err != nil {
				return err
			}
			n.then, n.otherwise = n.children[:i], []Node{nested}
			n.children = append(slices.Clone(n.then), nested)
			return nil
		case *ElseNode:
			rest := n.children[i+1:]
			for _, r := range rest {
				switch r.(type) {
				case *ElifNode, *ElseNode:
					return syntaxErrorf(r.Token(), "'%s' after 'else'", r.Token().Keyword)
				}
			}
			n.then, n.otherwise = n.children[:i], rest
			n.children = append(slices.Clone(n.then), rest...)
			return nil
		}
	}
	return nil
}

func (n *IfNode) Render(ctx *Context) (string, error) {
	ok, err := n.test.Eval(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return RenderNodes(ctx, n.then)
	}
	return RenderNodes(ctx, n.otherwise)
}

// ElifNode marks the start of an elif branch until the enclosing if closes.
type ElifNode struct {
	BaseNode
	test Conditions
}

func newElifNode(p *Parser, tok *Token) (Node, error) {
	if _, ok := p.Current().(*IfNode); !ok {
		return nil, syntaxErrorf(tok, "'elif' outside 'if'")
	}
	test, err := p.Conditions(tok.Args(), tok)
	if err != nil {
		return nil, err
	}
	return &ElifNode{BaseNode: NewBaseNode(tok), test: test}, nil
}

func (n *ElifNode) Render(*Context) (string, error) { return "", nil }

// ElseNode marks the else branch of an if. Inside a for it acts as empty.
type ElseNode struct {
	BaseNode
}

func newElseNode(p *Parser, tok *Token) (Node, error) {
	switch p.Current().(type) {
	case *IfNode:
		return &ElseNode{BaseNode: NewBaseNode(tok)}, nil
	case *ForNode:
		return &EmptyNode{BaseNode: NewBaseNode(tok)}, nil
	}
	return nil, syntaxErrorf(tok, "'else' outside 'if'")
}

func (n *ElseNode) Render(*Context) (string, error) { return "", nil }

// WithNode binds an alias for the duration of its body.
type WithNode struct {
	BaseNode
	alias string
	expr  *Expression
}

var (
	withAssign = regexp.MustCompile(`(?s)^(\w+)\s*=\s*(.+)$`)
	withAs     = regexp.MustCompile(`(?s)^(.+?)\s+as\s+(\w+)$`)
)

func newWithNode(p *Parser, tok *Token) (Node, error) {
	args := tok.Args()
	var alias, text string
	if m := withAssign.FindStringSubmatch(args); m != nil {
		alias, text = m[1], m[2]
	} else if m := withAs.FindStringSubmatch(args); m != nil {
		alias, text = m[2], m[1]
	} else {
		return nil, argsError(tok, "expects 'with name = expr' or 'with expr as name'")
	}
	expr, err := p.Expression(text, tok)
	if err != nil {
		return nil, err
	}
	return &WithNode{BaseNode: NewBaseNode(tok), alias: alias, expr: expr}, nil
}

func (n *WithNode) Render(ctx *Context) (string, error) {
	v, err := n.expr.Eval(ctx)
	if err != nil {
		return "", err
	}
	ctx.Push(map[string]any{n.alias: v})
	defer ctx.Pop()
	return RenderNodes(ctx, n.children)
}

// CycleNode emits its values in turn on each render within one Context.
type CycleNode struct {
	BaseNode
	values []*Expression
}

func newCycleNode(p *Parser, tok *Token) (Node, error) {
	n := &CycleNode{BaseNode: NewBaseNode(tok)}
	for _, text := range fieldsTop(tok.Args()) {
		e, err := p.Expression(text, tok)
		if err != nil {
			return nil, err
		}
		n.values = append(n.values, e)
	}
	if len(n.values) == 0 {
		return nil, argsError(tok, "needs at least one value")
	}
	return n, nil
}

func (n *CycleNode) Render(ctx *Context) (string, error) {
	i, _ := ctx.Stash[n].(int)
	ctx.Stash[n] = i + 1
	v, err := n.values[i%len(n.values)].Eval(ctx)
	if err != nil {
		return "", err
	}
	return ctx.display(v), nil
}

// fieldsTop splits s on top-level whitespace and commas.
func fieldsTop(s string) []string {
	var out []string
	var sc scanner
	start := -1
	for i := 0; i < len(s); i++ {
		top := sc.step(s[i])
		sep := top && (isSpace(s[i]) || s[i] == ',')
		switch {
		case sep && start >= 0:
			out = append(out, s[start:i])
			start = -1
		case !sep && start < 0:
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
