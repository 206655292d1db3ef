package tmpl

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zyedidia/generic/stack"
)

// Parser turns a token stream into a node tree. Tag constructors receive the
// parser to compile their arguments and to load parent templates.
type Parser struct {
	engine   *Engine
	id       string
	chain    []string
	opened   *stack.Stack[Node]
	expected *stack.Stack[string]
	parents  []*Template
}

func newParser(e *Engine, id string, chain []string) *Parser {
	return &Parser{
		engine:   e,
		id:       id,
		chain:    chain,
		opened:   stack.New[Node](),
		expected: stack.New[string](),
	}
}

// Parse compiles src with a fresh Engine that has no search roots, so
// templates using extends or include cannot be rendered from the result.
func Parse(src, templateID string) (Node, error) {
	t, err := New().compile(src, templateID, nil, false)
	if err != nil {
		return nil, err
	}
	return t.root, nil
}

// Current returns the innermost open node.
func (p *Parser) Current() Node { return p.opened.Peek() }

// Depth returns the number of open nodes, counting the root.
func (p *Parser) Depth() int { return p.opened.Size() }

// Expression compiles an expression using the engine's filters.
func (p *Parser) Expression(text string, tok *Token) (*Expression, error) {
	return CompileExpression(text, tok, p.engine.filters)
}

// Conditions compiles a boolean test using the engine's filters.
func (p *Parser) Conditions(text string, tok *Token) (Conditions, error) {
	return CompileConditions(text, tok, p.engine.filters)
}

// Extend loads and compiles the parent template name. Cycles in the extends
// chain are reported as syntax errors.
func (p *Parser) Extend(name string, tok *Token) (*Template, error) {
	name, err := cleanID(name)
	if err != nil {
		return nil, err
	}
	if name == p.id || slices.Contains(p.chain, name) {
		return nil, syntaxErrorf(tok, "circular extends: %s -> %s", p.id, name)
	}
	parent, err := p.engine.loader.load(name, append(slices.Clone(p.chain), p.id), false)
	if err != nil {
		return nil, err
	}
	p.parents = append(p.parents, parent)
	return parent, nil
}

func (p *Parser) parse(src string) (*RootNode, error) {
	tokens, err := Tokenize(src, p.id)
	if err != nil {
		return nil, err
	}
	root := &RootNode{}
	p.opened.Push(root)

	for i := range tokens {
		tok := &tokens[i]
		if tok.Kind == TextToken {
			p.Current().AppendChild(&TextNode{BaseNode: NewBaseNode(tok), Text: tok.Text})
			continue
		}
		if err := p.instruction(tok); err != nil {
			return nil, err
		}
	}

	if p.expected.Size() > 0 {
		open := p.opened.Peek().Token()
		return nil, syntaxErrorf(open,
			"unexpected end of template, expected '%s' to close the '%s' tag opened on line %d",
			p.expected.Peek(), open.Keyword, open.Line)
	}
	return root, nil
}

func (p *Parser) instruction(tok *Token) error {
	if tok.Text == "" {
		return syntaxErrorf(tok, "empty tag")
	}
	tags := p.engine.tags

	if spec, ok := tags.Lookup(tok.Keyword); ok {
		node, err := spec.New(p, tok)
		if err != nil {
			return err
		}
		p.Current().AppendChild(node)
		if spec.EndWord != "" {
			p.opened.Push(node)
			p.expected.Push(spec.EndWord)
		}
		return nil
	}

	if p.expected.Size() > 0 && tok.Keyword == p.expected.Peek() {
		node := p.opened.Pop()
		p.expected.Pop()
		if closer, ok := node.(ScopeCloser); ok {
			return closer.ExitScope(tok)
		}
		return nil
	}

	if opener, ok := tags.opener(tok.Keyword); ok {
		if p.expected.Size() > 0 {
			open := p.opened.Peek().Token()
			return syntaxErrorf(tok, "unexpected '%s', expected '%s' to close the '%s' tag opened on line %d",
				tok.Keyword, p.expected.Peek(), open.Keyword, open.Line)
		}
		return syntaxErrorf(tok, "unexpected '%s' with no open '%s' tag", tok.Keyword, opener)
	}

	node, err := newPrintNode(p, tok)
	if err != nil {
		return p.suggestTag(tok, err)
	}
	p.Current().AppendChild(node)
	return nil
}

// suggestTag adds the closest tag keyword to the error for an instruction
// that is neither a tag nor a valid expression, e.g. "incldue 'a.html'".
func (p *Parser) suggestTag(tok *Token, err error) error {
	var syn *SyntaxError
	if !errors.As(err, &syn) || !strings.HasPrefix(syn.Msg, "invalid expression") ||
		tok.Args() == "" || len(tok.Keyword) < 3 {
		return err
	}
	if s := suggest(tok.Keyword, p.engine.tags.Keywords()); s != "" {
		syn.Msg += fmt.Sprintf(" (did you mean '%s'?)", s)
	}
	return err
}

// argsError is a helper for tag constructors rejecting their arguments.
func argsError(tok *Token, format string, args ...any) error {
	return syntaxErrorf(tok, "'%s' %s", tok.Keyword, fmt.Sprintf(format, args...))
}
