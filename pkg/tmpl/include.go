package tmpl

import (
	"path"
	"regexp"
	"strings"
)

const maxIncludeDepth = 64

type binding struct {
	name string
	expr *Expression
}

// IncludeNode renders another template in place with extra bindings. The
// include_sibling form resolves the name next to the including template.
type IncludeNode struct {
	BaseNode
	name     *Expression
	bindings []binding
	sibling  bool
}

var bindingName = regexp.MustCompile(`^(\w+)\s*=\s*`)

func newIncludeNode(p *Parser, tok *Token) (Node, error) {
	n := &IncludeNode{BaseNode: NewBaseNode(tok), sibling: tok.Keyword == "include_sibling"}
	args := tok.Args()
	nameText, bindText := args, ""
	if i, _, w := indexOp(args, "with"); i >= 0 {
		nameText, bindText = args[:i], args[i+w:]
	}
	var err error
	if n.name, err = p.Expression(nameText, tok); err != nil {
		return nil, err
	}
	if n.sibling && n.name.IsLiteral() {
		name, ok := n.name.Value().(string)
		if !ok {
			return nil, argsError(tok, "expects a template name")
		}
		if strings.ContainsAny(name, `/\`) {
			return nil, argsError(tok, "takes a bare file name, got %q", name)
		}
	}
	if n.bindings, err = parseBindings(p, bindText, tok); err != nil {
		return nil, err
	}
	return n, nil
}

func parseBindings(p *Parser, s string, tok *Token) ([]binding, error) {
	var out []binding
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimLeft(s, " \t\r\n,") {
		m := bindingName.FindStringSubmatch(s)
		if m == nil {
			return nil, argsError(tok, "expects name=value bindings, got %q", s)
		}
		s = s[len(m[0]):]
		end := valueEnd(s)
		expr, err := p.Expression(s[:end], tok)
		if err != nil {
			return nil, err
		}
		out = append(out, binding{name: m[1], expr: expr})
		s = s[end:]
	}
	return out, nil
}

// valueEnd finds the first top-level whitespace or comma in s.
func valueEnd(s string) int {
	var sc scanner
	for i := 0; i < len(s); i++ {
		if sc.step(s[i]) && (isSpace(s[i]) || s[i] == ',') {
			return i
		}
	}
	return len(s)
}

func (n *IncludeNode) Render(ctx *Context) (string, error) {
	v, err := n.name.Eval(ctx)
	if err != nil {
		return "", err
	}
	name, ok := toStringValue(v)
	if !ok || name == "" {
		return "", renderErrorf(n.tok, "template name must be a string, got %T", v)
	}
	if n.sibling {
		if strings.ContainsAny(name, `/\`) {
			return "", renderErrorf(n.tok, "sibling name %q contains a path separator", name)
		}
		name = path.Join(path.Dir(n.tok.TemplateID), name)
	}
	if ctx.depth >= maxIncludeDepth {
		return "", renderErrorf(n.tok, "includes nested deeper than %d", maxIncludeDepth)
	}

	t, err := ctx.engine().loader.load(name, nil, false)
	if err != nil {
		return "", err
	}
	frame := make(map[string]any, len(n.bindings))
	for _, b := range n.bindings {
		if frame[b.name], err = b.expr.Eval(ctx); err != nil {
			return "", err
		}
	}

	prev := ctx.template
	ctx.Push(frame)
	ctx.template = t
	ctx.depth++
	defer func() {
		ctx.depth--
		ctx.template = prev
		ctx.Pop()
	}()
	return RenderNode(ctx, t.root)
}
