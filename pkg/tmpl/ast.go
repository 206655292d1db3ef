package tmpl

import (
	"fmt"
	"strings"
)

// Node is one element of a compiled template. Applications add tags by
// implementing Node, usually by embedding BaseNode, and registering a TagSpec.
type Node interface {
	Token() *Token
	Children() []Node
	AppendChild(Node)
	Render(ctx *Context) (string, error)
}

// ScopeCloser is implemented by nodes that need to reorganise their children
// once their closing tag has been read.
type ScopeCloser interface {
	ExitScope(closing *Token) error
}

// BaseNode holds the producing token and the child list.
type BaseNode struct {
	tok      *Token
	children []Node
}

func NewBaseNode(tok *Token) BaseNode { return BaseNode{tok: tok} }

func (n *BaseNode) Token() *Token      { return n.tok }
func (n *BaseNode) Children() []Node   { return n.children }
func (n *BaseNode) AppendChild(c Node) { n.children = append(n.children, c) }

// RenderNode renders n, converting any unlocated error or panic into a
// RenderingError at n's token.
func RenderNode(ctx *Context, n Node) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", &RenderingError{Token: n.Token(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = n.Render(ctx)
	if err != nil {
		return "", locate(n.Token(), err)
	}
	return out, nil
}

// RenderNodes renders nodes in order and concatenates the output.
func RenderNodes(ctx *Context, nodes []Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		s, err := RenderNode(ctx, n)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
