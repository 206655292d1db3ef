package tmpl

import (
	"bytes"
	"fmt"
	"strings"
)

type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Walk visits n and its descendants in pre-order. Extends nodes lead into the
// parent template's tree.
func Walk(v Visitor, n Node) error {
	if err := v.Visit(n); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := Walk(v, c); err != nil {
			return err
		}
	}
	return nil
}

// Pretty returns a line-oriented string representation of the tree.
func Pretty(n Node) string {
	var buf bytes.Buffer
	ppNode(&buf, 0, n)
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	buf.WriteString(strings.Repeat(" ", indent))
	switch t := n.(type) {
	case *RootNode:
		buf.WriteString("Root\n")
	case *TextNode:
		fmt.Fprintf(buf, "Text(%q)\n", t.Text)
	case *LiteralNode:
		fmt.Fprintf(buf, "Literal(%q)\n", t.Text)
	case *PrintNode:
		fmt.Fprintf(buf, "Print(%q)\n", t.tok.Text)
	case *ForNode:
		fmt.Fprintf(buf, "For(%s in %q)\n", strings.Join(t.names, ", "), t.iterable.String())
		ppBranch(buf, indent, "", t.body)
		ppBranch(buf, indent, "Empty", t.empty)
		return
	case *IfNode:
		fmt.Fprintf(buf, "If(%q)\n", t.tok.Args())
		ppBranch(buf, indent, "", t.then)
		ppBranch(buf, indent, "Else", t.otherwise)
		return
	case *WithNode:
		fmt.Fprintf(buf, "With(%s = %q)\n", t.alias, t.expr.String())
	case *ExtendsNode:
		fmt.Fprintf(buf, "Extends(%q)\n", t.Name)
	case *BlockNode:
		fmt.Fprintf(buf, "Block(%s)\n", t.Title)
	case *IncludeNode:
		fmt.Fprintf(buf, "%s(%q)\n", includeLabel(t), t.name.String())
	case *CycleNode:
		fmt.Fprintf(buf, "Cycle(%q)\n", t.tok.Args())
	case *CommentNode:
		buf.WriteString("Comment\n")
		return
	default:
		fmt.Fprintf(buf, "%T\n", n)
	}
	for _, c := range n.Children() {
		ppNode(buf, indent+2, c)
	}
}

func ppBranch(buf *bytes.Buffer, indent int, label string, nodes []Node) {
	if label != "" {
		if len(nodes) == 0 {
			return
		}
		buf.WriteString(strings.Repeat(" ", indent))
		buf.WriteString(label + "\n")
	}
	for _, c := range nodes {
		ppNode(buf, indent+2, c)
	}
}

func includeLabel(n *IncludeNode) string {
	if n.sibling {
		return "IncludeSibling"
	}
	return "Include"
}
