package tmpl

import (
	"fmt"
	"strings"
)

// TokenKind distinguishes literal text from tag contents.
type TokenKind int

const (
	TextToken TokenKind = iota
	InstructionToken
)

func (k TokenKind) String() string {
	switch k {
	case TextToken:
		return "TEXT"
	case InstructionToken:
		return "INSTRUCTION"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexical unit of a template. For instructions Text holds the
// trimmed tag contents and Keyword its first word.
type Token struct {
	Kind       TokenKind
	Text       string
	Keyword    string
	TemplateID string
	Line       int
}

func (t *Token) String() string {
	return fmt.Sprintf("%s(%q) at %s:%d", t.Kind, t.Text, t.TemplateID, t.Line)
}

// Args returns the tag text following the keyword.
func (t *Token) Args() string {
	return strings.TrimSpace(t.Text[len(t.Keyword):])
}
