package tmpl

import "strings"

// The lexer splits template source into TEXT and INSTRUCTION tokens. It knows
// three delimiter pairs: comments {# #} which are dropped, and instructions
// {{ }} and {% %} which are treated identically.

type lexer struct {
	src    string
	id     string
	i      int
	line   int
	tokens []Token
}

// Tokenize scans src and returns its token stream. templateID is recorded on
// every token for error reporting.
func Tokenize(src, templateID string) ([]Token, error) {
	l := &lexer{src: src, id: templateID, line: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) run() error {
	textStart, textLine := 0, 1
	for l.i < len(l.src) {
		closer, ok := l.opening()
		if !ok {
			if l.src[l.i] == '\n' {
				l.line++
			}
			l.i++
			continue
		}

		l.emitText(l.src[textStart:l.i], textLine)
		openLine, comment := l.line, closer == "#}"
		l.i += 2
		end := strings.Index(l.src[l.i:], closer)
		if end < 0 {
			return &LexingError{
				TemplateID: l.id,
				Line:       openLine,
				Msg:        "unterminated '" + closerToOpener(closer) + "' tag",
			}
		}
		inner := l.src[l.i : l.i+end]
		l.line += strings.Count(inner, "\n")
		l.i += end + len(closer)
		if !comment {
			l.emitInstruction(inner, openLine)
		}
		textStart, textLine = l.i, l.line
	}
	l.emitText(l.src[textStart:], textLine)
	return nil
}

// opening reports whether an opening delimiter starts at the current
// position and returns the delimiter that closes it.
func (l *lexer) opening() (string, bool) {
	if l.src[l.i] != '{' || l.i+1 >= len(l.src) {
		return "", false
	}
	switch l.src[l.i+1] {
	case '{':
		return "}}", true
	case '%':
		return "%}", true
	case '#':
		return "#}", true
	}
	return "", false
}

func (l *lexer) emitText(s string, line int) {
	if s == "" {
		return
	}
	l.tokens = append(l.tokens, Token{Kind: TextToken, Text: s, TemplateID: l.id, Line: line})
}

func (l *lexer) emitInstruction(inner string, line int) {
	text := strings.TrimSpace(inner)
	keyword := text
	if i := strings.IndexFunc(text, isSpaceRune); i >= 0 {
		keyword = text[:i]
	}
	l.tokens = append(l.tokens, Token{
		Kind:       InstructionToken,
		Text:       text,
		Keyword:    keyword,
		TemplateID: l.id,
		Line:       line,
	})
}

func closerToOpener(closer string) string {
	switch closer {
	case "}}":
		return "{{"
	case "%}":
		return "{%"
	}
	return "{#"
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
