package tmpl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyNotFound is returned by Context.Lookup when no frame binds a name.
var ErrKeyNotFound = errors.New("key not found in context")

// Location identifies where in a template an error happened.
type Location struct {
	TemplateID string
	Line       int
	Keyword    string
}

func (l Location) String() string {
	var b strings.Builder
	if l.TemplateID == "" {
		b.WriteString("<unknown>")
	} else {
		b.WriteString(l.TemplateID)
	}
	if l.Line > 0 {
		fmt.Fprintf(&b, ", line %d", l.Line)
	}
	if l.Keyword != "" {
		fmt.Fprintf(&b, ", in '%s'", l.Keyword)
	}
	return b.String()
}

// LocatedError is implemented by every error that can be traced back to a
// template position.
type LocatedError interface {
	error
	Location() Location
}

func tokenLocation(tok *Token) Location {
	if tok == nil {
		return Location{}
	}
	return Location{TemplateID: tok.TemplateID, Line: tok.Line, Keyword: tok.Keyword}
}

// LoadError reports a template identifier that no search root contains.
type LoadError struct {
	ID    string
	Roots []string
	Err   error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("template %q not found", e.ID)
	if len(e.Roots) > 0 {
		msg += " in " + strings.Join(e.Roots, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// LexingError reports an unterminated tag.
type LexingError struct {
	TemplateID string
	Line       int
	Msg        string
}

func (e *LexingError) Error() string {
	return fmt.Sprintf("%s: lexing error: %s", e.Location(), e.Msg)
}

func (e *LexingError) Location() Location {
	return Location{TemplateID: e.TemplateID, Line: e.Line}
}

// SyntaxError reports a malformed or mismatched tag found while compiling.
type SyntaxError struct {
	Token *Token
	Msg   string
	Err   error
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s: syntax error: %s", e.Location(), e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyntaxError) Unwrap() error      { return e.Err }
func (e *SyntaxError) Location() Location { return tokenLocation(e.Token) }

// RenderingError wraps any failure raised while rendering a node.
type RenderingError struct {
	Token *Token
	Msg   string
	Err   error
}

func (e *RenderingError) Error() string {
	msg := fmt.Sprintf("%s: rendering error", e.Location())
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderingError) Unwrap() error      { return e.Err }
func (e *RenderingError) Location() Location { return tokenLocation(e.Token) }

// UndefinedVariable is raised in strict mode for a path that cannot be
// resolved. Path is the prefix that failed.
type UndefinedVariable struct {
	Token *Token
	Path  string
}

func (e *UndefinedVariable) Error() string {
	return fmt.Sprintf("%s: undefined variable '%s'", e.Location(), e.Path)
}

func (e *UndefinedVariable) Location() Location { return tokenLocation(e.Token) }

func syntaxErrorf(tok *Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Token: tok, Msg: fmt.Sprintf(format, args...)}
}

func renderErrorf(tok *Token, format string, args ...any) *RenderingError {
	return &RenderingError{Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// locate wraps err as a RenderingError at tok unless it already carries a
// location.
func locate(tok *Token, err error) error {
	if err == nil {
		return nil
	}
	var located LocatedError
	if errors.As(err, &located) {
		return err
	}
	return &RenderingError{Token: tok, Err: err}
}
