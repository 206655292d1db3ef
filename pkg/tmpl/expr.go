package tmpl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	pathPattern   = regexp.MustCompile(`^[\w.]+$`)
	callPattern   = regexp.MustCompile(`(?s)^([\w.]+)\((.*)\)$`)
	filterPattern = regexp.MustCompile(`(?s)^(\w+)(?:\((.*)\))?$`)
)

type filterCall struct {
	name string
	fn   FilterFunc
	args []any
}

// Expression is a compiled value expression: a literal, or a dotted path with
// optional call arguments, followed by a pipeline of filters.
type Expression struct {
	tok     *Token
	text    string
	literal bool
	value   any
	path    string
	call    bool
	args    []any
	filters []filterCall
}

// CompileExpression compiles text using the filters in reg. Filters applied
// to a literal are evaluated immediately.
func CompileExpression(text string, tok *Token, reg *FilterRegistry) (*Expression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, syntaxErrorf(tok, "empty expression")
	}
	e := &Expression{tok: tok, text: text}

	segments := splitTop(text, '|')
	primary := segments[0]
	if v, ok := parseLiteral(primary); ok {
		e.literal, e.value = true, v
	} else if m := callPattern.FindStringSubmatch(primary); m != nil {
		args, err := parseArgs(m[2])
		if err != nil {
			return nil, &SyntaxError{Token: tok, Msg: fmt.Sprintf("invalid call %q", primary), Err: err}
		}
		e.path, e.call, e.args = m[1], true, args
	} else if pathPattern.MatchString(primary) {
		e.path = primary
	} else {
		return nil, syntaxErrorf(tok, "invalid expression %q", primary)
	}

	for _, seg := range segments[1:] {
		m := filterPattern.FindStringSubmatch(seg)
		if m == nil {
			return nil, syntaxErrorf(tok, "invalid filter %q", seg)
		}
		fn, ok := reg.Lookup(m[1])
		if !ok {
			msg := fmt.Sprintf("unrecognised filter name '%s'", m[1])
			if s := reg.suggest(m[1]); s != "" {
				msg += fmt.Sprintf(" (did you mean '%s'?)", s)
			}
			return nil, syntaxErrorf(tok, "%s", msg)
		}
		args, err := parseArgs(m[2])
		if err != nil {
			return nil, &SyntaxError{Token: tok, Msg: fmt.Sprintf("invalid arguments to filter '%s'", m[1]), Err: err}
		}
		e.filters = append(e.filters, filterCall{name: m[1], fn: fn, args: args})
	}

	if e.literal {
		v, err := e.applyFilters(e.value)
		if err != nil {
			return nil, &SyntaxError{Token: tok, Msg: "folding literal", Err: err}
		}
		e.value, e.filters = v, nil
	}
	return e, nil
}

func (e *Expression) String() string { return e.text }

// IsLiteral reports whether the expression is a constant.
func (e *Expression) IsLiteral() bool { return e.literal }

// Value returns the folded constant of a literal expression.
func (e *Expression) Value() any { return e.value }

// Eval evaluates the expression against ctx.
func (e *Expression) Eval(ctx *Context) (any, error) {
	if e.literal {
		return e.value, nil
	}
	v, err := e.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if e.call {
		if !isCallable(v) {
			return nil, renderErrorf(e.tok, "'%s' is not callable", e.path)
		}
		if v, err = invoke(e.path, v, e.args); err != nil {
			return nil, &RenderingError{Token: e.tok, Msg: fmt.Sprintf("calling '%s'", e.path), Err: err}
		}
	} else if isInvocable(v) {
		if v, err = invoke(e.path, v, nil); err != nil {
			return nil, &RenderingError{Token: e.tok, Msg: fmt.Sprintf("calling '%s'", e.path), Err: err}
		}
	}
	return e.applyFilters(v)
}

func (e *Expression) resolve(ctx *Context) (any, error) {
	if len(e.filters) > 0 && e.filters[0].name == "default" && !ctx.IsDefined(e.path) {
		return Undefined{Path: e.path}, nil
	}
	v, err := ctx.Resolve(e.path, e.tok)
	var undef *UndefinedVariable
	if errors.As(err, &undef) && !ctx.strict() {
		ctx.engine().logger.Debug("undefined variable", "path", undef.Path, "at", tokenLocation(e.tok).String())
		return Undefined{Path: undef.Path}, nil
	}
	return v, err
}

func (e *Expression) applyFilters(v any) (any, error) {
	for _, f := range e.filters {
		out, err := f.fn(v, f.args...)
		if err != nil {
			return nil, &RenderingError{Token: e.tok, Msg: fmt.Sprintf("filter '%s' failed", f.name), Err: err}
		}
		v = out
	}
	return v, nil
}
