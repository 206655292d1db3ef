package tmpl

import (
	"fmt"
	"reflect"
	"strings"
)

type operator string

const (
	opNone  operator = ""
	opEq    operator = "=="
	opNe    operator = "!="
	opLe    operator = "<="
	opGe    operator = ">="
	opLt    operator = "<"
	opGt    operator = ">"
	opIn    operator = "in"
	opNotIn operator = "not in"
)

// Order matters: two-character operators must be tried before their prefixes.
var operators = []string{string(opNotIn), string(opIn), "==", "!=", "<=", ">=", "<", ">"}

type condition struct {
	negated bool
	left    *Expression
	op      operator
	right   *Expression
}

// Conditions is a compiled boolean test: OR-groups of AND-lists.
type Conditions [][]condition

// CompileConditions compiles a test such as `a and not b or x in y`.
func CompileConditions(text string, tok *Token, reg *FilterRegistry) (Conditions, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, syntaxErrorf(tok, "missing condition")
	}
	var out Conditions
	for _, group := range splitOp(text, "or", "||") {
		var conds []condition
		for _, part := range splitOp(group, "and", "&&") {
			c, err := compileCondition(part, tok, reg)
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		out = append(out, conds)
	}
	return out, nil
}

func compileCondition(text string, tok *Token, reg *FilterRegistry) (condition, error) {
	var c condition
	if text == "" {
		return c, syntaxErrorf(tok, "empty condition")
	}
	text, c.negated = cutPrefixWord(text, "not")
	i, op, n := indexOp(text, operators...)
	if i < 0 {
		left, err := CompileExpression(text, tok, reg)
		c.left = left
		return c, err
	}
	c.op = operator(op)
	lhs, rhs := strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+n:])
	if lhs == "" || rhs == "" {
		return c, syntaxErrorf(tok, "operator '%s' needs two operands", op)
	}
	var err error
	if c.left, err = CompileExpression(lhs, tok, reg); err != nil {
		return c, err
	}
	if c.right, err = CompileExpression(rhs, tok, reg); err != nil {
		return c, err
	}
	return c, nil
}

// Eval reports whether any group has all of its conditions satisfied.
func (cs Conditions) Eval(ctx *Context) (bool, error) {
	for _, group := range cs {
		ok := true
		for _, c := range group {
			v, err := c.eval(ctx)
			if err != nil {
				return false, err
			}
			if !v {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c condition) eval(ctx *Context) (bool, error) {
	left, err := c.left.Eval(ctx)
	if err != nil {
		return false, err
	}
	var result bool
	if c.op == opNone {
		result = Truthy(left)
	} else {
		right, err := c.right.Eval(ctx)
		if err != nil {
			return false, err
		}
		if result, err = compare(c.op, left, right); err != nil {
			return false, renderErrorf(c.left.tok, "%s %s %s: %v", c.left, c.op, c.right, err)
		}
	}
	return result != c.negated, nil
}

func compare(op operator, a, b any) (bool, error) {
	switch op {
	case opEq:
		return equalValues(a, b), nil
	case opNe:
		return !equalValues(a, b), nil
	case opIn:
		return contains(b, a)
	case opNotIn:
		in, err := contains(b, a)
		return !in, err
	}
	cmp, err := order(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case opLt:
		return cmp < 0, nil
	case opGt:
		return cmp > 0, nil
	case opLe:
		return cmp <= 0, nil
	case opGe:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func isNone(v any) bool {
	switch v.(type) {
	case nil, Undefined:
		return true
	}
	return false
}

func equalValues(a, b any) bool {
	if isNone(a) || isNone(b) {
		return isNone(a) && isNone(b)
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
	}
	if x, ok := toStringValue(a); ok {
		y, ok := toStringValue(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func order(a, b any) (int, error) {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	}
	if x, ok := toStringValue(a); ok {
		if y, ok := toStringValue(b); ok {
			return strings.Compare(x, y), nil
		}
	}
	return 0, fmt.Errorf("cannot order %T and %T", a, b)
}

func contains(container, item any) (bool, error) {
	if isNone(container) {
		return false, nil
	}
	if s, ok := toStringValue(container); ok {
		sub, ok := toStringValue(item)
		if !ok {
			return false, fmt.Errorf("'in <string>' requires a string, got %T", item)
		}
		return strings.Contains(s, sub), nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equalValues(rv.Index(i).Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		key, ok := toStringValue(item)
		if !ok {
			key = toText(item)
		}
		_, found := lookupKey(container, key)
		return found, nil
	}
	return false, fmt.Errorf("%T is not a container", container)
}
