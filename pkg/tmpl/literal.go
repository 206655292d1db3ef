package tmpl

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLiteral parses s as a literal value: a number, quoted string,
// boolean, none, or a list or tuple of literals.
func parseLiteral(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	switch s {
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	case "none", "None", "null":
		return nil, true
	}
	switch c := s[0]; {
	case c == '\'' || c == '"':
		return parseQuoted(s)
	case c == '[':
		if closingIndex(s) != len(s)-1 {
			return nil, false
		}
		return parseSequence(s[1 : len(s)-1])
	case c == '(':
		if closingIndex(s) != len(s)-1 {
			return nil, false
		}
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner != "" && len(splitTop(inner, ',')) == 1 {
			return parseLiteral(inner)
		}
		return parseSequence(inner)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return parseNumber(s)
	}
	return nil, false
}

func parseNumber(s string) (any, bool) {
	digits := strings.TrimLeft(s, "+-")
	if digits == "" || (digits[0] != '.' && (digits[0] < '0' || digits[0] > '9')) {
		return nil, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func parseSequence(inner string) (any, bool) {
	out := []any{}
	if strings.TrimSpace(inner) == "" {
		return out, true
	}
	parts := splitTop(inner, ',')
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for _, p := range parts {
		v, ok := parseLiteral(p)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// parseQuoted decodes a single- or double-quoted string. It fails unless the
// whole of s is one string literal.
func parseQuoted(s string) (any, bool) {
	q := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
		case c == q:
			if i != len(s)-1 {
				return nil, false
			}
			return b.String(), true
		default:
			b.WriteByte(c)
		}
	}
	return nil, false
}

// closingIndex returns the index of the bracket closing s[0], or -1.
func closingIndex(s string) int {
	var sc scanner
	for i := 0; i < len(s); i++ {
		sc.step(s[i])
		if sc.depth == 0 && sc.quote == 0 {
			return i
		}
	}
	return -1
}

// parseArgs parses a comma separated list of literal arguments.
func parseArgs(s string) ([]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var args []any
	for _, p := range splitTop(s, ',') {
		v, ok := parseLiteral(p)
		if !ok {
			return nil, fmt.Errorf("argument %q is not a literal", p)
		}
		args = append(args, v)
	}
	return args, nil
}
