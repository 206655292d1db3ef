package tmpl

import "strings"

// scanner tracks quoting and bracket depth while walking an expression so
// that separators inside string literals or brackets are ignored.
type scanner struct {
	quote   byte
	escaped bool
	depth   int
}

// step consumes s[i] and reports whether i sits at the top level, outside
// any literal or bracket.
func (sc *scanner) step(c byte) bool {
	if sc.quote != 0 {
		switch {
		case sc.escaped:
			sc.escaped = false
		case c == '\\':
			sc.escaped = true
		case c == sc.quote:
			sc.quote = 0
		}
		return false
	}
	switch c {
	case '\'', '"':
		sc.quote = c
		return false
	case '(', '[', '{':
		sc.depth++
		return false
	case ')', ']', '}':
		if sc.depth > 0 {
			sc.depth--
		}
		return false
	}
	return sc.depth == 0
}

// splitTop splits s on sep wherever sep occurs at the top level. Parts are
// trimmed.
func splitTop(s string, sep byte) []string {
	var parts []string
	var sc scanner
	start := 0
	for i := 0; i < len(s); i++ {
		if sc.step(s[i]) && s[i] == sep {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// indexOp finds the first top-level occurrence of any operator in ops at or
// after position 0. Alphabetic operators must be delimited by whitespace.
// It returns the index, the operator matched and its length in s.
func indexOp(s string, ops ...string) (int, string, int) {
	var sc scanner
	for i := 0; i < len(s); i++ {
		if !sc.step(s[i]) {
			continue
		}
		for _, op := range ops {
			if n := matchOp(s, i, op); n > 0 {
				return i, op, n
			}
		}
	}
	return -1, "", 0
}

// matchOp reports the length of op matched at s[i:], or 0. Word operators may
// contain single spaces, which match any run of whitespace.
func matchOp(s string, i int, op string) int {
	if !isWordOp(op) {
		if strings.HasPrefix(s[i:], op) {
			return len(op)
		}
		return 0
	}
	if i == 0 || !isSpace(s[i-1]) {
		return 0
	}
	j := i
	for wi, word := range strings.Fields(op) {
		if wi > 0 {
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k == j {
				return 0
			}
			j = k
		}
		if !strings.HasPrefix(s[j:], word) {
			return 0
		}
		j += len(word)
	}
	if j >= len(s) || !isSpace(s[j]) {
		return 0
	}
	return j - i
}

func isWordOp(op string) bool {
	c := op[0]
	return c >= 'a' && c <= 'z'
}

// splitOp splits s at every top-level occurrence of any of ops.
func splitOp(s string, ops ...string) []string {
	var parts []string
	for {
		i, _, n := indexOp(s, ops...)
		if i < 0 {
			return append(parts, strings.TrimSpace(s))
		}
		parts = append(parts, strings.TrimSpace(s[:i]))
		s = s[i+n:]
	}
}

// cutPrefixWord removes a leading word followed by whitespace.
func cutPrefixWord(s, word string) (string, bool) {
	if len(s) > len(word) && strings.HasPrefix(s, word) && isSpace(s[len(word)]) {
		return strings.TrimSpace(s[len(word):]), true
	}
	return s, false
}
