package tmpl

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lookupWord resolves one path word against cur: attribute, then key, then
// integer index.
func lookupWord(cur any, word string) (any, bool) {
	if cur == nil {
		return nil, false
	}
	if v, ok := lookupAttr(cur, word); ok {
		return v, true
	}
	if v, ok := lookupKey(cur, word); ok {
		return v, true
	}
	return lookupIndex(cur, word)
}

func lookupAttr(cur any, name string) (any, bool) {
	if l, ok := cur.(Lookuper); ok {
		if v, ok := l.Lookup(name); ok {
			return v, true
		}
	}
	rv := reflect.ValueOf(cur)
	if m, ok := methodByName(rv, name); ok {
		return m, true
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	f := rv.FieldByName(name)
	if !f.IsValid() {
		f = rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
	}
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

// methodByName finds an exported method, also trying the name with its first
// letter upper-cased so templates can write obj.label for obj.Label().
func methodByName(rv reflect.Value, name string) (any, bool) {
	if !rv.IsValid() || rv.NumMethod() == 0 {
		return nil, false
	}
	for _, n := range []string{name, exportedName(name)} {
		m := rv.MethodByName(n)
		if m.IsValid() {
			return boundMethod{name: n, fn: m}, true
		}
	}
	return nil, false
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func lookupKey(cur any, key string) (any, bool) {
	switch m := cur.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[string]string:
		v, ok := m[key]
		return v, ok
	}
	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	kt := rv.Type().Key()
	var k reflect.Value
	switch {
	case kt.Kind() == reflect.String:
		k = reflect.ValueOf(key).Convert(kt)
	case kt.Kind() == reflect.Interface:
		k = reflect.ValueOf(key)
	case isNumberKind(kt.Kind()):
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, false
		}
		k = reflect.ValueOf(n).Convert(kt)
	default:
		return nil, false
	}
	v := rv.MapIndex(k)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func lookupIndex(cur any, word string) (any, bool) {
	i, err := strconv.Atoi(word)
	if err != nil || i < 0 {
		return nil, false
	}
	if s, ok := toStringValue(cur); ok {
		runes := []rune(s)
		if i >= len(runes) {
			return nil, false
		}
		return string(runes[i]), true
	}
	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}
