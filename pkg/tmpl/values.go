package tmpl

import (
	"fmt"
	"html"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/neurodesk/pagetmpl/pkg/numfmt"
)

// Undefined stands in for a name that could not be resolved in lax mode. It
// is falsy and prints as the empty string.
type Undefined struct {
	Path string
}

func (Undefined) String() string { return "" }

// Safe is text that is already escaped and is printed verbatim.
type Safe string

func (s Safe) String() string { return string(s) }

// Callable is implemented by values that templates invoke on resolution,
// with or without call syntax.
type Callable interface {
	Call(args ...any) (any, error)
}

// Func adapts a plain function to Callable.
type Func func(args ...any) (any, error)

func (f Func) Call(args ...any) (any, error) { return f(args...) }

// Lookuper lets opaque objects answer attribute lookups themselves.
type Lookuper interface {
	Lookup(name string) (any, bool)
}

// boundMethod is a method value found by attribute lookup. It is invoked
// automatically like a Callable.
type boundMethod struct {
	name string
	fn   reflect.Value
}

func (m boundMethod) Call(args ...any) (any, error) {
	return callReflect(m.name, m.fn, args)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invoke calls fn with args. fn is a Callable or any Go func.
func invoke(name string, fn any, args []any) (out any, err error) {
	if c, ok := fn.(Callable); ok {
		return c.Call(args...)
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("'%s' is not callable", name)
	}
	return callReflect(name, rv, args)
}

func callReflect(name string, fn reflect.Value, args []any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("calling '%s': %v", name, r)
		}
	}()

	ft := fn.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("'%s' expects at least %d arguments, got %d", name, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("'%s' expects %d arguments, got %d", name, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			want = ft.In(n - 1).Elem()
		} else {
			want = ft.In(i)
		}
		v, err := convertArg(a, want)
		if err != nil {
			return nil, fmt.Errorf("'%s' argument %d: %w", name, i+1, err)
		}
		in[i] = v
	}

	results := fn.Call(in)
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			e, _ := results[0].Interface().(error)
			return nil, e
		}
		return results[0].Interface(), nil
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("'%s' returns two values and the second is not an error", name)
		}
		e, _ := results[1].Interface().(error)
		return results[0].Interface(), e
	}
	return nil, fmt.Errorf("'%s' returns %d values", name, len(results))
}

func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if isNumberKind(v.Kind()) && isNumberKind(want.Kind()) {
		return v.Convert(want), nil
	}
	if v.Kind() == reflect.String && want.Kind() == reflect.String {
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, want)
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isInvocable reports whether v is called on resolution without call syntax.
func isInvocable(v any) bool {
	_, ok := v.(Callable)
	return ok
}

func isCallable(v any) bool {
	if isInvocable(v) {
		return true
	}
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

// Truthy reports the truth value templates assign to v.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Undefined:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case Safe:
		return t != ""
	case decimal.Decimal:
		return !t.IsZero()
	case numfmt.Fixed:
		return !t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// toText converts v to plain text without localisation or escaping.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case Undefined:
		return ""
	case string:
		return t
	case Safe:
		return string(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	return fmt.Sprint(v)
}

// escapeText HTML-escapes v unless it is Safe.
func escapeText(v any) Safe {
	if s, ok := v.(Safe); ok {
		return s
	}
	return Safe(html.EscapeString(toText(v)))
}

// toInt converts numeric values and numeric strings to int.
func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case string:
		return strconv.Atoi(t)
	case decimal.Decimal:
		return int(t.IntPart()), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

// toFloat reports v as a float64 when it is a number.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64(), true
	case numfmt.Fixed:
		return t.Value.InexactFloat64(), true
	case bool:
		return 0, false
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// toStringValue reports v as a string when it is textual.
func toStringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case Safe:
		return string(t), true
	}
	return "", false
}
