// Package numfmt formats numbers for display in a given locale. Templates
// print every numeric value through a single Formatter so integers, floats and
// fixed-point values share the same decimal separator rules.
package numfmt

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders numeric values for one language.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Formatter for tag.
func New(tag language.Tag) *Formatter {
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Parse returns a Formatter for a BCP 47 language string such as "de" or
// "en-GB". An empty string selects English.
func Parse(lang string) (*Formatter, error) {
	if strings.TrimSpace(lang) == "" {
		return New(language.English), nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parsing language %q: %w", lang, err)
	}
	return New(tag), nil
}

// Tag reports the language the Formatter was built for.
func (f *Formatter) Tag() language.Tag { return f.tag }

// Format returns the localized text of v. ok is false when v is not numeric,
// in which case the caller is expected to stringify it some other way.
func (f *Formatter) Format(v any) (s string, ok bool) {
	switch t := v.(type) {
	case nil, bool:
		return "", false
	case Fixed:
		return f.printer.Sprint(number.Decimal(t.Value.InexactFloat64(), number.Scale(int(t.Places)), number.NoSeparator())), true
	case decimal.Decimal:
		places := 0
		if exp := t.Exponent(); exp < 0 {
			places = int(-exp)
		}
		return f.printer.Sprint(number.Decimal(t.InexactFloat64(), number.Scale(places), number.NoSeparator())), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.printer.Sprint(number.Decimal(rv.Int(), number.NoSeparator())), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return f.printer.Sprint(number.Decimal(rv.Uint(), number.NoSeparator())), true
	case reflect.Float32, reflect.Float64:
		x := rv.Float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'f', -1, 64), true
		}
		return f.printer.Sprint(number.Decimal(x, number.Scale(fractionDigits(x)), number.NoSeparator())), true
	}
	return "", false
}

// fractionDigits counts the digits after the point in the shortest
// representation of x.
func fractionDigits(x float64) int {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
