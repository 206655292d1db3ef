package numfmt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed is a decimal rounded to a fixed number of places. It keeps trailing
// zeros when printed, so 2.5 to two places renders as "2.50".
type Fixed struct {
	Value  decimal.Decimal
	Places int32
}

// NewFixed rounds v (any integer, float, numeric string, decimal.Decimal or
// Fixed) half away from zero to places digits.
func NewFixed(v any, places int) (Fixed, error) {
	if places < 0 {
		return Fixed{}, fmt.Errorf("negative number of places: %d", places)
	}
	d, err := ToDecimal(v)
	if err != nil {
		return Fixed{}, err
	}
	p := int32(places)
	return Fixed{Value: d.Round(p), Places: p}, nil
}

// String implements fmt.Stringer with a locale-neutral representation.
func (x Fixed) String() string { return x.Value.StringFixed(x.Places) }

// IsZero reports whether the rounded value is zero.
func (x Fixed) IsZero() bool { return x.Value.IsZero() }

// ToDecimal converts numeric Go values to a decimal.Decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case Fixed:
		return t.Value, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("not a number: %q", t)
		}
		return d, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromUint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), nil
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %T", v)
}
