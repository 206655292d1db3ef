package numfmt

import (
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

func TestFormatEnglish(t *testing.T) {
	f := New(language.English)
	cases := []struct {
		in   any
		want string
	}{
		{1, "1"},
		{int64(-42), "-42"},
		{uint8(7), "7"},
		{2.5, "2.5"},
		{1234567, "1234567"},
		{decimal.RequireFromString("1.25"), "1.25"},
	}
	for _, tc := range cases {
		got, ok := f.Format(tc.in)
		if !ok {
			t.Fatalf("Format(%v) reported non-numeric", tc.in)
		}
		if got != tc.want {
			t.Errorf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatGermanDecimalComma(t *testing.T) {
	f := New(language.German)
	got, ok := f.Format(2.5)
	if !ok || got != "2,5" {
		t.Fatalf("got %q (ok=%v), want 2,5", got, ok)
	}
}

func TestFormatNonNumeric(t *testing.T) {
	f := New(language.English)
	for _, v := range []any{"1", true, nil, []int{1}} {
		if _, ok := f.Format(v); ok {
			t.Errorf("Format(%#v) should not be numeric", v)
		}
	}
}

func TestFixed(t *testing.T) {
	x, err := NewFixed(3.14159, 2)
	if err != nil {
		t.Fatalf("NewFixed error: %v", err)
	}
	if x.String() != "3.14" {
		t.Fatalf("got %q, want 3.14", x.String())
	}
	got, _ := New(language.English).Format(x)
	if got != "3.14" {
		t.Fatalf("localized got %q, want 3.14", got)
	}

	y, err := NewFixed("2.5", 2)
	if err != nil {
		t.Fatalf("NewFixed error: %v", err)
	}
	if y.String() != "2.50" {
		t.Fatalf("got %q, want 2.50", y.String())
	}

	z, _ := NewFixed(2.5, 0)
	if z.String() != "3" {
		t.Fatalf("half away from zero: got %q, want 3", z.String())
	}

	if _, err := NewFixed("abc", 2); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
	if _, err := NewFixed(1, -1); err == nil {
		t.Fatalf("expected error for negative places")
	}
}

func TestParse(t *testing.T) {
	f, err := Parse("")
	if err != nil || f.Tag() != language.English {
		t.Fatalf("empty language: %v %v", f, err)
	}
	if _, err := Parse("not a tag!"); err == nil {
		t.Fatalf("expected parse error")
	}
}
