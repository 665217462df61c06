//go:build !integration

package payment

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0123456789", "60123456789"},
		{"123456789", "60123456789"},
		{"60123456789", "60123456789"},
		{"+60123456789", "60123456789"},
		{"012-345 6789", "60123456789"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizePhone(tc.in); got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestAmountConversions(t *testing.T) {
	cases := []struct {
		in        string
		wantCents int64
		wantStr   string
	}{
		{"10.5", 1050, "10.50"},
		{"10.505", 1051, "10.51"}, // half up
		{"10.504", 1050, "10.50"},
		{"0", 0, "0.00"},
		{"199.99", 19999, "199.99"},
		{"100", 10000, "100.00"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.in)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.in, err)
			}
			if got := toMinorUnits(d); got != tc.wantCents {
				t.Errorf("toMinorUnits(%s) = %d, want %d", tc.in, got, tc.wantCents)
			}
			if got := toAmountString(d); got != tc.wantStr {
				t.Errorf("toAmountString(%s) = %q, want %q", tc.in, got, tc.wantStr)
			}
		})
	}
}
