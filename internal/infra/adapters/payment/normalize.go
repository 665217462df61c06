package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// countryCode is prepended to national phone numbers. Both supported
// providers operate in Malaysia.
const countryCode = "60"

// NormalizePhone converts a payer phone number to the country-code-prefixed
// form the gateways expect:
//
//	"0123456789"  -> "60123456789"
//	"123456789"   -> "60123456789"
//	"60123456789" -> unchanged
func NormalizePhone(raw string) string {
	p := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	p = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, p)
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, countryCode):
		return p
	case strings.HasPrefix(p, "0"):
		return countryCode + p[1:]
	default:
		return countryCode + p
	}
}

// toMinorUnits converts a currency-unit amount to integer cents,
// round half up. 10.5 -> 1050, 10.005 -> 1001.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// toAmountString renders a currency-unit amount as a fixed 2-decimal string.
// 10.5 -> "10.50".
func toAmountString(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
