package postgres

import "github.com/shopspring/decimal"

// Monetary amounts are stored as integer minor units (cents). These helpers
// keep the decimal conversion in one place.

func amountToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func centsToAmount(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}
