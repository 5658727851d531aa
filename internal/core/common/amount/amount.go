// Package amount holds the day-count arithmetic shared by balances, accruals
// and carry-forwards. Every stored amount has two decimal places.
package amount

import "github.com/shopspring/decimal"

const Scale int32 = 2

var Half = decimal.RequireFromString("0.5")

// Round rounds half away from zero, which is HALF_UP for the non-negative
// amounts the engine deals with.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func FromInt(days int) decimal.Decimal {
	return decimal.NewFromInt(int64(days))
}

func Nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func FromNullable(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := Round(n.Decimal)
	return &d
}

// Equal treats two nil pointers as equal.
func Equal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
