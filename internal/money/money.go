// Package money holds the fixed-point helpers shared by the calculator and
// the month-slice allocator. Every stored amount carries two decimal places.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places persisted for every amount.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns amount × pct / 100 without rounding.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Prorate returns round(amount × part / whole, 2). A zero whole yields zero.
func Prorate(amount decimal.Decimal, part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return Round(amount.Mul(decimal.NewFromInt(int64(part))).Div(decimal.NewFromInt(int64(whole))))
}

// Floor0 returns d, or zero when d is negative.
func Floor0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Or returns the value of n, or def when n is unset.
func Or(n decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if n.Valid {
		return n.Decimal
	}
	return def
}

// Some wraps d as a set NullDecimal.
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// FromString parses s as a set NullDecimal. An empty string yields an unset value.
func FromString(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Some(d), nil
}

// MustParse is FromString for literals known to be valid.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
