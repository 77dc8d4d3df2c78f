package domain

import "github.com/shopspring/decimal"

// Money is a decimal amount that encodes to JSON as a bare number. Decoding
// accepts both numbers and quoted strings.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// RequireMoney parses s and panics if it is not a decimal.
func RequireMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}
