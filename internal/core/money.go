// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing and display go through
// shopspring/decimal so that JSON numbers such as 1234.565 round the same
// way on every platform.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// maxCents keeps cents*100 arithmetic and SUM() well inside int64.
const maxCents = int64(1) << 50

// ParseDecimalToCents converts a decimal string to cents, rounding half-up
// on the third decimal place.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Zero is a
// valid amount; negative, empty or non-numeric input returns ErrInvalidAmount.
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("0")      -> 0, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}

// MoneyFromDecimal rounds d to cents. Negative values are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseAmount accepts the loosely typed value of a decoded JSON body:
// a json.Number, a float64, an integer or a numeric string.
func ParseAmount(v any) (Money, error) {
	switch x := v.(type) {
	case json.Number:
		cents, err := ParseDecimalToCents(x.String())
		return Money{Cents: cents}, err
	case float64:
		return MoneyFromDecimal(decimal.NewFromFloat(x))
	case int:
		return MoneyFromDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return MoneyFromDecimal(decimal.NewFromInt(x))
	case string:
		cents, err := ParseDecimalToCents(x)
		return Money{Cents: cents}, err
	default:
		return Money{}, ErrInvalidAmount
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in euros.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Euros returns the euro value as a float64 for JSON responses.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
