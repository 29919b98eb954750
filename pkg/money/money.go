package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places amounts are rounded to.
const Scale = 2

// Inputs beyond these bounds are treated as malformed. Rescaling a decimal
// with an extreme exponent allocates a proportionally huge big.Int.
const (
	maxInputLength = 64
	maxExponent    = 30
)

// Round rounds an amount to two decimal places (half away from zero).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// LineTotal returns round(unitPrice * quantity, 2).
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Coerce converts a loosely typed value into a decimal.
// Numbers, numeric strings and json.Number are accepted; anything else
// (nil, booleans, garbage text) degrades to zero instead of failing.
func Coerce(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt32(val)
	case json.Number:
		return parse(val.String())
	case string:
		return parse(val)
	default:
		return decimal.Zero
	}
}

// CoerceRaw decodes a raw JSON value (number, string or null) into a decimal.
func CoerceRaw(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return parse(num.String())
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return parse(str)
	}

	return decimal.Zero
}

// parse reads a numeric string. A comma is accepted as decimal separator
// when no dot is present ("12,5"). Overlong text or an exponent outside
// ±maxExponent degrades to zero like any other garbage.
func parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxInputLength {
		return decimal.Zero
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero
	}
	return d
}

// Number renders an amount as an unquoted JSON number with two decimals.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(Scale))
}

// Format renders an amount with two decimals for receipts and exports.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
