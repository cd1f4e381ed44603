package normalization

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// toDecimal coerces a raw JSON/CSV value into a decimal.
// Any value that cannot be parsed yields zero.
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val)
	case float32:
		return toDecimal(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return parseDecimal(val.String())
	case string:
		return parseDecimal(val)
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// usdValue multiplies quantity by unit price and floors the result at zero.
// A product outside float64 range yields zero.
func usdValue(quantity, price any) float64 {
	v := toDecimal(quantity).Mul(toDecimal(price))
	if v.IsNegative() {
		return 0
	}
	return finiteOrZero(v.InexactFloat64())
}

// toFloat coerces a raw value into a non-negative float64.
func toFloat(v any) float64 {
	d := toDecimal(v)
	if d.IsNegative() {
		return 0
	}
	return finiteOrZero(d.InexactFloat64())
}

// finiteOrZero treats values beyond float64 range as a coercion failure.
func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toUnixSeconds coerces a raw timestamp into epoch seconds.
func toUnixSeconds(v any) int64 {
	return toDecimal(v).IntPart()
}

// toString returns v as a trimmed string, or "" when v is not a scalar.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return decimal.NewFromFloat(val).String()
	case int64:
		return decimal.NewFromInt(val).String()
	case int:
		return decimal.NewFromInt(int64(val)).String()
	default:
		return ""
	}
}

// nested returns the map stored under key, or nil.
func nested(rec RawRecord, key string) map[string]any {
	m, _ := rec[key].(map[string]any)
	return m
}
