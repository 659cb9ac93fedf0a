// Package numeric turns OCR number tokens into floats and does the money
// arithmetic used by reconciliation.
package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference, in currency units, that still counts
// as "the same amount" when cross-checking fields.
const Tolerance = 0.1

// Value is the result of normalizing one token.
type Value struct {
	Float   float64
	Percent bool
	// Placeholder is set when the token could not be converted and Float is
	// only the 0.0 default.
	Placeholder bool
}

// Parse normalizes a raw token such as "$ 1.234,56", "12,50" or "10%".
//
// When both '.' and ',' occur, the later one is the decimal marker. A lone
// separator kind is decimal only when one or two digits follow its last
// occurrence; otherwise it groups thousands.
func Parse(token string) Value {
	v := Value{Percent: strings.ContainsRune(token, '%')}

	var b strings.Builder
	digits := 0
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		v.Placeholder = true
		return v
	}

	s := canonical(strings.Trim(b.String(), ".,"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		v.Placeholder = true
		return v
	}
	v.Float = f
	return v
}

// Float is Parse(token).Float.
func Float(token string) float64 {
	return Parse(token).Float
}

func canonical(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return decimalAt(strings.ReplaceAll(s, ".", ""), ',')
		}
		return decimalAt(strings.ReplaceAll(s, ",", ""), '.')
	case lastComma >= 0:
		return single(s, ',')
	case lastDot >= 0:
		return single(s, '.')
	}
	return s
}

func single(s string, sep byte) string {
	idx := strings.LastIndexByte(s, sep)
	if tail := len(s) - idx - 1; tail == 1 || tail == 2 {
		return decimalAt(s, sep)
	}
	return strings.ReplaceAll(s, string(sep), "")
}

// decimalAt keeps the last sep as the decimal point and drops the others.
func decimalAt(s string, sep byte) string {
	idx := strings.LastIndexByte(s, sep)
	head := strings.ReplaceAll(s[:idx], string(sep), "")
	return head + "." + s[idx+1:]
}

// Format renders x in the canonical two-decimal form accepted by Parse.
func Format(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// Percent renders a rate as printed on invoices, e.g. "10%" or "7.5%".
func Percent(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// MulRound2 returns round2(a*b) without binary float drift.
func MulRound2(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// WithRate returns round2(net * (1 + rate/100)).
func WithRate(net, rate float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(rate).Div(decimal.NewFromInt(100)))
	return decimal.NewFromFloat(net).Mul(factor).Round(2).InexactFloat64()
}

// Sum adds xs exactly and rounds the result to two places.
func Sum(xs ...float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(decimal.NewFromFloat(x))
	}
	return total.Round(2).InexactFloat64()
}

// Sub returns round2(a-b).
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Near reports whether a and b differ by less than Tolerance.
func Near(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}
