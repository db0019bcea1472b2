package view

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

const NotAvailable = "N/A"

var half = big.NewFloat(0.5)

// ToFixed formats v with digits decimals the way a browser's Number.prototype.toFixed does:
// exact binary ties round away from zero and negative values keep their sign even when
// they round to zero.
func ToFixed(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if digits < 0 {
		digits = 0
	}
	a := math.Abs(v)
	if a >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	x := new(big.Float).SetPrec(256).SetFloat64(a)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	x.Mul(x, new(big.Float).SetPrec(256).SetInt(scale))

	n, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(x, new(big.Float).SetPrec(256).SetInt(n))
	if frac.Cmp(half) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if v < 0 {
		s = "-" + s
	}
	return s
}

// Money renders "$x.xx" with the given decimals, or N/A for zero and non-finite values.
func Money(v float64, digits int) string {
	if missing(v) {
		return NotAvailable
	}
	return "$" + ToFixed(v, digits)
}

// Fixed renders ToFixed, or N/A for zero and non-finite values.
func Fixed(v float64, digits int) string {
	if missing(v) {
		return NotAvailable
	}
	return ToFixed(v, digits)
}

// Percent renders "x%" with the given decimals, or N/A for zero and non-finite values.
func Percent(v float64, digits int) string {
	if missing(v) {
		return NotAvailable
	}
	return ToFixed(v, digits) + "%"
}

// PercentOf renders (value-base)/base as a one-decimal percentage. A zero base is N/A.
func PercentOf(value, base float64) string {
	if base == 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return NotAvailable
	}
	p := (value - base) / base * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return NotAvailable
	}
	return ToFixed(p, 1) + "%"
}

// Number renders v in the shortest form that round-trips, e.g. 2, 0.5, 1.5.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func missing(v float64) bool {
	return v == 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
