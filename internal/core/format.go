package core

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// MissingValue is shown in place of a missing number.
const MissingValue = "N/A"

// FormatNumber renders v with two decimals and comma thousands separators.
// Rounding happens on the exact binary value, half to even, so 0.015 shows
// as "0.01".
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return MissingValue
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return sign + s
	}
	return sign + humanize.BigComma(n) + "." + frac
}

// FormatNull renders f like FormatNumber, or MissingValue when missing.
func FormatNull(f NullFloat) string {
	if !f.Valid {
		return MissingValue
	}
	return FormatNumber(f.Value)
}
