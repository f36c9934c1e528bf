package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandDot   = regexp.MustCompile(`^[-+]?[1-9]\d{0,2}(?:\.\d{3}){2,}$`)
	reThousandComma = regexp.MustCompile(`^[-+]?[1-9]\d{0,2}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseNumber reads a numeric cell. Plain numbers parse as-is; otherwise
// thousands spaces, "1,5" decimal comma, "1.000.000" and "1,000" groups
// are accepted.
// It returns nil for anything that is not a finite number.
func ParseNumber(input string) *float64 {
	compact := strings.ReplaceAll(input, "\u00A0", " ")
	compact = strings.ReplaceAll(strings.TrimSpace(compact), " ", "")
	if compact == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		parsed, err = strconv.ParseFloat(normalizeNumericToken(compact), 64)
	}
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	return FloatPtr(parsed)
}

// CanonicalNumber reports whether raw is exactly the shortest decimal form
// of a float64, so writing the number back reproduces the same text.
// "007", "1.50" and 20-digit identifiers fail this test.
func CanonicalNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, strconv.FormatFloat(v, 'f', -1, 64) == raw
}

func normalizeNumericToken(token string) string {
	if reThousandDot.MatchString(token) {
		return strings.ReplaceAll(token, ".", "")
	}
	if reThousandComma.MatchString(token) {
		return strings.ReplaceAll(token, ",", "")
	}
	if strings.Contains(token, ",") && !strings.Contains(token, ".") {
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}
