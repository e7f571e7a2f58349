package tidy

import (
	"strconv"
	"strings"
)

// ParseMoney converts a spreadsheet money cell to a signed decimal.
// Parenthesized negatives, currency symbols and thousands separators
// are equivalent to signed numbers: "$1,234.56", "(1,234.56)" and
// "-1234.56" all parse. Blank and non-numeric cells return ok=false;
// a missing value must never silently become 0.
func ParseMoney(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// NormalizeLabel collapses whitespace in a raw row or column label.
func NormalizeLabel(label string) string {
	fields := strings.Fields(label)
	return strings.Join(fields, " ")
}

// FoldKey lowers and strips a label for alias lookup, so "Total
// Expense", "total expense" and "TotalExpense" collide.
func FoldKey(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
