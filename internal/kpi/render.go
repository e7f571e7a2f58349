package kpi

import (
	"fmt"
	"sort"
	"strings"

	"t12insight/internal/model"
)

// metricCategories groups summary lines the way analysts read a T12:
// revenue first, then loss factors, expenses, NOI and below-line.
var metricCategories = []struct {
	title    string
	patterns []string
}{
	{"REVENUE PERFORMANCE", []string{"Rent", "Income", "Revenue"}},
	{"REVENUE LOSS FACTORS", []string{"Loss to lease", "Vacancy", "Concessions", "Delinquency", "Non Revenue"}},
	{"EXPENSES", []string{"Expense", "Management Fee", "Payroll", "Insurance", "Taxes", "Utilities", "Maintenance", "Marketing", "Landscaping"}},
	{"NOI & BELOW LINE", []string{"NOI", "EBITDA", "Debt Service", "Reserve", "Cash Flow", "Renovations"}},
}

// Render serializes a summary as the bullet-point block the narrative
// collaborator consumes as prompt context. Every value is a finite
// decimal or absent; downstream formatting never sees NaN tokens.
func Render(s *model.KPISummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== T12 PROPERTY ANALYSIS - %s ===\n", s.CurrentPeriod)
	if s.Sheet != "" {
		fmt.Fprintf(&b, "Sheet: %s\n", s.Sheet)
	}
	if len(s.Properties) > 1 {
		fmt.Fprintf(&b, "Properties: %s\n", strings.Join(s.Properties, ", "))
	}
	b.WriteString("\n")

	used := make(map[string]bool)
	names := sortedKeys(s.Current)
	for _, cat := range metricCategories {
		var lines []string
		for _, pattern := range cat.patterns {
			for _, metric := range names {
				if used[metric] || !foldContains(metric, pattern) {
					continue
				}
				lines = append(lines, fmt.Sprintf("• %s: %s", metric, money(s.Current[metric])))
				used[metric] = true
			}
		}
		if len(lines) > 0 {
			fmt.Fprintf(&b, "=== %s ===\n%s\n", cat.title, strings.Join(lines, "\n"))
		}
	}
	var other []string
	for _, metric := range names {
		if !used[metric] {
			other = append(other, fmt.Sprintf("• %s: %s", metric, money(s.Current[metric])))
		}
	}
	if len(other) > 0 {
		fmt.Fprintf(&b, "=== OTHER METRICS ===\n%s\n", strings.Join(other, "\n"))
	}

	if len(s.Trend) > 0 {
		b.WriteString("\n=== MONTH-OVER-MONTH TRENDS ===\n")
		for _, metric := range sortedTrendKeys(s.Trend) {
			t := s.Trend[metric]
			direction := "increased"
			if t.Absolute < 0 {
				direction = "decreased"
			}
			line := fmt.Sprintf("• %s: %s by %s", metric, direction, money(abs(t.Absolute)))
			if t.Percent != nil {
				line += fmt.Sprintf(" (%.1f%%)", abs(*t.Percent))
			}
			b.WriteString(line + "\n")
		}
	}

	if len(s.Ratios) > 0 {
		b.WriteString("\n=== KEY PERFORMANCE RATIOS ===\n")
		for _, name := range sortedKeys(s.Ratios) {
			fmt.Fprintf(&b, "• %s: %.1f%%\n", name, s.Ratios[name])
		}
	}

	if s.DerivedNOI != nil {
		fmt.Fprintf(&b, "\n=== DERIVED NOI ===\n• Net Operating Income: %s\n", money(*s.DerivedNOI))
	}

	if len(s.BudgetVariance) > 0 {
		b.WriteString("\n=== BUDGET VARIANCE (ACTUAL - BUDGET) ===\n")
		for _, name := range sortedKeys(s.BudgetVariance) {
			fmt.Fprintf(&b, "• %s: %s\n", name, money(s.BudgetVariance[name]))
		}
	}

	if len(s.YTD) > 0 {
		b.WriteString("\n=== YEAR-TO-DATE (YTD) CUMULATIVE TOTALS ===\n")
		b.WriteString("YTD figures are cumulative totals, not monthly amounts.\n")
		for _, metric := range sortedKeys(s.YTD) {
			fmt.Fprintf(&b, "• %s (CUMULATIVE YTD): %s\n", metric, money(s.YTD[metric]))
		}
	}

	return b.String()
}

// money renders a currency amount with thousands separators,
// parenthesizing negatives the way the source ledgers do.
func money(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.2f", abs(v))
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups[0:]...)
	out := "$" + strings.Join(groups, ",") + frac
	if neg {
		return "(" + out + ")"
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTrendKeys(m map[string]model.Trend) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func foldContains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
