package model

import "math"

// Trend compares a metric's current period to the immediately
// preceding one. Percent is nil when the prior value is zero.
type Trend struct {
	Absolute float64  `json:"absolute"`
	Percent  *float64 `json:"percent,omitempty"`
}

// KPISummary is the derived, read-only snapshot for one CanonicalTable.
// Metrics without a prior-period record are absent from Trend; a
// missing baseline is never fabricated.
type KPISummary struct {
	Format        string `json:"format"`
	Sheet         string `json:"sheet"`
	CurrentPeriod Period `json:"currentPeriod"`
	YTDPeriod     Period `json:"ytdPeriod"`

	Current map[string]float64 `json:"current"`
	YTD     map[string]float64 `json:"ytd,omitempty"`
	Trend   map[string]Trend   `json:"trend,omitempty"`

	// Format-specific extensions.
	Ratios         map[string]float64 `json:"ratios,omitempty"`
	BudgetVariance map[string]float64 `json:"budgetVariance,omitempty"`
	DerivedNOI     *float64           `json:"derivedNoi,omitempty"`

	Properties []string `json:"properties,omitempty"`
	Issues     []string `json:"issues,omitempty"`
}

// MetricNames lists every metric key the summary references, for the
// quality gate's keyword check.
func (s *KPISummary) MetricNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range s.Current {
		add(name)
	}
	for name := range s.YTD {
		add(name)
	}
	return names
}

// Finite reports whether every numeric value in the summary is a
// finite decimal. Downstream prompt formatting relies on this.
func (s *KPISummary) Finite() bool {
	ok := func(v float64) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	for _, v := range s.Current {
		if !ok(v) {
			return false
		}
	}
	for _, v := range s.YTD {
		if !ok(v) {
			return false
		}
	}
	for _, t := range s.Trend {
		if !ok(t.Absolute) {
			return false
		}
		if t.Percent != nil && !ok(*t.Percent) {
			return false
		}
	}
	for _, v := range s.Ratios {
		if !ok(v) {
			return false
		}
	}
	for _, v := range s.BudgetVariance {
		if !ok(v) {
			return false
		}
	}
	if s.DerivedNOI != nil && !ok(*s.DerivedNOI) {
		return false
	}
	return true
}
