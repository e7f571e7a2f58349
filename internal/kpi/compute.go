package kpi

import (
	"fmt"
	"sort"

	"t12insight/internal/model"
)

// base carries the computation every format calculator shares. The
// format-specific calculators wrap it with their own ratio and budget
// analysis.
type base struct {
	desc *model.FormatDescriptor
}

// Format implements Calculator for the embedding types.
func (b *base) Format() string { return b.desc.Name }

// metricKey qualifies metric names with the property when the table
// spans more than one, so one table still maps to one summary.
func metricKey(r model.MetricRecord, multiProperty bool) string {
	if multiProperty && r.Property != "" {
		return r.Property + " / " + r.Metric
	}
	return r.Metric
}

// compute runs the format-independent summary algorithm.
func (b *base) compute(table *model.CanonicalTable) (*model.KPISummary, error) {
	properties := table.Properties()
	multi := len(properties) > 1

	// 1. Most recent period among non-YTD records. Two distinct raw
	// labels resolving to the same latest period is a data error and
	// is reported, never silently resolved.
	var latest model.Period
	for _, r := range table.Records {
		if r.IsYTD {
			continue
		}
		if latest.Before(r.Period) {
			latest = r.Period
		}
	}
	if latest.IsZero() {
		return nil, &model.EmptySheetError{Sheet: table.Sheet}
	}

	for _, c := range table.LabelConflicts {
		if c.Period != latest {
			continue
		}
		labels := append([]string(nil), c.Labels...)
		sort.Strings(labels)
		return nil, &model.AmbiguousPeriodError{Period: latest, Labels: labels}
	}

	summary := &model.KPISummary{
		Format:        b.desc.Name,
		Sheet:         table.Sheet,
		CurrentPeriod: latest,
		Current:       make(map[string]float64),
		Properties:    properties,
	}

	// 2. Current-period snapshot.
	for _, r := range table.Records {
		if r.IsYTD || r.Period != latest {
			continue
		}
		summary.Current[metricKey(r, multi)] = r.Value
	}

	// 3. Cumulative snapshot: only the latest YTD figures are
	// meaningful, earlier YTD rows are historical snapshots.
	var ytdPeriod model.Period
	hasDated := false
	for _, r := range table.Records {
		if !r.IsYTD {
			continue
		}
		if !r.Period.IsZero() {
			hasDated = true
			if ytdPeriod.Before(r.Period) {
				ytdPeriod = r.Period
			}
		}
	}
	for _, r := range table.Records {
		if !r.IsYTD {
			continue
		}
		if hasDated && r.Period != ytdPeriod {
			continue
		}
		if summary.YTD == nil {
			summary.YTD = make(map[string]float64)
		}
		summary.YTD[metricKey(r, multi)] = r.Value
	}
	summary.YTDPeriod = ytdPeriod

	// 4. Trend against the immediately preceding month. Metrics with
	// no prior-period record are omitted, never given a fabricated
	// baseline; percent is undefined when the prior value is zero.
	prior := latest.Prev()
	priorValues := make(map[string]float64)
	for _, r := range table.Records {
		if r.IsYTD || r.Period != prior {
			continue
		}
		priorValues[metricKey(r, multi)] = r.Value
	}
	for metric, current := range summary.Current {
		prev, ok := priorValues[metric]
		if !ok {
			continue
		}
		t := model.Trend{Absolute: current - prev}
		if prev != 0 {
			pct := (current - prev) / abs(prev) * 100
			t.Percent = &pct
		}
		if summary.Trend == nil {
			summary.Trend = make(map[string]model.Trend)
		}
		summary.Trend[metric] = t
	}

	b.deriveNOI(summary, multi)
	return summary, nil
}

// deriveNOI computes net operating income from the format's declared
// income and expense rows, honoring the format's own sign convention.
// Skipped for multi-property tables, where a single figure would mix
// properties.
func (b *base) deriveNOI(summary *model.KPISummary, multi bool) {
	if multi || b.desc.IncomeMetric == "" {
		return
	}
	income, ok := summary.Current[b.desc.IncomeMetric]
	if !ok {
		return
	}
	expenses := 0.0
	found := false
	for _, metric := range b.desc.ExpenseMetrics {
		v, ok := summary.Current[metric]
		if !ok {
			continue
		}
		found = true
		expenses += v
	}
	if !found {
		return
	}
	noi := income - expenses
	if b.desc.ExpensesSigned {
		noi = income + expenses
	}
	summary.DerivedNOI = &noi
}

// budgetVariance reports actual minus budget for the current period
// and for the cumulative figures, keyed "<metric> (YTD)".
func budgetVariance(summary *model.KPISummary, table *model.CanonicalTable) {
	multi := len(table.Properties()) > 1
	for _, r := range table.Records {
		if r.Budget == nil {
			continue
		}
		key := ""
		switch {
		case r.IsYTD:
			if _, ok := summary.YTD[metricKey(r, multi)]; !ok {
				continue
			}
			key = metricKey(r, multi) + " (YTD)"
		case r.Period == summary.CurrentPeriod:
			key = metricKey(r, multi)
		default:
			continue
		}
		if summary.BudgetVariance == nil {
			summary.BudgetVariance = make(map[string]float64)
		}
		summary.BudgetVariance[key] = r.Value - *r.Budget
	}
}

// addIssue records a non-fatal computation note on the summary.
func addIssue(summary *model.KPISummary, format string, args ...interface{}) {
	summary.Issues = append(summary.Issues, fmt.Sprintf(format, args...))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
