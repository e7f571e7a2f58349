package kpi

import "t12insight/internal/model"

// Calculator derives the KPI summary for one format's canonical
// tables. Each format registers exactly one calculator; the pipeline
// verifies the pairing with the format registry at startup.
type Calculator interface {
	// Format is the format name this calculator serves.
	Format() string

	// Compute builds the summary: current-period snapshot, cumulative
	// YTD snapshot and period-over-period trend deltas.
	Compute(table *model.CanonicalTable) (*model.KPISummary, error)
}
