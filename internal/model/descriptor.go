package model

// FormatDescriptor is the static per-layout configuration loaded once
// at startup and never mutated at runtime.
type FormatDescriptor struct {
	Name        string `toml:"name" json:"name"`
	DisplayName string `toml:"display_name" json:"displayName"`
	Description string `toml:"description" json:"description"`

	// Aliases maps raw row labels to canonical metric names. Lookup is
	// whitespace- and case-insensitive; unmapped labels are kept
	// verbatim and flagged, never dropped.
	Aliases map[string]string `toml:"aliases" json:"aliases,omitempty"`

	// ExpectedMetrics are label patterns a conforming sheet usually
	// carries; detection uses them as evidence.
	ExpectedMetrics []string `toml:"expected_metrics" json:"expectedMetrics"`

	// KeyMetrics are the metrics the format's KPI calculator trends.
	KeyMetrics []string `toml:"key_metrics" json:"keyMetrics"`

	// IncomeMetric names the top-line income row used for derived NOI.
	IncomeMetric string `toml:"income_metric" json:"incomeMetric"`

	// ExpenseMetrics name the expense rows folded into derived NOI.
	ExpenseMetrics []string `toml:"expense_metrics" json:"expenseMetrics"`

	// ExpensesSigned declares the format's sign convention: true means
	// expense rows already carry their own (negative) sign and NOI is a
	// plain sum; false means expenses are stored positive and are
	// subtracted. Calculators must not assume a global convention.
	ExpensesSigned bool `toml:"expenses_signed" json:"expensesSigned"`
}

// SheetInfo is the per-sheet metadata surfaced by the ingest layer.
type SheetInfo struct {
	Name     string `json:"name"`
	Hidden   bool   `json:"hidden"`
	RowCount int    `json:"rowCount"`
}
