package kpi

import "t12insight/internal/model"

// T12MonthlyCalculator serves the floating-header monthly export.
type T12MonthlyCalculator struct {
	base
}

// NewT12MonthlyCalculator creates the calculator for its descriptor.
func NewT12MonthlyCalculator(desc *model.FormatDescriptor) *T12MonthlyCalculator {
	return &T12MonthlyCalculator{base: base{desc: desc}}
}

// Compute implements Calculator.
func (c *T12MonthlyCalculator) Compute(table *model.CanonicalTable) (*model.KPISummary, error) {
	summary, err := c.compute(table)
	if err != nil {
		return nil, err
	}
	keyRatios(summary)
	return summary, nil
}

// StandardT12Calculator serves the fixed-layout workbook; on top of
// the shared summary it reports actual-vs-budget variances.
type StandardT12Calculator struct {
	base
}

// NewStandardT12Calculator creates the calculator for its descriptor.
func NewStandardT12Calculator(desc *model.FormatDescriptor) *StandardT12Calculator {
	return &StandardT12Calculator{base: base{desc: desc}}
}

// Compute implements Calculator.
func (c *StandardT12Calculator) Compute(table *model.CanonicalTable) (*model.KPISummary, error) {
	summary, err := c.compute(table)
	if err != nil {
		return nil, err
	}
	keyRatios(summary)
	budgetVariance(summary, table)
	if len(summary.Properties) > 1 {
		addIssue(summary, "workbook spans %d properties, derived NOI and ratios omitted", len(summary.Properties))
	}
	return summary, nil
}

// DatabaseT12Calculator serves the paired -Fin/-Bgt portfolio format.
type DatabaseT12Calculator struct {
	base
}

// NewDatabaseT12Calculator creates the calculator for its descriptor.
func NewDatabaseT12Calculator(desc *model.FormatDescriptor) *DatabaseT12Calculator {
	return &DatabaseT12Calculator{base: base{desc: desc}}
}

// Compute implements Calculator.
func (c *DatabaseT12Calculator) Compute(table *model.CanonicalTable) (*model.KPISummary, error) {
	summary, err := c.compute(table)
	if err != nil {
		return nil, err
	}
	budgetVariance(summary, table)
	if len(summary.Properties) > 1 {
		addIssue(summary, "portfolio spans %d properties, derived NOI omitted", len(summary.Properties))
	}
	return summary, nil
}
