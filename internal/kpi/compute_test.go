package kpi

import (
	"errors"
	"testing"
	"time"

	"t12insight/internal/model"
)

func testDescriptor() *model.FormatDescriptor {
	return &model.FormatDescriptor{
		Name:           "t12_monthly_financial",
		IncomeMetric:   "Net Eff. Gross Income",
		ExpenseMetrics: []string{"Total Expense"},
		ExpensesSigned: true,
	}
}

func rec(metric string, year int, month time.Month, value float64) model.MetricRecord {
	p := model.Period{Year: year, Month: month}
	return model.MetricRecord{Metric: metric, Period: p, PeriodLabel: p.String(), Value: value}
}

func ytdRec(metric string, year int, month time.Month, value float64) model.MetricRecord {
	r := rec(metric, year, month, value)
	r.PeriodLabel = "YTD"
	r.IsYTD = true
	return r
}

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

func TestComputeCurrentAndTrend(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 200),
			rec("Net Eff. Gross Income", 2025, time.February, 196.57),
			rec("Total Expense", 2025, time.January, -82.30),
			rec("Total Expense", 2025, time.February, -110.15),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if summary.CurrentPeriod != (model.Period{Year: 2025, Month: time.February}) {
		t.Fatalf("current period: %v", summary.CurrentPeriod)
	}
	if !approx(summary.Current["Net Eff. Gross Income"], 196.57) {
		t.Fatalf("current income: %v", summary.Current)
	}
	if !approx(summary.Current["Total Expense"], -110.15) {
		t.Fatalf("current expense: %v", summary.Current)
	}

	income := summary.Trend["Net Eff. Gross Income"]
	if !approx(income.Absolute, -3.43) {
		t.Fatalf("income delta: %v", income.Absolute)
	}
	if income.Percent == nil || !approx(*income.Percent, -1.715) {
		t.Fatalf("income percent: %v", income.Percent)
	}

	expense := summary.Trend["Total Expense"]
	if !approx(expense.Absolute, -27.85) {
		t.Fatalf("expense delta: %v", expense.Absolute)
	}
	// Denominator is |previous|, so a deepening negative is a
	// negative trend, not a positive one.
	if expense.Percent == nil || !approx(*expense.Percent, -27.85/82.30*100) {
		t.Fatalf("expense percent: %v", expense.Percent)
	}
}

func TestComputeTrendOmittedWithoutPrior(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 200),
			rec("Net Eff. Gross Income", 2025, time.February, 196.57),
			rec("New Fee", 2025, time.February, 15),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, ok := summary.Trend["New Fee"]; ok {
		t.Fatalf("trend fabricated for metric with no prior month")
	}
	if _, ok := summary.Trend["Net Eff. Gross Income"]; !ok {
		t.Fatalf("trend missing for metric with prior month")
	}
}

func TestComputeTrendPercentUndefinedOnZeroBase(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Delinquency", 2025, time.January, 0),
			rec("Delinquency", 2025, time.February, 12),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	trend := summary.Trend["Delinquency"]
	if !approx(trend.Absolute, 12) {
		t.Fatalf("absolute: %v", trend.Absolute)
	}
	if trend.Percent != nil {
		t.Fatalf("percent defined on zero base: %v", *trend.Percent)
	}
}

func TestComputeAmbiguousPeriod(t *testing.T) {
	t.Parallel()

	feb := model.Period{Year: 2025, Month: time.February}
	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.February, 196.57),
			rec("Total Expense", 2025, time.February, -110.15),
		},
		LabelConflicts: []model.LabelConflict{
			{Period: feb, Labels: []string{"Feb 2025", "2025-02"}},
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	_, err := c.Compute(table)
	var ambiguous *model.AmbiguousPeriodError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got %v, want AmbiguousPeriodError", err)
	}
	if ambiguous.Period != feb || len(ambiguous.Labels) != 2 {
		t.Fatalf("ambiguous period detail: %+v", ambiguous)
	}
}

func TestComputeConflictOutsideLatestPeriodTolerated(t *testing.T) {
	t.Parallel()

	// A label collision on an earlier month is a dedup warning, not a
	// fatal ambiguity; the trend baseline stays the first occurrence.
	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 100),
			rec("Net Eff. Gross Income", 2025, time.February, 120),
		},
		LabelConflicts: []model.LabelConflict{
			{Period: model.Period{Year: 2025, Month: time.January}, Labels: []string{"Jan 2025", "2025-01"}},
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	trend, ok := summary.Trend["Net Eff. Gross Income"]
	if !ok {
		t.Fatalf("no trend computed: %v", summary.Trend)
	}
	if !approx(trend.Absolute, 20) {
		t.Fatalf("trend absolute = %v, want 20", trend.Absolute)
	}
}

func TestComputeEmptyTable(t *testing.T) {
	t.Parallel()

	c := NewT12MonthlyCalculator(testDescriptor())
	_, err := c.Compute(&model.CanonicalTable{Sheet: "T12"})
	var empty *model.EmptySheetError
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want EmptySheetError", err)
	}
}

func TestDerivedNOISignConventions(t *testing.T) {
	t.Parallel()

	// Signed convention: expenses carry their own minus sign.
	signed := testDescriptor()
	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 200),
			rec("Total Expense", 2025, time.January, -82.30),
		},
	}
	summary, err := NewT12MonthlyCalculator(signed).Compute(table)
	if err != nil {
		t.Fatalf("compute signed: %v", err)
	}
	if summary.DerivedNOI == nil || !approx(*summary.DerivedNOI, 117.70) {
		t.Fatalf("signed NOI: %v", summary.DerivedNOI)
	}

	// Magnitude convention: expenses are positive and subtracted.
	unsigned := testDescriptor()
	unsigned.ExpensesSigned = false
	table = &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 200),
			rec("Total Expense", 2025, time.January, 82.30),
		},
	}
	summary, err = NewT12MonthlyCalculator(unsigned).Compute(table)
	if err != nil {
		t.Fatalf("compute unsigned: %v", err)
	}
	if summary.DerivedNOI == nil || !approx(*summary.DerivedNOI, 117.70) {
		t.Fatalf("unsigned NOI: %v", summary.DerivedNOI)
	}
}

func TestComputeYTDPrefersLatestDated(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Net Eff. Gross Income", 2025, time.January, 200),
			rec("Net Eff. Gross Income", 2025, time.February, 196.57),
			ytdRec("Net Eff. Gross Income", 2025, time.January, 200),
			ytdRec("Net Eff. Gross Income", 2025, time.February, 396.57),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !approx(summary.YTD["Net Eff. Gross Income"], 396.57) {
		t.Fatalf("ytd snapshot: %v", summary.YTD)
	}
	if summary.YTDPeriod != (model.Period{Year: 2025, Month: time.February}) {
		t.Fatalf("ytd period: %v", summary.YTDPeriod)
	}
}

func TestComputeMultiPropertyQualifiesKeys(t *testing.T) {
	t.Parallel()

	a := rec("Total Expense", 2025, time.January, -10)
	a.Property = "Maple"
	b := rec("Total Expense", 2025, time.January, -20)
	b.Property = "Oak"
	table := &model.CanonicalTable{Sheet: "Maple", Records: []model.MetricRecord{a, b}}

	desc := testDescriptor()
	desc.Name = "standard_t12_workbook"
	summary, err := NewStandardT12Calculator(desc).Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !approx(summary.Current["Maple / Total Expense"], -10) || !approx(summary.Current["Oak / Total Expense"], -20) {
		t.Fatalf("qualified keys: %v", summary.Current)
	}
	if summary.DerivedNOI != nil {
		t.Fatalf("NOI derived across properties")
	}
	if len(summary.Issues) == 0 {
		t.Fatalf("multi-property note missing")
	}
}

func TestBudgetVariance(t *testing.T) {
	t.Parallel()

	budget := 205.0
	current := rec("Net Eff. Gross Income", 2025, time.January, 200)
	current.Budget = &budget

	ytdBudget := 404.0
	ytd := ytdRec("Net Eff. Gross Income", 2025, time.January, 396.57)
	ytd.Budget = &ytdBudget

	table := &model.CanonicalTable{Sheet: "T12", Records: []model.MetricRecord{current, ytd}}

	desc := testDescriptor()
	desc.Name = "standard_t12_workbook"
	summary, err := NewStandardT12Calculator(desc).Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !approx(summary.BudgetVariance["Net Eff. Gross Income"], -5) {
		t.Fatalf("current variance: %v", summary.BudgetVariance)
	}
	if !approx(summary.BudgetVariance["Net Eff. Gross Income (YTD)"], 396.57-404) {
		t.Fatalf("ytd variance: %v", summary.BudgetVariance)
	}
}

func TestKeyRatios(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Property Asking Rent", 2025, time.January, 1000),
			rec("Effective Rental Income", 2025, time.January, 950),
			rec("Gross Scheduled Rent", 2025, time.January, 980),
			rec("Loss to lease", 2025, time.January, -20),
			rec("Vacancy", 2025, time.January, -30),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !approx(summary.Ratios["Collection Rate"], 95) {
		t.Fatalf("collection rate: %v", summary.Ratios)
	}
	if !approx(summary.Ratios["Loss-to-Lease Rate"], 2) {
		t.Fatalf("loss-to-lease rate: %v", summary.Ratios)
	}
	if !approx(summary.Ratios["Vacancy Rate"], 3) {
		t.Fatalf("vacancy rate: %v", summary.Ratios)
	}
	if !approx(summary.Ratios["Economic Occupancy Rate"], 950.0/980.0*100) {
		t.Fatalf("economic occupancy: %v", summary.Ratios)
	}
}

func TestKeyRatiosOmittedWithoutBase(t *testing.T) {
	t.Parallel()

	table := &model.CanonicalTable{
		Sheet: "T12",
		Records: []model.MetricRecord{
			rec("Property Asking Rent", 2025, time.January, 0),
			rec("Effective Rental Income", 2025, time.January, 950),
		},
	}

	c := NewT12MonthlyCalculator(testDescriptor())
	summary, err := c.Compute(table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(summary.Ratios) != 0 {
		t.Fatalf("ratios reported on zero base: %v", summary.Ratios)
	}
}

func TestRegistryPairing(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(NewT12MonthlyCalculator(testDescriptor())); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(NewT12MonthlyCalculator(testDescriptor())); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
	if got := r.Formats(); len(got) != 1 || got[0] != "t12_monthly_financial" {
		t.Fatalf("formats: %v", got)
	}
}
