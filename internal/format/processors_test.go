package format

import (
	"testing"
	"time"

	"t12insight/internal/model"
)

func loadedDescriptors(t *testing.T) map[string]*model.FormatDescriptor {
	t.Helper()
	descriptors, err := LoadDescriptors()
	if err != nil {
		t.Fatalf("load descriptors: %v", err)
	}
	return descriptors
}

func TestLoadDescriptors(t *testing.T) {
	t.Parallel()

	descriptors := loadedDescriptors(t)
	for _, name := range []string{"t12_monthly_financial", "standard_t12_workbook", "database_t12_workbook"} {
		d, ok := descriptors[name]
		if !ok {
			t.Fatalf("descriptor %q missing", name)
		}
		if d.IncomeMetric == "" || len(d.ExpenseMetrics) == 0 {
			t.Fatalf("descriptor %q missing NOI inputs: %+v", name, d)
		}
	}
	if descriptors["t12_monthly_financial"].Aliases["Total Expenses"] != "Total Expense" {
		t.Fatalf("alias table not loaded")
	}
}

func TestDetectionIsMutuallyExclusive(t *testing.T) {
	t.Parallel()

	descriptors := loadedDescriptors(t)
	processors := []Processor{
		NewT12MonthlyProcessor(descriptors["t12_monthly_financial"]),
		NewStandardT12Processor(descriptors["standard_t12_workbook"]),
		NewDatabaseT12Processor(descriptors["database_t12_workbook"]),
	}
	workbooks := map[string]*model.Workbook{
		"t12_monthly_financial": monthlyWorkbook(),
		"standard_t12_workbook": standardWorkbook(),
		"database_t12_workbook": databaseWorkbook(),
	}

	const threshold = 0.5
	for want, wb := range workbooks {
		for _, p := range processors {
			score := p.Detect(wb)
			if p.Name() == want && score <= threshold {
				t.Errorf("%s scored %.2f on its own workbook, want > %.2f", p.Name(), score, threshold)
			}
			if p.Name() != want && score > threshold {
				t.Errorf("%s scored %.2f on a %s workbook, want < %.2f", p.Name(), score, want, threshold)
			}
		}
	}
}

func TestT12MonthlyProcess(t *testing.T) {
	t.Parallel()

	descriptors := loadedDescriptors(t)
	p := NewT12MonthlyProcessor(descriptors["t12_monthly_financial"])

	table, _, err := p.Process(monthlyWorkbook())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if table.Format != "t12_monthly_financial" {
		t.Fatalf("format = %q", table.Format)
	}

	// 5 metrics x (2 months + YTD)
	if len(table.Records) != 15 {
		t.Fatalf("got %d records, want 15", len(table.Records))
	}

	byKey := make(map[string]model.MetricRecord)
	for _, r := range table.Records {
		key := r.Metric + "|" + r.PeriodLabel
		byKey[key] = r
	}

	negi := byKey["Net Eff. Gross Income|Feb 2025"]
	if !approx(negi.Value, 196.57) {
		t.Fatalf("aliased income record: %+v", negi)
	}
	exp := byKey["Total Expense|Jan 2025"]
	if !approx(exp.Value, -82.30) {
		t.Fatalf("expense record: %+v", exp)
	}
	ytd := byKey["EBITDA (NOI)|YTD"]
	if !ytd.IsYTD || !approx(ytd.Value, 204.12) {
		t.Fatalf("ytd record: %+v", ytd)
	}
}

func TestStandardT12Process(t *testing.T) {
	t.Parallel()

	descriptors := loadedDescriptors(t)
	p := NewStandardT12Processor(descriptors["standard_t12_workbook"])

	table, _, err := p.Process(standardWorkbook())
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for _, r := range table.Records {
		if r.Property != "Maple Court" {
			t.Fatalf("aggregate sheet leaked into records: %+v", r)
		}
	}

	byKey := make(map[string]model.MetricRecord)
	for _, r := range table.Records {
		byKey[r.Metric+"|"+r.PeriodLabel] = r
	}

	rent := byKey["Property Asking Rent|Jan 2025"]
	if !approx(rent.Value, 1000) || rent.Budget == nil || !approx(*rent.Budget, 980) {
		t.Fatalf("budget not attached: %+v", rent)
	}
	if rent.Period != (model.Period{Year: 2025, Month: time.January}) {
		t.Fatalf("period: %v", rent.Period)
	}

	ytd := byKey["Property Asking Rent|YTD"]
	if !ytd.IsYTD || ytd.Budget == nil || !approx(*ytd.Budget, 2000) {
		t.Fatalf("ytd budget not attached: %+v", ytd)
	}

	cash := byKey["Monthly Cash Flow|Jan 2025"]
	if cash.Budget == nil || !approx(*cash.Budget, 590) {
		t.Fatalf("cash flow keeps its budget: %+v", cash)
	}

	// Budgets below the Monthly Cash Flow row are template filler.
	below := byKey["Owner Distributions|Jan 2025"]
	if below.Budget != nil {
		t.Fatalf("budget survived below cash flow row: %+v", below)
	}
	belowYTD := byKey["Owner Distributions|YTD"]
	if belowYTD.Budget != nil {
		t.Fatalf("ytd budget survived below cash flow row: %+v", belowYTD)
	}
}

func TestDatabaseT12Process(t *testing.T) {
	t.Parallel()

	descriptors := loadedDescriptors(t)
	p := NewDatabaseT12Processor(descriptors["database_t12_workbook"])

	table, _, err := p.Process(databaseWorkbook())
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	byKey := make(map[string]model.MetricRecord)
	for _, r := range table.Records {
		byKey[r.Metric+"|"+r.PeriodLabel] = r
	}

	negi := byKey["Net Eff. Gross Income|Jan 2025"]
	if negi.Property != "Maple" {
		t.Fatalf("property from sheet pair: %+v", negi)
	}
	if negi.Budget == nil || !approx(*negi.Budget, 205) {
		t.Fatalf("budget not merged from -Bgt sheet: %+v", negi)
	}

	// The -Bgt row below its Monthly Cash Flow line is not applicable.
	exp := byKey["Total Expense|Jan 2025"]
	if exp.Budget != nil {
		t.Fatalf("budget below cash flow row merged: %+v", exp)
	}

	// Synthetic YTD sums the latest year only.
	ytd := byKey["Net Eff. Gross Income|YTD"]
	if !ytd.IsYTD || !approx(ytd.Value, 396.57) {
		t.Fatalf("synthetic ytd: %+v", ytd)
	}
	if ytd.Budget == nil || !approx(*ytd.Budget, 404) {
		t.Fatalf("synthetic ytd budget: %+v", ytd)
	}
	expYTD := byKey["Total Expense|YTD"]
	if !approx(expYTD.Value, -162.30) {
		t.Fatalf("synthetic expense ytd: %+v", expYTD)
	}
	if expYTD.Budget != nil {
		t.Fatalf("incomplete budget must not synthesize a ytd budget: %+v", expYTD)
	}
}
