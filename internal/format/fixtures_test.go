package format

import (
	"t12insight/internal/model"
)

// monthlyWorkbook is the floating-header layout: month labels anywhere
// above the data block, one optional YTD column.
func monthlyWorkbook() *model.Workbook {
	return &model.Workbook{
		Filename: "riverside_t12.xlsx",
		Sheets: []*model.RawSheet{{
			Name: "T12",
			Rows: [][]string{
				{"Riverside Apartments"},
				{""},
				{"", "Jan 2025", "Feb 2025", "YTD"},
				{"Gross Scheduled Rent", "1,200.00", "1,210.00", "2,410.00"},
				{"Vacancy", "(60.00)", "(55.00)", "(115.00)"},
				{"Net Effective Gross Income", "200.00", "196.57", "396.57"},
				{"Total Expenses", "(82.30)", "(110.15)", "(192.45)"},
				{"EBITDA", "117.70", "86.42", "204.12"},
			},
		}},
	}
}

// standardWorkbook is the fixed row-7 template: twelve monthly actual
// columns, YTD actual, YTD budget, then positional budget columns.
func standardWorkbook() *model.Workbook {
	header := make([]string, stdFirstBudgetCol+stdMonthCount)
	months := []string{
		"Jan 2025", "Feb 2025", "Mar 2025", "Apr 2025", "May 2025", "Jun 2025",
		"Jul 2025", "Aug 2025", "Sep 2025", "Oct 2025", "Nov 2025", "Dec 2025",
	}
	for i, m := range months {
		header[stdFirstMonthCol+i] = m
	}
	header[stdYTDActualCol] = "YTD"
	header[stdYTDBudgetCol] = "Budget"

	row := func(metric, jan, feb, ytd, ytdBudget, janBudget string) []string {
		r := make([]string, stdFirstBudgetCol+stdMonthCount)
		r[0] = metric
		r[stdFirstMonthCol] = jan
		r[stdFirstMonthCol+1] = feb
		r[stdYTDActualCol] = ytd
		r[stdYTDBudgetCol] = ytdBudget
		r[stdFirstBudgetCol] = janBudget
		return r
	}

	property := [][]string{
		{}, {}, {}, {}, {}, {},
		header,
		row("Property Asking Rent", "1,000.00", "1,020.00", "2,020.00", "2,000.00", "980.00"),
		row("Total Expenses", "(400.00)", "(410.00)", "(810.00)", "(800.00)", "(390.00)"),
		row("Monthly Cash Flow", "600.00", "610.00", "1,210.00", "1,200.00", "590.00"),
		row("Owner Distributions", "(50.00)", "(55.00)", "(105.00)", "(100.00)", "(45.00)"),
	}

	return &model.Workbook{
		Filename: "portfolio_standard.xlsx",
		Sheets: []*model.RawSheet{
			{Name: "Portfolio Summary", Rows: property},
			{Name: "Maple Court", Rows: property},
			{Name: "TEMPLATE", Rows: property, Hidden: true},
		},
	}
}

// databaseWorkbook is the paired-sheet layout: actuals on *-Fin,
// budgets on *-Bgt, date-valued headers, no YTD column.
func databaseWorkbook() *model.Workbook {
	fin := [][]string{
		{}, {}, {}, {}, {}, {},
		{"", "2024-12-31", "2025-01-31", "2025-02-28"},
		{"Net Eff. Gross Income", "180.00", "200.00", "196.57"},
		{"Total Expenses", "(70.00)", "(80.00)", "(82.30)"},
	}
	bgt := [][]string{
		{}, {}, {}, {}, {}, {},
		{"", "2024-12-31", "2025-01-31", "2025-02-28"},
		{"Net Eff. Gross Income", "185.00", "205.00", "199.00"},
		{"Monthly Cash Flow", "100.00", "110.00", "108.00"},
		{"Total Expenses", "(75.00)", "(85.00)", "(88.00)"},
	}
	return &model.Workbook{
		Filename: "database_export.xlsx",
		Sheets: []*model.RawSheet{
			{Name: "Maple-Fin", Rows: fin},
			{Name: "Maple-Bgt", Rows: bgt},
		},
	}
}

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}
