package format

import (
	"strings"

	"t12insight/internal/model"
	"t12insight/internal/tidy"
)

// Column positions of the standard workbook, fixed by the template:
// header on row 7, metric names in column 1, twelve monthly actuals,
// one YTD actual, one YTD budget, then twelve monthly budgets.
const (
	stdHeaderRow      = 6
	stdFirstMonthCol  = 1
	stdMonthCount     = 12
	stdYTDActualCol   = 13
	stdYTDBudgetCol   = 14
	stdFirstBudgetCol = 17
)

// stdSkippedSheets are aggregate tabs that are not properties.
var stdSkippedSheets = map[string]bool{
	"Portfolio Summary": true,
	"Total Portfolio":   true,
	"TEMPLATE":          true,
}

// StandardT12Processor handles the fixed-layout T12 workbook where
// every visible sheet is one property.
type StandardT12Processor struct {
	desc   *model.FormatDescriptor
	engine *tidy.Engine
}

// NewStandardT12Processor creates the processor for a loaded descriptor.
func NewStandardT12Processor(desc *model.FormatDescriptor) *StandardT12Processor {
	return &StandardT12Processor{
		desc:   desc,
		engine: tidy.NewEngine(desc),
	}
}

// Name implements Processor.
func (p *StandardT12Processor) Name() string { return p.desc.Name }

// Descriptor implements Processor.
func (p *StandardT12Processor) Descriptor() *model.FormatDescriptor { return p.desc }

// Detect checks the fixed header shape: "YTD" and "Budget" in their
// template positions on row 7 plus a recognizable first metric row.
func (p *StandardT12Processor) Detect(wb *model.Workbook) float64 {
	sheet := firstVisibleSheet(wb)
	if sheet == nil || len(sheet.Rows) <= stdHeaderRow+1 {
		return 0
	}

	score := 0.0
	if strings.EqualFold(strings.TrimSpace(sheet.Cell(stdHeaderRow, stdYTDActualCol)), "YTD") {
		score += 0.4
	}
	if strings.EqualFold(strings.TrimSpace(sheet.Cell(stdHeaderRow, stdYTDBudgetCol)), "Budget") {
		score += 0.4
	}
	firstMetric := sheet.Cell(stdHeaderRow+1, 0)
	for _, hint := range []string{"Rent", "Income", "Property Asking Rent"} {
		if containsFold(firstMetric, hint) {
			score += 0.2
			break
		}
	}
	return score
}

// Process reshapes every visible property sheet and merges the results
// into one canonical table. Budget cells below the "Monthly Cash Flow"
// row are template filler, not applicable budgets, and are dropped.
func (p *StandardT12Processor) Process(wb *model.Workbook) (*model.CanonicalTable, []model.ParseWarning, error) {
	table := &model.CanonicalTable{Format: p.desc.Name}
	var warnings []model.ParseWarning
	processed := 0

	for _, sheet := range wb.VisibleSheets() {
		if stdSkippedSheets[sheet.Name] || len(sheet.Rows) <= stdHeaderRow+1 {
			continue
		}

		layout := p.sheetLayout(sheet)
		if len(layout.Columns) == 0 {
			warnings = append(warnings, model.ParseWarning{
				Sheet:   sheet.Name,
				Message: "no parsable period headers on row 7, sheet skipped",
			})
			continue
		}

		sheetTable, sheetWarnings, err := p.engine.Transform(sheet, layout)
		if err != nil {
			// One malformed property sheet degrades quality, it does
			// not invalidate the rest of the workbook.
			warnings = append(warnings, model.ParseWarning{
				Sheet:   sheet.Name,
				Message: "sheet skipped: " + err.Error(),
			})
			continue
		}

		dropBudgetsBelowCashFlow(sheetTable)

		if table.Sheet == "" {
			table.Sheet = sheet.Name
		}
		table.Records = append(table.Records, sheetTable.Records...)
		table.MergeLabelConflicts(sheetTable.LabelConflicts)
		warnings = append(warnings, sheetWarnings...)
		processed++
	}

	if processed == 0 {
		return nil, nil, &model.EmptySheetError{Sheet: wb.Filename}
	}
	return table, warnings, nil
}

// sheetLayout maps the template's fixed columns. Actual columns come
// first so budget columns can attach to their records.
func (p *StandardT12Processor) sheetLayout(sheet *model.RawSheet) tidy.Layout {
	layout := tidy.Layout{
		Property:     sheet.Name,
		HeaderRow:    stdHeaderRow,
		MetricColumn: 0,
	}

	type monthCol struct {
		period model.Period
		label  string
	}
	months := make([]monthCol, 0, stdMonthCount)
	for i := 0; i < stdMonthCount; i++ {
		idx := stdFirstMonthCol + i
		cell := sheet.Cell(stdHeaderRow, idx)
		period, ok := tidy.ParsePeriod(cell)
		if !ok {
			months = append(months, monthCol{})
			continue
		}
		label := period.String()
		months = append(months, monthCol{period: period, label: label})
		layout.Columns = append(layout.Columns, tidy.Column{
			Index:  idx,
			Label:  label,
			Period: period,
		})
	}

	layout.Columns = append(layout.Columns, tidy.Column{
		Index: stdYTDActualCol,
		Label: "YTD",
		IsYTD: true,
	})

	// Budget columns mirror the actual months positionally.
	for i, m := range months {
		if m.period.IsZero() {
			continue
		}
		layout.Columns = append(layout.Columns, tidy.Column{
			Index:  stdFirstBudgetCol + i,
			Label:  m.label,
			Period: m.period,
			Kind:   tidy.ColumnBudget,
		})
	}
	layout.Columns = append(layout.Columns, tidy.Column{
		Index: stdYTDBudgetCol,
		Label: "YTD",
		IsYTD: true,
		Kind:  tidy.ColumnBudget,
	})

	return layout
}

// dropBudgetsBelowCashFlow clears budgets from records sourced below
// the "Monthly Cash Flow" row of each property sheet.
func dropBudgetsBelowCashFlow(table *model.CanonicalTable) {
	cutoff := 0
	for _, r := range table.Records {
		if strings.Contains(tidy.FoldKey(r.Metric), "monthlycashflow") {
			if cutoff == 0 || r.SourceRow < cutoff {
				cutoff = r.SourceRow
			}
		}
	}
	if cutoff == 0 {
		return
	}
	for i := range table.Records {
		if table.Records[i].SourceRow > cutoff {
			table.Records[i].Budget = nil
		}
	}
}
