package format

import (
	"strings"

	"t12insight/internal/model"
	"t12insight/internal/tidy"
)

const dbHeaderRow = 6

// DatabaseT12Processor handles the portfolio database layout: one
// "<Property>-Fin" sheet of actuals paired with a "<Property>-Bgt"
// sheet of budgets, date-valued column headers, no YTD column. The
// cumulative figures are synthesized by summing the latest year's
// months, which keeps the round-trip identity exact by construction.
type DatabaseT12Processor struct {
	desc   *model.FormatDescriptor
	engine *tidy.Engine
}

// NewDatabaseT12Processor creates the processor for a loaded descriptor.
func NewDatabaseT12Processor(desc *model.FormatDescriptor) *DatabaseT12Processor {
	return &DatabaseT12Processor{
		desc:   desc,
		engine: tidy.NewEngine(desc),
	}
}

// Name implements Processor.
func (p *DatabaseT12Processor) Name() string { return p.desc.Name }

// Descriptor implements Processor.
func (p *DatabaseT12Processor) Descriptor() *model.FormatDescriptor { return p.desc }

// Detect keys off the sheet naming convention: at least one -Fin sheet
// with its -Bgt counterpart.
func (p *DatabaseT12Processor) Detect(wb *model.Workbook) float64 {
	pairs := p.sheetPairs(wb)
	if len(pairs) == 0 {
		return 0
	}
	return 0.9
}

type dbPair struct {
	property string
	fin      *model.RawSheet
	bgt      *model.RawSheet
}

func (p *DatabaseT12Processor) sheetPairs(wb *model.Workbook) []dbPair {
	var pairs []dbPair
	for _, s := range wb.Sheets {
		if !strings.HasSuffix(s.Name, "-Fin") {
			continue
		}
		property := strings.TrimSuffix(s.Name, "-Fin")
		if bgt := wb.Sheet(property + "-Bgt"); bgt != nil {
			pairs = append(pairs, dbPair{property: property, fin: s, bgt: bgt})
		}
	}
	return pairs
}

// Process transforms each property pair: actuals from the -Fin sheet,
// budgets merged in from the -Bgt sheet, then synthesized YTD rows.
func (p *DatabaseT12Processor) Process(wb *model.Workbook) (*model.CanonicalTable, []model.ParseWarning, error) {
	pairs := p.sheetPairs(wb)
	if len(pairs) == 0 {
		return nil, nil, &model.LayoutMismatchError{
			Sheet:  wb.Filename,
			Reason: "no Property-Fin/Property-Bgt sheet pairs found",
		}
	}

	table := &model.CanonicalTable{Format: p.desc.Name}
	var warnings []model.ParseWarning
	processed := 0

	for _, pair := range pairs {
		finLayout, ok := p.sheetLayout(pair.fin, pair.property)
		if !ok {
			warnings = append(warnings, model.ParseWarning{
				Sheet:   pair.fin.Name,
				Message: "no date-valued headers on row 7, property skipped",
			})
			continue
		}

		finTable, finWarnings, err := p.engine.Transform(pair.fin, finLayout)
		if err != nil {
			warnings = append(warnings, model.ParseWarning{
				Sheet:   pair.fin.Name,
				Message: "property skipped: " + err.Error(),
			})
			continue
		}
		warnings = append(warnings, finWarnings...)

		if bgtLayout, ok := p.sheetLayout(pair.bgt, pair.property); ok {
			bgtTable, bgtWarnings, err := p.engine.Transform(pair.bgt, bgtLayout)
			if err == nil {
				mergeBudgets(finTable, bgtTable)
				warnings = append(warnings, bgtWarnings...)
			}
		}

		appendSyntheticYTD(finTable)

		if table.Sheet == "" {
			table.Sheet = pair.fin.Name
		}
		table.Records = append(table.Records, finTable.Records...)
		table.MergeLabelConflicts(finTable.LabelConflicts)
		processed++
	}

	if processed == 0 {
		return nil, nil, &model.EmptySheetError{Sheet: wb.Filename}
	}
	return table, warnings, nil
}

// sheetLayout maps every row-7 header cell that parses as a date.
func (p *DatabaseT12Processor) sheetLayout(sheet *model.RawSheet, property string) (tidy.Layout, bool) {
	layout := tidy.Layout{
		Property:     property,
		HeaderRow:    dbHeaderRow,
		MetricColumn: 0,
	}
	if len(sheet.Rows) <= dbHeaderRow+1 {
		return layout, false
	}
	for i, cell := range sheet.Rows[dbHeaderRow] {
		if i == 0 {
			continue
		}
		if period, ok := tidy.ParsePeriod(cell); ok {
			layout.Columns = append(layout.Columns, tidy.Column{
				Index:  i,
				Label:  period.String(),
				Period: period,
			})
		}
	}
	return layout, len(layout.Columns) > 0
}

// mergeBudgets attaches the -Bgt sheet's values to the matching actual
// records. Budget rows below the "Monthly Cash Flow" row are not
// applicable and are ignored; budget-only cells create no records.
func mergeBudgets(fin, bgt *model.CanonicalTable) {
	cutoff := 0
	for _, r := range bgt.Records {
		if strings.Contains(tidy.FoldKey(r.Metric), "monthlycashflow") {
			if cutoff == 0 || r.SourceRow < cutoff {
				cutoff = r.SourceRow
			}
		}
	}

	type key struct {
		metric string
		period model.Period
	}
	index := make(map[key]int, len(fin.Records))
	for i, r := range fin.Records {
		index[key{metric: r.Metric, period: r.Period}] = i
	}

	for _, b := range bgt.Records {
		if cutoff != 0 && b.SourceRow > cutoff {
			continue
		}
		if i, ok := index[key{metric: b.Metric, period: b.Period}]; ok {
			v := b.Value
			fin.Records[i].Budget = &v
		}
	}
}

// appendSyntheticYTD adds one cumulative record per metric, summing the
// latest year's monthly actuals (and budgets where complete).
func appendSyntheticYTD(table *model.CanonicalTable) {
	var latest model.Period
	for _, r := range table.Records {
		if latest.Before(r.Period) {
			latest = r.Period
		}
	}
	if latest.IsZero() {
		return
	}

	type acc struct {
		metric    string
		value     float64
		budget    float64
		hasBudget bool
		sourceRow int
	}
	var order []string
	sums := make(map[string]*acc)
	for _, r := range table.Records {
		if r.Period.Year != latest.Year {
			continue
		}
		a, ok := sums[r.Metric]
		if !ok {
			a = &acc{metric: r.Metric, hasBudget: true, sourceRow: r.SourceRow}
			sums[r.Metric] = a
			order = append(order, r.Metric)
		}
		a.value += r.Value
		if r.Budget != nil {
			a.budget += *r.Budget
		} else {
			a.hasBudget = false
		}
	}

	property := ""
	if len(table.Records) > 0 {
		property = table.Records[0].Property
	}
	for _, metric := range order {
		a := sums[metric]
		rec := model.MetricRecord{
			Property:    property,
			Metric:      a.metric,
			Period:      latest,
			PeriodLabel: "YTD",
			IsYTD:       true,
			Value:       a.value,
			SourceRow:   a.sourceRow,
		}
		if a.hasBudget {
			b := a.budget
			rec.Budget = &b
		}
		table.Records = append(table.Records, rec)
	}
}
