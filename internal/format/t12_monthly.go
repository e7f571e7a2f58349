package format

import (
	"strings"

	"t12insight/internal/model"
	"t12insight/internal/tidy"
)

// T12MonthlyProcessor handles the classic T12 export: metric rows with
// floating "Mon YYYY" column headers and an optional YTD column. The
// header row can sit anywhere above the data block.
type T12MonthlyProcessor struct {
	desc   *model.FormatDescriptor
	engine *tidy.Engine
}

// NewT12MonthlyProcessor creates the processor for a loaded descriptor.
func NewT12MonthlyProcessor(desc *model.FormatDescriptor) *T12MonthlyProcessor {
	return &T12MonthlyProcessor{
		desc:   desc,
		engine: tidy.NewEngine(desc),
	}
}

// Name implements Processor.
func (p *T12MonthlyProcessor) Name() string { return p.desc.Name }

// Descriptor implements Processor.
func (p *T12MonthlyProcessor) Descriptor() *model.FormatDescriptor { return p.desc }

// Detect scores header shape only: evidence of month-labelled columns
// and of the format's expected metric rows.
func (p *T12MonthlyProcessor) Detect(wb *model.Workbook) float64 {
	sheet := firstVisibleSheet(wb)
	if sheet == nil {
		return 0
	}

	monthCells := 0
	metricHits := 0
	hasBudgetColumn := false
	for _, row := range sheet.Rows {
		for _, cell := range row {
			if _, ok := tidy.ParsePeriod(cell); ok {
				monthCells++
			}
			if strings.EqualFold(strings.TrimSpace(cell), "Budget") {
				hasBudgetColumn = true
			}
		}
		label := ""
		if len(row) > 0 {
			label = row[0]
		}
		for _, want := range p.desc.ExpectedMetrics {
			if containsFold(label, want) {
				metricHits++
				break
			}
		}
	}

	monthScore := 0.0
	if monthCells >= 2 {
		monthScore = 0.6
	} else if monthCells == 1 {
		monthScore = 0.3
	}

	metricScore := 0.4 * minf(1, float64(metricHits)/3)
	score := monthScore + metricScore

	// Month headers alone are weak evidence: the other layouts carry
	// them too. Without metric evidence stay below the threshold.
	if metricHits == 0 {
		score = minf(score, 0.4)
	}
	// A Budget column or paired -Fin/-Bgt sheet names belong to the
	// other layouts; claiming them would misplace the value columns.
	if hasBudgetColumn || strings.HasSuffix(sheet.Name, "-Fin") {
		score = minf(score, 0.4)
	}
	return score
}

// Process locates the header row and hands a column mapping to the
// tidy engine. Every "Mon YYYY" cell becomes a monthly actual column;
// a "YTD" cell becomes the cumulative column.
func (p *T12MonthlyProcessor) Process(wb *model.Workbook) (*model.CanonicalTable, []model.ParseWarning, error) {
	sheet := firstVisibleSheet(wb)
	if sheet == nil {
		return nil, nil, &model.EmptySheetError{Sheet: wb.Filename}
	}

	headerRow, err := tidy.FindHeaderRow(sheet, 2, func(cell string) bool {
		_, ok := tidy.ParsePeriod(cell)
		return ok || tidy.IsYTDLabel(cell)
	})
	if err != nil {
		return nil, nil, err
	}

	layout := tidy.Layout{HeaderRow: headerRow, MetricColumn: 0}
	for i, cell := range sheet.Rows[headerRow] {
		if i == 0 {
			continue
		}
		if period, ok := tidy.ParsePeriod(cell); ok {
			layout.Columns = append(layout.Columns, tidy.Column{
				Index:  i,
				Label:  tidy.NormalizeLabel(cell),
				Period: period,
			})
			continue
		}
		if tidy.IsYTDLabel(cell) {
			layout.Columns = append(layout.Columns, tidy.Column{
				Index: i,
				Label: tidy.NormalizeLabel(cell),
				IsYTD: true,
			})
		}
	}

	table, warnings, err := p.engine.Transform(sheet, layout)
	if err != nil {
		return nil, nil, err
	}
	table.Format = p.desc.Name
	return table, warnings, nil
}

func firstVisibleSheet(wb *model.Workbook) *model.RawSheet {
	for _, s := range wb.Sheets {
		if !s.Hidden && len(s.Rows) > 0 {
			return s
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
