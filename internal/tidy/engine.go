package tidy

import (
	"fmt"

	"t12insight/internal/model"
)

// ColumnKind distinguishes actual figures from budget figures.
type ColumnKind int

const (
	ColumnActual ColumnKind = iota
	ColumnBudget
)

// Column maps one raw spreadsheet column to its period semantics.
type Column struct {
	Index  int
	Label  string
	Period model.Period
	IsYTD  bool
	Kind   ColumnKind
}

// Layout is the per-format mapping a processor hands to the engine:
// where the header sits, which column carries metric names and what
// each value column means. The engine itself has no format knowledge.
type Layout struct {
	Property     string
	HeaderRow    int
	MetricColumn int
	Columns      []Column
}

// Engine reshapes one RawSheet into long-form MetricRecords under a
// supplied layout. Metric labels pass through the descriptor's alias
// table; unmapped labels are kept verbatim and flagged, never dropped.
type Engine struct {
	aliases map[string]string
}

// NewEngine creates an engine for one format descriptor.
func NewEngine(desc *model.FormatDescriptor) *Engine {
	aliases := make(map[string]string, len(desc.Aliases))
	for raw, canonical := range desc.Aliases {
		aliases[FoldKey(raw)] = canonical
	}
	return &Engine{aliases: aliases}
}

// dedupKey is the no-duplicate-facts invariant: a (metric, period,
// is_ytd) triple holds at most one record per column kind. Raw column
// labels are deliberately not part of the key, so two columns whose
// labels resolve to the same month still collide.
type dedupKey struct {
	property string
	metric   string
	period   model.Period
	isYTD    bool
}

// Transform converts the sheet's data rows into records. Blank and
// non-numeric cells are skipped, not coerced to zero. Exact collisions
// keep the first occurrence and record a warning. Budget columns
// attach to the matching actual record; a budget cell with no actual
// counterpart does not create a record on its own.
func (e *Engine) Transform(sheet *model.RawSheet, layout Layout) (*model.CanonicalTable, []model.ParseWarning, error) {
	if layout.HeaderRow < 0 || layout.HeaderRow >= len(sheet.Rows) {
		return nil, nil, &model.LayoutMismatchError{
			Sheet:  sheet.Name,
			Reason: fmt.Sprintf("header row %d outside sheet of %d rows", layout.HeaderRow+1, len(sheet.Rows)),
		}
	}
	if len(layout.Columns) == 0 {
		return nil, nil, &model.LayoutMismatchError{Sheet: sheet.Name, Reason: "no value columns mapped"}
	}

	table := &model.CanonicalTable{Sheet: sheet.Name}
	table.LabelConflicts = labelConflicts(layout.Columns)
	var warnings []model.ParseWarning
	seen := make(map[dedupKey]int) // key -> index into table.Records
	budgets := make(map[dedupKey]bool)

	dataRows := 0
	for row := layout.HeaderRow + 1; row < len(sheet.Rows); row++ {
		rawName := NormalizeLabel(sheet.Cell(row, layout.MetricColumn))
		if rawName == "" {
			continue
		}
		// Repeated header rows inside the data block are layout noise.
		if _, isPeriod := ParsePeriod(rawName); isPeriod {
			continue
		}
		dataRows++

		metric, mapped := e.aliases[FoldKey(rawName)]
		if !mapped {
			metric = rawName
		}

		for _, col := range layout.Columns {
			cell := sheet.Cell(row, col.Index)
			if NormalizeLabel(cell) == "" {
				continue
			}
			value, ok := ParseMoney(cell)
			if !ok {
				warnings = append(warnings, model.ParseWarning{
					Sheet: sheet.Name, Row: row + 1, Col: col.Index + 1,
					Message: fmt.Sprintf("non-numeric cell %q for metric %q skipped", cell, metric),
				})
				continue
			}

			key := dedupKey{
				property: layout.Property,
				metric:   metric,
				period:   col.Period,
				isYTD:    col.IsYTD,
			}

			if col.Kind == ColumnBudget {
				idx, exists := seen[key]
				if !exists {
					continue
				}
				if budgets[key] {
					warnings = append(warnings, model.ParseWarning{
						Sheet: sheet.Name, Row: row + 1, Col: col.Index + 1,
						Message: fmt.Sprintf("duplicate budget for %q at %q ignored", metric, col.Label),
					})
					continue
				}
				v := value
				table.Records[idx].Budget = &v
				budgets[key] = true
				continue
			}

			if _, exists := seen[key]; exists {
				warnings = append(warnings, model.ParseWarning{
					Sheet: sheet.Name, Row: row + 1, Col: col.Index + 1,
					Message: fmt.Sprintf("duplicate record for %q at %q kept first occurrence", metric, col.Label),
				})
				continue
			}

			seen[key] = len(table.Records)
			table.Records = append(table.Records, model.MetricRecord{
				Property:    layout.Property,
				Metric:      metric,
				Period:      col.Period,
				PeriodLabel: col.Label,
				IsYTD:       col.IsYTD,
				Value:       value,
				Unmapped:    !mapped,
				SourceRow:   row + 1,
			})
			if !mapped {
				warnings = appendUnmappedWarning(warnings, sheet.Name, row+1, rawName)
			}
		}
	}

	if dataRows == 0 {
		return nil, nil, &model.EmptySheetError{Sheet: sheet.Name}
	}

	return table, warnings, nil
}

// labelConflicts finds dated actual columns whose distinct raw labels
// resolve to the same month, in column order.
func labelConflicts(columns []Column) []model.LabelConflict {
	var conflicts []model.LabelConflict
	labels := make(map[model.Period][]string)
	order := make([]model.Period, 0, len(columns))
	for _, col := range columns {
		if col.IsYTD || col.Kind != ColumnActual || col.Period.IsZero() {
			continue
		}
		if _, ok := labels[col.Period]; !ok {
			order = append(order, col.Period)
		}
		if !containsLabel(labels[col.Period], col.Label) {
			labels[col.Period] = append(labels[col.Period], col.Label)
		}
	}
	for _, period := range order {
		if len(labels[period]) > 1 {
			conflicts = append(conflicts, model.LabelConflict{Period: period, Labels: labels[period]})
		}
	}
	return conflicts
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// appendUnmappedWarning records an unmapped metric name once per row.
func appendUnmappedWarning(warnings []model.ParseWarning, sheet string, row int, name string) []model.ParseWarning {
	msg := fmt.Sprintf("metric %q has no alias mapping, kept verbatim", name)
	for _, w := range warnings {
		if w.Sheet == sheet && w.Row == row && w.Message == msg {
			return warnings
		}
	}
	return append(warnings, model.ParseWarning{Sheet: sheet, Row: row, Message: msg})
}

// FindHeaderRow scans for the first row where at least minMatches cells
// satisfy the matcher. Returns a LayoutMismatchError when none does.
func FindHeaderRow(sheet *model.RawSheet, minMatches int, match func(cell string) bool) (int, error) {
	for row := range sheet.Rows {
		matches := 0
		for _, cell := range sheet.Rows[row] {
			if match(cell) {
				matches++
			}
		}
		if matches >= minMatches {
			return row, nil
		}
	}
	return 0, &model.LayoutMismatchError{
		Sheet:  sheet.Name,
		Reason: fmt.Sprintf("no row with %d or more recognizable column labels", minMatches),
	}
}
