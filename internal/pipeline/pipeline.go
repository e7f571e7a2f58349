package pipeline

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"t12insight/internal/format"
	"t12insight/internal/kpi"
	"t12insight/internal/model"
)

// Pipeline wires the two registries together. It is built once at
// startup and read-only afterwards, so concurrent uploads can run
// through the same instance; each run owns its workbook, table and
// summary exclusively.
type Pipeline struct {
	formats     *format.Registry
	calculators *kpi.Registry

	// ytdTolerance bounds the allowed gap between summed monthly
	// records and a reported YTD figure before a warning is raised.
	ytdTolerance float64
}

// New verifies the registries are in lockstep: every registered format
// has exactly one calculator and vice versa. An unpaired registration
// is a configuration error surfaced here, not at request time.
func New(formats *format.Registry, calculators *kpi.Registry, ytdTolerance float64) (*Pipeline, error) {
	for _, name := range formats.Names() {
		if _, ok := calculators.Get(name); !ok {
			return nil, fmt.Errorf("format %q has no KPI calculator", name)
		}
	}
	formatNames := make(map[string]bool)
	for _, name := range formats.Names() {
		formatNames[name] = true
	}
	for _, name := range calculators.Formats() {
		if !formatNames[name] {
			return nil, fmt.Errorf("KPI calculator %q has no format processor", name)
		}
	}
	if ytdTolerance <= 0 {
		ytdTolerance = 1.0
	}
	return &Pipeline{formats: formats, calculators: calculators, ytdTolerance: ytdTolerance}, nil
}

// Formats exposes the format registry for read-only inspection.
func (p *Pipeline) Formats() *format.Registry { return p.formats }

// Result is everything one run produces. Warnings and issues are data
// for the caller, not errors; a run with warnings is still usable.
type Result struct {
	Format     string                `json:"format"`
	Confidence float64               `json:"confidence"`
	Table      *model.CanonicalTable `json:"table"`
	Summary    *model.KPISummary     `json:"summary"`
	Warnings   []model.ParseWarning  `json:"warnings,omitempty"`
}

// Narrative renders the summary as the analysis brief handed to a
// narrative generator.
func (r *Result) Narrative() string {
	return kpi.Render(r.Summary)
}

// Run takes one uploaded workbook through detection, transformation
// and KPI computation. Detection failures, layout mismatches and
// ambiguous periods come back as typed errors; parse warnings ride on
// the result.
func (p *Pipeline) Run(wb *model.Workbook) (*Result, error) {
	processor, confidence, err := p.formats.Detect(wb)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("file", wb.Filename).
		Str("format", processor.Name()).
		Float64("confidence", confidence).
		Msg("format detected")

	table, warnings, err := processor.Process(wb)
	if err != nil {
		return nil, err
	}

	calculator, ok := p.calculators.Get(processor.Name())
	if !ok {
		// Unreachable given the construction-time pairing check.
		return nil, fmt.Errorf("no KPI calculator for format %q", processor.Name())
	}

	summary, err := calculator.Compute(table)
	if err != nil {
		return nil, err
	}
	if !summary.Finite() {
		return nil, fmt.Errorf("summary for %q contains non-finite values", wb.Filename)
	}

	warnings = append(warnings, ytdConsistency(table, p.ytdTolerance)...)

	if len(warnings) > 0 {
		log.Warn().
			Str("file", wb.Filename).
			Int("warnings", len(warnings)).
			Msg("run completed with data-quality warnings")
	}

	return &Result{
		Format:     processor.Name(),
		Confidence: confidence,
		Table:      table,
		Summary:    summary,
		Warnings:   warnings,
	}, nil
}

// NewDefault builds the pipeline with all built-in processor and
// calculator pairs from the embedded descriptors.
func NewDefault(threshold, ytdTolerance float64) (*Pipeline, error) {
	descriptors, err := format.LoadDescriptors()
	if err != nil {
		return nil, err
	}

	formats := format.NewRegistry(threshold)
	calculators := kpi.NewRegistry()

	type pair struct {
		processor  format.Processor
		calculator kpi.Calculator
	}
	monthly := descriptors["t12_monthly_financial"]
	standard := descriptors["standard_t12_workbook"]
	database := descriptors["database_t12_workbook"]
	if monthly == nil || standard == nil || database == nil {
		return nil, fmt.Errorf("embedded format descriptors incomplete")
	}

	pairs := []pair{
		{format.NewT12MonthlyProcessor(monthly), kpi.NewT12MonthlyCalculator(monthly)},
		{format.NewStandardT12Processor(standard), kpi.NewStandardT12Calculator(standard)},
		{format.NewDatabaseT12Processor(database), kpi.NewDatabaseT12Calculator(database)},
	}
	for _, pr := range pairs {
		if err := formats.Register(pr.processor); err != nil {
			return nil, err
		}
		if err := calculators.Register(pr.calculator); err != nil {
			return nil, err
		}
	}

	return New(formats, calculators, ytdTolerance)
}

// ytdConsistency checks the accounting identity: summing a metric's
// monthly records over the YTD year should reproduce the reported YTD
// figure. A gap beyond the tolerance is a data-quality warning, not an
// error, because some ledgers legitimately break the identity.
func ytdConsistency(table *model.CanonicalTable, tolerance float64) []model.ParseWarning {
	type key struct {
		property string
		metric   string
	}
	sums := make(map[key]float64)
	years := make(map[key]int)
	for _, r := range table.Records {
		if r.IsYTD {
			continue
		}
		k := key{property: r.Property, metric: r.Metric}
		if r.Period.Year > years[k] {
			years[k] = r.Period.Year
		}
	}
	for _, r := range table.Records {
		if r.IsYTD {
			continue
		}
		k := key{property: r.Property, metric: r.Metric}
		if r.Period.Year == years[k] {
			sums[k] += r.Value
		}
	}

	var warnings []model.ParseWarning
	for _, r := range table.Records {
		if !r.IsYTD {
			continue
		}
		k := key{property: r.Property, metric: r.Metric}
		sum, ok := sums[k]
		if !ok {
			continue
		}
		if diff := sum - r.Value; diff > tolerance || diff < -tolerance {
			warnings = append(warnings, model.ParseWarning{
				Sheet: table.Sheet,
				Row:   r.SourceRow,
				Message: fmt.Sprintf("YTD mismatch for %q: months sum to %.2f, reported YTD %.2f",
					r.Metric, sum, r.Value),
			})
		}
	}
	return warnings
}
