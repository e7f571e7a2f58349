package format

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"t12insight/internal/model"
)

// Registry holds the registered processors in registration order.
// Registration happens at configuration time only; afterwards the
// registry is read-only and safe for concurrent use.
type Registry struct {
	processors []Processor
	byName     map[string]Processor
	threshold  float64
}

// NewRegistry creates an empty registry with the given minimum
// detection confidence.
func NewRegistry(threshold float64) *Registry {
	return &Registry{
		byName:    make(map[string]Processor),
		threshold: threshold,
	}
}

// Register appends a processor. Order matters: on a detection tie the
// earliest registration wins, deterministically.
func (r *Registry) Register(p Processor) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("processor has empty format name")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("format %q already registered", name)
	}
	r.processors = append(r.processors, p)
	r.byName[name] = p
	log.Debug().Str("format", name).Msg("registered format processor")
	return nil
}

// Names lists registered format names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.processors))
	for _, p := range r.processors {
		names = append(names, p.Name())
	}
	return names
}

// Get looks a processor up by format name.
func (r *Registry) Get(name string) (Processor, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Descriptors returns the descriptors of all registered processors in
// registration order.
func (r *Registry) Descriptors() []*model.FormatDescriptor {
	out := make([]*model.FormatDescriptor, 0, len(r.processors))
	for _, p := range r.processors {
		out = append(out, p.Descriptor())
	}
	return out
}

// Detect probes every processor and returns the highest-confidence
// match above the threshold; the first registered wins ties. When no
// processor clears the threshold a FormatUnknownError is returned —
// the pipeline never guesses a default layout, because a misapplied
// mapping produces financially wrong KPIs with no visible error.
func (r *Registry) Detect(wb *model.Workbook) (Processor, float64, error) {
	var best Processor
	bestScore := 0.0

	for _, p := range r.processors {
		score := p.Detect(wb)
		log.Debug().Str("format", p.Name()).Float64("confidence", score).Msg("format probe")
		if score > bestScore {
			best = p
			bestScore = score
		}
	}

	if best == nil || bestScore <= r.threshold {
		err := &model.FormatUnknownError{Threshold: r.threshold}
		if best != nil {
			err.BestFormat = best.Name()
			err.BestConfidence = bestScore
		}
		return nil, bestScore, err
	}

	if hint := FilenameHint(wb.Filename); hint != "" && hint != best.Name() {
		log.Info().
			Str("detected", best.Name()).
			Str("filenameHint", hint).
			Msg("filename pattern disagrees with header detection")
	}

	return best, bestScore, nil
}

// FilenameHint guesses a format from filename patterns. Logging aid
// only; it never overrides header-based detection.
func FilenameHint(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "database") || strings.Contains(lower, "portfolio"):
		return "database_t12_workbook"
	case strings.Contains(lower, "t12") || strings.Contains(lower, "t-12") ||
		strings.Contains(lower, "twelve") || strings.Contains(lower, "monthly"):
		return "t12_monthly_financial"
	default:
		return ""
	}
}
