package kpi

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Registry maps format names to their calculators, mirroring the
// format registry's plugin discipline. Populated at configuration
// time, read-only afterwards.
type Registry struct {
	order       []string
	calculators map[string]Calculator
}

// NewRegistry creates an empty calculator registry.
func NewRegistry() *Registry {
	return &Registry{calculators: make(map[string]Calculator)}
}

// Register adds a calculator for its format.
func (r *Registry) Register(c Calculator) error {
	name := c.Format()
	if name == "" {
		return fmt.Errorf("calculator has empty format name")
	}
	if _, dup := r.calculators[name]; dup {
		return fmt.Errorf("calculator for format %q already registered", name)
	}
	r.order = append(r.order, name)
	r.calculators[name] = c
	log.Debug().Str("format", name).Msg("registered KPI calculator")
	return nil
}

// Get looks a calculator up by format name.
func (r *Registry) Get(format string) (Calculator, bool) {
	c, ok := r.calculators[format]
	return c, ok
}

// Formats lists registered format names in registration order.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
