package model

import (
	"fmt"
	"time"
)

// Period is one calendar month. The zero value means "no period",
// which is what YTD rows without a month reference carry.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before reports chronological order.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Prev returns the immediately preceding calendar month.
func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// String renders the period as "Jan 2025".
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d", p.Month.String()[:3], p.Year)
}

// MetricRecord is the canonical unit of data: one metric value at one
// period. Budget is optional and only populated by formats that carry
// budget columns. SourceRow points back to the originating raw row for
// diagnostics only.
type MetricRecord struct {
	Property    string   `json:"property,omitempty"`
	Metric      string   `json:"metric"`
	Period      Period   `json:"period"`
	PeriodLabel string   `json:"periodLabel"`
	IsYTD       bool     `json:"isYtd"`
	Value       float64  `json:"value"`
	Budget      *float64 `json:"budget,omitempty"`
	Unmapped    bool     `json:"unmapped,omitempty"`
	SourceRow   int      `json:"sourceRow"`
}

// LabelConflict notes that several distinct raw column labels resolved
// to the same calendar month. The records themselves are deduplicated
// to the first occurrence; the conflict is kept so KPI computation can
// refuse an ambiguous most-recent period.
type LabelConflict struct {
	Period Period   `json:"period"`
	Labels []string `json:"labels"`
}

// CanonicalTable is the long-form output of one pipeline run.
// Append-only during construction, read-only afterwards.
type CanonicalTable struct {
	Format         string          `json:"format"`
	Sheet          string          `json:"sheet"`
	Records        []MetricRecord  `json:"records"`
	LabelConflicts []LabelConflict `json:"labelConflicts,omitempty"`
}

// MergeLabelConflicts folds another table's conflicts in, unioning the
// labels per period.
func (t *CanonicalTable) MergeLabelConflicts(conflicts []LabelConflict) {
	for _, c := range conflicts {
		merged := false
		for i := range t.LabelConflicts {
			if t.LabelConflicts[i].Period != c.Period {
				continue
			}
			for _, label := range c.Labels {
				if !containsLabel(t.LabelConflicts[i].Labels, label) {
					t.LabelConflicts[i].Labels = append(t.LabelConflicts[i].Labels, label)
				}
			}
			merged = true
			break
		}
		if !merged {
			t.LabelConflicts = append(t.LabelConflicts, LabelConflict{
				Period: c.Period,
				Labels: append([]string(nil), c.Labels...),
			})
		}
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Properties lists the distinct property names present, in record order.
func (t *CanonicalTable) Properties() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Records {
		if r.Property == "" || seen[r.Property] {
			continue
		}
		seen[r.Property] = true
		out = append(out, r.Property)
	}
	return out
}

// ParseWarning is a non-fatal data-quality finding. Warnings are
// collected alongside results, never raised.
type ParseWarning struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

// String renders the warning with its raw-cell context when present.
func (w ParseWarning) String() string {
	if w.Row > 0 && w.Col > 0 {
		return fmt.Sprintf("%s (sheet %q row %d col %d)", w.Message, w.Sheet, w.Row, w.Col)
	}
	if w.Sheet != "" {
		return fmt.Sprintf("%s (sheet %q)", w.Message, w.Sheet)
	}
	return w.Message
}
