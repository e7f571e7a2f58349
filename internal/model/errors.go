package model

import (
	"fmt"
	"strings"
)

// LayoutMismatchError means no header row satisfied the processor's
// layout. Fatal: no table is produced.
type LayoutMismatchError struct {
	Sheet  string
	Reason string
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("layout mismatch in sheet %q: %s", e.Sheet, e.Reason)
}

// EmptySheetError means the sheet had a recognizable layout but no data
// rows. Fatal: no table is produced.
type EmptySheetError struct {
	Sheet string
}

func (e *EmptySheetError) Error() string {
	return fmt.Sprintf("sheet %q contains no data rows", e.Sheet)
}

// FormatUnknownError means no registered processor cleared the
// detection threshold. The pipeline must not guess a default.
type FormatUnknownError struct {
	BestFormat     string
	BestConfidence float64
	Threshold      float64
}

func (e *FormatUnknownError) Error() string {
	if e.BestFormat == "" {
		return "format not recognized: no registered processor matched"
	}
	return fmt.Sprintf("format not recognized: best candidate %s scored %.2f below threshold %.2f",
		e.BestFormat, e.BestConfidence, e.Threshold)
}

// AmbiguousPeriodError means two distinct raw column labels resolve to
// the same most-recent period. Fatal for KPI computation; the
// CanonicalTable itself remains valid.
type AmbiguousPeriodError struct {
	Period Period
	Labels []string
}

func (e *AmbiguousPeriodError) Error() string {
	return fmt.Sprintf("ambiguous most recent period %s: labels %s",
		e.Period, strings.Join(e.Labels, ", "))
}
