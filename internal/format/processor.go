package format

import "t12insight/internal/model"

// Processor handles one supported spreadsheet layout. Detect must be
// side-effect-free and cheap (header-shape inspection only, no full
// parse) so the registry can probe every processor per upload.
type Processor interface {
	// Name is the format key, matching the descriptor and the KPI
	// calculator registered for this layout.
	Name() string

	// Descriptor returns the static layout metadata.
	Descriptor() *model.FormatDescriptor

	// Detect returns a confidence score in [0,1] that the workbook
	// conforms to this layout.
	Detect(wb *model.Workbook) float64

	// Process reshapes the workbook into a canonical table plus any
	// non-fatal data-quality warnings.
	Process(wb *model.Workbook) (*model.CanonicalTable, []model.ParseWarning, error)
}
