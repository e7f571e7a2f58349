package model

// RawSheet is one spreadsheet tab as an ordered grid of cell strings.
// It is read once from the uploaded workbook and never mutated.
type RawSheet struct {
	Name    string     `json:"name"`
	Hidden  bool       `json:"hidden"`
	Rows    [][]string `json:"rows"`
	RowSpan int        `json:"rowSpan"`
}

// Cell returns the trimmed-as-is cell value, or "" when the grid is ragged.
func (s *RawSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Row returns one raw row, or nil when out of range.
func (s *RawSheet) Row(row int) []string {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	return s.Rows[row]
}

// Workbook is the ordered set of sheets read from one upload.
type Workbook struct {
	Filename string      `json:"filename"`
	Sheets   []*RawSheet `json:"sheets"`
}

// Sheet looks a sheet up by name.
func (w *Workbook) Sheet(name string) *RawSheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// VisibleSheets returns the sheets not hidden in the workbook.
func (w *Workbook) VisibleSheets() []*RawSheet {
	out := make([]*RawSheet, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

// SheetNames lists all sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}
