package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"t12insight/internal/model"
)

// Reader loads uploaded workbooks into immutable RawSheet grids. One
// Reader serves one upload; the excelize handle is released as soon as
// the grids are copied out.
type Reader struct{}

// NewReader creates a workbook reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read consumes a workbook stream and returns every sheet as a raw
// grid. The grids are plain string copies; the file handle does not
// outlive this call.
func (r *Reader) Read(src io.Reader, filename string) (*model.Workbook, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &model.Workbook{Filename: filename}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		visible, err := f.GetSheetVisible(name)
		if err != nil {
			visible = true
		}
		wb.Sheets = append(wb.Sheets, &model.RawSheet{
			Name:    name,
			Hidden:  !visible,
			Rows:    rows,
			RowSpan: len(rows),
		})
	}
	if len(wb.Sheets) == 0 {
		return nil, &model.EmptySheetError{Sheet: filename}
	}
	return wb, nil
}

// SheetInfos summarizes the workbook for the upload preview.
func SheetInfos(wb *model.Workbook) []model.SheetInfo {
	infos := make([]model.SheetInfo, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		infos = append(infos, model.SheetInfo{
			Name:     s.Name,
			Hidden:   s.Hidden,
			RowCount: len(s.Rows),
		})
	}
	return infos
}
