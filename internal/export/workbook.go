package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderboard/internal/core"
)

// WorkbookWriter writes aggregate tables as sheets of one XLSX file.
type WorkbookWriter struct {
	colWidth float64
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{colWidth: 20}
}

// Write replaces path with a workbook holding one sheet per table. Numeric
// cells are stored as numbers, missing ones are left blank.
func (w *WorkbookWriter) Write(path string, tables []core.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("write workbook %s: no tables", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.Name, err)
		}
		if err := w.writeSheet(f, t); err != nil {
			return fmt.Errorf("write sheet %s: %w", t.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (w *WorkbookWriter) writeSheet(f *excelize.File, t core.Table) error {
	for j, h := range t.Headers() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return err
		}
		col, _, _ := excelize.SplitCellName(cell)
		if err := f.SetColWidth(t.Name, col, col, w.colWidth); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		for j, c := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			var v any = c.Text
			if t.Columns[j].Kind.IsNumeric() {
				if !c.Num.Valid {
					continue
				}
				v = c.Num.Value
			}
			if err := f.SetCellValue(t.Name, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
