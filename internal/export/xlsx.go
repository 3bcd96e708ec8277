package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docflow/internal/domain"
)

const sheetName = "Document"

// WriteXLSX writes doc to w as a single-sheet workbook.
func WriteXLSX(w io.Writer, doc *domain.ProcessedDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	_ = f.SetCellStyle(sheetName, "A1", "C1", bold)

	for r, row := range Rows(doc) {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}
	_ = f.SetColWidth(sheetName, "A", "B", 24)
	_ = f.SetColWidth(sheetName, "C", "C", 48)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	return nil
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc *domain.ProcessedDocument) error {
	if f == FormatXLSX {
		return WriteXLSX(w, doc)
	}
	return WriteCSV(w, doc)
}
