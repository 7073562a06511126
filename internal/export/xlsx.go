// Package export writes flattened Harmonic companies to spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jamesprial/harmonic-mcp/internal/search"
)

// CompanySheet is the name of the worksheet WriteCompaniesXLSX creates.
const CompanySheet = "Companies"

// WriteCompaniesXLSX writes rows to w as an XLSX workbook with a header row
// of search.CompanyColumns.
func WriteCompaniesXLSX(w io.Writer, rows []search.CompanyRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CompanySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range search.CompanyColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(CompanySheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header %s: %w", h, err)
		}
	}

	for r, row := range rows {
		for c, v := range row.Values() {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(CompanySheet, cell, v); err != nil {
				return fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}

	if err := f.SetPanes(CompanySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx panes: %w", err)
	}
	_ = f.SetColWidth(CompanySheet, "C", "C", 28) // name
	_ = f.SetColWidth(CompanySheet, "D", "D", 60) // description

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
