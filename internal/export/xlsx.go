package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/kimhsiao/salonbook/backend/internal/models"
)

const sheetName = "예약"

var columnWidths = []float64{12, 8, 15, 15, 12, 15, 10, 30}

func writeXLSX(path string, rows []models.ReservationExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F46E5"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	centered, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetName, "A1", &Headers); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(sheetName, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := record(r, "-")
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		end, _ := excelize.CoordinatesToCellName(2, len(rows)+1)
		if err := f.SetCellStyle(sheetName, "A2", end, centered); err != nil {
			return err
		}
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
