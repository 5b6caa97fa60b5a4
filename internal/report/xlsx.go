package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"opertrack.org/internal/ops"
)

// XLSXContentType is the MIME type for generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Sheet1"

// WriteTopOffendersXLSX renders the top-ofensores workbook into w.
func WriteTopOffendersXLSX(w io.Writer, offenders []ops.ReasonCount) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue(sheetName, "A1", "Justificativa")
	f.SetCellValue(sheetName, "B1", "Ocorrências")
	for i, o := range offenders {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+2), o.Reason)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+2), o.Count)
	}
	return f.Write(w)
}

// WriteAtrasosXLSX renders the delay summary workbook: one row per late
// operation with its reconciled delay.
func WriteAtrasosXLSX(w io.Writer, operations []ops.Operation) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{
		"Booking", "Embarcador", "Data Programada", "Atraso (min)",
		"Justificativa", "Motorista", "Transportadora", "Código Rastreio",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, op := range operations {
		if !op.Late() {
			continue
		}
		values := []any{
			op.Booking, op.Embarcador,
			op.DataProgramada.Format("02/01/2006 15:04"),
			op.AtrasoMin(), op.Justificativa, op.Motorista,
			op.Transportadora, op.TrackingCode,
		}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, v)
		}
		row++
	}
	return f.Write(w)
}
