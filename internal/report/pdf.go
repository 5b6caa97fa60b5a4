package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"opertrack.org/internal/ops"
)

// DailyData is everything the daily PDF needs, pre-aggregated by the
// caller. The render itself is a stateless one-shot.
type DailyData struct {
	Date       time.Time
	Embarcador string
	KPIs       ops.KPISummary
	Offenders  []ops.ReasonCount
	Clients    []ops.ClientCount
	Operations []ops.Operation
}

// WriteDailyPDF renders the relatório diário into w.
func WriteDailyPDF(w io.Writer, data DailyData) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Relatório Diário de Operações", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := fmt.Sprintf("Relatório Diário — %s", data.Date.Format("02/01/2006"))
	if data.Embarcador != "" {
		title += " — " + data.Embarcador
	}
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	kpiLine := fmt.Sprintf("Total: %d   No prazo: %d   Atrasadas: %d   %% Atraso: %.2f%%",
		data.KPIs.Total, data.KPIs.OnTime, data.KPIs.Late, data.KPIs.LatePct)
	pdf.CellFormat(0, 8, tr(kpiLine), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	offenders := make([]rankedLine, 0, len(data.Offenders))
	for _, o := range data.Offenders {
		offenders = append(offenders, rankedLine{o.Reason, o.Count})
	}
	clients := make([]rankedLine, 0, len(data.Clients))
	for _, c := range data.Clients {
		clients = append(clients, rankedLine{c.Client, c.Count})
	}
	writeRanking(pdf, tr, "Principais Ofensores", offenders)
	writeRanking(pdf, tr, "Clientes com Mais Atrasos", clients)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Operações"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)

	headers := []struct {
		label string
		width float64
	}{
		{"Booking", 35}, {"Embarcador", 50}, {"Programado", 30},
		{"Atraso (min)", 25}, {"Justificativa", 70}, {"Motorista", 40},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 7, tr(h.label), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, op := range data.Operations {
		cells := []struct {
			value string
			width float64
		}{
			{op.Booking, 35},
			{op.Embarcador, 50},
			{op.DataProgramada.Format("02/01 15:04"), 30},
			{fmt.Sprintf("%d", op.AtrasoMin()), 25},
			{truncate(op.Justificativa, 45), 70},
			{truncate(op.Motorista, 25), 40},
		}
		for _, c := range cells {
			pdf.CellFormat(c.width, 6, tr(c.value), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// WriteDiarioPDF renders the diário de bordo from the two validated
// uploaded sheets.
func WriteDiarioPDF(w io.Writer, client string, sheets []*Sheet) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Diário de Bordo", true)

	for _, sheet := range sheets {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Diário de Bordo — %s — %s", client, sheet.Name)), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		cols := len(sheet.Header)
		if cols == 0 {
			continue
		}
		if cols > 8 {
			cols = 8 // landscape A4 fits eight readable columns
		}
		width := 270.0 / float64(cols)

		pdf.SetFont("Helvetica", "B", 8)
		for _, h := range sheet.Header[:cols] {
			pdf.CellFormat(width, 6, tr(truncate(h, 28)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range sheet.Rows {
			for i := 0; i < cols; i++ {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(width, 5, tr(truncate(value, 28)), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	return pdf.Output(w)
}

type rankedLine struct {
	label string
	count int
}

func writeRanking(pdf *fpdf.Fpdf, tr func(string) string, title string, lines []rankedLine) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(lines) == 0 {
		pdf.CellFormat(0, 6, tr("  (sem registros)"), "", 1, "L", false, 0, "")
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("  %s: %d", line.label, line.count)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
