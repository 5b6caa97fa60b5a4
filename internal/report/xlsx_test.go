package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"opertrack.org/internal/ops"
)

func TestWriteTopOffendersXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTopOffendersXLSX(&buf, []ops.ReasonCount{
		{Reason: "TRANSITO", Count: 8},
		{Reason: "PORTARIA", Count: 3},
	})
	if err != nil {
		t.Fatalf("WriteTopOffendersXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Sheet1", "A2")
	if err != nil || got != "TRANSITO" {
		t.Fatalf("unexpected A2: %q err=%v", got, err)
	}
	count, err := f.GetCellValue("Sheet1", "B2")
	if err != nil || count != "8" {
		t.Fatalf("unexpected B2: %q err=%v", count, err)
	}
}

func TestWriteAtrasosXLSXOnlyLateRows(t *testing.T) {
	minutes := 200
	operations := []ops.Operation{
		{Booking: "BK-LATE", Embarcador: "ACME", DataProgramada: time.Now(), TempoAtraso: &minutes},
		{Booking: "BK-ONTIME", Embarcador: "ACME", DataProgramada: time.Now(), AtrasoHHMM: "NO PRAZO"},
	}

	var buf bytes.Buffer
	if err := WriteAtrasosXLSX(&buf, operations); err != nil {
		t.Fatalf("WriteAtrasosXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 { // header + the single late row
		t.Fatalf("expected only late rows exported, got %d data rows", len(rows)-1)
	}
	if rows[1][0] != "BK-LATE" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}
