package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestParseWorkbook(t *testing.T) {
	buf := workbookBytes(t, [][]any{
		{"Cliente", "Booking"},
		{"ACME LTDA", "BK-1"},
	})
	sheet, err := ParseWorkbook("ops.xlsx", buf)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(sheet.Header) != 2 || sheet.Header[0] != "Cliente" {
		t.Fatalf("unexpected header: %v", sheet.Header)
	}
	if len(sheet.Rows) != 1 || sheet.Rows[0][1] != "BK-1" {
		t.Fatalf("unexpected rows: %v", sheet.Rows)
	}
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	if _, err := ParseWorkbook("bad.xlsx", strings.NewReader("not an xlsx")); err == nil {
		t.Fatal("expected error for non-xlsx input")
	}
}

func TestValidateClientAccepts(t *testing.T) {
	buf := workbookBytes(t, [][]any{
		{"Data", "Cliente", "Booking"},
		{"01/08/2026", "Transportes São João LTDA", "BK-1"},
	})
	sheet, err := ParseWorkbook("ops.xlsx", buf)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if err := sheet.ValidateClient("São João"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestValidateClientRejectsWithSamples(t *testing.T) {
	buf := workbookBytes(t, [][]any{
		{"Data", "Embarcador"},
		{"01/08/2026", "Outra Empresa"},
		{"01/08/2026", "Mais Uma"},
	})
	sheet, err := ParseWorkbook("errado.xlsx", buf)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	err = sheet.ValidateClient("ACME")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	var matchErr *ClientMatchError
	if !errors.As(err, &matchErr) {
		t.Fatalf("expected ClientMatchError, got %T", err)
	}
	if matchErr.File != "errado.xlsx" {
		t.Fatalf("error must name the file: %v", matchErr.File)
	}
	if !strings.Contains(err.Error(), "ACME") {
		t.Fatalf("error must mention the requested client: %v", err)
	}
	if len(matchErr.Samples) != 2 {
		t.Fatalf("expected near-miss samples, got %v", matchErr.Samples)
	}
}

func TestValidateClientNoClientColumn(t *testing.T) {
	buf := workbookBytes(t, [][]any{
		{"Data", "Booking"},
		{"01/08/2026", "BK-1"},
	})
	sheet, err := ParseWorkbook("semcoluna.xlsx", buf)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if err := sheet.ValidateClient("ACME"); err == nil {
		t.Fatal("expected error when no client-like column exists")
	}
}
