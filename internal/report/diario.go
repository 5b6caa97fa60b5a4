package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ClientMatchError means none of the client-like values in an uploaded
// spreadsheet matched the requested client. It carries the offending file
// and a sample of near misses so the caller can see what was actually in
// the column. Mapped to a 400 at the HTTP layer.
type ClientMatchError struct {
	File    string
	Client  string
	Samples []string
}

func (e *ClientMatchError) Error() string {
	msg := fmt.Sprintf("arquivo %q não contém operações do cliente %q", e.File, e.Client)
	if len(e.Samples) > 0 {
		msg += fmt.Sprintf(" (valores encontrados: %s)", strings.Join(e.Samples, ", "))
	}
	return msg
}

// Sheet is a parsed spreadsheet: header row plus data rows from the first
// sheet of an XLSX workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ParseWorkbook reads the first sheet of an XLSX stream.
func ParseWorkbook(name string, r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir planilha %q: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("planilha %q não contém abas", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ler planilha %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("planilha %q está vazia", name)
	}
	return &Sheet{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

// clientColumnHints are header fragments marking a "client-like" column.
var clientColumnHints = []string{"CLIENTE", "EMBARCADOR", "RAZAO", "RAZÃO SOCIAL"}

// ClientColumn heuristically locates the column holding client names.
// Returns -1 when no header matches.
func (s *Sheet) ClientColumn() int {
	for i, h := range s.Header {
		upper := NormalizeClientText(h)
		for _, hint := range clientColumnHints {
			if strings.Contains(upper, NormalizeClientText(hint)) {
				return i
			}
		}
	}
	return -1
}

const maxMismatchSamples = 5

// ValidateClient checks that the sheet actually belongs to the requested
// client: at least one value in the client-like column must match under
// the containment heuristic. On failure the error names the file and a
// sample of the values that were found instead.
func (s *Sheet) ValidateClient(client string) error {
	col := s.ClientColumn()
	if col < 0 {
		return &ClientMatchError{File: s.Name, Client: client}
	}

	seen := make(map[string]struct{})
	var samples []string
	for _, row := range s.Rows {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		if ClientMatches(client, value) {
			return nil
		}
		if _, dup := seen[value]; !dup && len(samples) < maxMismatchSamples {
			seen[value] = struct{}{}
			samples = append(samples, value)
		}
	}
	return &ClientMatchError{File: s.Name, Client: client, Samples: samples}
}
