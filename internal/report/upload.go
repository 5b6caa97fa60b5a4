package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"opertrack.org/internal/ops"
)

// columnTargets maps normalized header fragments to canonical operation
// fields. Delay columns are intentionally absent here: those come from the
// versioned delay_source_columns mapping so the normalization inputs stay
// auditable.
// Ordered most-specific first; the first matching fragment wins, so
// "DATA PROGRAMADA" never falls through to the bare "PROGRAMA" fragment.
var columnTargets = []struct {
	fragment string
	field    string
}{
	{"DATA PROGRAMADA", "data_programada"},
	{"PROGRAMACAO", "data_programada"},
	{"INICIO REAL", "inicio_real"},
	{"FIM REAL", "fim_real"},
	{"PLACA CAVALO", "placa_cavalo"},
	{"PLACA CARRETA", "placa_carreta"},
	{"TRANSPORTADORA", "transportadora"},
	{"JUSTIFICATIVA", "justificativa"},
	{"MOTIVO", "justificativa"},
	{"MOTORISTA", "motorista"},
	{"EMBARCADOR", "embarcador"},
	{"CLIENTE", "embarcador"},
	{"CONTAINER", "containers"},
	{"BOOKING", "booking"},
	{"RASTREIO", "tracking_code"},
	{"TRACKING", "tracking_code"},
	{"PROGRAMA", "numero_programa"},
}

var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01-02-06 15:04", // excelize default short date
}

// ParseOperationsUpload converts an uploaded workbook into operations.
// delaySources is the active schema mapping: it decides which spreadsheet
// columns feed tempo_atraso (kind "minutes") and atraso_hhmm (kind "hhmm").
func ParseOperationsUpload(name string, r io.Reader, delaySources []ops.DelaySource) ([]ops.Operation, error) {
	sheet, err := ParseWorkbook(name, r)
	if err != nil {
		return nil, err
	}

	fieldCols := map[string]int{}
	minuteCols := []int{}
	hhmmCols := []int{}
	for i, header := range sheet.Header {
		upper := NormalizeClientText(header)
		for _, target := range columnTargets {
			if strings.Contains(upper, target.fragment) {
				if _, taken := fieldCols[target.field]; !taken {
					fieldCols[target.field] = i
				}
				break
			}
		}
		for _, src := range delaySources {
			if !src.Active || !strings.EqualFold(strings.TrimSpace(src.Column), strings.TrimSpace(header)) {
				continue
			}
			switch src.Kind {
			case "minutes":
				minuteCols = append(minuteCols, i)
			case "hhmm":
				hhmmCols = append(hhmmCols, i)
			}
		}
	}

	if _, ok := fieldCols["booking"]; !ok {
		return nil, fmt.Errorf("planilha %q não contém coluna de booking", name)
	}
	if _, ok := fieldCols["data_programada"]; !ok {
		return nil, fmt.Errorf("planilha %q não contém coluna de data programada", name)
	}

	var out []ops.Operation
	for rowIdx, row := range sheet.Rows {
		cell := func(field string) string {
			col, ok := fieldCols[field]
			if !ok || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}
		booking := cell("booking")
		if booking == "" {
			continue // trailing blank rows are common in exported sheets
		}

		programada, err := parseDate(cell("data_programada"))
		if err != nil {
			return nil, fmt.Errorf("planilha %q linha %d: %w", name, rowIdx+2, err)
		}

		op := ops.Operation{
			Booking:        booking,
			Containers:     cell("containers"),
			Embarcador:     cell("embarcador"),
			TrackingCode:   cell("tracking_code"),
			DataProgramada: programada,
			Justificativa:  cell("justificativa"),
			Motorista:      cell("motorista"),
			PlacaCavalo:    cell("placa_cavalo"),
			PlacaCarreta:   cell("placa_carreta"),
			NumeroPrograma: cell("numero_programa"),
			Transportadora: cell("transportadora"),
		}
		if ts := cell("inicio_real"); ts != "" {
			if t, err := parseDate(ts); err == nil {
				op.InicioReal = &t
			}
		}
		if ts := cell("fim_real"); ts != "" {
			if t, err := parseDate(ts); err == nil {
				op.FimReal = &t
			}
		}

		for _, col := range minuteCols {
			if col >= len(row) {
				continue
			}
			if v, err := strconv.Atoi(strings.TrimSpace(row[col])); err == nil {
				if op.TempoAtraso == nil || v > *op.TempoAtraso {
					minutes := v
					op.TempoAtraso = &minutes
				}
			}
		}
		for _, col := range hhmmCols {
			if col >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[col]); v != "" && op.AtrasoHHMM == "" {
				op.AtrasoHHMM = v
			}
		}

		out = append(out, op)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("data programada vazia")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida: %q", s)
}
