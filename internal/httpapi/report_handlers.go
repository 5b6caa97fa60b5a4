package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"opertrack.org/internal/audit"
	"opertrack.org/internal/mail"
	"opertrack.org/internal/obs"
	"opertrack.org/internal/report"
	"opertrack.org/internal/store/pg"
)

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requireActive(w, r)
	if !ok {
		return
	}

	day, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if day.IsZero() {
		day = time.Now()
	}
	window := pg.DayWindow(day, scopedEmbarcador(r, p))

	kpis, err := a.store.KPIs(r.Context(), window)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	offenders, err := a.store.TopOffenders(r.Context(), window, rankingSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	clients, err := a.store.TopLateClients(r.Context(), window, rankingSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	operations, err := a.store.OperationsInWindow(r.Context(), window)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar operações")
		return
	}

	var buf bytes.Buffer
	err = report.WriteDailyPDF(&buf, report.DailyData{
		Date:       day,
		Embarcador: window.Embarcador,
		KPIs:       kpis,
		Offenders:  offenders,
		Clients:    clients,
		Operations: operations,
	})
	if err != nil {
		obs.ReportGenerated("daily", "error")
		writeError(w, r, http.StatusInternalServerError, "falha ao gerar o relatório")
		return
	}
	obs.ReportGenerated("daily", "ok")

	filename := fmt.Sprintf("relatorio-diario-%s.pdf", day.Format(dateLayout))
	if to := strings.TrimSpace(r.URL.Query().Get("email")); to != "" {
		a.dispatchReport(w, r, to, filename, "application/pdf", buf.Bytes(),
			fmt.Sprintf("Relatório diário de operações - %s", day.Format("02/01/2006")))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

// dispatchReport sends a generated report by e-mail instead of returning
// it in the response body. One attempt; failures surface to the caller.
func (a *API) dispatchReport(w http.ResponseWriter, r *http.Request, to, filename, contentType string, data []byte, subject string) {
	err := a.mailer.Send(to, subject,
		"Segue em anexo o relatório gerado pelo Opertrack.",
		mail.Attachment{Filename: filename, ContentType: contentType, Data: data})
	if err != nil {
		if errors.Is(err, mail.ErrNotConfigured) {
			writeError(w, r, http.StatusServiceUnavailable, "envio de e-mail não configurado")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "falha ao enviar o e-mail")
		return
	}
	_ = audit.LogEvent(r.Context(), "reports.email", map[string]any{
		"to":   to,
		"file": filename,
	})
	writeJSON(w, http.StatusOK, map[string]any{"sent": true, "to": to})
}

func (a *API) handleTopOffendersXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requireActive(w, r)
	if !ok {
		return
	}
	window, err := parseWindow(r, p)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	offenders, err := a.store.TopOffenders(r.Context(), window, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteTopOffendersXLSX(&buf, offenders); err != nil {
		obs.ReportGenerated("top-ofensores", "error")
		writeError(w, r, http.StatusInternalServerError, "falha ao gerar a planilha")
		return
	}
	obs.ReportGenerated("top-ofensores", "ok")

	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="top-ofensores.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleAtrasosXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requireActive(w, r)
	if !ok {
		return
	}
	window, err := parseWindow(r, p)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	operations, err := a.store.OperationsInWindow(r.Context(), window)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar operações")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteAtrasosXLSX(&buf, operations); err != nil {
		obs.ReportGenerated("atrasos", "error")
		writeError(w, r, http.StatusInternalServerError, "falha ao gerar a planilha")
		return
	}
	obs.ReportGenerated("atrasos", "ok")

	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="atrasos.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// handleDiarioDeBordo merges two uploaded spreadsheets into one PDF after
// checking that both actually belong to the requested client.
func (a *API) handleDiarioDeBordo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, ok := requireActive(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "formulário multipart inválido")
		return
	}
	cliente := strings.TrimSpace(r.FormValue("cliente"))
	if cliente == "" {
		writeError(w, r, http.StatusBadRequest, "o campo 'cliente' é obrigatório")
		return
	}
	if !p.Admin && !report.ClientMatches(cliente, p.Embarcador) {
		writeError(w, r, http.StatusForbidden, "cliente fora do escopo da sua conta")
		return
	}

	var headers []*multipart.FileHeader
	for _, hs := range r.MultipartForm.File {
		headers = append(headers, hs...)
	}
	if len(headers) != 2 {
		writeError(w, r, http.StatusBadRequest, "envie exatamente duas planilhas")
		return
	}

	var sheets []*report.Sheet
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "falha ao ler o arquivo "+h.Filename)
			return
		}
		sheet, err := report.ParseWorkbook(h.Filename, f)
		f.Close()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := sheet.ValidateClient(cliente); err != nil {
			var mismatch *report.ClientMatchError
			if errors.As(err, &mismatch) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":   mismatch.Error(),
					"file":    mismatch.File,
					"samples": mismatch.Samples,
				})
				return
			}
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		sheets = append(sheets, sheet)
	}

	var buf bytes.Buffer
	if err := report.WriteDiarioPDF(&buf, cliente, sheets); err != nil {
		obs.ReportGenerated("diario-de-bordo", "error")
		writeError(w, r, http.StatusInternalServerError, "falha ao gerar o PDF")
		return
	}
	obs.ReportGenerated("diario-de-bordo", "ok")

	if to := strings.TrimSpace(r.FormValue("email")); to != "" {
		a.dispatchReport(w, r, to, "diario-de-bordo.pdf", "application/pdf", buf.Bytes(),
			"Diário de bordo - "+cliente)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="diario-de-bordo.pdf"`)
	_, _ = w.Write(buf.Bytes())
}
