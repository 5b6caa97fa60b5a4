package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"opertrack.org/internal/ai"
	"opertrack.org/internal/ops"
)

// chartSeries mirrors the data shape the dashboard charts consume.
type chartSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type analyticsKPIsResponse struct {
	KPIs struct {
		TotalOperacoes     int `json:"total_operacoes"`
		OperacoesOnTime    int `json:"operacoes_on_time"`
		OperacoesAtrasadas int `json:"operacoes_atrasadas"`
	} `json:"kpis"`
	GraficoOfensores      chartSeries `json:"grafico_ofensores"`
	GraficoClientesAtraso chartSeries `json:"grafico_clientes_atraso"`
}

func (a *API) handleAnalyticsKPIs(w http.ResponseWriter, r *http.Request) {
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

	kpis, err := a.store.KPIs(r.Context(), window)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	offenders, err := a.store.TopOffenders(r.Context(), window, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	clients, err := a.store.TopLateClients(r.Context(), window, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}

	var resp analyticsKPIsResponse
	resp.KPIs.TotalOperacoes = kpis.Total
	resp.KPIs.OperacoesOnTime = kpis.OnTime
	resp.KPIs.OperacoesAtrasadas = kpis.Late
	resp.GraficoOfensores = offendersSeries(offenders)
	resp.GraficoClientesAtraso = clientsSeries(clients)
	writeJSON(w, http.StatusOK, resp)
}

func offendersSeries(offenders []ops.ReasonCount) chartSeries {
	s := chartSeries{Labels: []string{}, Data: []int{}}
	for _, o := range offenders {
		s.Labels = append(s.Labels, o.Reason)
		s.Data = append(s.Data, o.Count)
	}
	return s
}

func clientsSeries(clients []ops.ClientCount) chartSeries {
	s := chartSeries{Labels: []string{}, Data: []int{}}
	for _, c := range clients {
		s.Labels = append(s.Labels, c.Client)
		s.Data = append(s.Data, c.Count)
	}
	return s
}

type insightsRequest struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	CompanyID string `json:"companyId"`
}

func (a *API) handleAnalyticsInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if a.analyzer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "análise não configurada")
		return
	}

	var req insightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDateParam(req.Start)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(req.End)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !end.IsZero() {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	window := ops.Window{
		Start:      start,
		End:        end,
		Embarcador: strings.TrimSpace(req.CompanyID),
	}

	kpis, err := a.store.KPIs(r.Context(), window)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	offenders, err := a.store.TopOffenders(r.Context(), window, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}
	clients, err := a.store.TopLateClients(r.Context(), window, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar indicadores")
		return
	}

	summary, err := a.analyzer.Summarize(r.Context(), ai.Input{
		Period:    insightsPeriod(req.Start, req.End),
		KPIs:      kpis,
		Offenders: offenders,
		Clients:   clients,
	})
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			writeError(w, r, http.StatusServiceUnavailable, "análise não configurada")
			return
		}
		writeError(w, r, http.StatusBadGateway, "falha ao gerar análise")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insight": summary})
}

func insightsPeriod(start, end string) string {
	switch {
	case start == "" && end == "":
		return "todo o histórico"
	case end == "":
		return "a partir de " + start
	case start == "":
		return "até " + end
	default:
		return start + " a " + end
	}
}
