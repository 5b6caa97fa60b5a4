package httpapi

import (
	"net/http"
	"strings"
	"time"

	"opertrack.org/internal/auth"
	"opertrack.org/internal/ops"
)

const rankingSize = 5

type dashboardResponse struct {
	ops.KPISummary
	TopOffenders []ops.ReasonCount `json:"topOffenders"`
	TopClients   []ops.ClientCount `json:"topClients"`
}

func (a *API) handleDashboardKPIs(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, dashboardResponse{
		KPISummary:   kpis,
		TopOffenders: offenders,
		TopClients:   clients,
	})
}

// parseWindow builds the aggregation window from start/end/booking query
// parameters plus the caller's shipper scope. The end date is widened to
// end-of-day so a same-day range still matches.
func parseWindow(r *http.Request, p auth.Principal) (ops.Window, error) {
	q := r.URL.Query()
	start, err := parseDateParam(q.Get("start"))
	if err != nil {
		return ops.Window{}, err
	}
	end, err := parseDateParam(q.Get("end"))
	if err != nil {
		return ops.Window{}, err
	}
	if !end.IsZero() {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return ops.Window{
		Start:      start,
		End:        end,
		Embarcador: scopedEmbarcador(r, p),
		Booking:    strings.TrimSpace(q.Get("booking")),
	}, nil
}
