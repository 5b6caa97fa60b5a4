package httpapi

import (
	"context"
	"net/http"
	"time"

	"opertrack.org/internal/ai"
	"opertrack.org/internal/config"
	"opertrack.org/internal/mail"
	"opertrack.org/internal/obs"
	"opertrack.org/internal/store/pg"
)

// API is the HTTP layer. All collaborators are injected once and shared
// across requests; the API itself holds no mutable state.
type API struct {
	mux      *http.ServeMux
	store    *pg.Store
	mailer   *mail.Sender
	analyzer ai.Analyzer
	cfg      config.Config
	version  string
}

// New registers every route statically. Routes that do not exist answer
// 404 instead of silently mounting a reduced surface.
func New(cfg config.Config, store *pg.Store, mailer *mail.Sender, analyzer ai.Analyzer, version string) *API {
	a := &API{
		mux:      http.NewServeMux(),
		store:    store,
		mailer:   mailer,
		analyzer: analyzer,
		cfg:      cfg,
		version:  version,
	}

	// health/ready/metrics, outside /api and outside auth
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// dashboard + analytics
	a.mux.HandleFunc("/api/dashboard/kpis", a.handleDashboardKPIs)
	a.mux.HandleFunc("/api/analytics/kpis", a.handleAnalyticsKPIs)
	a.mux.HandleFunc("/api/analytics/insights", a.handleAnalyticsInsights)

	// operations
	a.mux.HandleFunc("/api/operations", a.handleOperationsCollection)
	a.mux.HandleFunc("/api/operations/upload", a.handleOperationsUpload)
	a.mux.HandleFunc("/api/operations/all", a.handleOperationsWipe)
	a.mux.HandleFunc("/api/operations/public/track/", a.handlePublicTracking)

	// reports
	a.mux.HandleFunc("/api/reports/daily", a.handleDailyReport)
	a.mux.HandleFunc("/api/reports/top-ofensores.xlsx", a.handleTopOffendersXLSX)
	a.mux.HandleFunc("/api/reports/atrasos.xlsx", a.handleAtrasosXLSX)
	a.mux.HandleFunc("/api/reports/diario-de-bordo", a.handleDiarioDeBordo)

	// aliases
	a.mux.HandleFunc("/api/aliases", a.handleAliases)

	// users
	a.mux.HandleFunc("/api/users/me", a.handleMe)
	a.mux.HandleFunc("/api/users/register", a.handleRegister)
	a.mux.HandleFunc("/api/users/pending", a.handlePendingUsers)
	a.mux.HandleFunc("/api/users/admin/approve/", a.handleApproveUser)

	// unmatched /api/* gets a JSON 404 with the requested path
	a.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "rota não encontrada",
			"path":  r.URL.Path,
		})
	})
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. Order matters:
// the request id must exist before logging, and the rate limiter must see
// the real client before auth does any database work.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = a.withAuth(h)
	h = RateLimit(h, a.cfg.RateBurst, a.cfg.RatePerMinute)
	h = MaxBodyBytes(h, maxRequestBytes)
	h = CORS(h, a.cfg.AllowOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "opertrack-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
