package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"opertrack.org/internal/audit"
	"opertrack.org/internal/ops"
	"opertrack.org/internal/report"
)

type listOperationsResponse struct {
	Data       []ops.Operation `json:"data"`
	Pagination ops.Pagination  `json:"pagination"`
}

func (a *API) handleOperationsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := requireActive(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := parseBoundedInt(q.Get("page"), 1, 1, 1_000_000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "page deve ser um inteiro positivo")
		return
	}
	limit, err := parseBoundedInt(q.Get("limit"), 20, 1, 200)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit deve estar entre 1 e 200")
		return
	}
	if data := strings.TrimSpace(q.Get("data")); data != "" {
		if _, err := parseDateParam(data); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	filter := ops.ListFilter{
		Page:       page,
		Limit:      limit,
		Booking:    strings.TrimSpace(q.Get("booking")),
		Date:       strings.TrimSpace(q.Get("data")),
		Embarcador: scopedEmbarcador(r, p),
	}
	items, pagination, err := a.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao listar operações")
		return
	}
	if items == nil {
		items = []ops.Operation{}
	}
	writeJSON(w, http.StatusOK, listOperationsResponse{
		Data:       items,
		Pagination: pagination,
	})
}

func (a *API) handleOperationsUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "arquivo XLSX é obrigatório no campo 'file'")
		return
	}
	defer file.Close()

	sources, err := a.store.DelaySources(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao carregar o mapeamento de colunas")
		return
	}
	rows, err := report.ParseOperationsUpload(header.Filename, file, sources)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, r, http.StatusBadRequest, "planilha sem operações válidas")
		return
	}

	inserted, err := a.store.BulkInsert(r.Context(), rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao gravar operações")
		return
	}

	_ = audit.LogEvent(r.Context(), "operations.upload", map[string]any{
		"file":     header.Filename,
		"inserted": inserted,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"inserted": inserted})
}

func (a *API) handleOperationsWipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	deleted, err := a.store.DeleteAll(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao excluir operações")
		return
	}
	_ = audit.LogEvent(r.Context(), "operations.wipe", map[string]any{
		"deleted": strconv.FormatInt(deleted, 10),
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// handlePublicTracking answers the unauthenticated tracking lookup used
// by the customer-facing page.
func (a *API) handlePublicTracking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/operations/public/track/")
	code = strings.TrimSuffix(code, "/")
	if code == "" || strings.Contains(code, "/") {
		writeError(w, r, http.StatusNotFound, "operação não encontrada")
		return
	}

	op, err := a.store.FindByTrackingCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ops.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "operação não encontrada")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "falha na consulta")
		return
	}
	writeJSON(w, http.StatusOK, op)
}
