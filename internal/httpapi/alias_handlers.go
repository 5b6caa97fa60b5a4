package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"opertrack.org/internal/audit"
	"opertrack.org/internal/ops"
)

type upsertAliasRequest struct {
	Alias  string `json:"alias"`
	Master string `json:"master"`
}

func (a *API) handleAliases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAliases(w, r)
	case http.MethodPost:
		a.upsertAlias(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listAliases(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	aliases, err := a.store.ListAliases(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao listar aliases")
		return
	}
	if aliases == nil {
		aliases = []ops.Alias{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": aliases})
}

func (a *API) upsertAlias(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var req upsertAliasRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	alias := strings.TrimSpace(req.Alias)
	master := strings.TrimSpace(req.Master)
	if err := a.store.UpsertAlias(r.Context(), alias, master); err != nil {
		if errors.Is(err, ops.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "alias e master são obrigatórios")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "falha ao gravar o alias")
		return
	}

	_ = audit.LogEvent(r.Context(), "aliases.upsert", map[string]any{
		"alias":  alias,
		"master": master,
	})
	writeJSON(w, http.StatusOK, map[string]any{"alias": alias, "master": master})
}
