package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"opertrack.org/internal/audit"
	"opertrack.org/internal/ops"
)

// meResponse is the identity payload the frontend session bootstrap
// consumes. uid is the identity-provider subject, admin is derived from
// the stored role.
type meResponse struct {
	UID        string `json:"uid"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Admin      bool   `json:"admin"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	Embarcador string `json:"embarcador,omitempty"`
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, err := requirePrincipal(r)
	if err != nil {
		writeGateError(w, r, err)
		return
	}

	user, err := a.store.FindUserBySubject(r.Context(), p.Subject)
	if err != nil {
		if errors.Is(err, ops.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "usuário não cadastrado")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "falha ao consultar o usuário")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		UID:        user.Subject,
		Email:      user.Email,
		Name:       user.Nome,
		Admin:      user.Role == ops.RoleAdmin,
		Role:       user.Role,
		Status:     user.Status,
		Embarcador: user.Embarcador,
	})
}

type registerRequest struct {
	Nome       string `json:"nome"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Embarcador string `json:"embarcador"`
}

// handleRegister creates the application account for an authenticated
// subject. Any valid token may register; the account starts pendente and
// only an admin approval unlocks the data endpoints.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	p, err := requirePrincipal(r)
	if err != nil {
		writeGateError(w, r, err)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = p.Email
	}
	user, err := a.store.RegisterUser(r.Context(), ops.User{
		Subject:    p.Subject,
		Email:      email,
		Nome:       strings.TrimSpace(req.Nome),
		Role:       strings.TrimSpace(req.Role),
		Embarcador: strings.TrimSpace(req.Embarcador),
	})
	if err != nil {
		switch {
		case errors.Is(err, ops.ErrAlreadyExists):
			writeError(w, r, http.StatusConflict, "usuário já cadastrado")
		case errors.Is(err, ops.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "falha ao cadastrar o usuário")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "users.register", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handlePendingUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	users, err := a.store.PendingUsers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "falha ao listar usuários pendentes")
		return
	}
	if users == nil {
		users = []ops.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (a *API) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/users/admin/approve/")
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "usuário não encontrado")
		return
	}

	if err := a.store.ApproveUser(r.Context(), id); err != nil {
		if errors.Is(err, ops.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "usuário não encontrado")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "falha ao aprovar o usuário")
		return
	}

	_ = audit.LogEvent(r.Context(), "users.approve", map[string]any{
		"user_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": ops.StatusAtivo})
}
