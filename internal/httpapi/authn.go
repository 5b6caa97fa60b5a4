package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"opertrack.org/internal/auth"
	"opertrack.org/internal/ops"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
}
var publicPrefixes = []string{
	"/api/operations/public/track/",
}

// withAuth verifies the bearer token and resolves the stored user row on
// every request. Role and shipper scope come from the database, never
// from token claims, so a demoted user loses access immediately.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "token inválido")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "falha na autenticação")
			return
		}

		principal := auth.Principal{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
		}
		user, err := a.store.FindUserBySubject(r.Context(), claims.Subject)
		switch {
		case err == nil:
			principal.Admin = user.Role == ops.RoleAdmin
			principal.Active = user.Status == ops.StatusAtivo
			principal.Embarcador = user.Embarcador
		case errors.Is(err, ops.ErrNotFound):
			// valid token, no application account yet; only the
			// registration endpoints are usable in this state
		default:
			writeError(w, r, http.StatusInternalServerError, "falha na autenticação")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal fetches the authenticated principal or reports
// auth.ErrUnauthorized when the gate never ran for this request.
func requirePrincipal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, fmt.Errorf("%w: autenticação necessária", auth.ErrUnauthorized)
	}
	return p, nil
}

// requireActive gates the data endpoints: the caller must have an
// approved account. Returns the principal on success.
func requireActive(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, err := requirePrincipal(r)
	if err == nil && !p.Active {
		err = fmt.Errorf("%w: conta pendente de aprovação", auth.ErrForbidden)
	}
	if err != nil {
		writeGateError(w, r, err)
		return auth.Principal{}, false
	}
	return p, true
}

// requireAdmin gates the administrative endpoints.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := requireActive(w, r)
	if !ok {
		return auth.Principal{}, false
	}
	if !p.Admin {
		writeGateError(w, r, fmt.Errorf("%w: acesso restrito a administradores", auth.ErrForbidden))
		return auth.Principal{}, false
	}
	return p, true
}

// writeGateError maps auth sentinels onto 401/403.
func writeGateError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusUnauthorized
	if errors.Is(err, auth.ErrForbidden) {
		code = http.StatusForbidden
	}
	writeError(w, r, code, err.Error())
}

// scopedEmbarcador resolves the shipper filter for aggregation and
// listing queries. Admins may pick any via companyId; everyone else is
// pinned to their own shipper regardless of what the request asks for.
func scopedEmbarcador(r *http.Request, p auth.Principal) string {
	if p.Admin {
		return strings.TrimSpace(r.URL.Query().Get("companyId"))
	}
	return p.Embarcador
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("token de autenticação ausente")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("esquema de autorização inválido")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("token de autenticação ausente")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
