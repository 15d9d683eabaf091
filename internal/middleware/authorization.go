package middleware

import (
	"net/http"

	"github.com/faiisll/TKT-BE/internal/utils"
)

// RequireAuth blocks when no identity is present in context (set by WithAuth).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.IdentityFrom(r.Context()); !ok {
			utils.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles allows the request only if the caller's role is in the list.
// Unauthenticated callers get 401, authenticated ones with another role 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := utils.IdentityFrom(r.Context())
			if !ok {
				utils.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				utils.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
