package middleware

import (
	"net/http"
	"strings"

	"github.com/faiisll/TKT-BE/internal/utils"

	"github.com/rs/zerolog"
)

// SessionCookie carries the token issued at login for browser clients.
const SessionCookie = "session"

// WithAuth resolves the caller from "Authorization: Bearer <jwt>" or the
// session cookie. Requests without a valid token continue unauthenticated;
// RequireAuth decides whether that is acceptable.
func WithAuth(log zerolog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, fromCookie := bearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := utils.ParseJWT(secret, tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session token")
				if fromCookie {
					// clear broken/expired cookie so it stops being sent
					http.SetCookie(w, &http.Cookie{
						Name:     SessionCookie,
						Value:    "",
						Path:     "/",
						HttpOnly: true,
						MaxAge:   -1,
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := utils.WithIdentity(r.Context(), utils.Identity{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (tok string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:]), false
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
