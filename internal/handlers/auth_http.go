package handlers

import (
	"net/http"
	"time"

	"github.com/faiisll/TKT-BE/internal/middleware"
	"github.com/faiisll/TKT-BE/internal/service"
	"github.com/faiisll/TKT-BE/internal/utils"

	"github.com/rs/zerolog"
)

type AuthHTTP struct {
	svc          *service.AuthService
	log          zerolog.Logger
	secureCookie bool
}

func NewAuthHTTP(s *service.AuthService, log zerolog.Logger, secureCookie bool) *AuthHTTP {
	return &AuthHTTP{svc: s, log: log, secureCookie: secureCookie}
}

// POST /api/auth/login
func (h *AuthHTTP) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.LoginInput
		if err := utils.DecodeJSON(w, r, &in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		token, u, err := h.svc.Login(r.Context(), in)
		if err != nil {
			writeError(h.log, w, r, err, "user not found")
			return
		}

		// Browser clients ride on the cookie; API clients use the token.
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   h.secureCookie,
			Expires:  time.Now().Add(h.svc.TokenTTL()),
		})

		utils.JSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  u,
		})
	}
}

// POST /api/auth/logout
func (h *AuthHTTP) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   h.secureCookie,
			MaxAge:   -1,              // expire immediately
			Expires:  time.Unix(0, 0), // for older browsers
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/auth/me
func (h *AuthHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.IdentityFrom(r.Context())
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		u, err := h.svc.Me(r.Context(), id.UserID)
		if err != nil {
			writeError(h.log, w, r, err, "user not found")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}
