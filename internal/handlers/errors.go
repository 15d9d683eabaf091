package handlers

import (
	"errors"
	"net/http"

	"github.com/faiisll/TKT-BE/internal/service"
	"github.com/faiisll/TKT-BE/internal/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// writeError maps service errors to HTTP responses. Anything unexpected is
// logged with its detail and answered with a generic 500.
func writeError(log zerolog.Logger, w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.FieldErrors(w, ve.Fields)
	case errors.Is(err, service.ErrNotFound):
		utils.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, "invalid credentials")
	default:
		log.Error().Err(err).
			Str("requestId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		utils.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
