package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/faiisll/TKT-BE/internal/utils"

	"github.com/rs/zerolog"
)

// Pinger is implemented by the storage handle (pgxpool.Pool, memory.Store).
type Pinger interface {
	Ping(ctx context.Context) error
}

func Health(log zerolog.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: storage unreachable")
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
