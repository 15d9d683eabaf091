// Command seed creates the default staff accounts in Postgres.
package main

import (
	"context"
	"time"

	"github.com/faiisll/TKT-BE/internal/config"
	"github.com/faiisll/TKT-BE/internal/database"
	"github.com/faiisll/TKT-BE/internal/repository/postgres"
	"github.com/faiisll/TKT-BE/internal/seed"
	"github.com/faiisll/TKT-BE/internal/service"
	"github.com/faiisll/TKT-BE/pkg/logger"
)

func main() {
	cfg := config.Load()
	l := logger.New(cfg.Env, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Open(ctx, cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		l.Fatal().Err(err).Msg("db migrate failed")
	}

	auth := service.NewAuthService(postgres.NewUserRepo(pool), cfg.SessionSecret, cfg.TokenTTL)
	if err := seed.Staff(ctx, auth, l, seed.Accounts); err != nil {
		l.Fatal().Err(err).Msg("seed failed")
	}
}
