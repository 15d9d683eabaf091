package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faiisll/TKT-BE/internal/config"
	"github.com/faiisll/TKT-BE/internal/database"
	"github.com/faiisll/TKT-BE/internal/handlers"
	"github.com/faiisll/TKT-BE/internal/repository"
	"github.com/faiisll/TKT-BE/internal/repository/memory"
	"github.com/faiisll/TKT-BE/internal/repository/postgres"
	"github.com/faiisll/TKT-BE/internal/router"
	"github.com/faiisll/TKT-BE/internal/seed"
	"github.com/faiisll/TKT-BE/internal/service"
	"github.com/faiisll/TKT-BE/pkg/logger"
)

func main() {
	// config + logger
	cfg := config.Load()
	l := logger.New(cfg.Env, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	// storage
	var (
		tickets repository.TicketRepository
		users   repository.UserRepository
		db      handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		l.Warn().Msg("using in-memory store; data is lost on exit")
		store := memory.New()
		tickets, users, db = store.Tickets(), store.Users(), store
	default:
		pool, err := database.Open(context.Background(), cfg)
		if err != nil {
			l.Fatal().Err(err).Msg("db connect failed")
		}
		defer pool.Close()
		if cfg.Migrate {
			if err := database.Migrate(context.Background(), pool); err != nil {
				l.Fatal().Err(err).Msg("db migrate failed")
			}
		}
		tickets, users, db = postgres.NewTicketRepo(pool), postgres.NewUserRepo(pool), pool
	}

	// services
	ticketSvc := service.NewTicketService(tickets, users, l, service.WithNumberAttempts(cfg.TicketNumberAttempts))
	authSvc := service.NewAuthService(users, cfg.SessionSecret, cfg.TokenTTL)
	if cfg.StoreDriver == config.DriverMemory {
		// nobody could log in otherwise
		if err := seed.Staff(context.Background(), authSvc, l, seed.Accounts); err != nil {
			l.Fatal().Err(err).Msg("seed failed")
		}
	}

	// http
	r := router.New(l, cfg, router.Deps{Tickets: ticketSvc, Auth: authSvc, DB: db})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Info().Msg("shutdown complete")
}
