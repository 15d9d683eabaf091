package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/faiisll/TKT-BE/internal/config"
	"github.com/faiisll/TKT-BE/internal/handlers"
	"github.com/faiisll/TKT-BE/internal/middleware"
	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/service"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Tickets *service.TicketService
	Auth    *service.AuthService
	DB      handlers.Pinger
}

func New(log zerolog.Logger, cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	r.Use(middleware.WithAuth(log, cfg.SessionSecret))

	// Health
	r.Get("/healthz", handlers.Health(log, d.DB))

	th := handlers.NewTicketHTTP(d.Tickets, log)
	ah := handlers.NewAuthHTTP(d.Auth, log, cfg.SecureCookie)

	// anonymous writes get a tighter budget
	publicLimit := httprate.LimitByIP(cfg.PublicRateLimit, time.Minute)
	staffOnly := middleware.RequireRoles(models.StaffRoles...)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(publicLimit).Post("/login", ah.Login())
		r.Post("/logout", ah.Logout())
		r.With(middleware.RequireAuth).Get("/me", ah.Me())
	})

	r.Route("/api/tickets", func(r chi.Router) {
		// Public
		r.With(publicLimit).Post("/", th.Create())
		r.Get("/ticket/{ticketNumber}", th.GetByNumber())

		// Staff
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/technicians", th.Technicians())
			r.Get("/", th.List())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.Get())
				r.Patch("/", th.Update())
				r.Post("/updates", th.AddUpdate())
				r.Get("/updates", th.Updates())
			})
		})
	})

	return r
}
