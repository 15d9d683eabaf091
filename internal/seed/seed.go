// Package seed creates the default staff accounts. Running it twice is safe:
// existing accounts are left untouched.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/service"

	"github.com/rs/zerolog"
)

type Account struct {
	Email, Name, Role string
	PasswordEnv       string // overrides DefaultPassword when set
	DefaultPassword   string
}

var Accounts = []Account{
	{"admin@ticketing.com", "Admin User", models.RoleAdmin, "SEED_ADMIN_PASSWORD", "admin123"},
	{"tech@ticketing.com", "John Technician", models.RoleTechnician, "SEED_TECH_PASSWORD", "tech123"},
}

// Staff ensures every account in accounts exists.
func Staff(ctx context.Context, auth *service.AuthService, log zerolog.Logger, accounts []Account) error {
	for _, a := range accounts {
		pw := os.Getenv(a.PasswordEnv)
		if pw == "" {
			pw = a.DefaultPassword
		}
		u, err := auth.EnsureUser(ctx, a.Email, a.Name, pw, a.Role)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		log.Info().Str("email", u.Email).Str("role", u.Role).Msg("user ready")
	}
	return nil
}
