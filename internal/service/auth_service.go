package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"
	"github.com/faiisll/TKT-BE/internal/utils"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct {
	users         repository.UserRepository
	sessionSecret string
	tokenTTL      time.Duration
}

func NewAuthService(users repository.UserRepository, sessionSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, sessionSecret: sessionSecret, tokenTTL: tokenTTL}
}

// TokenTTL is how long issued tokens stay valid.
func (a *AuthService) TokenTTL() time.Duration { return a.tokenTTL }

// EnsureUser creates a staff account unless one with the same email exists.
func (a *AuthService) EnsureUser(ctx context.Context, email, name, password, role string) (*models.User, error) {
	in := struct {
		Email    string `json:"email" validate:"required,email"`
		Name     string `json:"name" validate:"required,max=200"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"required,oneof=Admin Technician"`
	}{strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(name), password, role}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return a.users.Upsert(ctx, in.Email, in.Name, in.Role, hash)
}

// Login checks the credentials and issues a signed session token.
func (a *AuthService) Login(ctx context.Context, in LoginInput) (token string, user *models.User, err error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return "", nil, err
	}

	u, hash, err := a.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup %s: %w", in.Email, err)
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(hash, in.Password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Role, a.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return tok, u, nil
}

// Me loads the profile behind an authenticated user id.
func (a *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	if !isUUID(userID) {
		return nil, ErrNotFound
	}
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}
