package repository

import (
	"context"
	"errors"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrInvalidRef is returned when a foreign key points at nothing.
	ErrInvalidRef = errors.New("invalid reference")
)

// TicketRepository reads return (nil, nil) when the row does not exist;
// writes return ErrNotFound.
type TicketRepository interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	Create(ctx context.Context, t *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*models.Ticket, error)
	List(ctx context.Context, f TicketFilter) ([]models.Ticket, int, error)
	Update(ctx context.Context, id string, p models.TicketPatch) (*models.Ticket, error)
	AddUpdate(ctx context.Context, u *models.TicketUpdate) error
	ListUpdates(ctx context.Context, ticketID string) ([]models.TicketUpdate, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, email, name, role, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}
