package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"
)

func TestCreate_UniqueNumber(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := &models.Ticket{TicketNumber: "TKT-2026-0001", Status: models.StatusOpen}
	if err := s.Tickets().Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	dup := &models.Ticket{TicketNumber: "TKT-2026-0001"}
	if err := s.Tickets().Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}
	if dup.ID != "" {
		t.Error("rejected ticket was assigned an id")
	}
}

func TestCountCreatedBetween_HalfOpen(t *testing.T) {
	s := New()
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{jan1.Add(-time.Nanosecond), jan1, jan1.AddDate(1, 0, 0)} {
		if _, err := s.InsertTicket(models.Ticket{TicketNumber: string(rune('a' + i)), CreatedAt: at}); err != nil {
			t.Fatal(err)
		}
	}
	n, _ := s.Tickets().CountCreatedBetween(context.Background(), jan1, jan1.AddDate(1, 0, 0))
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestAddUpdate_UnknownAuthor(t *testing.T) {
	s := New()
	tk, _ := s.InsertTicket(models.Ticket{TicketNumber: "n", Status: models.StatusOpen})
	err := s.Tickets().AddUpdate(context.Background(), &models.TicketUpdate{
		TicketID: tk.ID, Message: "m", Status: models.StringPtr(models.StatusClosed), CreatedBy: "ghost",
	})
	if !errors.Is(err, repository.ErrInvalidRef) {
		t.Fatalf("error = %v", err)
	}
	got, _ := s.Tickets().GetByID(context.Background(), tk.ID)
	if got.Status != models.StatusOpen {
		t.Errorf("failed update still changed status to %q", got.Status)
	}
}
