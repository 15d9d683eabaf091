package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultNumberAttempts = 3

type CreateTicketInput struct {
	Subject       string `json:"subject" validate:"required,max=200"`
	Description   string `json:"description" validate:"required"`
	Category      string `json:"category" validate:"required,max=100"`
	Priority      string `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
	CustomerName  string `json:"customerName" validate:"required,max=200"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
}

func (in *CreateTicketInput) normalize() {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Priority = strings.TrimSpace(in.Priority)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
}

type ListTicketsInput struct {
	Status   string
	Priority string
	Category string
	Page     int
	Limit    int
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type TicketPage struct {
	Tickets    []models.Ticket `json:"tickets"`
	Pagination Pagination      `json:"pagination"`
}

type AddTicketUpdateInput struct {
	Message string  `json:"message"`
	Status  *string `json:"status"`
}

// TicketService implements the ticket lifecycle on top of the repositories.
type TicketService struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	numbers  *TicketNumberGenerator
	attempts int
	now      func() time.Time
	log      zerolog.Logger
}

type TicketOption func(*TicketService)

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) TicketOption {
	return func(s *TicketService) { s.now = now }
}

// WithNumberAttempts bounds how many ticket numbers are tried per create.
func WithNumberAttempts(n int) TicketOption {
	return func(s *TicketService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func NewTicketService(tickets repository.TicketRepository, users repository.UserRepository, log zerolog.Logger, opts ...TicketOption) *TicketService {
	s := &TicketService{
		tickets:  tickets,
		users:    users,
		numbers:  NewTicketNumberGenerator(tickets),
		attempts: defaultNumberAttempts,
		now:      time.Now,
		log:      log.With().Str("component", "tickets").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Public operations
// -----------------------------------------------------------------------------

// CreateTicket opens a ticket for an anonymous customer.
func (s *TicketService) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	for attempt := 1; ; attempt++ {
		now := s.now().UTC()
		number, err := s.numbers.Next(ctx, now)
		if err != nil {
			return nil, err
		}

		t := &models.Ticket{
			TicketNumber:  number,
			Subject:       in.Subject,
			Description:   in.Description,
			Category:      in.Category,
			Priority:      priority,
			Status:        models.StatusOpen,
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			CreatedAt:     now,
		}
		err = s.tickets.Create(ctx, t)
		if err == nil {
			s.log.Info().Str("ticketNumber", t.TicketNumber).Str("ticketId", t.ID).Msg("ticket created")
			return t, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= s.attempts {
			return nil, fmt.Errorf("create ticket %s: %w", number, err)
		}
		s.log.Warn().Str("ticketNumber", number).Int("attempt", attempt).Msg("ticket number taken, regenerating")
	}
}

// GetTicketByNumber is the customer-facing lookup.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*models.TicketDetail, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrNotFound
	}
	t, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", number, err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return s.withUpdates(ctx, t)
}

// -----------------------------------------------------------------------------
// Staff operations
// -----------------------------------------------------------------------------

func (s *TicketService) GetTicketByID(ctx context.Context, id string) (*models.TicketDetail, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withUpdates(ctx, t)
}

// ListTickets returns one page of tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, in ListTicketsInput) (*TicketPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	f := repository.TicketFilter{
		Status:   strings.TrimSpace(in.Status),
		Priority: strings.TrimSpace(in.Priority),
		Category: strings.TrimSpace(in.Category),
		Limit:    in.Limit,
	}
	f.Normalize()
	f.Offset = (page - 1) * f.Limit

	items, total, err := s.tickets.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if items == nil {
		items = []models.Ticket{}
	}
	return &TicketPage{
		Tickets: items,
		Pagination: Pagination{
			Page:  page,
			Limit: f.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
	}, nil
}

// UpdateTicket applies a partial update. Blank status or priority are
// ignored; AssignedTo follows the omitted / clear / set convention.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, p models.TicketPatch) (*models.Ticket, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	p.Status = trimPtr(p.Status)
	p.Priority = trimPtr(p.Priority)
	if p.AssignedTo.Set && p.AssignedTo.Value != nil {
		v := strings.TrimSpace(*p.AssignedTo.Value)
		p.AssignedTo.Value = &v
	}

	check := struct {
		Status     string `json:"status" validate:"omitempty,oneof=Open InProgress Waiting Resolved Closed"`
		Priority   string `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
		AssignedTo string `json:"assignedTo" validate:"omitempty,uuid"`
	}{deref(p.Status), deref(p.Priority), deref(p.AssignedTo.Value)}
	if err := validateStruct(check); err != nil {
		return nil, err
	}

	t, err := s.tickets.Update(ctx, id, p)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrInvalidRef):
		return nil, fieldError("assignedTo", "unknown user")
	case err != nil:
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	s.log.Info().Str("ticketId", id).Str("status", t.Status).Str("priority", t.Priority).Msg("ticket updated")
	return t, nil
}

// AddTicketUpdate appends an annotation written by authorID. A status on the
// update becomes the ticket's current status in the same transaction.
func (s *TicketService) AddTicketUpdate(ctx context.Context, ticketID string, in AddTicketUpdateInput, authorID string) (*models.TicketUpdate, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.Status = trimPtr(in.Status)
	check := struct {
		Message string `json:"message" validate:"required,max=5000"`
		Status  string `json:"status" validate:"omitempty,oneof=Open InProgress Waiting Resolved Closed"`
	}{in.Message, deref(in.Status)}
	if err := validateStruct(check); err != nil {
		return nil, err
	}
	if !isUUID(ticketID) {
		return nil, ErrNotFound
	}

	u := &models.TicketUpdate{
		TicketID:  ticketID,
		Message:   in.Message,
		Status:    in.Status,
		CreatedBy: authorID,
	}
	err := s.tickets.AddUpdate(ctx, u)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("add update to ticket %s: %w", ticketID, err)
	}
	s.log.Info().Str("ticketId", ticketID).Str("updateId", u.ID).Str("author", authorID).Msg("ticket update added")
	return u, nil
}

// ListTicketUpdates returns the updates of an existing ticket, newest first.
func (s *TicketService) ListTicketUpdates(ctx context.Context, ticketID string) ([]models.TicketUpdate, error) {
	if _, err := s.find(ctx, ticketID); err != nil {
		return nil, err
	}
	out, err := s.tickets.ListUpdates(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list updates for %s: %w", ticketID, err)
	}
	return out, nil
}

func (s *TicketService) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	users, err := s.users.ListByRole(ctx, models.RoleTechnician)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	out := make([]models.Technician, 0, len(users))
	for _, u := range users {
		out = append(out, models.Technician{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *TicketService) find(ctx context.Context, id string) (*models.Ticket, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *TicketService) withUpdates(ctx context.Context, t *models.Ticket) (*models.TicketDetail, error) {
	updates, err := s.tickets.ListUpdates(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list updates for %s: %w", t.ID, err)
	}
	if updates == nil {
		updates = []models.TicketUpdate{}
	}
	return &models.TicketDetail{Ticket: *t, Updates: updates}, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
