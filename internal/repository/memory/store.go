// Package memory is an in-process implementation of the repositories. It
// enforces the same constraints as the Postgres schema: unique ticket
// numbers, unique emails and foreign keys on assignment and authorship.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"

	"github.com/google/uuid"
)

type userRow struct {
	user models.User
	hash string
}

// Store holds tickets, updates and users behind one mutex.
type Store struct {
	mu           sync.RWMutex
	tickets      map[string]*models.Ticket
	numbers      map[string]string // ticket number -> id
	updates      map[string][]models.TicketUpdate
	users        map[string]*userRow
	byEmail      map[string]string
	now          func() time.Time
	beforeCreate func(t *models.Ticket)
}

func New() *Store {
	return &Store{
		tickets: map[string]*models.Ticket{},
		numbers: map[string]string{},
		updates: map[string][]models.TicketUpdate{},
		users:   map[string]*userRow{},
		byEmail: map[string]string{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for row timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// OnCreate registers a hook run inside Create before the uniqueness check.
// Tests use it to simulate a concurrent insert.
func (s *Store) OnCreate(fn func(t *models.Ticket)) {
	s.mu.Lock()
	s.beforeCreate = fn
	s.mu.Unlock()
}

// Tickets returns the ticket repository view of the store.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Ping satisfies the health check.
func (s *Store) Ping(context.Context) error { return nil }

// InsertTicket stores t as-is, bypassing numbering. Useful for fixtures.
func (s *Store) InsertTicket(t models.Ticket) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(t)
}

func (s *Store) insertLocked(t models.Ticket) (models.Ticket, error) {
	if _, taken := s.numbers[t.TicketNumber]; taken {
		return models.Ticket{}, repository.ErrDuplicate
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	t.UpdatedAt = t.CreatedAt
	row := t
	s.tickets[t.ID] = &row
	s.numbers[t.TicketNumber] = t.ID
	return s.decorateLocked(row), nil
}

// decorateLocked fills the joined assignee columns.
func (s *Store) decorateLocked(t models.Ticket) models.Ticket {
	t.AssigneeName, t.AssigneeEmail = "", ""
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		t.AssignedTo = &v
		if u, ok := s.users[v]; ok {
			t.AssigneeName, t.AssigneeEmail = u.user.Name, u.user.Email
		}
	}
	return t
}

// -----------------------------------------------------------------------------
// Tickets
// -----------------------------------------------------------------------------

type ticketRepo struct{ s *Store }

func (r ticketRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, t := range r.s.tickets {
		if !t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r ticketRepo) Create(_ context.Context, t *models.Ticket) error {
	r.s.mu.Lock()
	hook := r.s.beforeCreate
	r.s.mu.Unlock()
	if hook != nil {
		hook(t)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, err := r.s.insertLocked(*t)
	if err != nil {
		return err
	}
	*t = row
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, nil
	}
	out := r.s.decorateLocked(*t)
	return &out, nil
}

func (r ticketRepo) GetByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	r.s.mu.RLock()
	id, ok := r.s.numbers[number]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r ticketRepo) List(_ context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	f.Normalize()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.Ticket
	for _, t := range r.s.tickets {
		if !matches(f.Status, t.Status) || !matches(f.Priority, t.Priority) || !matches(f.Category, t.Category) {
			continue
		}
		matched = append(matched, r.s.decorateLocked(*t))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].TicketNumber > matched[j].TicketNumber
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	out := []models.Ticket{}
	if f.Offset < total {
		end := min(f.Offset+f.Limit, total)
		out = append(out, matched[f.Offset:end]...)
	}
	return out, total, nil
}

func matches(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	return filter == "" || filter == value
}

func (r ticketRepo) Update(_ context.Context, id string, p models.TicketPatch) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.AssignedTo.Set && !p.AssignedTo.Clears() {
		if _, ok := r.s.users[*p.AssignedTo.Value]; !ok {
			return nil, repository.ErrInvalidRef
		}
	}

	if p.Status != nil && *p.Status != "" {
		t.Status = *p.Status
	}
	if p.Priority != nil && *p.Priority != "" {
		t.Priority = *p.Priority
	}
	if p.AssignedTo.Set {
		if p.AssignedTo.Clears() {
			t.AssignedTo = nil
		} else {
			v := *p.AssignedTo.Value
			t.AssignedTo = &v
		}
	}
	t.UpdatedAt = r.s.now()
	out := r.s.decorateLocked(*t)
	return &out, nil
}

func (r ticketRepo) AddUpdate(_ context.Context, u *models.TicketUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[u.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	author, ok := r.s.users[u.CreatedBy]
	if !ok {
		return repository.ErrInvalidRef
	}

	u.ID = uuid.NewString()
	u.CreatedAt = r.s.now()
	u.AuthorName = author.user.Name
	r.s.updates[u.TicketID] = append(r.s.updates[u.TicketID], *u)

	if u.Status != nil && *u.Status != "" {
		t.Status = *u.Status
		t.UpdatedAt = u.CreatedAt
	}
	return nil
}

func (r ticketRepo) ListUpdates(_ context.Context, ticketID string) ([]models.TicketUpdate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.updates[ticketID]
	out := make([]models.TicketUpdate, 0, len(rows))
	// stored in insertion order; newest first on the way out
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

type userRepo struct{ s *Store }

func (r userRepo) Upsert(_ context.Context, email, name, role, passwordHash string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.byEmail[email]; ok {
		u := r.s.users[id].user
		return &u, nil
	}
	now := r.s.now()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.users[u.ID] = &userRow{user: u, hash: passwordHash}
	r.s.byEmail[email] = u.ID
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, "", nil
	}
	row := r.s.users[id]
	u := row.user
	return &u, row.hash, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u := row.user
	return &u, nil
}

func (r userRepo) ListByRole(_ context.Context, role string) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.User
	for _, row := range r.s.users {
		if row.user.Role == role {
			out = append(out, row.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
