package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"
	"github.com/faiisll/TKT-BE/internal/repository/memory"
	"github.com/faiisll/TKT-BE/internal/service"

	"github.com/rs/zerolog"
)

var numberPattern = regexp.MustCompile(`^TKT-2026-\d{4,}$`)

// clock advances one second per call so creation order is observable.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fixture struct {
	svc   *service.TicketService
	store *memory.Store
	clock *clock
}

func newFixture(t *testing.T, opts ...service.TicketOption) *fixture {
	t.Helper()
	c := newClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	store := memory.New()
	store.SetClock(c.Now)
	opts = append([]service.TicketOption{service.WithClock(c.Now)}, opts...)
	svc := service.NewTicketService(store.Tickets(), store.Users(), zerolog.New(io.Discard), opts...)
	return &fixture{svc: svc, store: store, clock: c}
}

func (f *fixture) create(t *testing.T, subject string) *models.Ticket {
	t.Helper()
	tk, err := f.svc.CreateTicket(context.Background(), service.CreateTicketInput{
		Subject:       subject,
		Description:   "details",
		Category:      "Hardware",
		CustomerName:  "Ann",
		CustomerEmail: "a@b.com",
	})
	if err != nil {
		t.Fatalf("CreateTicket(%q): %v", subject, err)
	}
	return tk
}

func (f *fixture) staff(t *testing.T, email, name, role string) *models.User {
	t.Helper()
	u, err := f.store.Users().Upsert(context.Background(), email, name, role, "hash")
	if err != nil {
		t.Fatalf("Upsert(%s): %v", email, err)
	}
	return u
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	return ve.Fields
}

// -----------------------------------------------------------------------------
// CreateTicket
// -----------------------------------------------------------------------------

func TestCreateTicket_Defaults(t *testing.T) {
	f := newFixture(t)
	tk, err := f.svc.CreateTicket(context.Background(), service.CreateTicketInput{
		Subject:       "Printer down",
		Description:   "Won't power on",
		Category:      "Hardware",
		CustomerName:  "Ann",
		CustomerEmail: "a@b.com",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if tk.Status != models.StatusOpen {
		t.Errorf("status = %q, want Open", tk.Status)
	}
	if tk.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want Medium", tk.Priority)
	}
	if !numberPattern.MatchString(tk.TicketNumber) {
		t.Errorf("ticket number %q does not match %s", tk.TicketNumber, numberPattern)
	}
	if tk.ID == "" || tk.AssignedTo != nil {
		t.Errorf("id = %q, assignedTo = %v", tk.ID, tk.AssignedTo)
	}
}

func TestCreateTicket_KeepsSuppliedPriority(t *testing.T) {
	f := newFixture(t)
	tk, err := f.svc.CreateTicket(context.Background(), service.CreateTicketInput{
		Subject: "VPN", Description: "drops", Category: "Network",
		Priority: "High", CustomerName: "Bo", CustomerEmail: "bo@example.com",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if tk.Priority != "High" {
		t.Errorf("priority = %q, want High", tk.Priority)
	}
}

func TestCreateTicket_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateTicket(context.Background(), service.CreateTicketInput{
		Subject:       "   ",
		Description:   "x",
		Category:      "Hardware",
		Priority:      "Whenever",
		CustomerName:  "Ann",
		CustomerEmail: "not-an-email",
	})
	fields := validationFields(t, err)
	for _, k := range []string{"subject", "priority", "customerEmail"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("missing field error for %q in %v", k, fields)
		}
	}
	if len(fields) != 3 {
		t.Errorf("fields = %v, want exactly 3", fields)
	}

	page, _ := f.svc.ListTickets(context.Background(), service.ListTicketsInput{})
	if page.Pagination.Total != 0 {
		t.Errorf("invalid create stored a ticket")
	}
}

func TestCreateTicket_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 1; i <= 12; i++ {
		tk := f.create(t, fmt.Sprintf("ticket %d", i))
		want := fmt.Sprintf("TKT-2026-%04d", i)
		if tk.TicketNumber != want {
			t.Fatalf("ticket %d number = %q, want %q", i, tk.TicketNumber, want)
		}
		if seen[tk.TicketNumber] {
			t.Fatalf("duplicate number %q", tk.TicketNumber)
		}
		seen[tk.TicketNumber] = true
	}
}

func TestCreateTicket_RestartsEachYear(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC))
	f.create(t, "old one")
	f.create(t, "old two")

	f.clock.Set(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	tk := f.create(t, "new year")
	if tk.TicketNumber != "TKT-2026-0001" {
		t.Errorf("first ticket of 2026 = %q, want TKT-2026-0001", tk.TicketNumber)
	}
}

func TestCreateTicket_RetriesOnNumberCollision(t *testing.T) {
	f := newFixture(t)
	var once sync.Once
	f.store.OnCreate(func(tk *models.Ticket) {
		// another request wins the race for the same number
		once.Do(func() {
			if _, err := f.store.InsertTicket(models.Ticket{
				TicketNumber: tk.TicketNumber, Status: models.StatusOpen, CreatedAt: tk.CreatedAt,
			}); err != nil {
				t.Errorf("InsertTicket: %v", err)
			}
		})
	})

	tk := f.create(t, "racy")
	if tk.TicketNumber != "TKT-2026-0002" {
		t.Errorf("number after collision = %q, want TKT-2026-0002", tk.TicketNumber)
	}
}

func TestCreateTicket_FailsAfterAttempts(t *testing.T) {
	f := newFixture(t, service.WithNumberAttempts(2))
	calls := 0
	f.store.OnCreate(func(tk *models.Ticket) {
		calls++
		_, _ = f.store.InsertTicket(models.Ticket{TicketNumber: tk.TicketNumber, CreatedAt: tk.CreatedAt})
	})

	_, err := f.svc.CreateTicket(context.Background(), service.CreateTicketInput{
		Subject: "s", Description: "d", Category: "c", CustomerName: "n", CustomerEmail: "n@example.com",
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		t.Fatalf("collision surfaced as validation error")
	}
	if calls != 2 {
		t.Errorf("attempts = %d, want 2", calls)
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func TestGetTicketByNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "Printer down")

	if _, err := f.svc.GetTicketByNumber(ctx, "TKT-1999-0001"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown number error = %v, want ErrNotFound", err)
	}

	detail, err := f.svc.GetTicketByNumber(ctx, tk.TicketNumber)
	if err != nil {
		t.Fatalf("GetTicketByNumber: %v", err)
	}
	if detail.Updates == nil || len(detail.Updates) != 0 {
		t.Errorf("updates = %v, want empty non-nil", detail.Updates)
	}

	for _, msg := range []string{"first", "second", "third"} {
		if _, err := f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: msg}, tech.ID); err != nil {
			t.Fatalf("AddTicketUpdate(%s): %v", msg, err)
		}
	}
	detail, err = f.svc.GetTicketByNumber(ctx, tk.TicketNumber)
	if err != nil {
		t.Fatalf("GetTicketByNumber: %v", err)
	}
	var got []string
	for _, u := range detail.Updates {
		got = append(got, u.Message)
	}
	if fmt.Sprint(got) != "[third second first]" {
		t.Errorf("updates order = %v, want newest first", got)
	}
	if detail.Updates[0].AuthorName != "Tina" {
		t.Errorf("author name = %q, want Tina", detail.Updates[0].AuthorName)
	}
}

func TestGetTicketByID_NotFound(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", "not-a-uuid", "7f9c2ba4-e88f-41d9-9a3a-5b6a1f1f0c7e"} {
		if _, err := f.svc.GetTicketByID(context.Background(), id); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("GetTicketByID(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestListTickets_FilterAndPaginate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var created []*models.Ticket
	for i := 0; i < 30; i++ {
		created = append(created, f.create(t, fmt.Sprintf("t%02d", i)))
	}
	for _, tk := range created[:5] {
		if _, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{Status: models.StringPtr(models.StatusClosed)}); err != nil {
			t.Fatalf("UpdateTicket: %v", err)
		}
	}

	page, err := f.svc.ListTickets(ctx, service.ListTicketsInput{Status: "Open", Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(page.Tickets) != 10 {
		t.Fatalf("page size = %d, want 10", len(page.Tickets))
	}
	for _, tk := range page.Tickets {
		if tk.Status != models.StatusOpen {
			t.Errorf("ticket %s has status %q", tk.TicketNumber, tk.Status)
		}
	}
	want := service.Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
	// newest first: open tickets are t05..t29, page 2 starts at t19
	if page.Tickets[0].Subject != "t19" {
		t.Errorf("first on page 2 = %q, want t19", page.Tickets[0].Subject)
	}

	last, _ := f.svc.ListTickets(ctx, service.ListTicketsInput{Status: "Open", Page: 3, Limit: 10})
	if len(last.Tickets) != 5 || last.Pagination.Total != 25 {
		t.Errorf("last page = %d tickets, total %d", len(last.Tickets), last.Pagination.Total)
	}

	beyond, _ := f.svc.ListTickets(ctx, service.ListTicketsInput{Page: 9, Limit: 10})
	if beyond.Tickets == nil || len(beyond.Tickets) != 0 || beyond.Pagination.Total != 30 {
		t.Errorf("page past the end = %+v", beyond)
	}
}

func TestListTickets_Defaults(t *testing.T) {
	f := newFixture(t)
	page, err := f.svc.ListTickets(context.Background(), service.ListTicketsInput{Page: -3, Limit: 5000})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	want := service.Pagination{Page: 1, Limit: repository.MaxPageSize, Total: 0, Pages: 0}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
}

// -----------------------------------------------------------------------------
// UpdateTicket
// -----------------------------------------------------------------------------

func TestUpdateTicket_PartialFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "Printer down")

	assigned, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{
		Status:     models.StringPtr(models.StatusInProgress),
		AssignedTo: models.OptionalString{Set: true, Value: &tech.ID},
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != tech.ID || assigned.AssigneeName != "Tina" {
		t.Fatalf("assignment = %v / %q", assigned.AssignedTo, assigned.AssigneeName)
	}

	got, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{Priority: models.StringPtr("High")})
	if err != nil {
		t.Fatalf("priority only: %v", err)
	}
	if got.Priority != "High" {
		t.Errorf("priority = %q, want High", got.Priority)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("status changed to %q", got.Status)
	}
	if got.AssignedTo == nil || *got.AssignedTo != tech.ID {
		t.Errorf("assignment changed to %v", got.AssignedTo)
	}

	blank := ""
	got, err = f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{
		Status:     &blank,
		AssignedTo: models.OptionalString{Set: true, Value: &blank},
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got.AssignedTo != nil || got.AssigneeName != "" {
		t.Errorf("assignment not cleared: %v", got.AssignedTo)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("blank status changed status to %q", got.Status)
	}
}

func TestUpdateTicket_NullClearsAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "x")
	if _, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{AssignedTo: models.OptionalString{Set: true, Value: &tech.ID}}); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{AssignedTo: models.OptionalString{Set: true}})
	if err != nil {
		t.Fatal(err)
	}
	if got.AssignedTo != nil {
		t.Errorf("null did not clear assignment")
	}
}

func TestUpdateTicket_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, "x")

	stranger := "7f9c2ba4-e88f-41d9-9a3a-5b6a1f1f0c7e"
	_, err := f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{AssignedTo: models.OptionalString{Set: true, Value: &stranger}})
	if fields := validationFields(t, err); fields["assignedTo"] != "unknown user" {
		t.Errorf("fields = %v", fields)
	}

	junk := "bob"
	_, err = f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{AssignedTo: models.OptionalString{Set: true, Value: &junk}})
	if _, ok := validationFields(t, err)["assignedTo"]; !ok {
		t.Errorf("malformed assignee accepted")
	}

	_, err = f.svc.UpdateTicket(ctx, tk.ID, models.TicketPatch{Status: models.StringPtr("Exploded")})
	if _, ok := validationFields(t, err)["status"]; !ok {
		t.Errorf("unknown status accepted")
	}

	_, err = f.svc.UpdateTicket(ctx, stranger, models.TicketPatch{Priority: models.StringPtr("Low")})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing ticket error = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// Updates
// -----------------------------------------------------------------------------

func TestAddTicketUpdate_Status(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "Printer down")

	u, err := f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: "looking into it"}, tech.ID)
	if err != nil {
		t.Fatalf("AddTicketUpdate: %v", err)
	}
	if u.Status != nil || u.CreatedBy != tech.ID || u.TicketID != tk.ID || u.ID == "" {
		t.Errorf("update = %+v", u)
	}
	got, _ := f.svc.GetTicketByID(ctx, tk.ID)
	if got.Status != models.StatusOpen {
		t.Errorf("status without update status = %q, want Open", got.Status)
	}

	if _, err := f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{
		Message: "fixed", Status: models.StringPtr(models.StatusResolved),
	}, tech.ID); err != nil {
		t.Fatalf("AddTicketUpdate: %v", err)
	}
	got, _ = f.svc.GetTicketByID(ctx, tk.ID)
	if got.Status != models.StatusResolved {
		t.Errorf("status = %q, want Resolved", got.Status)
	}
	if len(got.Updates) != 2 || got.Updates[0].Message != "fixed" {
		t.Errorf("updates = %+v", got.Updates)
	}
}

func TestAddTicketUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "x")

	_, err := f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: "  "}, tech.ID)
	if _, ok := validationFields(t, err)["message"]; !ok {
		t.Errorf("blank message accepted")
	}

	_, err = f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: "m", Status: models.StringPtr("Nope")}, tech.ID)
	if _, ok := validationFields(t, err)["status"]; !ok {
		t.Errorf("unknown status accepted")
	}

	_, err = f.svc.AddTicketUpdate(ctx, "7f9c2ba4-e88f-41d9-9a3a-5b6a1f1f0c7e", service.AddTicketUpdateInput{Message: "m"}, tech.ID)
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing ticket error = %v, want ErrNotFound", err)
	}

	updates, _ := f.svc.ListTicketUpdates(ctx, tk.ID)
	if len(updates) != 0 {
		t.Errorf("rejected updates were stored: %v", updates)
	}
}

func TestListTicketUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.staff(t, "tech@ticketing.com", "Tina", models.RoleTechnician)
	tk := f.create(t, "x")

	if _, err := f.svc.ListTicketUpdates(ctx, "7f9c2ba4-e88f-41d9-9a3a-5b6a1f1f0c7e"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing ticket error = %v, want ErrNotFound", err)
	}
	empty, err := f.svc.ListTicketUpdates(ctx, tk.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty updates = %v, %v", empty, err)
	}

	_, _ = f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: "a"}, tech.ID)
	_, _ = f.svc.AddTicketUpdate(ctx, tk.ID, service.AddTicketUpdateInput{Message: "b"}, tech.ID)
	updates, err := f.svc.ListTicketUpdates(ctx, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 2 || updates[0].Message != "b" || updates[1].Message != "a" {
		t.Errorf("updates = %+v, want b then a", updates)
	}
}

func TestListTechnicians(t *testing.T) {
	f := newFixture(t)
	f.staff(t, "admin@ticketing.com", "Admin User", models.RoleAdmin)
	f.staff(t, "zed@ticketing.com", "Zed", models.RoleTechnician)
	f.staff(t, "tech@ticketing.com", "John Technician", models.RoleTechnician)

	techs, err := f.svc.ListTechnicians(context.Background())
	if err != nil {
		t.Fatalf("ListTechnicians: %v", err)
	}
	if len(techs) != 2 || techs[0].Name != "John Technician" || techs[1].Email != "zed@ticketing.com" {
		t.Errorf("technicians = %+v", techs)
	}
}
