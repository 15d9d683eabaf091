package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/faiisll/TKT-BE/internal/models"
	"github.com/faiisll/TKT-BE/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

var _ repository.TicketRepository = (*TicketRepo)(nil)

// ticketCols expects tickets aliased as t and the assignee as u.
const ticketCols = `
	t.id::text, t.ticket_number, t.subject, t.description, t.category, t.priority, t.status,
	t.customer_name, t.customer_email, t.assigned_to::text, t.created_at, t.updated_at,
	COALESCE(u.name, ''), COALESCE(u.email, '')`

func scanTicket(row pgx.Row, t *models.Ticket) error {
	return row.Scan(
		&t.ID, &t.TicketNumber, &t.Subject, &t.Description, &t.Category, &t.Priority, &t.Status,
		&t.CustomerName, &t.CustomerEmail, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
		&t.AssigneeName, &t.AssigneeEmail,
	)
}

// -----------------------------------------------------------------------------
// Numbering support
// -----------------------------------------------------------------------------

// CountCreatedBetween counts tickets with created_at in [from, to).
func (r *TicketRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------
// Create / read
// -----------------------------------------------------------------------------

// Create inserts t. A clash on ticket_number yields repository.ErrDuplicate.
func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO tickets (ticket_number, subject, description, category, priority, status,
			customer_name, customer_email, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		RETURNING id::text, created_at, updated_at
	`,
		t.TicketNumber, t.Subject, t.Description, t.Category, t.Priority, t.Status,
		t.CustomerName, t.CustomerEmail, t.CreatedAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return classify(err)
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	return r.getOne(ctx, `t.id = $1`, id)
}

func (r *TicketRepo) GetByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	return r.getOne(ctx, `t.ticket_number = $1`, number)
}

func (r *TicketRepo) getOne(ctx context.Context, cond string, arg any) (*models.Ticket, error) {
	var t models.Ticket
	err := scanTicket(r.db.QueryRow(ctx, `
		SELECT `+ticketCols+`
		FROM tickets t
		LEFT JOIN users u ON u.id = t.assigned_to
		WHERE `+cond, arg), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// -----------------------------------------------------------------------------
// Listing with filters + pagination
// -----------------------------------------------------------------------------

// List returns one page of tickets, newest first, and the total number of
// tickets matching the same filters.
func (r *TicketRepo) List(ctx context.Context, f repository.TicketFilter) ([]models.Ticket, int, error) {
	f.Normalize()
	whereSQL, args := buildTicketWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM tickets t
		LEFT JOIN users u ON u.id = t.assigned_to
		%s
		ORDER BY t.created_at DESC, t.ticket_number DESC
		LIMIT $%d OFFSET $%d
	`, ticketCols, whereSQL, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]models.Ticket, 0, f.Limit)
	for rows.Next() {
		var t models.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// Update applies p in a single statement so concurrent patches never
// overwrite each other's untouched columns.
func (r *TicketRepo) Update(ctx context.Context, id string, p models.TicketPatch) (*models.Ticket, error) {
	var assignee *string
	if p.AssignedTo.Set && !p.AssignedTo.Clears() {
		assignee = p.AssignedTo.Value
	}

	var t models.Ticket
	err := scanTicket(r.db.QueryRow(ctx, `
		WITH t AS (
			UPDATE tickets SET
				status      = COALESCE(NULLIF($2::text, ''), status),
				priority    = COALESCE(NULLIF($3::text, ''), priority),
				assigned_to = CASE WHEN $4::bool THEN $5::uuid ELSE assigned_to END,
				updated_at  = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+ticketCols+`
		FROM t
		LEFT JOIN users u ON u.id = t.assigned_to
	`, id, p.Status, p.Priority, p.AssignedTo.Set, assignee), &t)
	if err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

// AddUpdate appends u and, when it carries a status, moves the ticket to it.
// Both writes share one transaction; the ticket row is locked first so
// concurrent updates apply their status in insertion order.
func (r *TicketRepo) AddUpdate(ctx context.Context, u *models.TicketUpdate) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var locked bool
		err := tx.QueryRow(ctx, `SELECT true FROM tickets WHERE id = $1 FOR UPDATE`, u.TicketID).Scan(&locked)
		if err != nil {
			return classify(err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO ticket_updates (ticket_id, message, status, created_by)
			VALUES ($1,$2,$3,$4)
			RETURNING id::text, created_at,
				COALESCE((SELECT name FROM users WHERE id = created_by), '')
		`, u.TicketID, u.Message, u.Status, u.CreatedBy).Scan(&u.ID, &u.CreatedAt, &u.AuthorName)
		if err != nil {
			return classify(err)
		}

		if u.Status != nil && *u.Status != "" {
			if _, err := tx.Exec(ctx,
				`UPDATE tickets SET status = $1, updated_at = now() WHERE id = $2`,
				*u.Status, u.TicketID); err != nil {
				return classify(err)
			}
		}
		return nil
	})
}

func (r *TicketRepo) ListUpdates(ctx context.Context, ticketID string) ([]models.TicketUpdate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tu.id::text, tu.ticket_id::text, tu.message, tu.status, tu.created_by::text,
			COALESCE(u.name, ''), tu.created_at
		FROM ticket_updates tu
		LEFT JOIN users u ON u.id = tu.created_by
		WHERE tu.ticket_id = $1
		ORDER BY tu.created_at DESC, tu.id DESC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TicketUpdate{}
	for rows.Next() {
		var u models.TicketUpdate
		if err := rows.Scan(&u.ID, &u.TicketID, &u.Message, &u.Status, &u.CreatedBy, &u.AuthorName, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// buildTicketWhere composes the WHERE clause for exact-match filters.
func buildTicketWhere(f repository.TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if s := strings.TrimSpace(f.Status); s != "" {
		args = append(args, s)
		clauses = append(clauses, "t.status = $"+itoa(len(args)))
	}
	if p := strings.TrimSpace(f.Priority); p != "" {
		args = append(args, p)
		clauses = append(clauses, "t.priority = $"+itoa(len(args)))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		clauses = append(clauses, "t.category = $"+itoa(len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func itoa(i int) string { return strconv.Itoa(i) }
