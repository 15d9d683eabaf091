package service

import (
	"context"
	"fmt"
	"time"
)

// TicketCounter is the slice of the ticket store the generator needs.
type TicketCounter interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// TicketNumberGenerator hands out TKT-<year>-<seq> numbers where seq is one
// more than the number of tickets created so far in that UTC year.
//
// The count and the later insert are not atomic. Two concurrent creates can
// compute the same number; the store's unique constraint rejects the loser
// and TicketService retries it.
type TicketNumberGenerator struct {
	counter TicketCounter
}

func NewTicketNumberGenerator(c TicketCounter) *TicketNumberGenerator {
	return &TicketNumberGenerator{counter: c}
}

func (g *TicketNumberGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	year := now.UTC().Year()
	from, to := YearBounds(year)
	n, err := g.counter.CountCreatedBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("count tickets for %d: %w", year, err)
	}
	return FormatTicketNumber(year, n+1), nil
}

// FormatTicketNumber pads seq to four digits. Past 9999 the sequence just
// grows wider.
func FormatTicketNumber(year, seq int) string {
	return fmt.Sprintf("TKT-%d-%04d", year, seq)
}

// YearBounds returns [Jan 1 year, Jan 1 year+1) in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
