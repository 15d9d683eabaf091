package repository

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TicketFilter selects a page of tickets. Empty strings do not filter.
type TicketFilter struct {
	Status   string
	Priority string
	Category string
	Limit    int
	Offset   int
}

// Normalize clamps Limit and Offset to sane values.
func (f *TicketFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
