package models

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	StatusOpen       = "Open"
	StatusInProgress = "InProgress"
	StatusWaiting    = "Waiting"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

type Ticket struct {
	ID            string    `json:"id"`
	TicketNumber  string    `json:"ticketNumber"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Priority      string    `json:"priority"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	AssignedTo    *string   `json:"assignedTo"`
	AssigneeName  string    `json:"assigneeName,omitempty"`
	AssigneeEmail string    `json:"assigneeEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TicketDetail is a ticket together with its updates, newest first.
type TicketDetail struct {
	Ticket
	Updates []TicketUpdate `json:"updates"`
}

type TicketUpdate struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticketId"`
	Message    string    `json:"message"`
	Status     *string   `json:"status"`
	CreatedBy  string    `json:"createdBy"`
	AuthorName string    `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TicketPatch is a partial update. Nil or empty Status/Priority leave the
// column untouched.
type TicketPatch struct {
	Status     *string        `json:"status"`
	Priority   *string        `json:"priority"`
	AssignedTo OptionalString `json:"assignedTo"`
}

// OptionalString tells an omitted JSON field apart from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Clears reports whether the field asks to remove the current value.
func (o OptionalString) Clears() bool {
	return o.Set && (o.Value == nil || *o.Value == "")
}

func StringPtr(s string) *string { return &s }
