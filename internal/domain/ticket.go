package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists states in lifecycle order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s.rank() >= 0
}

// Precedes reports whether s comes strictly before other in the forward lifecycle.
func (s TicketStatus) Precedes(other TicketStatus) bool {
	return s.rank() < other.rank()
}

func (s TicketStatus) rank() int {
	for i, status := range TicketStatuses {
		if status == s {
			return i
		}
	}
	return -1
}

// Ticket is a client-filed support request.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Status      TicketStatus
	Response    *string
	ClientID    int64
	SupportID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated on reads.
	Client  UserSummary
	Support *UserSummary
}

// Assigned reports whether any agent owns the ticket.
func (t *Ticket) Assigned() bool {
	return t.SupportID != nil
}

// AssignedTo reports whether the ticket belongs to the given agent.
func (t *Ticket) AssignedTo(userID int64) bool {
	return t.SupportID != nil && *t.SupportID == userID
}
