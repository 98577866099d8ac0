package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketClosed  EventType = "ticket_closed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  int64        `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// FieldChange describes one changed ticket attribute.
type FieldChange struct {
	Field    domain.HistoryField `json:"field"`
	Previous *string             `json:"previous,omitempty"`
	Next     *string             `json:"next,omitempty"`
}

// TicketPayload carries the post-change snapshot of a ticket.
type TicketPayload struct {
	Ticket  domain.Ticket `json:"ticket"`
	Changes []FieldChange `json:"changes,omitempty"`
}

// NewTicketEvent stamps a ticket event with an id and timestamp.
func NewTicketEvent(eventType EventType, actor domain.Actor, payload TicketPayload) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  payload.Ticket.ID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
