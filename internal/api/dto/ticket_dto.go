package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTicketRequest payload. Omitted fields are left unchanged.
type UpdateTicketRequest struct {
	Status    *domain.TicketStatus `json:"status"`
	Response  *string              `json:"response"`
	SupportID *int64               `json:"supportId"`
}

// TicketResponse is the public shape of a ticket.
type TicketResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	Response    *string             `json:"response"`
	ClientID    int64               `json:"clientId"`
	SupportID   *int64              `json:"supportId"`
	Client      UserSummary         `json:"client"`
	Support     *UserSummary        `json:"support"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TicketDetailResponse is a ticket together with its timeline.
type TicketDetailResponse struct {
	Ticket  TicketResponse         `json:"ticket"`
	History []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse is one timeline item.
type HistoryEntryResponse struct {
	ID            int64       `json:"id"`
	TicketID      int64       `json:"ticketId"`
	Field         string      `json:"field"`
	Action        string      `json:"action"`
	Description   string      `json:"description"`
	PreviousValue *string     `json:"previousValue"`
	NewValue      *string     `json:"newValue"`
	Author        UserSummary `json:"author"`
	CreatedAt     time.Time   `json:"createdAt"`
	Synthetic     bool        `json:"synthetic,omitempty"`
}
