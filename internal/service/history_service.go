package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// HistoryAction is the display category of a history item.
type HistoryAction string

const (
	HistoryActionCreated  HistoryAction = "created"
	HistoryActionAssigned HistoryAction = "assigned"
	HistoryActionResponse HistoryAction = "response"
	HistoryActionStatus   HistoryAction = "status_changed"
)

// HistoryItem is a history entry decorated for display.
type HistoryItem struct {
	domain.HistoryEntry
	Action      HistoryAction
	Description string
	// Display values resolve agent ids to names for support_assigned entries.
	PreviousDisplay *string
	NewDisplay      *string
}

// HistoryRecorder appends audit entries and renders a ticket timeline.
type HistoryRecorder struct {
	store repository.Store
}

// NewHistoryRecorder builds a recorder reading from store.
func NewHistoryRecorder(store repository.Store) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Record appends one entry inside the caller's transaction. A failure here
// must abort that transaction.
func (h *HistoryRecorder) Record(ctx context.Context, tx repository.Store, ticketID int64, field domain.HistoryField, previous, next *string, authorID int64) error {
	entry := &domain.HistoryEntry{
		TicketID:      ticketID,
		Field:         field,
		PreviousValue: previous,
		NewValue:      next,
		AuthorID:      authorID,
	}
	if err := tx.History().Create(ctx, entry); err != nil {
		return fmt.Errorf("record %s history for ticket %d: %w", field, ticketID, err)
	}
	return nil
}

// List returns the ticket's timeline newest-first. When no creation entry
// was stored, one is synthesized from the ticket itself; it is never persisted.
func (h *HistoryRecorder) List(ctx context.Context, ticket *domain.Ticket) ([]HistoryItem, error) {
	entries, err := h.store.History().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapRepoError(err, "ticket history")
	}

	names := map[int64]string{}
	items := make([]HistoryItem, 0, len(entries)+1)
	hasCreation := false
	for _, entry := range entries {
		if entry.Field == domain.HistoryFieldCreation {
			hasCreation = true
		}
		item, err := h.decorate(ctx, entry, names)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if !hasCreation {
		items = append(items, HistoryItem{
			HistoryEntry: domain.HistoryEntry{
				ID:        0,
				TicketID:  ticket.ID,
				Field:     domain.HistoryFieldCreation,
				NewValue:  strPtr(domain.CreationMarker),
				AuthorID:  ticket.ClientID,
				CreatedAt: ticket.CreatedAt,
				Author:    ticket.Client,
				Synthetic: true,
			},
			Action:      HistoryActionCreated,
			Description: "Ticket created by the client",
			NewDisplay:  strPtr(domain.CreationMarker),
		})
	}
	return items, nil
}

func (h *HistoryRecorder) decorate(ctx context.Context, entry domain.HistoryEntry, names map[int64]string) (HistoryItem, error) {
	item := HistoryItem{
		HistoryEntry:    entry,
		PreviousDisplay: entry.PreviousValue,
		NewDisplay:      entry.NewValue,
	}

	switch entry.Field {
	case domain.HistoryFieldCreation:
		item.Action = HistoryActionCreated
		item.Description = "Ticket created"
	case domain.HistoryFieldStatus:
		item.Action = HistoryActionStatus
		item.Description = fmt.Sprintf("Status changed from %s to %s", orDash(entry.PreviousValue), orDash(entry.NewValue))
	case domain.HistoryFieldResponse:
		item.Action = HistoryActionResponse
		item.Description = "Response recorded"
	case domain.HistoryFieldSupportAssigned:
		prev, err := h.agentName(ctx, entry.PreviousValue, names)
		if err != nil {
			return item, err
		}
		next, err := h.agentName(ctx, entry.NewValue, names)
		if err != nil {
			return item, err
		}
		item.PreviousDisplay = &prev
		item.NewDisplay = &next
		item.Action = HistoryActionAssigned
		item.Description = "Ticket assigned to " + next
	default:
		item.Action = HistoryActionResponse
		item.Description = "Changed " + string(entry.Field)
	}
	return item, nil
}

// agentName resolves a stored agent id. Deleted agents and malformed values
// fall back to the raw value rather than failing the read.
func (h *HistoryRecorder) agentName(ctx context.Context, value *string, names map[int64]string) (string, error) {
	id, err := domain.ParseSupportValue(value)
	if err != nil {
		return *value, nil
	}
	if id == nil {
		return domain.Unassigned, nil
	}
	if name, ok := names[*id]; ok {
		return name, nil
	}
	user, err := h.store.Users().GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			names[*id] = *value
			return *value, nil
		}
		return "", mapRepoError(err, "user")
	}
	names[*id] = user.Name
	return user.Name, nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
