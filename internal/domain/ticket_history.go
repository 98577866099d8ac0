package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// HistoryField captures which ticket attribute a history entry describes.
type HistoryField string

const (
	HistoryFieldCreation        HistoryField = "creation"
	HistoryFieldStatus          HistoryField = "status"
	HistoryFieldResponse        HistoryField = "response"
	HistoryFieldSupportAssigned HistoryField = "support_assigned"
)

const (
	// CreationMarker is the new value of every creation entry.
	CreationMarker = "created"
	// Unassigned stands for "no agent" in support_assigned entries.
	Unassigned = "unassigned"
)

// HistoryEntry is an immutable audit trail entry.
type HistoryEntry struct {
	ID            int64
	TicketID      int64
	Field         HistoryField
	PreviousValue *string
	NewValue      *string
	AuthorID      int64
	CreatedAt     time.Time

	// Populated on reads.
	Author UserSummary
	// Synthetic entries are built for display and never persisted.
	Synthetic bool
}

// TicketState is the slice of a ticket reconstructed from its history.
type TicketState struct {
	Status    TicketStatus
	Response  *string
	SupportID *int64
}

// SupportValue encodes an assignee for a support_assigned entry.
func SupportValue(id *int64) string {
	if id == nil {
		return Unassigned
	}
	return strconv.FormatInt(*id, 10)
}

// ParseSupportValue decodes a support_assigned value.
func ParseSupportValue(val *string) (*int64, error) {
	if val == nil || *val == Unassigned {
		return nil, nil
	}
	id, err := strconv.ParseInt(*val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("support value %q: %w", *val, err)
	}
	return &id, nil
}

// ReplayHistory folds entries oldest-first, starting from creation, into the
// state they describe. Entries may be passed in any order.
func ReplayHistory(entries []HistoryEntry) (TicketState, error) {
	ordered := make([]HistoryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var state TicketState
	seenCreation := false
	for _, entry := range ordered {
		switch entry.Field {
		case HistoryFieldCreation:
			seenCreation = true
			state = TicketState{Status: TicketStatusOpen}
		case HistoryFieldStatus:
			if entry.NewValue == nil {
				return state, fmt.Errorf("history %d: empty status", entry.ID)
			}
			status := TicketStatus(*entry.NewValue)
			if !status.Valid() {
				return state, fmt.Errorf("history %d: unknown status %q", entry.ID, status)
			}
			state.Status = status
		case HistoryFieldResponse:
			state.Response = entry.NewValue
		case HistoryFieldSupportAssigned:
			id, err := ParseSupportValue(entry.NewValue)
			if err != nil {
				return state, err
			}
			state.SupportID = id
		default:
			return state, fmt.Errorf("history %d: unknown field %q", entry.ID, entry.Field)
		}
	}
	if !seenCreation {
		return state, fmt.Errorf("history has no creation entry")
	}
	return state, nil
}
