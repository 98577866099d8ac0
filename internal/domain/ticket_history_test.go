package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReplayHistory(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []HistoryEntry{
		{ID: 4, Field: HistoryFieldResponse, NewValue: strPtr("Replaced toner"), CreatedAt: base.Add(2 * time.Hour)},
		{ID: 1, Field: HistoryFieldCreation, NewValue: strPtr(CreationMarker), CreatedAt: base},
		{ID: 2, Field: HistoryFieldStatus, PreviousValue: strPtr("open"), NewValue: strPtr("in_progress"), CreatedAt: base.Add(time.Hour)},
		{ID: 3, Field: HistoryFieldSupportAssigned, PreviousValue: strPtr(Unassigned), NewValue: strPtr("5"), CreatedAt: base.Add(time.Hour)},
		{ID: 5, Field: HistoryFieldStatus, PreviousValue: strPtr("in_progress"), NewValue: strPtr("closed"), CreatedAt: base.Add(2 * time.Hour)},
	}

	state, err := ReplayHistory(entries)
	require.NoError(t, err)

	assert.Equal(t, TicketStatusClosed, state.Status)
	require.NotNil(t, state.Response)
	assert.Equal(t, "Replaced toner", *state.Response)
	require.NotNil(t, state.SupportID)
	assert.Equal(t, int64(5), *state.SupportID)
}

func TestReplayHistoryUnassign(t *testing.T) {
	base := time.Now()
	state, err := ReplayHistory([]HistoryEntry{
		{ID: 1, Field: HistoryFieldCreation, NewValue: strPtr(CreationMarker), CreatedAt: base},
		{ID: 2, Field: HistoryFieldSupportAssigned, NewValue: strPtr("9"), CreatedAt: base.Add(time.Minute)},
		{ID: 3, Field: HistoryFieldSupportAssigned, NewValue: strPtr(Unassigned), CreatedAt: base.Add(2 * time.Minute)},
	})
	require.NoError(t, err)
	assert.Equal(t, TicketStatusOpen, state.Status)
	assert.Nil(t, state.SupportID)
}

func TestReplayHistoryRequiresCreation(t *testing.T) {
	_, err := ReplayHistory([]HistoryEntry{
		{ID: 2, Field: HistoryFieldStatus, NewValue: strPtr("closed")},
	})
	assert.Error(t, err)
}

func TestReplayHistoryRejectsUnknownStatus(t *testing.T) {
	_, err := ReplayHistory([]HistoryEntry{
		{ID: 1, Field: HistoryFieldCreation, NewValue: strPtr(CreationMarker)},
		{ID: 2, Field: HistoryFieldStatus, PreviousValue: strPtr("open"), NewValue: strPtr("archived")},
	})
	assert.Error(t, err)
}

func TestSupportValueRoundTrip(t *testing.T) {
	id := int64(12)
	assert.Equal(t, "12", SupportValue(&id))
	assert.Equal(t, Unassigned, SupportValue(nil))

	parsed, err := ParseSupportValue(strPtr("12"))
	require.NoError(t, err)
	assert.Equal(t, id, *parsed)

	parsed, err = ParseSupportValue(strPtr(Unassigned))
	require.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = ParseSupportValue(strPtr("bob"))
	assert.Error(t, err)
}

func TestTicketStatusOrdering(t *testing.T) {
	assert.True(t, TicketStatusOpen.Precedes(TicketStatusClosed))
	assert.False(t, TicketStatusClosed.Precedes(TicketStatusInProgress))
	assert.False(t, TicketStatus("archived").Valid())
	assert.True(t, RoleSupport.In(RoleSupport, RoleAdmin))
	assert.False(t, Role("guest").Valid())
}
