package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type historyRepository struct {
	v *view
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.v.write(ctx, func(s *state) error {
		if _, ok := s.tickets[entry.TicketID]; !ok {
			return repository.ErrReferenced
		}
		if _, ok := s.users[entry.AuthorID]; !ok {
			return repository.ErrReferenced
		}
		s.nextHistoryID++
		entry.ID = s.nextHistoryID
		entry.CreatedAt = r.v.clock()

		stored := *entry
		stored.PreviousValue = cloneString(entry.PreviousValue)
		stored.NewValue = cloneString(entry.NewValue)
		stored.Author = domain.UserSummary{}
		s.history = append(s.history, stored)
		return nil
	})
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := r.v.read(ctx, func(s *state) error {
		for _, entry := range s.history {
			if entry.TicketID != ticketID {
				continue
			}
			if author, ok := s.summary(entry.AuthorID); ok {
				entry.Author = author
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
