package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type ticketRepository struct {
	v *view
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.v.write(ctx, func(s *state) error {
		if _, ok := s.users[ticket.ClientID]; !ok {
			return repository.ErrReferenced
		}
		if ticket.SupportID != nil {
			if _, ok := s.users[*ticket.SupportID]; !ok {
				return repository.ErrReferenced
			}
		}
		now := r.v.clock()
		s.nextTicketID++
		ticket.ID = s.nextTicketID
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		s.tickets[ticket.ID] = storedTicket(*ticket)
		return nil
	})
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.v.write(ctx, func(s *state) error {
		current, ok := s.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if ticket.SupportID != nil {
			if _, ok := s.users[*ticket.SupportID]; !ok {
				return repository.ErrReferenced
			}
		}
		current.Status = ticket.Status
		current.Response = cloneString(ticket.Response)
		current.SupportID = cloneInt(ticket.SupportID)
		current.UpdatedAt = r.v.clock()
		ticket.UpdatedAt = current.UpdatedAt
		s.tickets[ticket.ID] = current
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.v.read(ctx, func(s *state) error {
		ticket, ok := s.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = s.hydrate(ticket)
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: transactions are already serialized.
func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.v.read(ctx, func(s *state) error {
		for _, ticket := range s.tickets {
			if !matches(ticket, filter) {
				continue
			}
			out = append(out, *s.hydrate(ticket))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

// CountByUser needs no row lock: transactions are already serialized.
func (r *ticketRepository) CountByUser(ctx context.Context, userID int64) (repository.TicketOwnership, error) {
	var ownership repository.TicketOwnership
	err := r.v.read(ctx, func(s *state) error {
		if _, ok := s.users[userID]; !ok {
			return repository.ErrNotFound
		}
		for _, ticket := range s.tickets {
			if ticket.ClientID == userID {
				ownership.AsClient++
			}
			if ticket.AssignedTo(userID) {
				ownership.AsSupport++
			}
		}
		return nil
	})
	return ownership, err
}

func matches(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.ClientID != nil && ticket.ClientID != *filter.ClientID {
		return false
	}
	if filter.VisibleToSupport != nil && ticket.Assigned() && !ticket.AssignedTo(*filter.VisibleToSupport) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	return true
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func (s *state) hydrate(ticket domain.Ticket) *domain.Ticket {
	out := storedTicket(ticket)
	if client, ok := s.summary(out.ClientID); ok {
		out.Client = client
	}
	if out.SupportID != nil {
		if support, ok := s.summary(*out.SupportID); ok {
			out.Support = &support
		}
	}
	return &out
}

// storedTicket strips read-side joins and detaches pointer fields.
func storedTicket(ticket domain.Ticket) domain.Ticket {
	ticket.Response = cloneString(ticket.Response)
	ticket.SupportID = cloneInt(ticket.SupportID)
	ticket.Client = domain.UserSummary{}
	ticket.Support = nil
	return ticket
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
