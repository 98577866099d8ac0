package memory

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type reportRepository struct {
	v *view
}

func (r *reportRepository) CountTickets(ctx context.Context, filter repository.TicketCountFilter) (int, error) {
	count := 0
	err := r.v.read(ctx, func(s *state) error {
		for _, ticket := range s.tickets {
			if countMatches(ticket, filter) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func countMatches(ticket domain.Ticket, filter repository.TicketCountFilter) bool {
	if filter.SupportID != nil && !ticket.AssignedTo(*filter.SupportID) {
		return false
	}
	if filter.Unassigned && ticket.Assigned() {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && !ticket.CreatedAt.Before(*filter.CreatedTo) {
		return false
	}
	if filter.UpdatedFrom != nil && ticket.UpdatedAt.Before(*filter.UpdatedFrom) {
		return false
	}
	return true
}

func (r *reportRepository) UsersByRole(ctx context.Context) ([]domain.RoleCount, error) {
	var out []domain.RoleCount
	err := r.v.read(ctx, func(s *state) error {
		for _, role := range s.roles {
			rc := domain.RoleCount{RoleID: role.ID, Role: role.Name}
			for _, user := range s.users {
				if user.Role == role.Name {
					rc.Count++
				}
			}
			out = append(out, rc)
		}
		return nil
	})
	return out, err
}

func (r *reportRepository) ClosedDurations(ctx context.Context, createdFrom time.Time, limit int) ([]time.Duration, error) {
	var closed []domain.Ticket
	err := r.v.read(ctx, func(s *state) error {
		for _, ticket := range s.tickets {
			if ticket.Status == domain.TicketStatusClosed && !ticket.CreatedAt.Before(createdFrom) {
				closed = append(closed, ticket)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].CreatedAt.After(closed[j].CreatedAt) })
	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}

	out := make([]time.Duration, 0, len(closed))
	for _, ticket := range closed {
		out = append(out, ticket.UpdatedAt.Sub(ticket.CreatedAt))
	}
	return out, nil
}

func (r *reportRepository) SupportWorkload(ctx context.Context, createdFrom time.Time) ([]domain.AgentWorkload, error) {
	var out []domain.AgentWorkload
	err := r.v.read(ctx, func(s *state) error {
		for _, user := range s.users {
			if user.Role != domain.RoleSupport {
				continue
			}
			w := domain.AgentWorkload{UserID: user.ID, Name: user.Name, Email: user.Email}
			for _, ticket := range s.tickets {
				if ticket.AssignedTo(user.ID) && !ticket.CreatedAt.Before(createdFrom) {
					w.Tickets++
				}
			}
			out = append(out, w)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tickets == out[j].Tickets {
			return out[i].Name < out[j].Name
		}
		return out[i].Tickets > out[j].Tickets
	})
	return out, err
}

func (r *reportRepository) TopClients(ctx context.Context, limit int) ([]domain.ClientActivity, error) {
	var out []domain.ClientActivity
	err := r.v.read(ctx, func(s *state) error {
		counts := map[int64]int{}
		for _, ticket := range s.tickets {
			counts[ticket.ClientID]++
		}
		for clientID, n := range counts {
			activity := domain.ClientActivity{ClientID: clientID, Tickets: n}
			if client, ok := s.summary(clientID); ok {
				activity.Name = client.Name
				activity.Email = client.Email
			}
			out = append(out, activity)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tickets == out[j].Tickets {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].Tickets > out[j].Tickets
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
