package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	store      repository.Store
	history    *HistoryRecorder
	dispatcher events.Dispatcher
	policy     config.TicketPolicy
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	History    *HistoryRecorder
	Dispatcher events.Dispatcher
	Policy     config.TicketPolicy
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=1000"`
}

// TicketUpdateInput carries the optional fields of an update. Nil means
// "leave unchanged".
type TicketUpdateInput struct {
	Status    *domain.TicketStatus `json:"status" validate:"omitnil,oneof=open in_progress closed"`
	Response  *string              `json:"response" validate:"omitnil,max=2000"`
	SupportID *int64               `json:"supportId" validate:"omitnil,gt=0"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	history := deps.History
	if history == nil {
		history = NewHistoryRecorder(deps.Store)
	}
	return &TicketService{
		store:      deps.Store,
		history:    history,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
		logger:     logger,
	}
}

// CreateTicket files a new ticket on behalf of a client.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleClient {
		return nil, apperrors.NewForbidden("only clients can create tickets")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateInput("invalid ticket", input); err != nil {
		return nil, err
	}

	var created *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket := &domain.Ticket{
			Title:       input.Title,
			Description: input.Description,
			Status:      domain.TicketStatusOpen,
			ClientID:    actor.UserID,
		}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return apperrors.NewNotFound("user", nil)
			}
			return mapRepoError(err, "ticket")
		}
		if err := s.history.Record(ctx, tx, ticket.ID, domain.HistoryFieldCreation, nil, strPtr(domain.CreationMarker), actor.UserID); err != nil {
			return mapRepoError(err, "ticket history")
		}

		loaded, err := tx.Tickets().GetByID(ctx, ticket.ID)
		if err != nil {
			return mapRepoError(err, "ticket")
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}

	s.publish(ctx, events.EventTicketCreated, actor, created, nil)
	return created, nil
}

// GetTicket returns a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, id int64) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}
	if !canView(actor, ticket) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return ticket, nil
}

// TicketHistory returns the visible ticket's timeline, newest-first.
func (s *TicketService) TicketHistory(ctx context.Context, actor domain.Actor, id int64) ([]HistoryItem, error) {
	ticket, err := s.GetTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.history.List(ctx, ticket)
}

// ListTickets returns the tickets visible to the actor, newest-first.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	var filter repository.TicketFilter
	switch actor.Role {
	case domain.RoleClient:
		filter.ClientID = &actor.UserID
	case domain.RoleSupport:
		filter.VisibleToSupport = &actor.UserID
	case domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}

	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "tickets")
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// UpdateTicket applies a role-checked delta to a ticket. The read, the
// permission check, the write and the history rows share one transaction
// with the ticket row locked. At most one notification is published, after
// commit, and only when something changed.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.SupportID != nil && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only administrators can assign tickets to an agent")
	}
	switch actor.Role {
	case domain.RoleSupport, domain.RoleAdmin:
	case domain.RoleClient:
		if !s.policy.AllowClientUpdate {
			return nil, apperrors.NewForbidden("clients cannot update tickets")
		}
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}

	response, err := normalizeUpdate(&input)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Ticket
		changes []events.FieldChange
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Tickets().GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoError(err, "ticket")
		}

		switch actor.Role {
		case domain.RoleSupport:
			if current.Assigned() && !current.AssignedTo(actor.UserID) {
				return apperrors.NewForbidden("ticket is assigned to another agent")
			}
		case domain.RoleClient:
			if current.ClientID != actor.UserID {
				return apperrors.NewForbidden("you do not have access to this ticket")
			}
		}

		next := *current
		if input.Status != nil && *input.Status != current.Status {
			if !s.policy.AllowReopen && input.Status.Precedes(current.Status) {
				return apperrors.NewValidationError("tickets cannot move back to an earlier status", map[string]any{
					"status": string(*input.Status),
				})
			}
			changes = append(changes, events.FieldChange{
				Field:    domain.HistoryFieldStatus,
				Previous: strPtr(string(current.Status)),
				Next:     strPtr(string(*input.Status)),
			})
			next.Status = *input.Status
		}

		if response != nil && (current.Response == nil || *current.Response != *response) {
			changes = append(changes, events.FieldChange{
				Field:    domain.HistoryFieldResponse,
				Previous: current.Response,
				Next:     response,
			})
			next.Response = response
		}

		var assignee *int64
		switch {
		case input.SupportID != nil && !current.AssignedTo(*input.SupportID):
			if err := s.requireAgent(ctx, tx, *input.SupportID); err != nil {
				return err
			}
			assignee = input.SupportID
		case actor.Role == domain.RoleSupport && !current.Assigned() && len(changes) > 0:
			assignee = &actor.UserID
		}
		if assignee != nil {
			changes = append(changes, events.FieldChange{
				Field:    domain.HistoryFieldSupportAssigned,
				Previous: strPtr(domain.SupportValue(current.SupportID)),
				Next:     strPtr(domain.SupportValue(assignee)),
			})
			next.SupportID = assignee
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}

		if err := tx.Tickets().Update(ctx, &next); err != nil {
			return mapRepoError(err, "ticket")
		}
		for _, change := range changes {
			if err := s.history.Record(ctx, tx, id, change.Field, change.Previous, change.Next, actor.UserID); err != nil {
				return mapRepoError(err, "ticket history")
			}
		}

		reloaded, err := tx.Tickets().GetByID(ctx, id)
		if err != nil {
			return mapRepoError(err, "ticket")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "ticket")
	}

	if len(changes) > 0 {
		kind := events.EventTicketUpdated
		if input.Status != nil && *input.Status == domain.TicketStatusClosed && statusChanged(changes) {
			kind = events.EventTicketClosed
		}
		s.publish(ctx, kind, actor, updated, changes)
	}
	return updated, nil
}

// normalizeUpdate validates the payload and returns the trimmed response;
// a blank response counts as absent.
func normalizeUpdate(input *TicketUpdateInput) (*string, error) {
	if input.Response != nil {
		trimmed := strings.TrimSpace(*input.Response)
		input.Response = &trimmed
	}
	if err := validateInput("invalid ticket update", input); err != nil {
		return nil, err
	}
	if input.Response == nil || *input.Response == "" {
		return nil, nil
	}
	return input.Response, nil
}

func (s *TicketService) requireAgent(ctx context.Context, tx repository.Store, userID int64) error {
	agent, err := tx.Users().GetByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return mapRepoError(err, "user")
	}
	if agent == nil || agent.Role != domain.RoleSupport {
		return apperrors.NewValidationError("invalid ticket update", map[string]any{"supportId": "must reference a support user"})
	}
	return nil
}

func statusChanged(changes []events.FieldChange) bool {
	for _, change := range changes {
		if change.Field == domain.HistoryFieldStatus {
			return true
		}
	}
	return false
}

// canView applies the per-role visibility rule.
func canView(actor domain.Actor, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupport:
		return !ticket.Assigned() || ticket.AssignedTo(actor.UserID)
	case domain.RoleClient:
		return ticket.ClientID == actor.UserID
	}
	return false
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actor domain.Actor, ticket *domain.Ticket, changes []events.FieldChange) {
	if s.dispatcher == nil || ticket == nil {
		return
	}
	event := events.NewTicketEvent(eventType, actor, events.TicketPayload{Ticket: *ticket, Changes: changes})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish ticket event",
			zap.String("event_type", string(eventType)),
			zap.Int64("ticket_id", ticket.ID),
			zap.Error(err))
	}
}
