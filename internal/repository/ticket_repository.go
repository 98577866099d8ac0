package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures role-scoped listing parameters.
type TicketFilter struct {
	ClientID *int64
	// VisibleToSupport keeps tickets assigned to this agent plus unassigned ones.
	VisibleToSupport *int64
	Statuses         []domain.TicketStatus
	Limit            int
	Offset           int
}

// TicketRepository encapsulates ticket persistence. Lists are ordered
// newest-first by creation time.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// GetByIDForUpdate locks the ticket row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// CountByUser reports how many tickets the user owns as client and how
	// many are assigned to them. The user row stays locked until the
	// surrounding transaction ends so no ticket can reference it meanwhile.
	CountByUser(ctx context.Context, userID int64) (TicketOwnership, error)
}

// TicketOwnership counts the tickets that reference one user.
type TicketOwnership struct {
	AsClient  int
	AsSupport int
}

type ticketRepository struct {
	db querier
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.status, t.response, t.client_id, t.support_id,
               t.created_at, t.updated_at, c.name, c.email, cr.name, s.name, s.email, sr.name
        FROM tickets t
        JOIN users c ON c.id = t.client_id
        JOIN roles cr ON cr.id = c.role_id
        LEFT JOIN users s ON s.id = t.support_id
        LEFT JOIN roles sr ON sr.id = s.role_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, response, client_id, support_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Response,
		ticket.ClientID,
		ticket.SupportID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, response=$2, support_id=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Status,
		ticket.Response,
		ticket.SupportID,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, ticketSelect+` WHERE t.id=$1`, id)
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, ticketSelect+` WHERE t.id=$1 FOR UPDATE OF t`, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.VisibleToSupport != nil {
		args = append(args, *filter.VisibleToSupport)
		clauses = append(clauses, fmt.Sprintf("(t.support_id=$%d OR t.support_id IS NULL)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC`, ticketSelect, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, translate(err)
		}
		result = append(result, *ticket)
	}
	return result, translate(rows.Err())
}

func (r *ticketRepository) CountByUser(ctx context.Context, userID int64) (TicketOwnership, error) {
	var ownership TicketOwnership
	var locked int64
	if err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		return ownership, translate(err)
	}

	const query = `
        SELECT COUNT(*) FILTER (WHERE client_id=$1), COUNT(*) FILTER (WHERE support_id=$1)
        FROM tickets
        WHERE client_id=$1 OR support_id=$1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&ownership.AsClient, &ownership.AsSupport)
	return ownership, translate(err)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		clientRole   string
		supportName  *string
		supportEmail *string
		supportRole  *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Response,
		&ticket.ClientID,
		&ticket.SupportID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Client.Name,
		&ticket.Client.Email,
		&clientRole,
		&supportName,
		&supportEmail,
		&supportRole,
	); err != nil {
		return nil, err
	}
	ticket.Client.ID = ticket.ClientID
	ticket.Client.Role = domain.Role(clientRole)
	if ticket.SupportID != nil && supportName != nil {
		ticket.Support = &domain.UserSummary{
			ID:    *ticket.SupportID,
			Name:  *supportName,
			Email: derefString(supportEmail),
			Role:  domain.Role(derefString(supportRole)),
		}
	}
	return &ticket, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
