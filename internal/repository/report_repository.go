package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketCountFilter narrows aggregate ticket counts.
type TicketCountFilter struct {
	SupportID   *int64
	Unassigned  bool
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
}

// ReportRepository answers the aggregate queries behind reports.
type ReportRepository interface {
	CountTickets(ctx context.Context, filter TicketCountFilter) (int, error)
	UsersByRole(ctx context.Context) ([]domain.RoleCount, error)
	// ClosedDurations returns created-to-last-update spans of closed tickets
	// created since the given instant, at most limit of them.
	ClosedDurations(ctx context.Context, createdFrom time.Time, limit int) ([]time.Duration, error)
	// SupportWorkload counts tickets created since the given instant per support agent,
	// including agents with none.
	SupportWorkload(ctx context.Context, createdFrom time.Time) ([]domain.AgentWorkload, error)
	TopClients(ctx context.Context, limit int) ([]domain.ClientActivity, error)
}

type reportRepository struct {
	db querier
}

func (r *reportRepository) CountTickets(ctx context.Context, filter TicketCountFilter) (int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SupportID != nil {
		args = append(args, *filter.SupportID)
		clauses = append(clauses, fmt.Sprintf("support_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "support_id IS NULL")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.UpdatedFrom != nil {
		args = append(args, *filter.UpdatedFrom)
		clauses = append(clauses, fmt.Sprintf("updated_at >= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *reportRepository) UsersByRole(ctx context.Context) ([]domain.RoleCount, error) {
	const query = `
        SELECT r.id, r.name, COUNT(u.id)
        FROM roles r
        LEFT JOIN users u ON u.role_id = r.id
        GROUP BY r.id, r.name
        ORDER BY r.id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.RoleCount
	for rows.Next() {
		var rc domain.RoleCount
		if err := rows.Scan(&rc.RoleID, &rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		result = append(result, rc)
	}
	return result, rows.Err()
}

func (r *reportRepository) ClosedDurations(ctx context.Context, createdFrom time.Time, limit int) ([]time.Duration, error) {
	const query = `
        SELECT created_at, updated_at FROM tickets
        WHERE status=$1 AND created_at >= $2
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := r.db.Query(ctx, query, domain.TicketStatusClosed, createdFrom, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []time.Duration
	for rows.Next() {
		var created, updated time.Time
		if err := rows.Scan(&created, &updated); err != nil {
			return nil, err
		}
		result = append(result, updated.Sub(created))
	}
	return result, rows.Err()
}

func (r *reportRepository) SupportWorkload(ctx context.Context, createdFrom time.Time) ([]domain.AgentWorkload, error) {
	const query = `
        SELECT u.id, u.name, u.email, COUNT(t.id)
        FROM users u
        JOIN roles r ON r.id = u.role_id
        LEFT JOIN tickets t ON t.support_id = u.id AND t.created_at >= $2
        WHERE r.name=$1
        GROUP BY u.id, u.name, u.email
        ORDER BY COUNT(t.id) DESC, u.name ASC`
	rows, err := r.db.Query(ctx, query, domain.RoleSupport, createdFrom)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.AgentWorkload
	for rows.Next() {
		var w domain.AgentWorkload
		if err := rows.Scan(&w.UserID, &w.Name, &w.Email, &w.Tickets); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (r *reportRepository) TopClients(ctx context.Context, limit int) ([]domain.ClientActivity, error) {
	const query = `
        SELECT t.client_id, u.name, u.email, COUNT(t.id)
        FROM tickets t
        JOIN users u ON u.id = t.client_id
        GROUP BY t.client_id, u.name, u.email
        ORDER BY COUNT(t.id) DESC, t.client_id ASC
        LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.ClientActivity
	for rows.Next() {
		var c domain.ClientActivity
		if err := rows.Scan(&c.ClientID, &c.Name, &c.Email, &c.Tickets); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
