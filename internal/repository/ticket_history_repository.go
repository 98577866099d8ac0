package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketHistoryRepository stores audit entries. Entries are append-only.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	// ListByTicket returns the ticket's entries newest-first.
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.HistoryEntry, error)
}

type ticketHistoryRepository struct {
	db querier
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, field, previous_value, new_value, author_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.Field,
		entry.PreviousValue,
		entry.NewValue,
		entry.AuthorID,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translate(err)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT h.id, h.ticket_id, h.field, h.previous_value, h.new_value, h.author_id, h.created_at,
               a.name, a.email, r.name
        FROM ticket_history h
        JOIN users a ON a.id = h.author_id
        JOIN roles r ON r.id = a.role_id
        WHERE h.ticket_id=$1
        ORDER BY h.created_at DESC, h.id DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Field,
			&entry.PreviousValue,
			&entry.NewValue,
			&entry.AuthorID,
			&entry.CreatedAt,
			&entry.Author.Name,
			&entry.Author.Email,
			&entry.Author.Role,
		); err != nil {
			return nil, err
		}
		entry.Author.ID = entry.AuthorID
		result = append(result, entry)
	}
	return result, rows.Err()
}
