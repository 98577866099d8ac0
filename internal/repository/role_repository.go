package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// RoleRepository reads the roles lookup table.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.RoleRecord, error)
	GetByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error)
	// Ensure inserts the role when missing and returns the stored row.
	Ensure(ctx context.Context, name domain.Role) (*domain.RoleRecord, error)
}

type roleRepository struct {
	db querier
}

func (r *roleRepository) List(ctx context.Context) ([]domain.RoleRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.RoleRecord
	for rows.Next() {
		var role domain.RoleRecord
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *roleRepository) GetByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	var role domain.RoleRecord
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name=$1`, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepository) Ensure(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	const query = `
        INSERT INTO roles (name) VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
        RETURNING id, name`
	var role domain.RoleRecord
	if err := r.db.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, translate(err)
	}
	return &role, nil
}
