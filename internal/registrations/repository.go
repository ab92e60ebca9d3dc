package registrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmrschool/webinar-backend/internal/models"
)

// Repository is the PostgreSQL Store, selected with RECORD_STORE=postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts a registration.
func (r *Repository) Append(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrants (first_name, last_name, org_type, org_name, role, email, phone, more_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, q,
		reg.FirstName, reg.LastName, reg.OrgType, reg.OrgName, reg.Role, reg.Email, reg.Phone, reg.MoreInfo, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert: %w", ErrPersistence, err)
	}
	return nil
}

// List returns all registrations, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT first_name, last_name, org_type, org_name, role, email, phone, more_info, created_at
		FROM registrants ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query registrants: %w", err)
	}
	defer rows.Close()
	list := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.FirstName, &reg.LastName, &reg.OrgType, &reg.OrgName, &reg.Role, &reg.Email, &reg.Phone, &reg.MoreInfo, &reg.CreatedAt); err != nil {
			return nil, err
		}
		reg.CreatedAt = reg.CreatedAt.UTC()
		list = append(list, reg)
	}
	return list, rows.Err()
}
