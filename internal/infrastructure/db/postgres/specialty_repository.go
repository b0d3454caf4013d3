package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type SpecialtyRepository struct {
	pool *pgxpool.Pool
}

func NewSpecialtyRepository(pool *pgxpool.Pool) *SpecialtyRepository {
	return &SpecialtyRepository{pool: pool}
}

var _ ports.SpecialtyRepository = (*SpecialtyRepository)(nil)

func (r *SpecialtyRepository) List(ctx context.Context) ([]domain.Specialty, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM specialties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Specialty, 0)
	for rows.Next() {
		var s domain.Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SpecialtyRepository) Create(ctx context.Context, name string) (*domain.Specialty, error) {
	s := domain.Specialty{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO specialties (name) VALUES ($1) RETURNING id`, name).Scan(&s.ID)
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}
