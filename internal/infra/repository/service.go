package repository

import (
	"context"
	"log/slog"

	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const findServiceByID = `
SELECT id, name, category, duration_min, price_cents, required_specialties, is_active
FROM services
WHERE id = $1`

type ServiceRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewServiceRepository(dbtx db.DBTX, logger *slog.Logger) *ServiceRepository {
	return &ServiceRepository{db: dbtx, logger: logger}
}

func (r *ServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	var s shared.ServiceSnapshot
	err := r.db.QueryRow(ctx, findServiceByID, id).Scan(
		&s.ID,
		&s.Name,
		&s.Category,
		&s.DurationMin,
		&s.PriceCents,
		&s.RequiredSpecialties,
		&s.IsActive,
	)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "service not found", err)
	}
	return &s, nil
}
