package repository

import (
	"context"
	"log/slog"

	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const findPetByID = `
SELECT id, owner_id, name, is_active
FROM pets
WHERE id = $1`

type PetRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewPetRepository(dbtx db.DBTX, logger *slog.Logger) *PetRepository {
	return &PetRepository{db: dbtx, logger: logger}
}

func (r *PetRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.PetSnapshot, error) {
	var p shared.PetSnapshot
	err := r.db.QueryRow(ctx, findPetByID, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.IsActive)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "pet not found", err)
	}
	return &p, nil
}
