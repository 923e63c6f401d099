package repository

import (
	"context"
	"log/slog"

	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `
id, name, role, status, specialties, accepting_bookings, vacation_mode,
rating, completed_bookings, total_revenue_cents`

const (
	findEmployeeByID          = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	findEmployeeByIDForUpdate = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 FOR UPDATE`

	// an empty specialty list matches every employee
	listBookableEmployees = `
SELECT ` + employeeColumns + `
FROM employees
WHERE role = 'employee'
  AND status = 'active'
  AND accepting_bookings
  AND NOT vacation_mode
  AND (cardinality($1::text[]) = 0 OR specialties && $1::text[])
ORDER BY created_at, id
LIMIT $2`

	recordEmployeeCompletion = `
UPDATE employees
SET completed_bookings = completed_bookings + 1,
    total_revenue_cents = total_revenue_cents + $2
WHERE id = $1`

	updateEmployeeRating = `UPDATE employees SET rating = $2 WHERE id = $1`
)

type EmployeeRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewEmployeeRepository(dbtx db.DBTX, logger *slog.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: dbtx, logger: logger}
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.EmployeeSnapshot, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, findEmployeeByID, id))
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "employee not found", err)
	}
	return e, nil
}

func (r *EmployeeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*shared.EmployeeSnapshot, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, findEmployeeByIDForUpdate, id))
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "employee not found", err)
	}
	return e, nil
}

func (r *EmployeeRepository) ListBookable(ctx context.Context, specialties []string, limit int) ([]*shared.EmployeeSnapshot, error) {
	if specialties == nil {
		specialties = []string{}
	}
	rows, err := r.db.Query(ctx, listBookableEmployees, specialties, limit)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list bookable employees", err)
	}
	defer rows.Close()

	var out []*shared.EmployeeSnapshot
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan employee", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate employees", err)
	}
	return out, nil
}

func (r *EmployeeRepository) RecordCompletion(ctx context.Context, id uuid.UUID, revenueCents int64) error {
	return r.execOne(ctx, "failed to record employee completion", recordEmployeeCompletion, id, revenueCents)
}

func (r *EmployeeRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return r.execOne(ctx, "failed to update employee rating", updateEmployeeRating, id, rating)
}

func (r *EmployeeRepository) execOne(ctx context.Context, msg, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapPgErr(r.logger, msg, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "employee not found", nil)
	}
	return nil
}

func scanEmployee(row pgx.Row) (*shared.EmployeeSnapshot, error) {
	var e shared.EmployeeSnapshot
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Role,
		&e.Status,
		&e.Specialties,
		&e.AcceptingBookings,
		&e.VacationMode,
		&e.Rating,
		&e.CompletedBookings,
		&e.TotalRevenueCents,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
