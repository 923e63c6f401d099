package repository

import (
	"context"
	"log/slog"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/pkg/pgconv"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	findCustomerByID = `
SELECT id, total_bookings, completed_bookings, cancelled_bookings, no_show_count, last_booking_date
FROM customers
WHERE id = $1`

	incrementCustomerTotal     = `UPDATE customers SET total_bookings = total_bookings + 1 WHERE id = $1`
	incrementCustomerCancelled = `UPDATE customers SET cancelled_bookings = cancelled_bookings + 1 WHERE id = $1`
	incrementCustomerNoShow    = `UPDATE customers SET no_show_count = no_show_count + 1 WHERE id = $1`

	recordCustomerCompletion = `
UPDATE customers
SET completed_bookings = completed_bookings + 1,
    last_booking_date = GREATEST(COALESCE(last_booking_date, $2), $2)
WHERE id = $1`
)

type CustomerRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCustomerRepository(dbtx db.DBTX, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: dbtx, logger: logger}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	var (
		c        shared.CustomerSnapshot
		lastDate pgtype.Date
	)
	err := r.db.QueryRow(ctx, findCustomerByID, id).Scan(
		&c.ID,
		&c.TotalBookings,
		&c.CompletedBookings,
		&c.CancelledBookings,
		&c.NoShowCount,
		&lastDate,
	)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "customer not found", err)
	}
	if t := pgconv.DatePtrFromPgtype(lastDate); t != nil {
		d := schedule.DateFromTime(*t)
		c.LastBookingDate = &d
	}
	return &c, nil
}

func (r *CustomerRepository) IncrementTotalBookings(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "failed to increment customer bookings", incrementCustomerTotal, id)
}

func (r *CustomerRepository) RecordCompletion(ctx context.Context, id uuid.UUID, date schedule.Date) error {
	return r.execOne(ctx, "failed to record customer completion", recordCustomerCompletion, id, pgconv.DateToPgtype(date.Time()))
}

func (r *CustomerRepository) IncrementCancelled(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "failed to increment customer cancellations", incrementCustomerCancelled, id)
}

func (r *CustomerRepository) IncrementNoShow(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "failed to increment customer no-shows", incrementCustomerNoShow, id)
}

func (r *CustomerRepository) execOne(ctx context.Context, msg, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapPgErr(r.logger, msg, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "customer not found", nil)
	}
	return nil
}
