package repository

import (
	"context"
	"errors"
	"log/slog"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/infra/repository/converter"
	"petcare-booking/internal/pkg/pgconv"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertBooking = `
INSERT INTO bookings (` + converter.BookingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	// customer_id and created_at never change after insert
	updateBooking = `
UPDATE bookings SET
    pet_id = $2,
    employee_id = $3,
    service_id = $4,
    scheduled_date = $5,
    start_minute = $6,
    end_minute = $7,
    service_snapshot = $8,
    status = $9,
    status_history = $10,
    payment_status = $11,
    cancelled_at = $12,
    cancelled_by = $13,
    cancellation_reason = $14,
    cancellation_initiator = $15,
    completed_at = $16,
    completed_by = $17,
    rating_score = $18,
    rating_feedback = $19,
    rated_at = $20,
    notes = $21,
    updated_at = $22
WHERE id = $1`

	findBookingByID          = `SELECT ` + converter.BookingColumns + ` FROM bookings WHERE id = $1`
	findBookingByIDForUpdate = `SELECT ` + converter.BookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	listOccupiedIntervals = `
SELECT start_minute, end_minute
FROM bookings
WHERE employee_id = $1
  AND scheduled_date = $2
  AND status IN ('pending', 'confirmed', 'in_progress')
  AND id <> $3
ORDER BY start_minute`

	countNoShowsSince = `
SELECT count(*)
FROM bookings
WHERE customer_id = $1 AND status = 'no_show' AND scheduled_date >= $2`

	// hashtextextended keeps the employee-day key within bigint
	lockEmployeeDay = `SELECT pg_advisory_xact_lock(hashtextextended($1::text || '/' || $2::text, 0))`
)

type BookingRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewBookingRepository(dbtx db.DBTX, logger *slog.Logger) *BookingRepository {
	return &BookingRepository{db: dbtx, logger: logger}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	row := converter.BookingToRow(b)
	if _, err := r.db.Exec(ctx, insertBooking, row.Args()...); err != nil {
		return r.wrapWriteErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	row := converter.BookingToRow(b)
	tag, err := r.db.Exec(ctx, updateBooking, row.UpdateArgs()...)
	if err != nil {
		return r.wrapWriteErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "booking not found", nil)
	}
	return nil
}

// wrapWriteErr turns an exclusion-constraint hit into the slot conflict the
// application reports for a lost race.
func (r *BookingRepository) wrapWriteErr(msg string, err error) error {
	wrapped := infra.WrapPgErr(r.logger, msg, err)
	if infra.IsKind(wrapped, infra.KindConflict) {
		return errors.Join(shared.ErrSlotUnavailable, wrapped)
	}
	return wrapped
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, findBookingByID, id)
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, findBookingByIDForUpdate, id)
}

func (r *BookingRepository) findOne(ctx context.Context, sql string, id uuid.UUID) (*booking.Booking, error) {
	var row converter.BookingRow
	if err := r.db.QueryRow(ctx, sql, id).Scan(row.ScanTargets()...); err != nil {
		return nil, infra.WrapPgErr(r.logger, "booking not found", err)
	}
	b, err := converter.BookingFromRow(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "corrupt booking row", err)
	}
	return b, nil
}

func (r *BookingRepository) OccupiedIntervals(ctx context.Context, employeeID uuid.UUID, date schedule.Date, excludeID uuid.UUID) ([]schedule.Interval, error) {
	rows, err := r.db.Query(ctx, listOccupiedIntervals, employeeID, pgconv.DateToPgtype(date.Time()), excludeID)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list occupied intervals", err)
	}
	defer rows.Close()

	out := []schedule.Interval{}
	for rows.Next() {
		var start, end int16
		if err := rows.Scan(&start, &end); err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan occupied interval", err)
		}
		out = append(out, schedule.Interval{Start: schedule.TimeOfDay(start), End: schedule.TimeOfDay(end)})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate occupied intervals", err)
	}
	return out, nil
}

func (r *BookingRepository) CountNoShowsSince(ctx context.Context, customerID uuid.UUID, since schedule.Date) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countNoShowsSince, customerID, pgconv.DateToPgtype(since.Time())).Scan(&n); err != nil {
		return 0, infra.WrapPgErr(r.logger, "failed to count no-shows", err)
	}
	return n, nil
}

// LockEmployeeDay takes a transaction-scoped advisory lock released at commit
// or rollback.
func LockEmployeeDay(ctx context.Context, tx pgx.Tx, logger *slog.Logger, employeeID uuid.UUID, date schedule.Date) error {
	if _, err := tx.Exec(ctx, lockEmployeeDay, employeeID.String(), date.String()); err != nil {
		return infra.WrapPgErr(logger, "failed to lock employee day", err)
	}
	return nil
}
