package readstore

import (
	"context"
	"log/slog"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/infra/repository/converter"
	"petcare-booking/internal/pkg/pgconv"
	"petcare-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// bookingFilter expects the filter arguments at $1..$5 and the bookings table aliased b.
const bookingFilter = `
    ($1::uuid IS NULL OR b.customer_id = $1)
AND ($2::uuid IS NULL OR b.employee_id = $2)
AND ($3::text IS NULL OR b.status = $3)
AND ($4::date IS NULL OR b.scheduled_date >= $4)
AND ($5::date IS NULL OR b.scheduled_date <= $5)`

const (
	getBookingView = `
SELECT ` + converter.BookingColumns + `,
    (SELECT name FROM pets WHERE pets.id = bookings.pet_id),
    (SELECT name FROM employees WHERE employees.id = bookings.employee_id)
FROM bookings
WHERE id = $1`

	listBookings = `
SELECT b.id, b.customer_id, b.pet_id, p.name, b.employee_id, e.name,
       b.service_snapshot->>'name', b.scheduled_date, b.start_minute, b.end_minute,
       b.status, (b.service_snapshot->>'priceCents')::bigint, b.created_at
FROM bookings b
JOIN pets p ON p.id = b.pet_id
JOIN employees e ON e.id = b.employee_id
WHERE ` + bookingFilter + `
AND ($6::timestamptz IS NULL OR (b.created_at, b.id) < ($6, $7::uuid))
ORDER BY b.created_at DESC, b.id DESC
LIMIT $8`

	bookingStatistics = `
SELECT b.status,
       count(*),
       COALESCE(sum((b.service_snapshot->>'priceCents')::bigint) FILTER (WHERE b.status = 'completed'), 0),
       count(b.rating_score),
       COALESCE(sum(b.rating_score), 0)
FROM bookings b
WHERE ` + bookingFilter + `
GROUP BY b.status`
)

type BookingReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewBookingReadStore(dbtx db.DBTX, logger *slog.Logger) *BookingReadStore {
	return &BookingReadStore{db: dbtx, logger: logger}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		row                   converter.BookingRow
		petName, employeeName pgtype.Text
	)
	targets := append(row.ScanTargets(), &petName, &employeeName)
	if err := r.db.QueryRow(ctx, getBookingView, id).Scan(targets...); err != nil {
		return nil, infra.WrapPgErr(r.logger, "booking not found", err)
	}
	return rowToBookingView(row, petName.String, employeeName.String), nil
}

func rowToBookingView(row converter.BookingRow, petName, employeeName string) *queries.BookingView {
	scheduled := schedule.DateFromTime(row.ScheduledDate.Time)
	view := &queries.BookingView{
		ID:                    row.ID,
		CustomerID:            row.CustomerID,
		PetID:                 row.PetID,
		PetName:               petName,
		EmployeeID:            row.EmployeeID,
		EmployeeName:          employeeName,
		ServiceID:             row.ServiceID,
		ScheduledDate:         scheduled.String(),
		StartTime:             schedule.TimeOfDay(row.StartMinute).String(),
		EndTime:               schedule.TimeOfDay(row.EndMinute).String(),
		DurationMin:           row.ServiceSnapshot.DurationMin,
		Service:               row.ServiceSnapshot,
		Status:                row.Status,
		PaymentStatus:         row.PaymentStatus,
		StatusHistory:         row.StatusHistory,
		CancelledAt:           pgconv.TimePtrFromPgtype(row.CancelledAt),
		CancelledBy:           pgconv.UUIDPtrFromPgtype(row.CancelledBy),
		CancellationReason:    pgconv.StringPtrFromPgtype(row.CancellationReason),
		CancellationInitiator: pgconv.StringPtrFromPgtype(row.CancellationInitiator),
		CompletedAt:           pgconv.TimePtrFromPgtype(row.CompletedAt),
		CompletedBy:           pgconv.UUIDPtrFromPgtype(row.CompletedBy),
		RatingScore:           pgconv.IntPtrFromPgtype(row.RatingScore),
		RatingFeedback:        pgconv.StringPtrFromPgtype(row.RatingFeedback),
		RatedAt:               pgconv.TimePtrFromPgtype(row.RatedAt),
		Notes:                 row.Notes,
		CreatedAt:             pgconv.TimeFromPgtype(row.CreatedAt),
		UpdatedAt:             pgconv.TimeFromPgtype(row.UpdatedAt),
	}
	if view.StatusHistory == nil {
		view.StatusHistory = []booking.HistoryEntry{}
	}
	return view
}

func (r *BookingReadStore) List(ctx context.Context, f queries.BookingFilters, after *queries.KeysetPosition, limit int) ([]*queries.BookingListItem, error) {
	var (
		afterAt pgtype.Timestamptz
		afterID pgtype.UUID
	)
	if after != nil {
		afterAt = pgconv.TimeToPgtype(after.CreatedAt)
		afterID = pgconv.UUIDToPgtype(after.ID)
	}
	args := append(filterArgs(f), afterAt, afterID, limit)

	rows, err := r.db.Query(ctx, listBookings, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list bookings", err)
	}
	defer rows.Close()

	items := []*queries.BookingListItem{}
	for rows.Next() {
		var (
			item       queries.BookingListItem
			date       pgtype.Date
			start, end int16
			createdAt  pgtype.Timestamptz
		)
		err := rows.Scan(
			&item.ID,
			&item.CustomerID,
			&item.PetID,
			&item.PetName,
			&item.EmployeeID,
			&item.EmployeeName,
			&item.ServiceName,
			&date,
			&start,
			&end,
			&item.Status,
			&item.PriceCents,
			&createdAt,
		)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan booking list item", err)
		}
		item.ScheduledDate = schedule.DateFromTime(date.Time).String()
		item.StartTime = schedule.TimeOfDay(start).String()
		item.EndTime = schedule.TimeOfDay(end).String()
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate bookings", err)
	}
	return items, nil
}

func (r *BookingReadStore) Statistics(ctx context.Context, f queries.BookingFilters) (*queries.BookingStatistics, error) {
	rows, err := r.db.Query(ctx, bookingStatistics, filterArgs(f)...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to aggregate bookings", err)
	}
	defer rows.Close()

	stats := &queries.BookingStatistics{ByStatus: map[string]int{}}
	var ratingSum int64
	for rows.Next() {
		var (
			status              string
			count, rated        int
			revenue, scoreTotal int64
		)
		if err := rows.Scan(&status, &count, &revenue, &rated, &scoreTotal); err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan booking statistics", err)
		}
		stats.Total += count
		stats.ByStatus[status] = count
		stats.CompletedRevenueCents += revenue
		stats.RatedCount += rated
		ratingSum += scoreTotal
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate booking statistics", err)
	}
	if stats.RatedCount > 0 {
		avg := float64(ratingSum) / float64(stats.RatedCount)
		stats.AverageRating = &avg
	}
	return stats, nil
}

func filterArgs(f queries.BookingFilters) []any {
	var status *string
	if f.Status != nil {
		s := f.Status.String()
		status = &s
	}
	return []any{
		pgconv.UUIDPtrToPgtype(f.CustomerID),
		pgconv.UUIDPtrToPgtype(f.EmployeeID),
		pgconv.StringPtrToPgtype(status),
		datePtrToPgtype(f.DateFrom),
		datePtrToPgtype(f.DateTo),
	}
}

func datePtrToPgtype(d *schedule.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{Valid: false}
	}
	return pgconv.DateToPgtype(d.Time())
}
