package converter

import (
	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingColumns lists the bookings columns in BookingRow field order.
const BookingColumns = `
id, customer_id, pet_id, employee_id, service_id, scheduled_date, start_minute, end_minute,
service_snapshot, status, status_history, payment_status,
cancelled_at, cancelled_by, cancellation_reason, cancellation_initiator,
completed_at, completed_by, rating_score, rating_feedback, rated_at,
notes, created_at, updated_at`

type BookingRow struct {
	ID                    uuid.UUID
	CustomerID            uuid.UUID
	PetID                 uuid.UUID
	EmployeeID            uuid.UUID
	ServiceID             uuid.UUID
	ScheduledDate         pgtype.Date
	StartMinute           int16
	EndMinute             int16
	ServiceSnapshot       booking.ServiceSnapshot
	Status                string
	StatusHistory         []booking.HistoryEntry
	PaymentStatus         string
	CancelledAt           pgtype.Timestamptz
	CancelledBy           pgtype.UUID
	CancellationReason    pgtype.Text
	CancellationInitiator pgtype.Text
	CompletedAt           pgtype.Timestamptz
	CompletedBy           pgtype.UUID
	RatingScore           pgtype.Int2
	RatingFeedback        pgtype.Text
	RatedAt               pgtype.Timestamptz
	Notes                 string
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

// ScanTargets returns pointers in BookingColumns order.
func (r *BookingRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.CustomerID, &r.PetID, &r.EmployeeID, &r.ServiceID, &r.ScheduledDate, &r.StartMinute, &r.EndMinute,
		&r.ServiceSnapshot, &r.Status, &r.StatusHistory, &r.PaymentStatus,
		&r.CancelledAt, &r.CancelledBy, &r.CancellationReason, &r.CancellationInitiator,
		&r.CompletedAt, &r.CompletedBy, &r.RatingScore, &r.RatingFeedback, &r.RatedAt,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt,
	}
}

// Args returns values in BookingColumns order.
func (r *BookingRow) Args() []any {
	return []any{
		r.ID, r.CustomerID, r.PetID, r.EmployeeID, r.ServiceID, r.ScheduledDate, r.StartMinute, r.EndMinute,
		r.ServiceSnapshot, r.Status, r.StatusHistory, r.PaymentStatus,
		r.CancelledAt, r.CancelledBy, r.CancellationReason, r.CancellationInitiator,
		r.CompletedAt, r.CompletedBy, r.RatingScore, r.RatingFeedback, r.RatedAt,
		r.Notes, r.CreatedAt, r.UpdatedAt,
	}
}

// UpdateArgs returns the id followed by every mutable column.
func (r *BookingRow) UpdateArgs() []any {
	return []any{
		r.ID, r.PetID, r.EmployeeID, r.ServiceID, r.ScheduledDate, r.StartMinute, r.EndMinute,
		r.ServiceSnapshot, r.Status, r.StatusHistory, r.PaymentStatus,
		r.CancelledAt, r.CancelledBy, r.CancellationReason, r.CancellationInitiator,
		r.CompletedAt, r.CompletedBy, r.RatingScore, r.RatingFeedback, r.RatedAt,
		r.Notes, r.UpdatedAt,
	}
}

func BookingToRow(b *booking.Booking) BookingRow {
	row := BookingRow{
		ID:              b.ID(),
		CustomerID:      b.CustomerID(),
		PetID:           b.PetID(),
		EmployeeID:      b.EmployeeID(),
		ServiceID:       b.ServiceID(),
		ScheduledDate:   pgconv.DateToPgtype(b.ScheduledDate().Time()),
		StartMinute:     int16(b.StartTime().Minutes()), // #nosec G115 -- minutes of day fit in int16
		EndMinute:       int16(b.EndTime().Minutes()),   // #nosec G115
		ServiceSnapshot: b.ServiceSnapshot(),
		Status:          b.Status().String(),
		StatusHistory:   b.History(),
		PaymentStatus:   string(b.PaymentStatus()),
		Notes:           b.Notes(),
		CreatedAt:       pgconv.TimeToPgtype(b.CreatedAt()),
		UpdatedAt:       pgconv.TimeToPgtype(b.UpdatedAt()),
	}

	if c := b.Cancellation(); c != nil {
		initiator := string(c.Initiator)
		row.CancelledAt = pgconv.TimeToPgtype(c.At)
		row.CancelledBy = pgconv.UUIDToPgtype(c.By)
		row.CancellationReason = pgconv.StringPtrToPgtype(&c.Reason)
		row.CancellationInitiator = pgconv.StringPtrToPgtype(&initiator)
	}
	if c := b.Completion(); c != nil {
		row.CompletedAt = pgconv.TimeToPgtype(c.At)
		row.CompletedBy = pgconv.UUIDToPgtype(c.By)
	}
	if r := b.Rating(); r != nil {
		row.RatingScore = pgconv.IntPtrToPgtype(&r.Score)
		row.RatingFeedback = pgconv.StringPtrToPgtype(&r.Feedback)
		row.RatedAt = pgconv.TimeToPgtype(r.RatedAt)
	}
	return row
}

func BookingFromRow(row BookingRow) (*booking.Booking, error) {
	status, err := booking.ParseStatus(row.Status)
	if err != nil {
		return nil, errs.Wrapf(err, "booking %s", row.ID)
	}

	state := booking.State{
		ID:              row.ID,
		CustomerID:      row.CustomerID,
		PetID:           row.PetID,
		EmployeeID:      row.EmployeeID,
		ServiceID:       row.ServiceID,
		ScheduledDate:   schedule.DateFromTime(row.ScheduledDate.Time),
		StartTime:       schedule.TimeOfDay(row.StartMinute),
		EndTime:         schedule.TimeOfDay(row.EndMinute),
		ServiceSnapshot: row.ServiceSnapshot,
		Status:          status,
		History:         row.StatusHistory,
		PaymentStatus:   booking.PaymentStatus(row.PaymentStatus),
		Notes:           row.Notes,
		CreatedAt:       pgconv.TimeFromPgtype(row.CreatedAt),
		UpdatedAt:       pgconv.TimeFromPgtype(row.UpdatedAt),
	}

	if row.CancelledAt.Valid {
		c := &booking.Cancellation{At: row.CancelledAt.Time}
		if by := pgconv.UUIDPtrFromPgtype(row.CancelledBy); by != nil {
			c.By = *by
		}
		if reason := pgconv.StringPtrFromPgtype(row.CancellationReason); reason != nil {
			c.Reason = *reason
		}
		if initiator := pgconv.StringPtrFromPgtype(row.CancellationInitiator); initiator != nil {
			c.Initiator = booking.CancellationInitiator(*initiator)
		}
		state.Cancellation = c
	}
	if row.CompletedAt.Valid {
		c := &booking.Completion{At: row.CompletedAt.Time}
		if by := pgconv.UUIDPtrFromPgtype(row.CompletedBy); by != nil {
			c.By = *by
		}
		state.Completion = c
	}
	if score := pgconv.IntPtrFromPgtype(row.RatingScore); score != nil {
		r := &booking.Rating{Score: *score}
		if fb := pgconv.StringPtrFromPgtype(row.RatingFeedback); fb != nil {
			r.Feedback = *fb
		}
		if at := pgconv.TimePtrFromPgtype(row.RatedAt); at != nil {
			r.RatedAt = *at
		}
		state.Rating = r
	}

	return booking.Reconstruct(state), nil
}
