package shared

import (
	"context"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories is the set of stores visible inside a unit of work.
type Repositories interface {
	Pets() PetRepository
	Services() ServiceRepository
	Employees() EmployeeRepository
	Customers() CustomerRepository
	Schedules() ScheduleRepository
	Bookings() BookingRepository
}

type Tx interface {
	Repositories
	// LockEmployeeDay serializes writers of one employee's day until commit.
	LockEmployeeDay(ctx context.Context, employeeID uuid.UUID, date schedule.Date) error
}

type PetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PetSnapshot, error)
}

type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceSnapshot, error)
}

type EmployeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*EmployeeSnapshot, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*EmployeeSnapshot, error)
	// ListBookable returns active, accepting employees with any of the given
	// specialties (all when empty), oldest first.
	ListBookable(ctx context.Context, specialties []string, limit int) ([]*EmployeeSnapshot, error)
	RecordCompletion(ctx context.Context, id uuid.UUID, revenueCents int64) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerSnapshot, error)
	IncrementTotalBookings(ctx context.Context, id uuid.UUID) error
	RecordCompletion(ctx context.Context, id uuid.UUID, date schedule.Date) error
	IncrementCancelled(ctx context.Context, id uuid.UUID) error
	IncrementNoShow(ctx context.Context, id uuid.UUID) error
}

type ScheduleRepository interface {
	// OverrideFor returns nil when the employee has no override on date.
	OverrideFor(ctx context.Context, employeeID uuid.UUID, date schedule.Date) (*schedule.ShiftOverride, error)
	// TemplatesFor returns templates for the weekday ordered by effective_from, id.
	TemplatesFor(ctx context.Context, employeeID uuid.UUID, weekday int) ([]schedule.ShiftTemplate, error)
	BreaksFor(ctx context.Context, employeeID uuid.UUID) ([]schedule.BreakTemplate, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	Update(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// OccupiedIntervals lists the slots held by pending, confirmed or in-progress
	// bookings of the employee on date, skipping excludeID.
	OccupiedIntervals(ctx context.Context, employeeID uuid.UUID, date schedule.Date, excludeID uuid.UUID) ([]schedule.Interval, error)
	CountNoShowsSince(ctx context.Context, customerID uuid.UUID, since schedule.Date) (int, error)
}

// WithinResult runs fn in a write transaction and returns its value.
func WithinResult[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	var result T
	err := uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
