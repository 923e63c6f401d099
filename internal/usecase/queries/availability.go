package queries

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type AvailabilityRequest struct {
	EmployeeID uuid.UUID
	ServiceID  uuid.UUID
	Date       schedule.Date
	// ExcludeBookingID ignores one booking's own slot, used when it is being moved.
	ExcludeBookingID uuid.UUID
}

// AvailabilityCalculator merges working hours, breaks and bookings into a slot grid.
// It only reads, so it works against a read-only view or inside a write transaction.
type AvailabilityCalculator struct{}

func NewAvailabilityCalculator() *AvailabilityCalculator {
	return &AvailabilityCalculator{}
}

// Calculate loads the service and returns the full grid for the employee-day.
func (c *AvailabilityCalculator) Calculate(ctx context.Context, repos shared.Repositories, req AvailabilityRequest) ([]schedule.Slot, error) {
	service, err := repos.Services().FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, errs.Wrap(err, "load service")
	}
	if !service.IsActive {
		return nil, shared.ErrServiceInactive
	}
	return c.CalculateFor(ctx, repos, service, req)
}

// CalculateFor is Calculate with the service already loaded.
func (c *AvailabilityCalculator) CalculateFor(ctx context.Context, repos shared.Repositories, service *shared.ServiceSnapshot, req AvailabilityRequest) ([]schedule.Slot, error) {
	hours, working, err := c.ResolveWorkingHours(ctx, repos, req.EmployeeID, req.Date)
	if err != nil {
		return nil, err
	}
	if !working {
		return []schedule.Slot{}, nil
	}

	busy, err := c.CollectBusyIntervals(ctx, repos, req.EmployeeID, req.Date, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	return schedule.MarkAvailability(schedule.GenerateSlots(hours, service.DurationMin), busy), nil
}

func (c *AvailabilityCalculator) ResolveWorkingHours(ctx context.Context, repos shared.Repositories, employeeID uuid.UUID, date schedule.Date) (schedule.Interval, bool, error) {
	override, err := repos.Schedules().OverrideFor(ctx, employeeID, date)
	if err != nil {
		return schedule.Interval{}, false, errs.Wrap(err, "load shift override")
	}
	templates, err := repos.Schedules().TemplatesFor(ctx, employeeID, int(date.Weekday()))
	if err != nil {
		return schedule.Interval{}, false, errs.Wrap(err, "load shift templates")
	}
	hours, ok := schedule.ResolveWorkingHours(override, templates, date)
	return hours, ok, nil
}

// CollectBusyIntervals returns occupied booking slots and breaks, merged and sorted.
func (c *AvailabilityCalculator) CollectBusyIntervals(ctx context.Context, repos shared.Repositories, employeeID uuid.UUID, date schedule.Date, excludeBookingID uuid.UUID) ([]schedule.Interval, error) {
	occupied, err := repos.Bookings().OccupiedIntervals(ctx, employeeID, date, excludeBookingID)
	if err != nil {
		return nil, errs.Wrap(err, "load occupied intervals")
	}
	breaks, err := repos.Schedules().BreaksFor(ctx, employeeID)
	if err != nil {
		return nil, errs.Wrap(err, "load breaks")
	}

	busy := make([]schedule.Interval, 0, len(occupied)+len(breaks))
	busy = append(busy, occupied...)
	busy = append(busy, schedule.BreaksOn(breaks, date)...)
	return schedule.MergeIntervals(busy), nil
}

type AvailabilityQuery struct {
	EmployeeID uuid.UUID
	ServiceID  uuid.UUID
	Date       string
}

type AvailabilityQueries interface {
	GetAvailableSlots(ctx context.Context, q AvailabilityQuery) ([]SlotView, error)
}

type availabilityQueriesImpl struct {
	uow     shared.UnitOfWork
	calc    *AvailabilityCalculator
	cache   shared.SlotCache
	metrics shared.BookingMetrics
	logger  *slog.Logger

	// concurrent misses for the same grid share one computation
	inflight singleflight.Group
}

func NewAvailabilityQueries(uow shared.UnitOfWork, calc *AvailabilityCalculator, cache shared.SlotCache, metrics shared.BookingMetrics, logger *slog.Logger) AvailabilityQueries {
	return &availabilityQueriesImpl{uow: uow, calc: calc, cache: cache, metrics: metrics, logger: logger}
}

// GetAvailableSlots never fails for an unknown employee or a malformed date;
// both produce an empty grid.
func (q *availabilityQueriesImpl) GetAvailableSlots(ctx context.Context, in AvailabilityQuery) ([]SlotView, error) {
	date, err := schedule.ParseDate(in.Date)
	if err != nil {
		q.logger.Debug("availability requested for malformed date", "date", in.Date)
		return []SlotView{}, nil
	}

	slots, generation, ok := q.cache.Get(ctx, in.EmployeeID, date, in.ServiceID)
	if ok {
		q.metrics.AvailabilityServed(true)
		return ToSlotViews(slots), nil
	}

	// Callers that observed a newer generation never join an older computation.
	key := in.EmployeeID.String() + "/" + date.String() + "/" + in.ServiceID.String() + "/" + strconv.FormatInt(generation, 10)
	ch := q.inflight.DoChan(key, func() (any, error) {
		return q.compute(context.WithoutCancel(ctx), in, date, generation)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return ToSlotViews(res.Val.([]schedule.Slot)), nil
	}
}

// compute reads the grid in its own snapshot. generation was observed before
// the snapshot began, so a booking committed after it leaves the cache untouched.
func (q *availabilityQueriesImpl) compute(ctx context.Context, in AvailabilityQuery, date schedule.Date, generation int64) ([]schedule.Slot, error) {
	start := time.Now()
	var slots []schedule.Slot
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, repos shared.Repositories) error {
		var calcErr error
		slots, calcErr = q.calc.Calculate(ctx, repos, AvailabilityRequest{
			EmployeeID: in.EmployeeID,
			ServiceID:  in.ServiceID,
			Date:       date,
		})
		return calcErr
	})
	if err != nil {
		return nil, err
	}

	q.cache.Set(ctx, in.EmployeeID, date, in.ServiceID, generation, slots)
	q.metrics.AvailabilityServed(false)
	q.logger.Debug("availability computed",
		"employee_id", in.EmployeeID.String(),
		"date", date.String(),
		"slots", len(slots),
		"elapsed", time.Since(start))
	return slots, nil
}

func ToSlotViews(slots []schedule.Slot) []SlotView {
	out := make([]SlotView, len(slots))
	for i, s := range slots {
		out[i] = SlotView{
			StartTime: s.Start.String(),
			EndTime:   s.End.String(),
			Available: s.Available,
		}
	}
	return out
}
