package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/clock"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/pkg/patch"
	"petcare-booking/internal/usecase/queries"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrOnlyCustomersBook = errs.Forbidden("only customers can create bookings")
	ErrStartInPast       = errs.Validation("booking start must be in the future")
)

type BookingCommands interface {
	Create(ctx context.Context, req CreateBookingRequest, requester user.Requester) (*CreateBookingResult, error)
	Update(ctx context.Context, bookingID uuid.UUID, req UpdateBookingRequest, requester user.Requester) error
	Cancel(ctx context.Context, bookingID uuid.UUID, req CancelBookingRequest, requester user.Requester) error
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, req UpdateStatusRequest, requester user.Requester) error
	AddRating(ctx context.Context, bookingID uuid.UUID, req AddRatingRequest, requester user.Requester) error
}

type bookingCommandsImpl struct {
	uow       shared.UnitOfWork
	calc      *queries.AvailabilityCalculator
	lifecycle *booking.Lifecycle
	settings  BookingSettings
	clock     clock.Clock
	sink      shared.NotificationSink
	cache     shared.SlotCache
	metrics   shared.BookingMetrics
	logger    *slog.Logger
}

type BookingCommandDeps struct {
	UoW      shared.UnitOfWork
	Calc     *queries.AvailabilityCalculator
	Settings BookingSettings
	Clock    clock.Clock
	Sink     shared.NotificationSink
	Cache    shared.SlotCache
	Metrics  shared.BookingMetrics
	Logger   *slog.Logger
}

func NewBookingCommands(d BookingCommandDeps) BookingCommands {
	return &bookingCommandsImpl{
		uow:  d.UoW,
		calc: d.Calc,
		lifecycle: booking.NewLifecycle(booking.Policy{
			Location:             d.Settings.Location,
			CancellationLeadTime: d.Settings.CancellationLeadTime,
			RescheduleLeadTime:   d.Settings.RescheduleLeadTime,
		}),
		settings: d.Settings,
		clock:    d.Clock,
		sink:     d.Sink,
		cache:    d.Cache,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}
}

func (uc *bookingCommandsImpl) Create(ctx context.Context, req CreateBookingRequest, requester user.Requester) (*CreateBookingResult, error) {
	if !requester.IsCustomer() {
		return nil, ErrOnlyCustomersBook
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	if !date.At(start, uc.settings.Location).After(now) {
		return nil, ErrStartInPast
	}

	autoAssigned := req.EmployeeID == nil
	var employeeID uuid.UUID
	if autoAssigned {
		employeeID, err = uc.pickEmployee(ctx, req.ServiceID, date, start)
		if err != nil {
			uc.reject(err)
			return nil, err
		}
	} else {
		employeeID = *req.EmployeeID
	}

	created, err := shared.WithinResult(ctx, uc.uow, func(ctx context.Context, tx shared.Tx) (*booking.Booking, error) {
		pet, err := tx.Pets().FindByID(ctx, req.PetID)
		if err != nil {
			return nil, errs.Wrap(err, "load pet")
		}
		if pet.OwnerID != requester.ID {
			return nil, shared.ErrPetNotOwned
		}
		if !pet.IsActive {
			return nil, shared.ErrPetInactive
		}
		if err := uc.checkNoShowHistory(ctx, tx, requester.ID, now); err != nil {
			return nil, err
		}

		service, err := tx.Services().FindByID(ctx, req.ServiceID)
		if err != nil {
			return nil, errs.Wrap(err, "load service")
		}
		if !service.IsActive {
			return nil, shared.ErrServiceInactive
		}
		if _, err := booking.SlotFor(start, service.DurationMin); err != nil {
			return nil, err
		}

		employee, err := tx.Employees().FindByID(ctx, employeeID)
		if err != nil {
			return nil, errs.Wrap(err, "load employee")
		}
		if err := employee.CheckBookable(*service); err != nil {
			return nil, err
		}

		if err := tx.LockEmployeeDay(ctx, employee.ID, date); err != nil {
			return nil, err
		}
		if err := uc.verifySlot(ctx, tx, service, employee.ID, date, start, uuid.Nil); err != nil {
			return nil, err
		}

		b, err := booking.NewBooking(booking.NewBookingParams{
			CustomerID:    requester.ID,
			PetID:         pet.ID,
			EmployeeID:    employee.ID,
			ServiceID:     service.ID,
			Service:       service.Frozen(),
			ScheduledDate: date,
			StartTime:     start,
			Notes:         req.Notes,
		}, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return nil, err
		}
		if err := tx.Customers().IncrementTotalBookings(ctx, requester.ID); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		uc.reject(err)
		return nil, err
	}

	uc.metrics.BookingCreated(autoAssigned)
	uc.afterCommit(ctx, shared.EventBookingCreated, created, "", created.EmployeeID(), created.ScheduledDate())
	uc.logger.Info("booking created",
		"booking_id", created.ID().String(),
		"employee_id", created.EmployeeID().String(),
		"date", created.ScheduledDate().String(),
		"start", created.StartTime().String(),
		"auto_assigned", autoAssigned)

	return &CreateBookingResult{
		BookingID:    created.ID(),
		EmployeeID:   created.EmployeeID(),
		AutoAssigned: autoAssigned,
	}, nil
}

func (uc *bookingCommandsImpl) checkNoShowHistory(ctx context.Context, tx shared.Tx, customerID uuid.UUID, now time.Time) error {
	since := schedule.DateOf(now, uc.settings.Location).AddDays(-uc.settings.NoShowWindowDays)
	count, err := tx.Bookings().CountNoShowsSince(ctx, customerID, since)
	if err != nil {
		return errs.Wrap(err, "count no-shows")
	}
	if count >= uc.settings.NoShowLimit {
		return errs.Wrapf(shared.ErrNoShowLimitExceeded, "%d no-shows since %s", count, since)
	}
	return nil
}

// verifySlot re-runs availability inside the transaction and requires start
// to be a free slot of the grid.
func (uc *bookingCommandsImpl) verifySlot(ctx context.Context, tx shared.Tx, service *shared.ServiceSnapshot, employeeID uuid.UUID, date schedule.Date, start schedule.TimeOfDay, excludeBookingID uuid.UUID) error {
	slots, err := uc.calc.CalculateFor(ctx, tx, service, queries.AvailabilityRequest{
		EmployeeID:       employeeID,
		ServiceID:        service.ID,
		Date:             date,
		ExcludeBookingID: excludeBookingID,
	})
	if err != nil {
		return err
	}
	slot, ok := schedule.FindSlot(slots, start)
	if !ok || !slot.Available {
		return errs.Wrapf(shared.ErrSlotUnavailable, "%s %s", date, start)
	}
	return nil
}

func (uc *bookingCommandsImpl) reject(err error) {
	if kind := errs.KindOf(err); kind != errs.KindUnknown {
		uc.metrics.BookingRejected(string(kind))
		return
	}
	uc.metrics.BookingRejected("internal")
}

// afterCommit runs once the transaction is durable. Nothing here can fail the
// operation.
func (uc *bookingCommandsImpl) afterCommit(ctx context.Context, typ shared.EventType, b *booking.Booking, reason string, staleEmployee uuid.UUID, staleDate schedule.Date) {
	uc.cache.Invalidate(ctx, staleEmployee, staleDate)
	if staleEmployee != b.EmployeeID() || !staleDate.Equal(b.ScheduledDate()) {
		uc.cache.Invalidate(ctx, b.EmployeeID(), b.ScheduledDate())
	}
	uc.sink.Publish(ctx, shared.NewBookingEvent(typ, b, reason, uc.clock.Now()))
}

// pickEmployee walks eligible employees in directory order and returns the
// first one whose grid has start free. A candidate whose schedule cannot be
// read is skipped.
func (uc *bookingCommandsImpl) pickEmployee(ctx context.Context, serviceID uuid.UUID, date schedule.Date, start schedule.TimeOfDay) (uuid.UUID, error) {
	var (
		service    *shared.ServiceSnapshot
		candidates []*shared.EmployeeSnapshot
	)
	err := uc.uow.WithinReadOnly(ctx, func(ctx context.Context, repos shared.Repositories) error {
		var err error
		service, err = repos.Services().FindByID(ctx, serviceID)
		if err != nil {
			return errs.Wrap(err, "load service")
		}
		if !service.IsActive {
			return shared.ErrServiceInactive
		}
		candidates, err = repos.Employees().ListBookable(ctx, service.RequiredSpecialties, uc.settings.MaxAssignmentCandidates)
		if err != nil {
			return errs.Wrap(err, "list bookable employees")
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	var (
		evaluated int
		lastErr   error
	)
	for _, candidate := range candidates {
		if candidate.CheckBookable(*service) != nil {
			continue
		}
		var slots []schedule.Slot
		err := uc.uow.WithinReadOnly(ctx, func(ctx context.Context, repos shared.Repositories) error {
			var calcErr error
			slots, calcErr = uc.calc.CalculateFor(ctx, repos, service, queries.AvailabilityRequest{
				EmployeeID: candidate.ID,
				ServiceID:  service.ID,
				Date:       date,
			})
			return calcErr
		})
		if err != nil {
			uc.logger.Warn("skipping candidate employee",
				"employee_id", candidate.ID.String(),
				"date", date.String(),
				"error", err)
			lastErr = err
			continue
		}
		evaluated++
		if slot, ok := schedule.FindSlot(slots, start); ok && slot.Available {
			return candidate.ID, nil
		}
	}

	if evaluated == 0 && lastErr != nil {
		return uuid.Nil, errors.Join(shared.ErrAssignmentScanExhausted, lastErr)
	}
	return uuid.Nil, errs.Wrapf(shared.ErrNoEmployeeAvailable, "%s %s", date, start)
}

type rescheduled struct {
	before *booking.Booking
	after  *booking.Booking
}

func (uc *bookingCommandsImpl) Update(ctx context.Context, bookingID uuid.UUID, req UpdateBookingRequest, requester user.Requester) error {
	to := booking.RescheduleTo{Notes: req.Notes}
	if req.Date != nil {
		date, err := schedule.ParseDate(*req.Date)
		if err != nil {
			return err
		}
		to.Date = date
	}
	start, err := patch.Parse(req.StartTime, schedule.ParseTimeOfDay)
	if err != nil {
		return err
	}
	to.StartTime = start
	to.EmployeeID = patch.Coalesce(req.EmployeeID, uuid.Nil)
	actor := booking.ActorFrom(requester)
	now := uc.clock.Now()

	res, err := shared.WithinResult(ctx, uc.uow, func(ctx context.Context, tx shared.Tx) (rescheduled, error) {
		current, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return rescheduled{}, errs.Wrap(err, "load booking")
		}
		next, err := uc.lifecycle.Reschedule(current, actor, to, now)
		if err != nil {
			return rescheduled{}, err
		}

		if booking.Moved(current, next) {
			if !next.StartsAt(uc.settings.Location).After(now) {
				return rescheduled{}, ErrStartInPast
			}
			if next.EmployeeID() != current.EmployeeID() {
				if err := uc.checkReassignment(ctx, tx, next); err != nil {
					return rescheduled{}, err
				}
			}
			if err := tx.LockEmployeeDay(ctx, next.EmployeeID(), next.ScheduledDate()); err != nil {
				return rescheduled{}, err
			}
			snapshot := next.ServiceSnapshot()
			grid := &shared.ServiceSnapshot{ID: next.ServiceID(), DurationMin: snapshot.DurationMin}
			if err := uc.verifySlot(ctx, tx, grid, next.EmployeeID(), next.ScheduledDate(), next.StartTime(), next.ID()); err != nil {
				return rescheduled{}, err
			}
		}

		if err := tx.Bookings().Update(ctx, next); err != nil {
			return rescheduled{}, err
		}
		return rescheduled{before: current, after: next}, nil
	})
	if err != nil {
		uc.reject(err)
		return err
	}

	if booking.Moved(res.before, res.after) {
		uc.afterCommit(ctx, shared.EventBookingRescheduled, res.after, "", res.before.EmployeeID(), res.before.ScheduledDate())
		uc.logger.Info("booking rescheduled",
			"booking_id", bookingID.String(),
			"from", res.before.ScheduledDate().String()+" "+res.before.StartTime().String(),
			"to", res.after.ScheduledDate().String()+" "+res.after.StartTime().String(),
			"employee_id", res.after.EmployeeID().String())
	}
	return nil
}

// checkReassignment validates a new employee against the live service record.
func (uc *bookingCommandsImpl) checkReassignment(ctx context.Context, tx shared.Tx, next *booking.Booking) error {
	service, err := tx.Services().FindByID(ctx, next.ServiceID())
	if err != nil {
		return errs.Wrap(err, "load service")
	}
	employee, err := tx.Employees().FindByID(ctx, next.EmployeeID())
	if err != nil {
		return errs.Wrap(err, "load employee")
	}
	return employee.CheckBookable(*service)
}

func (uc *bookingCommandsImpl) Cancel(ctx context.Context, bookingID uuid.UUID, req CancelBookingRequest, requester user.Requester) error {
	actor := booking.ActorFrom(requester)
	initiator := booking.CancellationInitiator(req.Initiator)
	if initiator == "" {
		initiator = actor.Initiator()
	}
	return uc.changeStatus(ctx, bookingID, booking.StatusCancelled, req.Reason, func(b *booking.Booking, now time.Time) (*booking.Booking, error) {
		next, _, err := uc.lifecycle.Cancel(b, actor, initiator, req.Reason, now)
		return next, err
	})
}

func (uc *bookingCommandsImpl) UpdateStatus(ctx context.Context, bookingID uuid.UUID, req UpdateStatusRequest, requester user.Requester) error {
	to, err := booking.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	actor := booking.ActorFrom(requester)
	return uc.changeStatus(ctx, bookingID, to, req.Reason, func(b *booking.Booking, now time.Time) (*booking.Booking, error) {
		next, _, err := uc.lifecycle.ChangeStatus(b, to, actor, req.Reason, now)
		return next, err
	})
}

type statusChange struct {
	from   booking.Status
	result *booking.Booking
}

// changeStatus locks the booking, applies fn and records the counter side
// effects of the new status in the same transaction.
func (uc *bookingCommandsImpl) changeStatus(ctx context.Context, bookingID uuid.UUID, to booking.Status, reason string, fn func(*booking.Booking, time.Time) (*booking.Booking, error)) error {
	now := uc.clock.Now()
	res, err := shared.WithinResult(ctx, uc.uow, func(ctx context.Context, tx shared.Tx) (statusChange, error) {
		current, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return statusChange{}, errs.Wrap(err, "load booking")
		}
		next, err := fn(current, now)
		if err != nil {
			return statusChange{}, err
		}
		if err := tx.Bookings().Update(ctx, next); err != nil {
			return statusChange{}, err
		}
		if err := uc.applyCounters(ctx, tx, next); err != nil {
			return statusChange{}, err
		}
		return statusChange{from: current.Status(), result: next}, nil
	})
	if err != nil {
		uc.reject(err)
		return err
	}

	uc.metrics.StatusChanged(res.from, to)
	uc.afterCommit(ctx, shared.EventBookingStatusChanged, res.result, reason, res.result.EmployeeID(), res.result.ScheduledDate())
	uc.logger.Info("booking status changed",
		"booking_id", bookingID.String(),
		"from", string(res.from),
		"to", string(to))
	return nil
}

func (uc *bookingCommandsImpl) applyCounters(ctx context.Context, tx shared.Tx, b *booking.Booking) error {
	switch b.Status() {
	case booking.StatusCompleted:
		if err := tx.Employees().RecordCompletion(ctx, b.EmployeeID(), b.ServiceSnapshot().PriceCents); err != nil {
			return err
		}
		return tx.Customers().RecordCompletion(ctx, b.CustomerID(), b.ScheduledDate())
	case booking.StatusNoShow:
		return tx.Customers().IncrementNoShow(ctx, b.CustomerID())
	case booking.StatusCancelled:
		return tx.Customers().IncrementCancelled(ctx, b.CustomerID())
	default:
		return nil
	}
}

// AddRating stores the rating and folds it into the employee average as
// (oldAvg*(n-1) + score) / n, n being the completed counter that already
// includes this booking.
func (uc *bookingCommandsImpl) AddRating(ctx context.Context, bookingID uuid.UUID, req AddRatingRequest, requester user.Requester) error {
	actor := booking.ActorFrom(requester)
	now := uc.clock.Now()

	rated, err := shared.WithinResult(ctx, uc.uow, func(ctx context.Context, tx shared.Tx) (*booking.Booking, error) {
		current, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return nil, errs.Wrap(err, "load booking")
		}
		next, err := booking.Rate(current, actor, req.Score, req.Feedback, now)
		if err != nil {
			return nil, err
		}
		employee, err := tx.Employees().FindByIDForUpdate(ctx, next.EmployeeID())
		if err != nil {
			return nil, errs.Wrap(err, "load employee")
		}
		avg := booking.RunningAverage(employee.Rating, employee.CompletedBookings, req.Score)
		if err := tx.Bookings().Update(ctx, next); err != nil {
			return nil, err
		}
		if err := tx.Employees().UpdateRating(ctx, employee.ID, avg); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		uc.reject(err)
		return err
	}

	uc.sink.Publish(ctx, shared.NewBookingEvent(shared.EventBookingRated, rated, "", now))
	uc.logger.Info("booking rated", "booking_id", bookingID.String(), "score", req.Score)
	return nil
}
