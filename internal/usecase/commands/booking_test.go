//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/usecase/commands"
	"petcare-booking/internal/usecase/shared"
	"petcare-booking/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Create Tests
// =============================================================================

func TestBookingCommands_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success: pending booking is stored with side effects", func(t *testing.T) {
		f := newFixture()

		res, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.NoError(t, err)
		assert.False(t, res.AutoAssigned)
		assert.Equal(t, f.employee.ID, res.EmployeeID)

		b, ok := f.store.Booking(res.BookingID)
		require.True(t, ok)
		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Equal(t, "10:00-11:00", b.Slot().String())
		assert.Equal(t, f.service.Frozen(), b.ServiceSnapshot())
		require.Len(t, b.History(), 1)
		assert.Equal(t, f.customer.ID, b.History()[0].ChangedBy)

		assert.Equal(t, 1, f.store.Customer(f.customer.ID).TotalBookings)
		assert.Equal(t, []shared.EventType{shared.EventBookingCreated}, f.sink.types())
		key := f.employee.ID.String() + "/" + builder.ReferenceDate.String()
		assert.Equal(t, []string{key}, f.cache.invalidated)
		assert.Contains(t, f.store.Locks, key)
		assert.Equal(t, 1, f.metrics.created[false])
	})

	// Scenario D
	t.Run("error: exact slot already held by a pending booking is a conflict", func(t *testing.T) {
		f := newFixture()
		f.seedBooking(booking.StatusPending, "10:00")

		_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.ErrorIs(t, err, shared.ErrSlotUnavailable)
		assert.True(t, errs.IsKind(err, errs.KindConflict))
		assert.Len(t, f.store.Bookings(), 1)
		assert.Equal(t, 0, f.store.Customer(f.customer.ID).TotalBookings)
		assert.Empty(t, f.sink.types())
		assert.Equal(t, 1, f.metrics.rejected[string(errs.KindConflict)])
	})

	t.Run("success: touching the end of another booking is allowed", func(t *testing.T) {
		f := newFixture()
		f.seedBooking(booking.StatusConfirmed, "10:00")

		_, err := f.cmds.Create(ctx, f.createRequest("11:00"), f.customer)
		require.NoError(t, err)
	})

	t.Run("success: cancelled bookings do not hold their slot", func(t *testing.T) {
		f := newFixture()
		f.seedBooking(booking.StatusCancelled, "10:00")

		_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.NoError(t, err)
	})

	// Scenario E
	t.Run("error: three recent no-shows block booking regardless of slot", func(t *testing.T) {
		f := newFixture()
		for _, d := range []string{"2026-01-05", "2026-01-19", "2026-02-09"} {
			f.store.PutBooking(builder.NewBookingBuilder().
				WithCustomerID(f.customer.ID).
				WithDate(schedule.MustParseDate(d)).
				WithStatus(booking.StatusNoShow).
				BuildReconstructed())
		}

		_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.ErrorIs(t, err, shared.ErrNoShowLimitExceeded)
		assert.True(t, errs.IsKind(err, errs.KindConflict))
	})

	t.Run("success: no-shows outside the window are ignored", func(t *testing.T) {
		f := newFixture()
		for _, d := range []string{"2025-10-06", "2026-01-19", "2026-02-09"} {
			f.store.PutBooking(builder.NewBookingBuilder().
				WithCustomerID(f.customer.ID).
				WithDate(schedule.MustParseDate(d)).
				WithStatus(booking.StatusNoShow).
				BuildReconstructed())
		}

		_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.NoError(t, err)
	})

	t.Run("error: rejections before any write", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(f *fixture, req *commands.CreateBookingRequest) user.Requester
			wantErr error
			kind    errs.Kind
		}{
			{
				name: "非顧客は予約できない",
				mutate: func(f *fixture, _ *commands.CreateBookingRequest) user.Requester {
					return f.admin
				},
				wantErr: commands.ErrOnlyCustomersBook,
				kind:    errs.KindForbidden,
			},
			{
				name: "他人のペット",
				mutate: func(f *fixture, req *commands.CreateBookingRequest) user.Requester {
					other := uuid.New()
					f.store.PutPet(shared.PetSnapshot{ID: other, OwnerID: uuid.New(), IsActive: true})
					req.PetID = other
					return f.customer
				},
				wantErr: shared.ErrPetNotOwned,
				kind:    errs.KindForbidden,
			},
			{
				name: "非アクティブなペット",
				mutate: func(f *fixture, _ *commands.CreateBookingRequest) user.Requester {
					f.store.PutPet(shared.PetSnapshot{ID: f.petID, OwnerID: f.customer.ID, IsActive: false})
					return f.customer
				},
				wantErr: shared.ErrPetInactive,
				kind:    errs.KindValidation,
			},
			{
				name: "存在しないペット",
				mutate: func(_ *fixture, req *commands.CreateBookingRequest) user.Requester {
					req.PetID = uuid.New()
					return user.Requester{}
				},
				kind: errs.KindNotFound,
			},
			{
				name: "非アクティブなサービス",
				mutate: func(f *fixture, _ *commands.CreateBookingRequest) user.Requester {
					svc := f.service
					svc.IsActive = false
					f.store.PutService(svc)
					return f.customer
				},
				wantErr: shared.ErrServiceInactive,
				kind:    errs.KindValidation,
			},
			{
				name: "専門外の従業員",
				mutate: func(f *fixture, req *commands.CreateBookingRequest) user.Requester {
					other := f.addEmployee(employeeCreatedAt, "bathing")
					req.EmployeeID = &other.ID
					return f.customer
				},
				wantErr: shared.ErrEmployeeSpecialty,
				kind:    errs.KindValidation,
			},
			{
				name: "休暇中の従業員",
				mutate: func(f *fixture, _ *commands.CreateBookingRequest) user.Requester {
					e := f.employee
					e.VacationMode = true
					f.store.PutEmployee(e, employeeCreatedAt)
					return f.customer
				},
				wantErr: shared.ErrEmployeeUnavailable,
				kind:    errs.KindConflict,
			},
			{
				name: "過去の開始時刻",
				mutate: func(f *fixture, _ *commands.CreateBookingRequest) user.Requester {
					f.clock.Set(f.at(builder.ReferenceDate, "10:30"))
					return f.customer
				},
				wantErr: commands.ErrStartInPast,
				kind:    errs.KindValidation,
			},
			{
				name: "勤務時間外",
				mutate: func(_ *fixture, req *commands.CreateBookingRequest) user.Requester {
					req.StartTime = "17:00"
					return user.Requester{}
				},
				wantErr: shared.ErrSlotUnavailable,
				kind:    errs.KindConflict,
			},
			{
				name: "グリッドに乗らない開始時刻",
				mutate: func(_ *fixture, req *commands.CreateBookingRequest) user.Requester {
					req.StartTime = "10:30"
					return user.Requester{}
				},
				wantErr: shared.ErrSlotUnavailable,
				kind:    errs.KindConflict,
			},
			{
				name: "日付をまたぐ施術",
				mutate: func(_ *fixture, req *commands.CreateBookingRequest) user.Requester {
					req.StartTime = "23:30"
					return user.Requester{}
				},
				wantErr: schedule.ErrCrossesMidnight,
				kind:    errs.KindValidation,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				req := f.createRequest("10:00")
				requester := tt.mutate(f, &req)
				if requester == (user.Requester{}) {
					requester = f.customer
				}

				_, err := f.cmds.Create(ctx, req, requester)
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Equal(t, tt.kind, errs.KindOf(err))
				assert.Empty(t, f.store.Bookings())
				assert.Empty(t, f.sink.types())
			})
		}
	})

	t.Run("success: concurrent requests for one slot yield exactly one booking", func(t *testing.T) {
		f := newFixture()
		const n = 8

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, shared.ErrSlotUnavailable):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, conflicts)
		assert.Len(t, f.store.Bookings(), 1)
	})
}

// =============================================================================
// Auto-assignment Tests
// =============================================================================

func TestBookingCommands_CreateAutoAssign(t *testing.T) {
	ctx := context.Background()

	autoRequest := func(f *fixture) commands.CreateBookingRequest {
		req := f.createRequest("10:00")
		req.EmployeeID = nil
		return req
	}

	t.Run("success: first employee with the slot free is chosen", func(t *testing.T) {
		f := newFixture()
		second := f.addEmployee(employeeCreatedAt.Add(time.Hour), "grooming")
		f.seedBooking(booking.StatusConfirmed, "10:00")

		res, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.NoError(t, err)
		assert.True(t, res.AutoAssigned)
		assert.Equal(t, second.ID, res.EmployeeID)
		assert.Equal(t, 1, f.metrics.created[true])
	})

	t.Run("success: oldest employee wins when several are free", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(employeeCreatedAt.Add(time.Hour), "grooming")

		res, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.NoError(t, err)
		assert.Equal(t, f.employee.ID, res.EmployeeID)
	})

	t.Run("success: employees without the specialty are never considered", func(t *testing.T) {
		f := newFixture()
		f.seedBooking(booking.StatusConfirmed, "10:00")
		f.addEmployee(employeeCreatedAt.Add(-time.Hour), "bathing")
		qualified := f.addEmployee(employeeCreatedAt.Add(time.Hour), "grooming", "bathing")

		res, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.NoError(t, err)
		assert.Equal(t, qualified.ID, res.EmployeeID)
	})

	t.Run("success: a candidate whose schedule cannot be read is skipped", func(t *testing.T) {
		f := newFixture()
		second := f.addEmployee(employeeCreatedAt.Add(time.Hour), "grooming")
		f.store.FailSchedulesFor[f.employee.ID] = errors.New("schedule store unavailable")

		res, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.NoError(t, err)
		assert.Equal(t, second.ID, res.EmployeeID)
	})

	t.Run("error: every candidate failing surfaces the scan failure", func(t *testing.T) {
		f := newFixture()
		boom := errors.New("schedule store unavailable")
		f.store.FailSchedulesFor[f.employee.ID] = boom

		_, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.ErrorIs(t, err, shared.ErrAssignmentScanExhausted)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, shared.ErrNoEmployeeAvailable)
		assert.Equal(t, 1, f.metrics.rejected["internal"])
	})

	t.Run("error: nobody free is a conflict", func(t *testing.T) {
		f := newFixture()
		f.seedBooking(booking.StatusConfirmed, "10:00")

		_, err := f.cmds.Create(ctx, autoRequest(f), f.customer)
		require.ErrorIs(t, err, shared.ErrNoEmployeeAvailable)
		assert.True(t, errs.IsKind(err, errs.KindConflict))
	})
}

// =============================================================================
// Cancel / UpdateStatus Tests
// =============================================================================

func TestBookingCommands_Cancel(t *testing.T) {
	ctx := context.Background()

	// Scenario F
	t.Run("customer 10h before start is rejected, admin at the same time succeeds", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusConfirmed, "10:00")
		f.clock.Set(f.at(builder.ReferenceDate, "00:00"))

		err := f.cmds.Cancel(ctx, b.ID(), commands.CancelBookingRequest{Reason: "sick"}, f.customer)
		require.ErrorIs(t, err, booking.ErrCancellationTooLate)
		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, booking.StatusConfirmed, stored.Status())
		assert.Len(t, stored.History(), len(b.History()))

		err = f.cmds.Cancel(ctx, b.ID(), commands.CancelBookingRequest{Reason: "sick"}, f.admin)
		require.NoError(t, err)

		stored, _ = f.store.Booking(b.ID())
		assert.Equal(t, booking.StatusCancelled, stored.Status())
		require.NotNil(t, stored.Cancellation())
		assert.Equal(t, booking.InitiatorAdmin, stored.Cancellation().Initiator)
		assert.Equal(t, f.admin.ID, stored.Cancellation().By)
		assert.Equal(t, 1, f.store.Customer(f.customer.ID).CancelledBookings)
		assert.Equal(t, []shared.EventType{shared.EventBookingStatusChanged}, f.sink.types())
		assert.Equal(t, 1, f.metrics.transitions["confirmed->cancelled"])
	})

	t.Run("customer well ahead of time succeeds and frees the slot", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		require.NoError(t, f.cmds.Cancel(ctx, b.ID(), commands.CancelBookingRequest{Reason: "plans changed"}, f.customer))

		_, err := f.cmds.Create(ctx, f.createRequest("10:00"), f.customer)
		require.NoError(t, err)
	})

	t.Run("customer may not claim another initiator", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		err := f.cmds.Cancel(ctx, b.ID(), commands.CancelBookingRequest{Reason: "x", Initiator: "admin"}, f.customer)
		require.ErrorIs(t, err, booking.ErrInitiatorMismatch)
	})

	t.Run("unknown booking is not found", func(t *testing.T) {
		f := newFixture()
		err := f.cmds.Cancel(ctx, uuid.New(), commands.CancelBookingRequest{Reason: "x"}, f.admin)
		assert.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestBookingCommands_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success: full happy path updates counters on completion", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		emp := f.employeeRequester()

		for _, to := range []string{"confirmed", "in_progress", "completed"} {
			require.NoError(t, f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: to}, emp), to)
		}

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, booking.StatusCompleted, stored.Status())
		got := make([]booking.Status, 0, len(stored.History()))
		for _, h := range stored.History() {
			got = append(got, h.Status)
		}
		want := []booking.Status{booking.StatusPending, booking.StatusConfirmed, booking.StatusInProgress, booking.StatusCompleted}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
		require.NotNil(t, stored.Completion())
		assert.Equal(t, emp.ID, stored.Completion().By)

		e := f.store.Employee(f.employee.ID)
		assert.Equal(t, 1, e.CompletedBookings)
		assert.Equal(t, int64(6500), e.TotalRevenueCents)
		c := f.store.Customer(f.customer.ID)
		assert.Equal(t, 1, c.CompletedBookings)
		require.NotNil(t, c.LastBookingDate)
		assert.True(t, c.LastBookingDate.Equal(builder.ReferenceDate))
		assert.Len(t, f.sink.types(), 3)
	})

	t.Run("success: no-show after start increments the customer counter", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusConfirmed, "10:00")
		f.clock.Set(f.at(builder.ReferenceDate, "10:30"))

		require.NoError(t, f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "no_show"}, f.admin))
		assert.Equal(t, 1, f.store.Customer(f.customer.ID).NoShowCount)
	})

	t.Run("error: illegal transition leaves the booking untouched", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		err := f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "completed"}, f.admin)
		require.ErrorIs(t, err, booking.ErrInvalidTransition)
		assert.True(t, errs.IsKind(err, errs.KindInvalidState))

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, booking.StatusPending, stored.Status())
		assert.Len(t, stored.History(), 1)
		assert.Equal(t, 0, f.store.Employee(f.employee.ID).CompletedBookings)
		assert.Empty(t, f.sink.types())
	})

	t.Run("error: terminal bookings cannot move", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusCompleted, "10:00")

		err := f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "confirmed"}, f.admin)
		require.ErrorIs(t, err, booking.ErrInvalidTransition)
	})

	t.Run("error: other employees and customers are refused", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		other := user.NewRequester(uuid.New(), user.RoleEmployee)
		err := f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "confirmed"}, other)
		require.ErrorIs(t, err, booking.ErrNotAssignedEmployee)

		err = f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "confirmed"}, f.customer)
		require.ErrorIs(t, err, booking.ErrStatusChangeNotAllowed)
	})

	t.Run("error: unknown status is a validation error", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		err := f.cmds.UpdateStatus(ctx, b.ID(), commands.UpdateStatusRequest{Status: "archived"}, f.admin)
		require.ErrorIs(t, err, booking.ErrInvalidStatus)
	})
}

// =============================================================================
// AddRating Tests
// =============================================================================

func TestBookingCommands_AddRating(t *testing.T) {
	ctx := context.Background()

	t.Run("success: rating is stored and folded into the employee average", func(t *testing.T) {
		f := newFixture()
		e := f.employee
		e.Rating = 4.0
		e.CompletedBookings = 2
		f.store.PutEmployee(e, employeeCreatedAt)
		b := f.seedBooking(booking.StatusCompleted, "10:00")

		err := f.cmds.AddRating(ctx, b.ID(), commands.AddRatingRequest{Score: 5, Feedback: "  lovely  "}, f.customer)
		require.NoError(t, err)

		stored, _ := f.store.Booking(b.ID())
		require.NotNil(t, stored.Rating())
		assert.Equal(t, 5, stored.Rating().Score)
		assert.Equal(t, "lovely", stored.Rating().Feedback)
		assert.InDelta(t, 4.5, f.store.Employee(e.ID).Rating, 1e-9)
		assert.Equal(t, []shared.EventType{shared.EventBookingRated}, f.sink.types())
	})

	t.Run("error: second rating is rejected", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusCompleted, "10:00")

		require.NoError(t, f.cmds.AddRating(ctx, b.ID(), commands.AddRatingRequest{Score: 3}, f.customer))
		err := f.cmds.AddRating(ctx, b.ID(), commands.AddRatingRequest{Score: 5}, f.customer)
		require.ErrorIs(t, err, booking.ErrAlreadyRated)
	})

	t.Run("error: only completed bookings of the owner", func(t *testing.T) {
		f := newFixture()
		pending := f.seedBooking(booking.StatusPending, "10:00")
		completed := f.seedBooking(booking.StatusCompleted, "12:00")

		err := f.cmds.AddRating(ctx, pending.ID(), commands.AddRatingRequest{Score: 5}, f.customer)
		require.ErrorIs(t, err, booking.ErrNotCompleted)

		stranger := user.NewRequester(uuid.New(), user.RoleCustomer)
		err = f.cmds.AddRating(ctx, completed.ID(), commands.AddRatingRequest{Score: 5}, stranger)
		require.ErrorIs(t, err, booking.ErrNotBookingOwner)
	})

	t.Run("error: score out of range", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusCompleted, "10:00")

		err := f.cmds.AddRating(ctx, b.ID(), commands.AddRatingRequest{Score: 6}, f.customer)
		require.ErrorIs(t, err, booking.ErrInvalidRating)
		assert.Equal(t, 0.0, f.store.Employee(f.employee.ID).Rating)
	})
}

// =============================================================================
// Update (reschedule) Tests
// =============================================================================

func TestBookingCommands_Update(t *testing.T) {
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	t.Run("success: move to a later slot", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusConfirmed, "10:00")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{StartTime: ptr("14:00")}, f.customer)
		require.NoError(t, err)

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, "14:00-15:00", stored.Slot().String())
		assert.Equal(t, booking.StatusConfirmed, stored.Status())
		assert.Equal(t, []shared.EventType{shared.EventBookingRescheduled}, f.sink.types())
	})

	t.Run("success: move to the adjacent slot", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		f.seedBooking(booking.StatusConfirmed, "12:00")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{StartTime: ptr("11:00")}, f.customer)
		require.NoError(t, err)

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, "11:00-12:00", stored.Slot().String())
	})

	t.Run("success: moving to another day invalidates both days", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		nextMonday := builder.ReferenceDate.AddDays(7)

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{Date: ptr(nextMonday.String())}, f.customer)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{
			f.employee.ID.String() + "/" + builder.ReferenceDate.String(),
			f.employee.ID.String() + "/" + nextMonday.String(),
		}, f.cache.invalidated)
	})

	t.Run("success: notes only does not publish", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{Notes: ptr("bring towel")}, f.customer)
		require.NoError(t, err)

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, "bring towel", stored.Notes())
		assert.Empty(t, f.sink.types())
	})

	t.Run("error: target slot held by another booking", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		f.seedBooking(booking.StatusConfirmed, "14:00")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{StartTime: ptr("14:00")}, f.customer)
		require.ErrorIs(t, err, shared.ErrSlotUnavailable)

		stored, _ := f.store.Booking(b.ID())
		assert.Equal(t, "10:00-11:00", stored.Slot().String())
	})

	t.Run("error: inside the lead time", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		f.clock.Set(f.at(builder.ReferenceDate, "00:00"))

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{StartTime: ptr("14:00")}, f.customer)
		require.ErrorIs(t, err, booking.ErrRescheduleTooLate)
	})

	t.Run("error: reassignment to an unqualified employee", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")
		other := f.addEmployee(employeeCreatedAt, "bathing")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{EmployeeID: &other.ID}, f.customer)
		require.ErrorIs(t, err, shared.ErrEmployeeSpecialty)
	})

	t.Run("error: only the owning customer reschedules", func(t *testing.T) {
		f := newFixture()
		b := f.seedBooking(booking.StatusPending, "10:00")

		err := f.cmds.Update(ctx, b.ID(), commands.UpdateBookingRequest{StartTime: ptr("14:00")}, f.admin)
		require.ErrorIs(t, err, booking.ErrNotBookingOwner)
	})
}
