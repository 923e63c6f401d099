//go:build e2e

package booking_test

import (
	"context"
	"errors"
	"log/slog"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra/repository"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/usecase/shared"
	"petcare-booking/tests/common/builder"
	"petcare-booking/tests/common/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TestBookingRepositoryOverlap - 排他制約による二重予約の防止
// =============================================================================

// The repository is called directly here so neither the advisory lock nor the
// in-transaction availability check runs before the insert.
func (s *BookingSuite) TestBookingRepositoryOverlap() {
	ctx := context.Background()

	bookingAt := func(sl salon, start string, status booking.Status) *booking.Booking {
		date, err := schedule.ParseDate(sl.date)
		require.NoError(s.T(), err)
		return builder.NewBookingBuilder().
			WithCustomerID(sl.customerID).
			WithPetID(sl.petID).
			WithEmployeeID(sl.employeeID).
			WithServiceID(sl.serviceID).
			WithDate(date).
			WithStartTime(start).
			WithStatus(status).
			BuildReconstructed()
	}

	s.Run("error: 重なる有効な予約の挿入は枠の競合になる", func() {
		t := s.T()
		sl := s.openSalon(t)
		repo := repository.NewBookingRepository(s.DB, slog.Default())

		require.NoError(t, repo.Create(ctx, bookingAt(sl, "10:00", booking.StatusConfirmed)))

		err := repo.Create(ctx, bookingAt(sl, "10:30", booking.StatusPending))
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindConflict))
		assert.True(t, errors.Is(err, shared.ErrSlotUnavailable))
		assert.Equal(t, 1, dbtest.CountBlockingBookings(t, s.DB, sl.employeeID, sl.date))
	})

	s.Run("success: キャンセル済みの予約は同じ枠でも制約に触れない", func() {
		t := s.T()
		sl := s.openSalon(t)
		repo := repository.NewBookingRepository(s.DB, slog.Default())

		require.NoError(t, repo.Create(ctx, bookingAt(sl, "10:00", booking.StatusConfirmed)))
		require.NoError(t, repo.Create(ctx, bookingAt(sl, "10:00", booking.StatusCancelled)))
		require.NoError(t, repo.Create(ctx, bookingAt(sl, "10:00", booking.StatusNoShow)))

		assert.Equal(t, 1, dbtest.CountBlockingBookings(t, s.DB, sl.employeeID, sl.date))
	})

	s.Run("success: 終了時刻ちょうどに始まる予約は重ならない", func() {
		t := s.T()
		sl := s.openSalon(t)
		repo := repository.NewBookingRepository(s.DB, slog.Default())

		require.NoError(t, repo.Create(ctx, bookingAt(sl, "10:00", booking.StatusConfirmed)))
		require.NoError(t, repo.Create(ctx, bookingAt(sl, "11:00", booking.StatusPending)))

		assert.Equal(t, 2, dbtest.CountBlockingBookings(t, s.DB, sl.employeeID, sl.date))
	})
}
