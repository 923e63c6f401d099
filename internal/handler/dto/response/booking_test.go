//go:build unit

package response_test

import (
	"testing"
	"time"

	"petcare-booking/internal/domain/booking"
	resdto "petcare-booking/internal/handler/dto/response"
	"petcare-booking/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBookingView(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	actor := uuid.New()
	score := 4
	view := &queries.BookingView{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		PetName:       "Pochi",
		ScheduledDate: "2026-03-12",
		StartTime:     "10:00",
		EndTime:       "11:00",
		DurationMin:   60,
		Service:       booking.ServiceSnapshot{Name: "Trim", PriceCents: 5000, DurationMin: 60, Category: "grooming"},
		Status:        "completed",
		StatusHistory: []booking.HistoryEntry{
			{Status: booking.StatusPending, ChangedAt: now, ChangedBy: actor},
			{Status: booking.StatusCompleted, ChangedAt: now.Add(time.Hour), ChangedBy: actor, Reason: "done"},
		},
		RatingScore: &score,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	got, err := resdto.FromBookingView(view)
	require.NoError(t, err)

	assert.Equal(t, view.ID, got.ID)
	assert.Equal(t, "Pochi", got.PetName)
	assert.Equal(t, resdto.ServiceSnapshotResponse{Name: "Trim", PriceCents: 5000, DurationMin: 60, Category: "grooming"}, got.Service)
	want := []resdto.StatusHistoryResponse{
		{Status: "pending", ChangedAt: now, ChangedBy: actor},
		{Status: "completed", ChangedAt: now.Add(time.Hour), ChangedBy: actor, Reason: "done"},
	}
	if diff := cmp.Diff(want, got.StatusHistory); diff != "" {
		t.Errorf("status history mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, got.RatingScore)
	assert.Equal(t, 4, *got.RatingScore)

	// the response must not alias the view
	*view.RatingScore = 1
	assert.Equal(t, 4, *got.RatingScore)
}

func TestFromBookingList(t *testing.T) {
	items := []*queries.BookingListItem{
		{ID: uuid.New(), ServiceName: "Bath", Status: "pending"},
		{ID: uuid.New(), ServiceName: "Trim", Status: "confirmed"},
	}

	t.Run("次ページあり", func(t *testing.T) {
		got, err := resdto.FromBookingList(items, &queries.Cursor{After: "abc"})
		require.NoError(t, err)
		require.Len(t, got.Bookings, 2)
		assert.Equal(t, items[1].ID, got.Bookings[1].ID)
		require.NotNil(t, got.NextCursor)
		assert.Equal(t, "abc", *got.NextCursor)
	})

	t.Run("空リストは空配列", func(t *testing.T) {
		got, err := resdto.FromBookingList(nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, got.Bookings)
		assert.Empty(t, got.Bookings)
		assert.Nil(t, got.NextCursor)
	})
}

func TestFromSlots(t *testing.T) {
	emp, svc := uuid.New(), uuid.New()

	got, err := resdto.FromSlots(emp, svc, "2026-03-12", []queries.SlotView{
		{StartTime: "09:00", EndTime: "10:00", Available: true},
		{StartTime: "10:00", EndTime: "11:00", Available: false},
	})
	require.NoError(t, err)
	assert.Equal(t, []resdto.SlotResponse{
		{StartTime: "09:00", EndTime: "10:00", Available: true},
		{StartTime: "10:00", EndTime: "11:00", Available: false},
	}, got.Slots)

	empty, err := resdto.FromSlots(emp, svc, "2026-03-12", []queries.SlotView{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Slots)
}
