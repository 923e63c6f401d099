package shared

import (
	"context"
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingRescheduled   EventType = "booking.rescheduled"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventBookingRated         EventType = "booking.rated"
)

type BookingEvent struct {
	Type          EventType      `json:"type"`
	BookingID     uuid.UUID      `json:"bookingId"`
	CustomerID    uuid.UUID      `json:"customerId"`
	EmployeeID    uuid.UUID      `json:"employeeId"`
	Status        booking.Status `json:"status"`
	ScheduledDate string         `json:"scheduledDate"`
	StartTime     string         `json:"startTime"`
	EndTime       string         `json:"endTime"`
	Reason        string         `json:"reason,omitempty"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

func NewBookingEvent(typ EventType, b *booking.Booking, reason string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          typ,
		BookingID:     b.ID(),
		CustomerID:    b.CustomerID(),
		EmployeeID:    b.EmployeeID(),
		Status:        b.Status(),
		ScheduledDate: b.ScheduledDate().String(),
		StartTime:     b.StartTime().String(),
		EndTime:       b.EndTime().String(),
		Reason:        reason,
		OccurredAt:    at,
	}
}

// NotificationSink is fire-and-forget. Publish must not block on delivery
// and has no error to return.
type NotificationSink interface {
	Publish(ctx context.Context, event BookingEvent)
}

// SlotCache stores computed availability grids per employee-day.
//
// Invalidate moves the employee-day to a new generation. Get reports the
// generation it observed, and Set stores a grid only while that generation is
// still current, so a grid computed before a booking commit is never served
// after its invalidation. A negative generation means unknown and is never stored.
type SlotCache interface {
	Get(ctx context.Context, employeeID uuid.UUID, date schedule.Date, serviceID uuid.UUID) (slots []schedule.Slot, generation int64, ok bool)
	Set(ctx context.Context, employeeID uuid.UUID, date schedule.Date, serviceID uuid.UUID, generation int64, slots []schedule.Slot)
	Invalidate(ctx context.Context, employeeID uuid.UUID, date schedule.Date)
}

type BookingMetrics interface {
	BookingCreated(autoAssigned bool)
	StatusChanged(from, to booking.Status)
	BookingRejected(reason string)
	AvailabilityServed(cacheHit bool)
}
