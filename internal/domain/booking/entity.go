package booking

import (
	"strings"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type Booking struct {
	id              uuid.UUID
	customerID      uuid.UUID
	petID           uuid.UUID
	employeeID      uuid.UUID
	serviceID       uuid.UUID
	scheduledDate   schedule.Date
	slot            schedule.Interval
	serviceSnapshot ServiceSnapshot
	status          Status
	history         []HistoryEntry
	paymentStatus   PaymentStatus
	cancellation    *Cancellation
	completion      *Completion
	rating          *Rating
	notes           string
	createdAt       time.Time
	updatedAt       time.Time
}

type NewBookingParams struct {
	CustomerID    uuid.UUID
	PetID         uuid.UUID
	EmployeeID    uuid.UUID
	ServiceID     uuid.UUID
	Service       ServiceSnapshot
	ScheduledDate schedule.Date
	StartTime     schedule.TimeOfDay
	Notes         string
}

// NewBooking creates a pending booking whose end time is derived from the
// service duration. Ranges reaching midnight are rejected.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	slot, err := SlotFor(p.StartTime, p.Service.DurationMin)
	if err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(p.Notes)
	if len(notes) > MaxNotesLength {
		return nil, ErrNotesTooLong
	}

	return &Booking{
		id:              uuid.New(),
		customerID:      p.CustomerID,
		petID:           p.PetID,
		employeeID:      p.EmployeeID,
		serviceID:       p.ServiceID,
		scheduledDate:   p.ScheduledDate,
		slot:            slot,
		serviceSnapshot: p.Service,
		status:          StatusPending,
		history: []HistoryEntry{
			{Status: StatusPending, ChangedAt: now, ChangedBy: p.CustomerID},
		},
		paymentStatus: PaymentPending,
		notes:         notes,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// SlotFor computes [start, start+duration) and enforces the minimum duration.
func SlotFor(start schedule.TimeOfDay, durationMin int) (schedule.Interval, error) {
	if durationMin < MinDurationMin {
		return schedule.Interval{}, errs.Wrapf(ErrInvalidDuration, "%d minutes", durationMin)
	}
	end, err := start.Add(durationMin)
	if err != nil {
		return schedule.Interval{}, errs.Wrapf(err, "%s + %d minutes", start, durationMin)
	}
	return schedule.Interval{Start: start, End: end}, nil
}

// State carries every persisted field of a booking.
type State struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	PetID           uuid.UUID
	EmployeeID      uuid.UUID
	ServiceID       uuid.UUID
	ScheduledDate   schedule.Date
	StartTime       schedule.TimeOfDay
	EndTime         schedule.TimeOfDay
	ServiceSnapshot ServiceSnapshot
	Status          Status
	History         []HistoryEntry
	PaymentStatus   PaymentStatus
	Cancellation    *Cancellation
	Completion      *Completion
	Rating          *Rating
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func Reconstruct(s State) *Booking {
	history := make([]HistoryEntry, len(s.History))
	copy(history, s.History)
	return &Booking{
		id:              s.ID,
		customerID:      s.CustomerID,
		petID:           s.PetID,
		employeeID:      s.EmployeeID,
		serviceID:       s.ServiceID,
		scheduledDate:   s.ScheduledDate,
		slot:            schedule.Interval{Start: s.StartTime, End: s.EndTime},
		serviceSnapshot: s.ServiceSnapshot,
		status:          s.Status,
		history:         history,
		paymentStatus:   s.PaymentStatus,
		cancellation:    s.Cancellation,
		completion:      s.Completion,
		rating:          s.Rating,
		notes:           s.Notes,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}

func (b *Booking) ID() uuid.UUID                    { return b.id }
func (b *Booking) CustomerID() uuid.UUID            { return b.customerID }
func (b *Booking) PetID() uuid.UUID                 { return b.petID }
func (b *Booking) EmployeeID() uuid.UUID            { return b.employeeID }
func (b *Booking) ServiceID() uuid.UUID             { return b.serviceID }
func (b *Booking) ScheduledDate() schedule.Date     { return b.scheduledDate }
func (b *Booking) Slot() schedule.Interval          { return b.slot }
func (b *Booking) StartTime() schedule.TimeOfDay    { return b.slot.Start }
func (b *Booking) EndTime() schedule.TimeOfDay      { return b.slot.End }
func (b *Booking) DurationMin() int                 { return b.serviceSnapshot.DurationMin }
func (b *Booking) ServiceSnapshot() ServiceSnapshot { return b.serviceSnapshot }
func (b *Booking) Status() Status                   { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus     { return b.paymentStatus }
func (b *Booking) Cancellation() *Cancellation      { return b.cancellation }
func (b *Booking) Completion() *Completion          { return b.completion }
func (b *Booking) Rating() *Rating                  { return b.rating }
func (b *Booking) Notes() string                    { return b.notes }
func (b *Booking) CreatedAt() time.Time             { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time             { return b.updatedAt }

func (b *Booking) History() []HistoryEntry {
	out := make([]HistoryEntry, len(b.history))
	copy(out, b.history)
	return out
}

// StartsAt is the instant the booking begins in the business location.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return b.scheduledDate.At(b.slot.Start, loc)
}

func (b *Booking) State() State {
	return State{
		ID:              b.id,
		CustomerID:      b.customerID,
		PetID:           b.petID,
		EmployeeID:      b.employeeID,
		ServiceID:       b.serviceID,
		ScheduledDate:   b.scheduledDate,
		StartTime:       b.slot.Start,
		EndTime:         b.slot.End,
		ServiceSnapshot: b.serviceSnapshot,
		Status:          b.status,
		History:         b.History(),
		PaymentStatus:   b.paymentStatus,
		Cancellation:    b.cancellation,
		Completion:      b.completion,
		Rating:          b.rating,
		Notes:           b.notes,
		CreatedAt:       b.createdAt,
		UpdatedAt:       b.updatedAt,
	}
}

func (b *Booking) clone() *Booking {
	c := *b
	c.history = b.History()
	return &c
}
