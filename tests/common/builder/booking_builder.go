//go:build unit || e2e

package builder

import (
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	reqdto "petcare-booking/internal/handler/dto/request"
	"petcare-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

var BusinessLocation = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 9*60*60)
	}
	return loc
}

// ReferenceDate is a Monday.
var ReferenceDate = schedule.MustParseDate("2026-03-02")

type BookingBuilder struct {
	CustomerID    uuid.UUID
	PetID         uuid.UUID
	EmployeeID    uuid.UUID
	ServiceID     uuid.UUID
	Service       booking.ServiceSnapshot
	ScheduledDate schedule.Date
	StartTime     string
	Status        booking.Status
	Rating        *booking.Rating
	Notes         string
	CreatedAt     time.Time
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		CustomerID: uuid.New(),
		PetID:      uuid.New(),
		EmployeeID: uuid.New(),
		ServiceID:  uuid.New(),
		Service: booking.ServiceSnapshot{
			Name:        "Full Grooming",
			PriceCents:  6500,
			DurationMin: 60,
			Category:    "grooming",
		},
		ScheduledDate: ReferenceDate,
		StartTime:     "10:00",
		Status:        booking.StatusPending,
		Notes:         "Nervous around dryers",
		CreatedAt:     ReferenceDate.AddDays(-7).At(schedule.MustParseTimeOfDay("12:00"), BusinessLocation),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// BuildDomain creates a fresh pending booking through the constructor.
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	start, err := schedule.ParseTimeOfDay(b.StartTime)
	if err != nil {
		return nil, err
	}
	return booking.NewBooking(booking.NewBookingParams{
		CustomerID:    b.CustomerID,
		PetID:         b.PetID,
		EmployeeID:    b.EmployeeID,
		ServiceID:     b.ServiceID,
		Service:       b.Service,
		ScheduledDate: b.ScheduledDate,
		StartTime:     start,
		Notes:         b.Notes,
	}, b.CreatedAt)
}

// BuildReconstructed returns a booking already in Status with a matching history.
func (b *BookingBuilder) BuildReconstructed() *booking.Booking {
	start := schedule.MustParseTimeOfDay(b.StartTime)
	end := start + schedule.TimeOfDay(b.Service.DurationMin)
	history := []booking.HistoryEntry{{Status: booking.StatusPending, ChangedAt: b.CreatedAt, ChangedBy: b.CustomerID}}
	for _, st := range pathTo(b.Status) {
		history = append(history, booking.HistoryEntry{Status: st, ChangedAt: b.CreatedAt, ChangedBy: b.EmployeeID})
	}

	state := booking.State{
		ID:              uuid.New(),
		CustomerID:      b.CustomerID,
		PetID:           b.PetID,
		EmployeeID:      b.EmployeeID,
		ServiceID:       b.ServiceID,
		ScheduledDate:   b.ScheduledDate,
		StartTime:       start,
		EndTime:         end,
		ServiceSnapshot: b.Service,
		Status:          b.Status,
		History:         history,
		PaymentStatus:   booking.PaymentPending,
		Rating:          b.Rating,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.CreatedAt,
	}
	if b.Status == booking.StatusCompleted {
		state.Completion = &booking.Completion{At: b.CreatedAt, By: b.EmployeeID}
	}
	if b.Status == booking.StatusCancelled {
		state.Cancellation = &booking.Cancellation{At: b.CreatedAt, By: b.CustomerID, Initiator: booking.InitiatorCustomer}
	}
	return booking.Reconstruct(state)
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	employeeID := b.EmployeeID
	return reqdto.CreateBookingRequest{
		PetID:      b.PetID,
		ServiceID:  b.ServiceID,
		EmployeeID: &employeeID,
		Date:       b.ScheduledDate.String(),
		StartTime:  b.StartTime,
		Notes:      b.Notes,
	}
}

// BuildViewQuery renders the reconstructed booking the way the read store does.
func (b *BookingBuilder) BuildViewQuery() *queries.BookingView {
	bk := b.BuildReconstructed()
	view := &queries.BookingView{
		ID:            bk.ID(),
		CustomerID:    bk.CustomerID(),
		PetID:         bk.PetID(),
		PetName:       "Pochi",
		EmployeeID:    bk.EmployeeID(),
		EmployeeName:  "Groomer",
		ServiceID:     bk.ServiceID(),
		ScheduledDate: bk.ScheduledDate().String(),
		StartTime:     bk.StartTime().String(),
		EndTime:       bk.EndTime().String(),
		DurationMin:   bk.DurationMin(),
		Service:       bk.ServiceSnapshot(),
		Status:        string(bk.Status()),
		PaymentStatus: string(bk.PaymentStatus()),
		StatusHistory: bk.History(),
		Notes:         bk.Notes(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
	if r := bk.Rating(); r != nil {
		view.RatingScore = &r.Score
		view.RatedAt = &r.RatedAt
	}
	return view
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	start := schedule.MustParseTimeOfDay(b.StartTime)
	return &queries.BookingListItem{
		ID:            uuid.New(),
		CustomerID:    b.CustomerID,
		PetID:         b.PetID,
		PetName:       "Pochi",
		EmployeeID:    b.EmployeeID,
		EmployeeName:  "Groomer",
		ServiceName:   b.Service.Name,
		ScheduledDate: b.ScheduledDate.String(),
		StartTime:     start.String(),
		EndTime:       (start + schedule.TimeOfDay(b.Service.DurationMin)).String(),
		Status:        string(b.Status),
		PriceCents:    b.Service.PriceCents,
		CreatedAt:     b.CreatedAt,
	}
}

func pathTo(s booking.Status) []booking.Status {
	switch s {
	case booking.StatusConfirmed:
		return []booking.Status{booking.StatusConfirmed}
	case booking.StatusInProgress:
		return []booking.Status{booking.StatusConfirmed, booking.StatusInProgress}
	case booking.StatusCompleted:
		return []booking.Status{booking.StatusConfirmed, booking.StatusInProgress, booking.StatusCompleted}
	case booking.StatusNoShow:
		return []booking.Status{booking.StatusConfirmed, booking.StatusNoShow}
	case booking.StatusCancelled:
		return []booking.Status{booking.StatusCancelled}
	default:
		return nil
	}
}

func (b *BookingBuilder) WithCustomerID(id uuid.UUID) *BookingBuilder {
	b.CustomerID = id
	return b
}

func (b *BookingBuilder) WithPetID(id uuid.UUID) *BookingBuilder {
	b.PetID = id
	return b
}

func (b *BookingBuilder) WithEmployeeID(id uuid.UUID) *BookingBuilder {
	b.EmployeeID = id
	return b
}

func (b *BookingBuilder) WithServiceID(id uuid.UUID) *BookingBuilder {
	b.ServiceID = id
	return b
}

func (b *BookingBuilder) WithDuration(minutes int) *BookingBuilder {
	b.Service.DurationMin = minutes
	return b
}

func (b *BookingBuilder) WithDate(d schedule.Date) *BookingBuilder {
	b.ScheduledDate = d
	return b
}

func (b *BookingBuilder) WithStartTime(hhmm string) *BookingBuilder {
	b.StartTime = hhmm
	return b
}

func (b *BookingBuilder) WithStatus(s booking.Status) *BookingBuilder {
	b.Status = s
	return b
}

func (b *BookingBuilder) WithRating(score int) *BookingBuilder {
	b.Rating = &booking.Rating{Score: score, RatedAt: b.CreatedAt}
	return b
}

func (b *BookingBuilder) WithNotes(notes string) *BookingBuilder {
	b.Notes = notes
	return b
}

func (b *BookingBuilder) WithCreatedAt(t time.Time) *BookingBuilder {
	b.CreatedAt = t
	return b
}
