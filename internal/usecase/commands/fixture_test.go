//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/clock"
	"petcare-booking/internal/usecase/commands"
	"petcare-booking/internal/usecase/queries"
	"petcare-booking/internal/usecase/shared"
	"petcare-booking/tests/common/builder"
	"petcare-booking/tests/common/memstore"

	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSink struct {
	mu     sync.Mutex
	events []shared.BookingEvent
}

func (s *recordingSink) Publish(_ context.Context, e shared.BookingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []shared.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shared.EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Get(context.Context, uuid.UUID, schedule.Date, uuid.UUID) ([]schedule.Slot, int64, bool) {
	return nil, -1, false
}

func (c *recordingCache) Set(context.Context, uuid.UUID, schedule.Date, uuid.UUID, int64, []schedule.Slot) {}

func (c *recordingCache) Invalidate(_ context.Context, employeeID uuid.UUID, date schedule.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, employeeID.String()+"/"+date.String())
}

type countingMetrics struct {
	mu          sync.Mutex
	created     map[bool]int
	transitions map[string]int
	rejected    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{created: map[bool]int{}, transitions: map[string]int{}, rejected: map[string]int{}}
}

func (m *countingMetrics) BookingCreated(auto bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[auto]++
}

func (m *countingMetrics) StatusChanged(from, to booking.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[string(from)+"->"+string(to)]++
}

func (m *countingMetrics) BookingRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *countingMetrics) AvailabilityServed(bool) {}

// fixture seeds one customer with a pet, a 60 minute grooming service and a
// groomer working Mondays 09:00-17:00. Bookings target builder.ReferenceDate.
type fixture struct {
	store   *memstore.Store
	clock   *clock.MockClock
	sink    *recordingSink
	cache   *recordingCache
	metrics *countingMetrics
	cmds    commands.BookingCommands

	customer user.Requester
	admin    user.Requester
	petID    uuid.UUID
	service  shared.ServiceSnapshot
	employee shared.EmployeeSnapshot
}

var (
	employeeCreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	effectiveFrom     = schedule.MustParseDate("2026-01-01")
)

func newFixture() *fixture {
	f := &fixture{
		store:    memstore.New(),
		clock:    clock.NewMockClock(builder.ReferenceDate.AddDays(-7).At(schedule.MustParseTimeOfDay("09:00"), builder.BusinessLocation)),
		sink:     &recordingSink{},
		cache:    &recordingCache{},
		metrics:  newCountingMetrics(),
		customer: user.NewRequester(uuid.New(), user.RoleCustomer),
		admin:    user.NewRequester(uuid.New(), user.RoleAdmin),
		petID:    uuid.New(),
	}
	f.service = shared.ServiceSnapshot{
		ID:                  uuid.New(),
		Name:                "Full Grooming",
		Category:            "grooming",
		DurationMin:         60,
		PriceCents:          6500,
		RequiredSpecialties: []string{"grooming"},
		IsActive:            true,
	}
	f.store.PutCustomer(shared.CustomerSnapshot{ID: f.customer.ID})
	f.store.PutPet(shared.PetSnapshot{ID: f.petID, OwnerID: f.customer.ID, Name: "Pochi", IsActive: true})
	f.store.PutService(f.service)
	f.employee = f.addEmployee(employeeCreatedAt, "grooming")

	settings := commands.DefaultBookingSettings(builder.BusinessLocation)
	f.cmds = commands.NewBookingCommands(commands.BookingCommandDeps{
		UoW:      f.store,
		Calc:     queries.NewAvailabilityCalculator(),
		Settings: settings,
		Clock:    f.clock,
		Sink:     f.sink,
		Cache:    f.cache,
		Metrics:  f.metrics,
		Logger:   discardLogger,
	})
	return f
}

func (f *fixture) addEmployee(createdAt time.Time, specialties ...string) shared.EmployeeSnapshot {
	e := shared.EmployeeSnapshot{
		ID:                uuid.New(),
		Name:              "Groomer",
		Role:              shared.EmployeeRoleEmployee,
		Status:            shared.EmployeeStatusActive,
		Specialties:       specialties,
		AcceptingBookings: true,
	}
	f.store.PutEmployee(e, createdAt)
	f.store.PutTemplate(schedule.ShiftTemplate{
		ID:            uuid.New(),
		EmployeeID:    e.ID,
		DayOfWeek:     time.Monday,
		Hours:         schedule.Interval{Start: schedule.MustParseTimeOfDay("09:00"), End: schedule.MustParseTimeOfDay("17:00")},
		EffectiveFrom: effectiveFrom,
		IsActive:      true,
	})
	return e
}

func (f *fixture) employeeRequester() user.Requester {
	return user.NewRequester(f.employee.ID, user.RoleEmployee)
}

func (f *fixture) createRequest(start string) commands.CreateBookingRequest {
	employeeID := f.employee.ID
	return commands.CreateBookingRequest{
		PetID:      f.petID,
		ServiceID:  f.service.ID,
		EmployeeID: &employeeID,
		Date:       builder.ReferenceDate.String(),
		StartTime:  start,
	}
}

// seedBooking stores a booking of the fixture's customer with the fixture's
// employee in status at start on the reference date.
func (f *fixture) seedBooking(status booking.Status, start string) *booking.Booking {
	b := builder.NewBookingBuilder().
		WithCustomerID(f.customer.ID).
		WithPetID(f.petID).
		WithEmployeeID(f.employee.ID).
		WithServiceID(f.service.ID).
		WithStartTime(start).
		WithStatus(status).
		BuildReconstructed()
	f.store.PutBooking(b)
	return b
}

func (f *fixture) at(date schedule.Date, hhmm string) time.Time {
	return date.At(schedule.MustParseTimeOfDay(hhmm), builder.BusinessLocation)
}
