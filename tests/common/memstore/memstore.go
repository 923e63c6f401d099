//go:build unit || e2e

// Package memstore is an in-memory implementation of the unit of work used by
// use case tests. Write transactions are serialized and roll back on error.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrPetNotFound      = errs.NotFound("pet not found")
	ErrServiceNotFound  = errs.NotFound("service not found")
	ErrEmployeeNotFound = errs.NotFound("employee not found")
	ErrCustomerNotFound = errs.NotFound("customer not found")
	ErrBookingNotFound  = errs.NotFound("booking not found")
)

type EmployeeRow struct {
	shared.EmployeeSnapshot
	CreatedAt time.Time
}

type data struct {
	pets      map[uuid.UUID]shared.PetSnapshot
	services  map[uuid.UUID]shared.ServiceSnapshot
	employees map[uuid.UUID]EmployeeRow
	customers map[uuid.UUID]shared.CustomerSnapshot
	templates []schedule.ShiftTemplate
	overrides []schedule.ShiftOverride
	breaks    []schedule.BreakTemplate
	bookings  map[uuid.UUID]booking.State
}

func (d *data) clone() *data {
	c := &data{
		pets:      make(map[uuid.UUID]shared.PetSnapshot, len(d.pets)),
		services:  make(map[uuid.UUID]shared.ServiceSnapshot, len(d.services)),
		employees: make(map[uuid.UUID]EmployeeRow, len(d.employees)),
		customers: make(map[uuid.UUID]shared.CustomerSnapshot, len(d.customers)),
		templates: slices.Clone(d.templates),
		overrides: slices.Clone(d.overrides),
		breaks:    slices.Clone(d.breaks),
		bookings:  make(map[uuid.UUID]booking.State, len(d.bookings)),
	}
	maps.Copy(c.pets, d.pets)
	maps.Copy(c.services, d.services)
	maps.Copy(c.employees, d.employees)
	maps.Copy(c.customers, d.customers)
	maps.Copy(c.bookings, d.bookings)
	return c
}

// Store is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	data *data

	// FailSchedulesFor makes schedule lookups for the employee fail. Set it
	// before starting a unit of work.
	FailSchedulesFor map[uuid.UUID]error
	// Reads counts read-only units of work.
	Reads int
	// Locks records every LockEmployeeDay call as "employee/date".
	Locks []string
}

func New() *Store {
	return &Store{
		data: &data{
			pets:      map[uuid.UUID]shared.PetSnapshot{},
			services:  map[uuid.UUID]shared.ServiceSnapshot{},
			employees: map[uuid.UUID]EmployeeRow{},
			customers: map[uuid.UUID]shared.CustomerSnapshot{},
			bookings:  map[uuid.UUID]booking.State{},
		},
		FailSchedulesFor: map[uuid.UUID]error{},
	}
}

var _ shared.UnitOfWork = (*Store)(nil)

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	tx := &txView{store: s, data: working, failures: maps.Clone(s.FailSchedulesFor)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *Store) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, repos shared.Repositories) error) error {
	s.mu.Lock()
	s.Reads++
	view := &txView{store: s, data: s.data.clone(), failures: maps.Clone(s.FailSchedulesFor), readOnly: true}
	s.mu.Unlock()

	return fn(ctx, view)
}

// Seeding and inspection helpers. They bypass transactions.

func (s *Store) PutPet(p shared.PetSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.pets[p.ID] = p
}

func (s *Store) PutService(svc shared.ServiceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.services[svc.ID] = svc
}

func (s *Store) PutEmployee(e shared.EmployeeSnapshot, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.employees[e.ID] = EmployeeRow{EmployeeSnapshot: e, CreatedAt: createdAt}
}

func (s *Store) PutCustomer(c shared.CustomerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.customers[c.ID] = c
}

func (s *Store) PutTemplate(t schedule.ShiftTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.templates = append(s.data.templates, t)
}

func (s *Store) PutOverride(o schedule.ShiftOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.overrides = append(s.data.overrides, o)
}

func (s *Store) PutBreak(b schedule.BreakTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.breaks = append(s.data.breaks, b)
}

func (s *Store) PutBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.bookings[b.ID()] = b.State()
}

func (s *Store) Booking(id uuid.UUID) (*booking.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.bookings[id]
	if !ok {
		return nil, false
	}
	return booking.Reconstruct(st), true
}

func (s *Store) Bookings() []*booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*booking.Booking, 0, len(s.data.bookings))
	for _, st := range s.data.bookings {
		out = append(out, booking.Reconstruct(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out
}

func (s *Store) Employee(id uuid.UUID) shared.EmployeeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.employees[id].EmployeeSnapshot
}

func (s *Store) Customer(id uuid.UUID) shared.CustomerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.customers[id]
}

type txView struct {
	store    *Store
	data     *data
	failures map[uuid.UUID]error
	readOnly bool
}

var _ shared.Tx = (*txView)(nil)

func (t *txView) Pets() shared.PetRepository           { return petRepo{t} }
func (t *txView) Services() shared.ServiceRepository   { return serviceRepo{t} }
func (t *txView) Employees() shared.EmployeeRepository { return employeeRepo{t} }
func (t *txView) Customers() shared.CustomerRepository { return customerRepo{t} }
func (t *txView) Schedules() shared.ScheduleRepository { return scheduleRepo{t} }
func (t *txView) Bookings() shared.BookingRepository   { return bookingRepo{t} }

// LockEmployeeDay only records the call; Within already holds the store lock.
func (t *txView) LockEmployeeDay(_ context.Context, employeeID uuid.UUID, date schedule.Date) error {
	t.store.Locks = append(t.store.Locks, employeeID.String()+"/"+date.String())
	return nil
}

func (t *txView) mustWrite() error {
	if t.readOnly {
		return errs.New("write inside a read-only unit of work")
	}
	return nil
}

type petRepo struct{ t *txView }

func (r petRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.PetSnapshot, error) {
	p, ok := r.t.data.pets[id]
	if !ok {
		return nil, ErrPetNotFound
	}
	return &p, nil
}

type serviceRepo struct{ t *txView }

func (r serviceRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	s, ok := r.t.data.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	s.RequiredSpecialties = slices.Clone(s.RequiredSpecialties)
	return &s, nil
}

type employeeRepo struct{ t *txView }

func (r employeeRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.EmployeeSnapshot, error) {
	e, ok := r.t.data.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	snap := e.EmployeeSnapshot
	snap.Specialties = slices.Clone(snap.Specialties)
	return &snap, nil
}

func (r employeeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*shared.EmployeeSnapshot, error) {
	return r.FindByID(ctx, id)
}

func (r employeeRepo) ListBookable(_ context.Context, specialties []string, limit int) ([]*shared.EmployeeSnapshot, error) {
	rows := make([]EmployeeRow, 0, len(r.t.data.employees))
	for _, e := range r.t.data.employees {
		if e.Role != shared.EmployeeRoleEmployee || e.Status != shared.EmployeeStatusActive || !e.AcceptingBookings || e.VacationMode {
			continue
		}
		if !shared.HasAnySpecialty(e.Specialties, specialties) {
			continue
		}
		rows = append(rows, e)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*shared.EmployeeSnapshot, len(rows))
	for i := range rows {
		snap := rows[i].EmployeeSnapshot
		out[i] = &snap
	}
	return out, nil
}

func (r employeeRepo) RecordCompletion(_ context.Context, id uuid.UUID, revenueCents int64) error {
	if err := r.t.mustWrite(); err != nil {
		return err
	}
	e, ok := r.t.data.employees[id]
	if !ok {
		return ErrEmployeeNotFound
	}
	e.CompletedBookings++
	e.TotalRevenueCents += revenueCents
	r.t.data.employees[id] = e
	return nil
}

func (r employeeRepo) UpdateRating(_ context.Context, id uuid.UUID, rating float64) error {
	if err := r.t.mustWrite(); err != nil {
		return err
	}
	e, ok := r.t.data.employees[id]
	if !ok {
		return ErrEmployeeNotFound
	}
	e.Rating = rating
	r.t.data.employees[id] = e
	return nil
}

type customerRepo struct{ t *txView }

func (r customerRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	c, ok := r.t.data.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &c, nil
}

func (r customerRepo) update(id uuid.UUID, fn func(*shared.CustomerSnapshot)) error {
	if err := r.t.mustWrite(); err != nil {
		return err
	}
	c, ok := r.t.data.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	fn(&c)
	r.t.data.customers[id] = c
	return nil
}

func (r customerRepo) IncrementTotalBookings(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(c *shared.CustomerSnapshot) { c.TotalBookings++ })
}

func (r customerRepo) RecordCompletion(_ context.Context, id uuid.UUID, date schedule.Date) error {
	return r.update(id, func(c *shared.CustomerSnapshot) {
		c.CompletedBookings++
		if c.LastBookingDate == nil || date.After(*c.LastBookingDate) {
			d := date
			c.LastBookingDate = &d
		}
	})
}

func (r customerRepo) IncrementCancelled(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(c *shared.CustomerSnapshot) { c.CancelledBookings++ })
}

func (r customerRepo) IncrementNoShow(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(c *shared.CustomerSnapshot) { c.NoShowCount++ })
}

type scheduleRepo struct{ t *txView }

func (r scheduleRepo) injectedFailure(employeeID uuid.UUID) error {
	return r.t.failures[employeeID]
}

func (r scheduleRepo) OverrideFor(_ context.Context, employeeID uuid.UUID, date schedule.Date) (*schedule.ShiftOverride, error) {
	if err := r.injectedFailure(employeeID); err != nil {
		return nil, err
	}
	for _, o := range r.t.data.overrides {
		if o.EmployeeID == employeeID && o.Date.Equal(date) {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (r scheduleRepo) TemplatesFor(_ context.Context, employeeID uuid.UUID, weekday int) ([]schedule.ShiftTemplate, error) {
	if err := r.injectedFailure(employeeID); err != nil {
		return nil, err
	}
	var out []schedule.ShiftTemplate
	for _, t := range r.t.data.templates {
		if t.EmployeeID == employeeID && int(t.DayOfWeek) == weekday {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r scheduleRepo) BreaksFor(_ context.Context, employeeID uuid.UUID) ([]schedule.BreakTemplate, error) {
	if err := r.injectedFailure(employeeID); err != nil {
		return nil, err
	}
	var out []schedule.BreakTemplate
	for _, b := range r.t.data.breaks {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	return out, nil
}

type bookingRepo struct{ t *txView }

func (r bookingRepo) Create(_ context.Context, b *booking.Booking) error {
	if err := r.t.mustWrite(); err != nil {
		return err
	}
	if _, exists := r.t.data.bookings[b.ID()]; exists {
		return errs.Conflict("booking already exists")
	}
	if r.overlaps(b) {
		return errs.Wrap(shared.ErrSlotUnavailable, "exclusion constraint")
	}
	r.t.data.bookings[b.ID()] = b.State()
	return nil
}

func (r bookingRepo) Update(_ context.Context, b *booking.Booking) error {
	if err := r.t.mustWrite(); err != nil {
		return err
	}
	if _, exists := r.t.data.bookings[b.ID()]; !exists {
		return ErrBookingNotFound
	}
	if r.overlaps(b) {
		return errs.Wrap(shared.ErrSlotUnavailable, "exclusion constraint")
	}
	r.t.data.bookings[b.ID()] = b.State()
	return nil
}

// overlaps mirrors the database exclusion constraint.
func (r bookingRepo) overlaps(b *booking.Booking) bool {
	if !b.Status().Occupies() {
		return false
	}
	for id, st := range r.t.data.bookings {
		if id == b.ID() || !st.Status.Occupies() {
			continue
		}
		if st.EmployeeID != b.EmployeeID() || !st.ScheduledDate.Equal(b.ScheduledDate()) {
			continue
		}
		other := schedule.Interval{Start: st.StartTime, End: st.EndTime}
		if other.Overlaps(b.Slot()) {
			return true
		}
	}
	return false
}

func (r bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	st, ok := r.t.data.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return booking.Reconstruct(st), nil
}

func (r bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r bookingRepo) OccupiedIntervals(_ context.Context, employeeID uuid.UUID, date schedule.Date, excludeID uuid.UUID) ([]schedule.Interval, error) {
	out := []schedule.Interval{}
	for id, st := range r.t.data.bookings {
		if id == excludeID || !st.Status.Occupies() {
			continue
		}
		if st.EmployeeID == employeeID && st.ScheduledDate.Equal(date) {
			out = append(out, schedule.Interval{Start: st.StartTime, End: st.EndTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r bookingRepo) CountNoShowsSince(_ context.Context, customerID uuid.UUID, since schedule.Date) (int, error) {
	n := 0
	for _, st := range r.t.data.bookings {
		if st.CustomerID == customerID && st.Status == booking.StatusNoShow && !st.ScheduledDate.Before(since) {
			n++
		}
	}
	return n, nil
}
