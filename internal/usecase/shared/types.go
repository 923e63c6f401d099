package shared

import (
	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	EmployeeRoleEmployee = "employee"
	EmployeeStatusActive = "active"
)

var (
	ErrEmployeeNotBookable     = errs.Validation("staff member does not take bookings")
	ErrEmployeeUnavailable     = errs.Conflict("employee is not accepting bookings")
	ErrEmployeeSpecialty       = errs.Validation("employee lacks the specialties required by the service")
	ErrServiceInactive         = errs.Validation("service is inactive")
	ErrPetInactive             = errs.Validation("pet is inactive")
	ErrPetNotOwned             = errs.Forbidden("pet belongs to another customer")
	ErrSlotUnavailable         = errs.Conflict("requested time slot is not available")
	ErrNoShowLimitExceeded     = errs.Conflict("too many no-shows in the recent period")
	ErrNoEmployeeAvailable     = errs.Conflict("no employee is available for the requested time")
	ErrAssignmentScanExhausted = errs.New("no candidate employee could be evaluated")
)

type PetSnapshot struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Name     string
	IsActive bool
}

type ServiceSnapshot struct {
	ID                  uuid.UUID
	Name                string
	Category            string
	DurationMin         int
	PriceCents          int64
	RequiredSpecialties []string
	IsActive            bool
}

// Frozen returns the write-once copy stored on a booking.
func (s ServiceSnapshot) Frozen() booking.ServiceSnapshot {
	return booking.ServiceSnapshot{
		Name:        s.Name,
		PriceCents:  s.PriceCents,
		DurationMin: s.DurationMin,
		Category:    s.Category,
	}
}

type EmployeeSnapshot struct {
	ID                uuid.UUID
	Name              string
	Role              string
	Status            string
	Specialties       []string
	AcceptingBookings bool
	VacationMode      bool
	Rating            float64
	CompletedBookings int
	TotalRevenueCents int64
}

// CheckBookable reports why the employee cannot take a booking for service, if at all.
func (e EmployeeSnapshot) CheckBookable(service ServiceSnapshot) error {
	if e.Role != EmployeeRoleEmployee {
		return ErrEmployeeNotBookable
	}
	if e.Status != EmployeeStatusActive || !e.AcceptingBookings || e.VacationMode {
		return ErrEmployeeUnavailable
	}
	if !HasAnySpecialty(e.Specialties, service.RequiredSpecialties) {
		return ErrEmployeeSpecialty
	}
	return nil
}

// HasAnySpecialty is true when required is empty or shares an entry with have.
func HasAnySpecialty(have, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		for _, h := range have {
			if h == r {
				return true
			}
		}
	}
	return false
}

type CustomerSnapshot struct {
	ID                uuid.UUID
	TotalBookings     int
	CompletedBookings int
	CancelledBookings int
	NoShowCount       int
	LastBookingDate   *schedule.Date
}
