package booking

import (
	"petcare-booking/internal/pkg/errs"
)

var (
	ErrInvalidStatus          = errs.Validation("invalid booking status")
	ErrInvalidTransition      = errs.InvalidState("status transition not allowed")
	ErrInvalidInitiator       = errs.Validation("cancellation initiator must be customer, employee, admin or system")
	ErrInitiatorRequired      = errs.Validation("cancellation requires an initiator")
	ErrCancellationTooLate    = errs.InvalidState("customers must cancel at least 24 hours before the scheduled start")
	ErrRescheduleTooLate      = errs.InvalidState("bookings can only be rescheduled at least 24 hours before the scheduled start")
	ErrNotReschedulable       = errs.InvalidState("only pending or confirmed bookings can be rescheduled")
	ErrNoShowBeforeStart      = errs.InvalidState("no-show can only be recorded after the scheduled start")
	ErrNotCompleted           = errs.InvalidState("only completed bookings can be rated")
	ErrAlreadyRated           = errs.InvalidState("booking has already been rated")
	ErrInvalidRating          = errs.Validation("rating must be between 1 and 5")
	ErrFeedbackTooLong        = errs.Validation("feedback exceeds maximum length")
	ErrNotesTooLong           = errs.Validation("notes exceed maximum length")
	ErrInvalidDuration        = errs.Validation("service duration must be at least 15 minutes")
	ErrNotBookingOwner        = errs.Forbidden("booking belongs to another customer")
	ErrNotAssignedEmployee    = errs.Forbidden("booking is assigned to another employee")
	ErrStatusChangeNotAllowed = errs.Forbidden("role may not set this status")
	ErrInitiatorMismatch      = errs.Forbidden("initiator does not match the requester role")
)

const (
	MinDurationMin    = 15
	MaxFeedbackLength = 1000
	MaxNotesLength    = 1000
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// OccupyingStatuses are the states in which a booking holds its slot.
var OccupyingStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return st, nil
	default:
		return "", errs.Wrapf(ErrInvalidStatus, "%q", s)
	}
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool { return len(transitions[s]) == 0 }

func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

func (s Status) String() string { return string(s) }

type CancellationInitiator string

const (
	InitiatorCustomer CancellationInitiator = "customer"
	InitiatorEmployee CancellationInitiator = "employee"
	InitiatorAdmin    CancellationInitiator = "admin"
	InitiatorSystem   CancellationInitiator = "system"
)

func ParseInitiator(s string) (CancellationInitiator, error) {
	switch i := CancellationInitiator(s); i {
	case InitiatorCustomer, InitiatorEmployee, InitiatorAdmin, InitiatorSystem:
		return i, nil
	case "":
		return "", ErrInitiatorRequired
	default:
		return "", errs.Wrapf(ErrInvalidInitiator, "%q", s)
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)
