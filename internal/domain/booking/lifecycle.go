package booking

import (
	"strings"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Transition moves b along the status graph and returns the updated copy
// together with the history entry it appended. b itself is never modified.
func Transition(b *Booking, to Status, actor Actor, reason string, now time.Time) (*Booking, HistoryEntry, error) {
	if !CanTransition(b.status, to) {
		return nil, HistoryEntry{}, errs.Wrapf(ErrInvalidTransition, "%s -> %s", b.status, to)
	}

	entry := HistoryEntry{
		Status:    to,
		ChangedAt: now,
		ChangedBy: actor.ID,
		Reason:    strings.TrimSpace(reason),
	}

	next := b.clone()
	next.status = to
	next.history = append(next.history, entry)
	next.updatedAt = now

	if to == StatusCompleted {
		next.completion = &Completion{At: now, By: actor.ID}
	}
	return next, entry, nil
}

type Policy struct {
	Location             *time.Location
	CancellationLeadTime time.Duration
	RescheduleLeadTime   time.Duration
}

func DefaultPolicy(loc *time.Location) Policy {
	return Policy{
		Location:             loc,
		CancellationLeadTime: 24 * time.Hour,
		RescheduleLeadTime:   24 * time.Hour,
	}
}

// Lifecycle layers role and time rules on top of Transition.
type Lifecycle struct {
	policy Policy
}

func NewLifecycle(policy Policy) *Lifecycle {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Lifecycle{policy: policy}
}

func (l *Lifecycle) Policy() Policy { return l.policy }

// ChangeStatus applies every non-cancelling transition.
func (l *Lifecycle) ChangeStatus(b *Booking, to Status, actor Actor, reason string, now time.Time) (*Booking, HistoryEntry, error) {
	if to == StatusCancelled {
		return l.Cancel(b, actor, actor.Initiator(), reason, now)
	}
	if err := authorizeStaffChange(b, actor); err != nil {
		return nil, HistoryEntry{}, err
	}
	if !CanTransition(b.status, to) {
		return nil, HistoryEntry{}, errs.Wrapf(ErrInvalidTransition, "%s -> %s", b.status, to)
	}
	if to == StatusNoShow && now.Before(b.StartsAt(l.policy.Location)) {
		return nil, HistoryEntry{}, ErrNoShowBeforeStart
	}
	return Transition(b, to, actor, reason, now)
}

// Cancel requires an initiator. Customers must cancel before the lead time;
// employees, admins and the system bypass it.
func (l *Lifecycle) Cancel(b *Booking, actor Actor, initiator CancellationInitiator, reason string, now time.Time) (*Booking, HistoryEntry, error) {
	initiator, err := ParseInitiator(string(initiator))
	if err != nil {
		return nil, HistoryEntry{}, err
	}
	if err := authorizeCancel(b, actor, initiator); err != nil {
		return nil, HistoryEntry{}, err
	}
	if !CanTransition(b.status, StatusCancelled) {
		return nil, HistoryEntry{}, errs.Wrapf(ErrInvalidTransition, "%s -> %s", b.status, StatusCancelled)
	}
	if initiator == InitiatorCustomer && b.StartsAt(l.policy.Location).Sub(now) < l.policy.CancellationLeadTime {
		return nil, HistoryEntry{}, ErrCancellationTooLate
	}

	next, entry, err := Transition(b, StatusCancelled, actor, reason, now)
	if err != nil {
		return nil, HistoryEntry{}, err
	}
	next.cancellation = &Cancellation{
		At:        now,
		By:        actor.ID,
		Reason:    entry.Reason,
		Initiator: initiator,
	}
	return next, entry, nil
}

// RescheduleTo is the target of a reschedule. Zero fields keep the current value.
type RescheduleTo struct {
	Date       schedule.Date
	StartTime  *schedule.TimeOfDay
	EmployeeID uuid.UUID
	Notes      *string
}

// CheckReschedulable enforces ownership, status and lead time against the
// current scheduled start.
func (l *Lifecycle) CheckReschedulable(b *Booking, actor Actor, now time.Time) error {
	if actor.Role != user.RoleCustomer || actor.ID != b.customerID {
		return ErrNotBookingOwner
	}
	if b.status != StatusPending && b.status != StatusConfirmed {
		return errs.Wrapf(ErrNotReschedulable, "status %s", b.status)
	}
	if b.StartsAt(l.policy.Location).Sub(now) < l.policy.RescheduleLeadTime {
		return ErrRescheduleTooLate
	}
	return nil
}

// Reschedule returns a copy moved to the target. The end time is recomputed
// from the snapshot duration.
func (l *Lifecycle) Reschedule(b *Booking, actor Actor, to RescheduleTo, now time.Time) (*Booking, error) {
	if err := l.CheckReschedulable(b, actor, now); err != nil {
		return nil, err
	}

	next := b.clone()
	if !to.Date.IsZero() {
		next.scheduledDate = to.Date
	}
	if to.EmployeeID != uuid.Nil {
		next.employeeID = to.EmployeeID
	}
	start := next.slot.Start
	if to.StartTime != nil {
		start = *to.StartTime
	}
	slot, err := SlotFor(start, b.serviceSnapshot.DurationMin)
	if err != nil {
		return nil, err
	}
	next.slot = slot
	if to.Notes != nil {
		notes := strings.TrimSpace(*to.Notes)
		if len(notes) > MaxNotesLength {
			return nil, ErrNotesTooLong
		}
		next.notes = notes
	}
	next.updatedAt = now
	return next, nil
}

// Moved reports whether the date, start time or employee differ.
func Moved(before, after *Booking) bool {
	return !before.scheduledDate.Equal(after.scheduledDate) ||
		before.slot != after.slot ||
		before.employeeID != after.employeeID
}

// Rate records the single rating a completed booking may receive.
func Rate(b *Booking, actor Actor, score int, feedback string, now time.Time) (*Booking, error) {
	if actor.Role != user.RoleCustomer || actor.ID != b.customerID {
		return nil, ErrNotBookingOwner
	}
	if b.status != StatusCompleted {
		return nil, errs.Wrapf(ErrNotCompleted, "status %s", b.status)
	}
	if b.rating != nil {
		return nil, ErrAlreadyRated
	}
	rating, err := NewRating(score, feedback, now)
	if err != nil {
		return nil, err
	}

	next := b.clone()
	next.rating = &rating
	next.updatedAt = now
	return next, nil
}

func authorizeStaffChange(b *Booking, actor Actor) error {
	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleEmployee:
		if actor.ID != b.employeeID {
			return ErrNotAssignedEmployee
		}
		return nil
	default:
		if actor.IsSystem() {
			return nil
		}
		return ErrStatusChangeNotAllowed
	}
}

func authorizeCancel(b *Booking, actor Actor, initiator CancellationInitiator) error {
	// only admins may cancel on behalf of someone else
	if actor.Role != user.RoleAdmin && !actor.IsSystem() && initiator != actor.Initiator() {
		return ErrInitiatorMismatch
	}
	switch actor.Role {
	case user.RoleCustomer:
		if actor.ID != b.customerID {
			return ErrNotBookingOwner
		}
		return nil
	case user.RoleEmployee:
		if actor.ID != b.employeeID {
			return ErrNotAssignedEmployee
		}
		return nil
	default:
		return nil
	}
}
