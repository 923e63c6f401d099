package commands

import (
	"time"

	"github.com/google/uuid"
)

// BookingSettings holds the business rules that vary by deployment.
type BookingSettings struct {
	Location                *time.Location
	CancellationLeadTime    time.Duration
	RescheduleLeadTime      time.Duration
	NoShowWindowDays        int
	NoShowLimit             int
	MaxAssignmentCandidates int
}

func DefaultBookingSettings(loc *time.Location) BookingSettings {
	return BookingSettings{
		Location:                loc,
		CancellationLeadTime:    24 * time.Hour,
		RescheduleLeadTime:      24 * time.Hour,
		NoShowWindowDays:        90,
		NoShowLimit:             3,
		MaxAssignmentCandidates: 20,
	}
}

type CreateBookingRequest struct {
	PetID      uuid.UUID
	ServiceID  uuid.UUID
	EmployeeID *uuid.UUID
	Date       string
	StartTime  string
	Notes      string
}

type CreateBookingResult struct {
	BookingID    uuid.UUID
	EmployeeID   uuid.UUID
	AutoAssigned bool
}

// UpdateBookingRequest reschedules a booking. Nil fields are left unchanged.
type UpdateBookingRequest struct {
	Date       *string
	StartTime  *string
	EmployeeID *uuid.UUID
	Notes      *string
}

type CancelBookingRequest struct {
	Reason string
	// Initiator defaults to the requester's role.
	Initiator string
}

type UpdateStatusRequest struct {
	Status string
	Reason string
}

type AddRatingRequest struct {
	Score    int
	Feedback string
}
