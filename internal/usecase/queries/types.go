package queries

import (
	"time"

	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"

	"github.com/google/uuid"
)

type SlotView struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

// BookingView represents read-optimized booking data
type BookingView struct {
	ID                    uuid.UUID               `json:"id"`
	CustomerID            uuid.UUID               `json:"customerId"`
	PetID                 uuid.UUID               `json:"petId"`
	PetName               string                  `json:"petName"`
	EmployeeID            uuid.UUID               `json:"employeeId"`
	EmployeeName          string                  `json:"employeeName"`
	ServiceID             uuid.UUID               `json:"serviceId"`
	ScheduledDate         string                  `json:"scheduledDate"`
	StartTime             string                  `json:"startTime"`
	EndTime               string                  `json:"endTime"`
	DurationMin           int                     `json:"durationMin"`
	Service               booking.ServiceSnapshot `json:"service"`
	Status                string                  `json:"status"`
	PaymentStatus         string                  `json:"paymentStatus"`
	StatusHistory         []booking.HistoryEntry  `json:"statusHistory"`
	CancelledAt           *time.Time              `json:"cancelledAt,omitempty"`
	CancelledBy           *uuid.UUID              `json:"cancelledBy,omitempty"`
	CancellationReason    *string                 `json:"cancellationReason,omitempty"`
	CancellationInitiator *string                 `json:"cancellationInitiator,omitempty"`
	CompletedAt           *time.Time              `json:"completedAt,omitempty"`
	CompletedBy           *uuid.UUID              `json:"completedBy,omitempty"`
	RatingScore           *int                    `json:"ratingScore,omitempty"`
	RatingFeedback        *string                 `json:"ratingFeedback,omitempty"`
	RatedAt               *time.Time              `json:"ratedAt,omitempty"`
	Notes                 string                  `json:"notes"`
	CreatedAt             time.Time               `json:"createdAt"`
	UpdatedAt             time.Time               `json:"updatedAt"`
}

// BookingListItem represents a row of a booking listing
type BookingListItem struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customerId"`
	PetID         uuid.UUID `json:"petId"`
	PetName       string    `json:"petName"`
	EmployeeID    uuid.UUID `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	ServiceName   string    `json:"serviceName"`
	ScheduledDate string    `json:"scheduledDate"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Status        string    `json:"status"`
	PriceCents    int64     `json:"priceCents"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BookingFilters struct {
	CustomerID *uuid.UUID
	EmployeeID *uuid.UUID
	Status     *booking.Status
	DateFrom   *schedule.Date
	DateTo     *schedule.Date
}

type BookingStatistics struct {
	Total                 int            `json:"total"`
	ByStatus              map[string]int `json:"byStatus"`
	CompletedRevenueCents int64          `json:"completedRevenueCents"`
	RatedCount            int            `json:"ratedCount"`
	AverageRating         *float64       `json:"averageRating,omitempty"`
}
