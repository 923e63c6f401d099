package response

import (
	"time"

	"petcare-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ServiceSnapshotResponse struct {
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	DurationMin int    `json:"durationMin"`
	Category    string `json:"category"`
}

type StatusHistoryResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy uuid.UUID `json:"changedBy"`
	Reason    string    `json:"reason,omitempty"`
}

type BookingResponse struct {
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
	Service               ServiceSnapshotResponse `json:"service"`
	Status                string                  `json:"status"`
	PaymentStatus         string                  `json:"paymentStatus"`
	StatusHistory         []StatusHistoryResponse `json:"statusHistory"`
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

type CreateBookingResponse struct {
	Booking      *BookingResponse `json:"booking"`
	AutoAssigned bool             `json:"autoAssigned"`
}

type BookingListItemResponse struct {
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

type BookingListResponse struct {
	Bookings   []BookingListItemResponse `json:"bookings"`
	NextCursor *string                   `json:"nextCursor"`
}

type BookingStatisticsResponse struct {
	Total                 int            `json:"total"`
	ByStatus              map[string]int `json:"byStatus"`
	CompletedRevenueCents int64          `json:"completedRevenueCents"`
	RatedCount            int            `json:"ratedCount"`
	AverageRating         *float64       `json:"averageRating,omitempty"`
}

type SlotResponse struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

type AvailabilityResponse struct {
	EmployeeID uuid.UUID      `json:"employeeId"`
	ServiceID  uuid.UUID      `json:"serviceId"`
	Date       string         `json:"date"`
	Slots      []SlotResponse `json:"slots"`
}

var deepCopy = copier.Option{DeepCopy: true}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copier.CopyWithOption(&resp, v, deepCopy); err != nil {
		return nil, err
	}
	if resp.StatusHistory == nil {
		resp.StatusHistory = []StatusHistoryResponse{}
	}
	return &resp, nil
}

func FromBookingList(items []*queries.BookingListItem, next *queries.Cursor) (*BookingListResponse, error) {
	resp := BookingListResponse{Bookings: make([]BookingListItemResponse, 0, len(items))}
	for _, item := range items {
		var row BookingListItemResponse
		if err := copier.Copy(&row, item); err != nil {
			return nil, err
		}
		resp.Bookings = append(resp.Bookings, row)
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	return &resp, nil
}

func FromBookingStatistics(s *queries.BookingStatistics) (*BookingStatisticsResponse, error) {
	var resp BookingStatisticsResponse
	if err := copier.CopyWithOption(&resp, s, deepCopy); err != nil {
		return nil, err
	}
	if resp.ByStatus == nil {
		resp.ByStatus = map[string]int{}
	}
	return &resp, nil
}

func FromSlots(employeeID, serviceID uuid.UUID, date string, slots []queries.SlotView) (*AvailabilityResponse, error) {
	resp := AvailabilityResponse{EmployeeID: employeeID, ServiceID: serviceID, Date: date}
	if err := copier.Copy(&resp.Slots, slots); err != nil {
		return nil, err
	}
	if resp.Slots == nil {
		resp.Slots = []SlotResponse{}
	}
	return &resp, nil
}
