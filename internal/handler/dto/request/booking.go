package request

import (
	"petcare-booking/internal/domain/booking"
	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/pkg/patch"
	"petcare-booking/internal/usecase/commands"
	"petcare-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	PetID      uuid.UUID  `json:"petId" binding:"required"`
	ServiceID  uuid.UUID  `json:"serviceId" binding:"required"`
	EmployeeID *uuid.UUID `json:"employeeId"`
	Date       string     `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime  string     `json:"startTime" binding:"required,datetime=15:04"`
	Notes      string     `json:"notes" binding:"max=1000"`
}

func (r *CreateBookingRequest) ToCommand() commands.CreateBookingRequest {
	return commands.CreateBookingRequest{
		PetID:      r.PetID,
		ServiceID:  r.ServiceID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		Notes:      r.Notes,
	}
}

// UpdateBookingRequest is a partial update; omitted fields keep their value.
type UpdateBookingRequest struct {
	Date       *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartTime  *string    `json:"startTime" binding:"omitempty,datetime=15:04"`
	EmployeeID *uuid.UUID `json:"employeeId"`
	Notes      *string    `json:"notes" binding:"omitempty,max=1000"`
}

func (r *UpdateBookingRequest) ToCommand() commands.UpdateBookingRequest {
	return commands.UpdateBookingRequest{
		Date:       r.Date,
		StartTime:  r.StartTime,
		EmployeeID: r.EmployeeID,
		Notes:      r.Notes,
	}
}

func (r *UpdateBookingRequest) IsEmpty() bool {
	return r.Date == nil && r.StartTime == nil && r.EmployeeID == nil && r.Notes == nil
}

type CancelBookingRequest struct {
	Reason    string `json:"reason" binding:"required,max=500"`
	Initiator string `json:"initiator" binding:"omitempty,oneof=customer employee admin system"`
}

func (r *CancelBookingRequest) ToCommand() commands.CancelBookingRequest {
	return commands.CancelBookingRequest{Reason: r.Reason, Initiator: r.Initiator}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

func (r *UpdateStatusRequest) ToCommand() commands.UpdateStatusRequest {
	return commands.UpdateStatusRequest{Status: r.Status, Reason: r.Reason}
}

type AddRatingRequest struct {
	Score    int    `json:"score" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback" binding:"max=1000"`
}

func (r *AddRatingRequest) ToCommand() commands.AddRatingRequest {
	return commands.AddRatingRequest{Score: r.Score, Feedback: r.Feedback}
}

type ListBookingsQuery struct {
	CustomerID string `form:"customerId" binding:"omitempty,uuid"`
	EmployeeID string `form:"employeeId" binding:"omitempty,uuid"`
	Status     string `form:"status"`
	DateFrom   string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
	Limit      *int   `form:"limit" binding:"omitempty,min=1,max=200"`
	After      string `form:"after"`
}

func (q *ListBookingsQuery) ToFilters() (queries.BookingFilters, error) {
	var f queries.BookingFilters
	var err error
	if f.CustomerID, err = optionalUUID(q.CustomerID); err != nil {
		return queries.BookingFilters{}, err
	}
	if f.EmployeeID, err = optionalUUID(q.EmployeeID); err != nil {
		return queries.BookingFilters{}, err
	}
	if q.Status != "" {
		status, err := booking.ParseStatus(q.Status)
		if err != nil {
			return queries.BookingFilters{}, err
		}
		f.Status = &status
	}
	if f.DateFrom, err = optionalDate(q.DateFrom); err != nil {
		return queries.BookingFilters{}, err
	}
	if f.DateTo, err = optionalDate(q.DateTo); err != nil {
		return queries.BookingFilters{}, err
	}
	return f, nil
}

func (q *ListBookingsQuery) PageLimit() int {
	return patch.Coalesce(q.Limit, queries.DefaultListLimit)
}

func (q *ListBookingsQuery) Cursor() *queries.Cursor {
	if q.After == "" {
		return nil
	}
	return &queries.Cursor{After: q.After}
}

type AvailabilityQuery struct {
	Date      string `form:"date" binding:"required"`
	ServiceID string `form:"serviceId" binding:"required,uuid"`
}

func optionalDate(s string) (*schedule.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDomainValidation, err.Error())
	}
	return &d, nil
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDomainValidation, err.Error())
	}
	return &id, nil
}
