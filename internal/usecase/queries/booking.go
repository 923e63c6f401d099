package queries

import (
	"context"

	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingAccessDenied = errs.Forbidden("booking is not visible to the requester")
	ErrScopeViolation      = errs.Forbidden("filter outside the requester's scope")
	ErrInvalidDateRange    = errs.Validation("dateFrom must not be after dateTo")
	ErrInvalidCursor       = errs.Validation("invalid cursor")
)

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	// List returns bookings newest first. after is a keyset position or nil.
	List(ctx context.Context, f BookingFilters, after *KeysetPosition, limit int) ([]*BookingListItem, error)
	Statistics(ctx context.Context, f BookingFilters) (*BookingStatistics, error)
}

type BookingQueries interface {
	GetBookings(ctx context.Context, requester user.Requester, f BookingFilters, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
	GetBookingByID(ctx context.Context, id uuid.UUID, requester user.Requester) (*BookingView, error)
	GetStatistics(ctx context.Context, requester user.Requester, f BookingFilters) (*BookingStatistics, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetBookings(ctx context.Context, requester user.Requester, f BookingFilters, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	scoped, err := scopeFilters(requester, f)
	if err != nil {
		return nil, nil, err
	}

	var pos *KeysetPosition
	if after != nil && after.After != "" {
		createdAt, id, decErr := DecodeAfterCursor(after.After)
		if decErr != nil {
			return nil, nil, errs.Wrap(ErrInvalidCursor, decErr.Error())
		}
		pos = &KeysetPosition{CreatedAt: createdAt, ID: id}
	}

	limit = ValidateLimit(limit)
	items, err := q.store.List(ctx, scoped, pos, limit+1)
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return items, next, nil
}

func (q *bookingQueriesImpl) GetBookingByID(ctx context.Context, id uuid.UUID, requester user.Requester) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(requester, view) {
		return nil, ErrBookingAccessDenied
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetStatistics(ctx context.Context, requester user.Requester, f BookingFilters) (*BookingStatistics, error) {
	scoped, err := scopeFilters(requester, f)
	if err != nil {
		return nil, err
	}
	return q.store.Statistics(ctx, scoped)
}

func canView(r user.Requester, v *BookingView) bool {
	switch r.Role {
	case user.RoleAdmin:
		return true
	case user.RoleEmployee:
		return v.EmployeeID == r.ID
	case user.RoleCustomer:
		return v.CustomerID == r.ID
	default:
		return false
	}
}

// scopeFilters pins customers to their own bookings and employees to their
// assignments. Admins keep the filters they asked for.
func scopeFilters(r user.Requester, f BookingFilters) (BookingFilters, error) {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return BookingFilters{}, ErrInvalidDateRange
	}

	id := r.ID
	switch r.Role {
	case user.RoleAdmin:
		return f, nil
	case user.RoleCustomer:
		if f.CustomerID != nil && *f.CustomerID != r.ID {
			return BookingFilters{}, ErrScopeViolation
		}
		f.CustomerID = &id
		return f, nil
	case user.RoleEmployee:
		if f.EmployeeID != nil && *f.EmployeeID != r.ID {
			return BookingFilters{}, ErrScopeViolation
		}
		f.EmployeeID = &id
		return f, nil
	default:
		return BookingFilters{}, ErrScopeViolation
	}
}
