package user

import "github.com/google/uuid"

// Requester is the authenticated identity behind a call.
type Requester struct {
	ID   uuid.UUID
	Role Role
}

func NewRequester(id uuid.UUID, role Role) Requester {
	return Requester{ID: id, Role: role}
}

func (r Requester) IsAdmin() bool    { return r.Role == RoleAdmin }
func (r Requester) IsEmployee() bool { return r.Role == RoleEmployee }
func (r Requester) IsCustomer() bool { return r.Role == RoleCustomer }
