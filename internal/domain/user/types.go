package user

import "petcare-booking/internal/pkg/errs"

var ErrInvalidRole = errs.Validation("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func NewRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string { return string(r) }

func (r Role) IsStaff() bool { return r == RoleEmployee || r == RoleAdmin }
