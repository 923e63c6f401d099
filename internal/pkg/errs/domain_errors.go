package errs

import "errors"

// Kind classifies a failure independently of where it was raised.
// Handlers translate kinds into HTTP statuses.
type Kind string

const (
	KindUnknown      Kind = ""
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindInvalidState Kind = "INVALID_STATE"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION"
)

type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) ErrorKind() Kind { return e.kind }

// Kinded is implemented by errors that carry a Kind, including infra errors.
type Kinded interface {
	ErrorKind() Kind
}

func NotFound(msg string) error     { return &Error{kind: KindNotFound, msg: msg} }
func Forbidden(msg string) error    { return &Error{kind: KindForbidden, msg: msg} }
func InvalidState(msg string) error { return &Error{kind: KindInvalidState, msg: msg} }
func Conflict(msg string) error     { return &Error{kind: KindConflict, msg: msg} }
func Validation(msg string) error   { return &Error{kind: KindValidation, msg: msg} }

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	ErrDomainValidation        = Validation("domain validation error")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
