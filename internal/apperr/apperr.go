// Package apperr defines the domain error taxonomy shared by all services.
// Stores return plain sentinel errors; services translate them into *Error
// values carrying a Kind and, where useful, the current lifecycle state so
// handlers can render a specific message instead of a generic failure.
package apperr

import "net/http"

// Kind classifies a domain error for callers and the HTTP adapter.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindPermission        Kind = "PERMISSION"
	KindState             Kind = "STATE"
	KindConflict          Kind = "CONFLICT"
	KindCapacityExceeded  Kind = "CAPACITY_EXCEEDED"
	KindAlreadyRegistered Kind = "ALREADY_REGISTERED"
	KindNotFound          Kind = "NOT_FOUND"
	KindEventMismatch     Kind = "EVENT_MISMATCH"
	KindInvalidToken      Kind = "INVALID_TOKEN"
	KindAlreadyCheckedOut Kind = "ALREADY_CHECKED_OUT"
	KindIneligible        Kind = "INELIGIBLE"
)

// Error is a structured domain error. State holds the lifecycle state that
// made the operation invalid, when one exists.
type Error struct {
	Kind    Kind
	Message string
	State   string
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes errors.Is match two *Error values by Kind, so services and tests
// can compare against sentinel-style constructors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithState builds an error annotated with the current lifecycle state.
func WithState(kind Kind, message, state string) *Error {
	return &Error{Kind: kind, Message: message, State: state}
}

// HTTPStatus maps an error kind to the status an HTTP adapter should return.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidToken:
		return http.StatusBadRequest
	case KindState, KindConflict, KindCapacityExceeded, KindAlreadyRegistered,
		KindEventMismatch, KindAlreadyCheckedOut, KindIneligible:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
