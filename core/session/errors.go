package session

import "github.com/pkg/errors"

type Reason string

const (
	ReasonMalformed       Reason = "malformed token"
	ReasonExpired         Reason = "session expired"
	ReasonVersionMismatch Reason = "token version mismatch"
	ReasonLookupFailed    Reason = "profile lookup failed"
)

// InvalidSessionError is returned for any session that cannot be trusted.
// Callers handle every Reason the same way: back to the login page.
type InvalidSessionError struct {
	Reason Reason
	Cause  error
}

func NewInvalidSessionError(reason Reason, cause error) error {
	return &InvalidSessionError{Reason: reason, Cause: cause}
}

func (e *InvalidSessionError) Error() string {
	if e.Cause != nil {
		return "invalid session: " + string(e.Reason) + ": " + e.Cause.Error()
	}
	return "invalid session: " + string(e.Reason)
}

func (e *InvalidSessionError) Unwrap() error { return e.Cause }

func IsInvalidSession(err error) bool {
	_, ok := errors.Cause(err).(*InvalidSessionError)
	return ok
}
