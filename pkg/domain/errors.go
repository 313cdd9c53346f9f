package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidTurn is returned when an inbound turn cannot be processed at all
// (missing user_id, nothing to act on).
var ErrInvalidTurn = errors.New("invalid turn")

// ErrPropertyNotFound is returned by catalogs for unknown listing IDs.
var ErrPropertyNotFound = errors.New("property not found")

// ErrorKind classifies recoverable conversation errors.
type ErrorKind string

const (
	KindMarketRejected      ErrorKind = "market_rejected"
	KindNoMatch             ErrorKind = "no_match"
	KindValidationFailed    ErrorKind = "validation_failed"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindInvalidAction       ErrorKind = "invalid_action"
)

// Error is a recoverable conversation error. Its Message is safe to show to
// the user.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an *Error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
