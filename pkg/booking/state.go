// Package booking drives a session through the viewing-booking flow.
//
// The flow is a small state machine (see AllowedTransitions). Every
// operation checks its guard before touching the session, so a rejected
// action leaves the session exactly as it was.
package booking

import "github.com/propertytek/rentbot/pkg/domain"

// AllowedTransitions represents the booking flow as code.
var AllowedTransitions = map[domain.BookingState][]domain.BookingState{
	domain.BookingNone:      {domain.BookingOffered},
	domain.BookingOffered:   {domain.BookingSelected, domain.BookingOffered, domain.BookingCancelled},
	domain.BookingSelected:  {domain.BookingIntake, domain.BookingOffered, domain.BookingCancelled},
	domain.BookingIntake:    {domain.BookingComplete, domain.BookingCancelled},
	domain.BookingComplete:  {domain.BookingNone},
	domain.BookingCancelled: {domain.BookingNone},
}

// CanTransition reports whether the flow may move from one state to another.
func CanTransition(from, to domain.BookingState) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Reselect rejects moving the session's selection away from the property an
// active booking was opened for.
func Reselect(s *domain.Session, propertyID string) error {
	switch state(s) {
	case domain.BookingOffered, domain.BookingSelected, domain.BookingIntake:
		if s.Booking.PropertyID != "" && propertyID != s.Booking.PropertyID {
			return invalid(MsgBusy)
		}
	}
	return nil
}

func state(s *domain.Session) domain.BookingState {
	if s.Booking.State == "" {
		return domain.BookingNone
	}
	return s.Booking.State
}
