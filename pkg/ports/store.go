package ports

import (
	"context"

	"github.com/propertytek/rentbot/pkg/domain"
)

// SessionStore persists conversation sessions keyed by user_id.
type SessionStore interface {
	// Save creates or replaces the session for a given user ID.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a given user ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session for a given user ID.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of live sessions.
	List(ctx context.Context) ([]string, error)

	// Evict drops sessions that are idle past the store's TTL or over its
	// capacity bound and reports how many were removed.
	Evict(ctx context.Context) (int, error)
}

// HistoryStore keeps a capped transcript per user.
type HistoryStore interface {
	Append(ctx context.Context, userID string, msgs ...domain.Message) error

	// Recent returns at most n messages, oldest first.
	Recent(ctx context.Context, userID string, n int) ([]domain.Message, error)
}

// AppointmentSink receives confirmed appointments.
type AppointmentSink interface {
	Record(ctx context.Context, appt domain.Appointment) error
}
