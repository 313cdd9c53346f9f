package middleware

import (
	"context"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactionMiddleware struct {
	next   ports.SessionStore
	fields []domain.IntakeField
}

// NewRedactionMiddleware masks the given contact fields of sessions whose
// booking is complete or cancelled. Sessions still collecting details are
// stored untouched so the intake can continue. With no fields, email and
// phone are masked.
func NewRedactionMiddleware(fields ...domain.IntakeField) Middleware {
	if len(fields) == 0 {
		fields = []domain.IntakeField{domain.FieldEmail, domain.FieldPhone}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next, fields: fields}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, userID string, sess *domain.Session) error {
	if !sess.Booking.State.Terminal() {
		return m.next.Save(ctx, userID, sess)
	}

	// Clone so the caller's in-memory session keeps the real values.
	cloned := sess.Clone()
	if cloned.Booking.Intake != nil {
		m.mask(&cloned.Booking.Intake.Contact)
	}
	if cloned.Appointment != nil {
		m.mask(&cloned.Appointment.Contact)
	}
	return m.next.Save(ctx, userID, cloned)
}

func (m *redactionMiddleware) mask(c *domain.Contact) {
	for _, f := range m.fields {
		if c.Get(f) != "" {
			c.Set(f, Mask)
		}
	}
}

func (m *redactionMiddleware) Load(ctx context.Context, userID string) (*domain.Session, error) {
	return m.next.Load(ctx, userID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, userID string) error {
	return m.next.Delete(ctx, userID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) Evict(ctx context.Context) (int, error) {
	return m.next.Evict(ctx)
}
