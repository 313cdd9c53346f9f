package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookedSession(userID string, state domain.BookingState) *domain.Session {
	s := domain.NewSession(userID, time.Now())
	s.Booking.State = state
	s.Booking.Intake = domain.NewIntake()
	s.Booking.Intake.Contact = domain.Contact{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Phone: "5551234567",
		Pets:  "one cat",
	}
	return s
}

func TestRedactionMiddleware_MasksFinishedBookings(t *testing.T) {
	underlyingStore := NewMockStore()
	store := middleware.NewRedactionMiddleware()(underlyingStore)
	ctx := context.Background()

	sess := bookedSession("u1", domain.BookingComplete)
	sess.Appointment = &domain.Appointment{ID: "a1", Contact: sess.Booking.Intake.Contact}

	require.NoError(t, store.Save(ctx, "u1", sess))

	// The caller's session is not modified.
	assert.Equal(t, "jane@example.com", sess.Booking.Intake.Contact.Email)

	stored, err := underlyingStore.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Booking.Intake.Contact.Name)
	assert.Equal(t, middleware.Mask, stored.Booking.Intake.Contact.Email)
	assert.Equal(t, middleware.Mask, stored.Booking.Intake.Contact.Phone)
	assert.Equal(t, middleware.Mask, stored.Appointment.Contact.Email)
}

func TestRedactionMiddleware_KeepsIntakeInProgress(t *testing.T) {
	underlyingStore := NewMockStore()
	store := middleware.Chain(underlyingStore, middleware.NewRedactionMiddleware(domain.FieldName))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", bookedSession("u1", domain.BookingIntake)))

	stored, err := underlyingStore.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Booking.Intake.Contact.Name)
}
