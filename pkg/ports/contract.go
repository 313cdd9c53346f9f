package ports

import (
	"context"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(userID, time.Now())
		s.Criteria.City = "Austin"
		s.Criteria.Bedrooms = domain.IntPtr(2)
		s.SelectedPropertyID = "7"
		s.Booking.State = domain.BookingIntake
		s.Booking.SelectedSlot = &domain.Slot{ID: "2025-01-02_09:00", Available: true}
		s.Booking.Intake = domain.NewIntake()
		s.Booking.Intake.Contact.Name = "Jane Doe"
		s.Booking.Intake.NextField = domain.FieldEmail

		require.NoError(t, store.Save(ctx, userID, s), "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Austin", loaded.Criteria.City)
		require.NotNil(t, loaded.Criteria.Bedrooms)
		assert.Equal(t, 2, *loaded.Criteria.Bedrooms)
		assert.Equal(t, domain.BookingIntake, loaded.Booking.State)
		require.NotNil(t, loaded.Booking.Intake)
		assert.Equal(t, "Jane Doe", loaded.Booking.Intake.Contact.Name)
		assert.Equal(t, domain.FieldEmail, loaded.Booking.Intake.NextField)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		loaded.Criteria.City = "Dallas"

		again, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Austin", again.Criteria.City)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, domain.NewSession(userID, time.Now())))
		require.NoError(t, store.Delete(ctx, userID), "Delete should not return error")

		_, err := store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, time.Now()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Evict keeps fresh sessions", func(t *testing.T) {
		id := userID + "-fresh"
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id, time.Now())))
		defer func() { _ = store.Delete(ctx, id) }()

		_, err := store.Evict(ctx)
		require.NoError(t, err)

		_, err = store.Load(ctx, id)
		assert.NoError(t, err)
	})
}
