package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/adapters/memory"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/persistence/middleware"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	userID := "test-user"
	original := domain.NewSession(userID, time.Now())
	original.Criteria.City = "Houston"
	original.Booking.Intake = domain.NewIntake()
	original.Booking.Intake.Contact.Email = "jane@example.com"

	require.NoError(t, secureStore.Save(ctx, userID, original))

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Load(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Criteria.City)
	assert.Nil(t, stored.Booking.Intake)
	assert.NotContains(t, string(stored.Sealed), "jane@example.com")
	assert.Equal(t, original.UpdatedAt, stored.UpdatedAt)

	loaded, err := secureStore.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Houston", loaded.Criteria.City)
	assert.Equal(t, "jane@example.com", loaded.Booking.Intake.Contact.Email)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	userID := "rotation-user"
	original := domain.NewSession(userID, time.Now())
	original.Criteria.Area = "encrypted-with-old-key"

	// 1. Save with OLD key
	require.NoError(t, secureStoreOld.Save(ctx, userID, original))

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", loaded.Criteria.Area)

	// 3. Save again, now sealed with the NEW key
	loaded.Criteria.Area = "encrypted-with-new-key"
	require.NoError(t, secureStoreNew.Save(ctx, userID, loaded))

	// 4. The OLD key alone can no longer open it
	_, err = secureStoreOld.Load(ctx, userID)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RefusesPlainSession(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", domain.NewSession("plain", time.Now())))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
