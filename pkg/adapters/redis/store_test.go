package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/propertytek/rentbot/pkg/adapters/redis"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	store := redis.NewFromClient(client,
		redis.WithTTL(1*time.Second),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()
	userID := "user-ttl"

	// 1. Save
	err := store.Save(ctx, userID, domain.NewSession(userID, now))
	require.NoError(t, err)

	// 2. Verify List (immediately)
	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, userID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// 5. Index is pruned once our clock passes the score
	now = now.Add(2 * time.Second)
	n, err := store.Evict(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	userID := "my-user"

	err := store.Save(ctx, userID, domain.NewSession(userID, time.Now()))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-user"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, userID)
}

func TestRedisHistory_Capped(t *testing.T) {
	mr, client := newClient(t)
	h := redis.NewHistory(client, 3)
	ctx := context.Background()

	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Append(ctx, "u1", domain.Message{Role: "user", Content: c}))
	}

	assert.True(t, mr.Exists("chat:history:u1"))

	msgs, err := h.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "d", msgs[2].Content)

	last, err := h.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Content)
}
