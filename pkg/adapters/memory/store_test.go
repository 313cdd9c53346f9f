package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/adapters/memory"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_IdleTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore(
		memory.WithIdleTTL(30*time.Minute),
		memory.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", domain.NewSession("old", now.Add(-time.Hour))))
	require.NoError(t, store.Save(ctx, "new", domain.NewSession("new", now.Add(-time.Minute))))

	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	n, err := store.Evict(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestMemoryStore_CapacityEvictsLeastRecentlyUpdated(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore(
		memory.WithIdleTTL(0),
		memory.WithCapacity(2),
		memory.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("u%d", i)
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id, now.Add(time.Duration(i)*time.Second))))
	}

	n, err := store.Evict(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, ids)
}

func TestHistory_CapsAndOrders(t *testing.T) {
	h := memory.NewHistory(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(ctx, "u1", domain.Message{Role: "user", Content: fmt.Sprint(i)}))
	}

	all, err := h.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].Content)
	assert.Equal(t, "4", all[2].Content)

	last, err := h.Recent(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, "4", last[0].Content)

	none, err := h.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
