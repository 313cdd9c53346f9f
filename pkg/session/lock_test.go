package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, userID string, s *domain.Session) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, userID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, userID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)      { return nil, nil }
func (m *MockStore) Evict(ctx context.Context) (int, error)          { return 0, nil }

type countingLocker struct {
	locks, unlocks int
	ttl            time.Duration
}

func (c *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	c.locks++
	c.ttl = ttl
	return func(context.Context) error {
		c.unlocks++
		return nil
	}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	// 1. Create and Delete many sessions
	for i := 0; i < count; i++ {
		uid := fmt.Sprintf("user-%d", i)
		_, _ = mgr.Update(ctx, uid, func(context.Context, *domain.Session) error { return nil })
		_ = mgr.Delete(ctx, uid)
	}

	// 2. Locks must be released once nobody holds them.
	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	mgr := NewManager(&MockStore{}, WithLocker(locker), WithLockTTL(5*time.Second))

	_, err := mgr.Update(context.Background(), "u1", func(context.Context, *domain.Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
