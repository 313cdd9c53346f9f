package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data    map[string]*domain.Session
	mu      sync.Mutex
	evicted int
}

func (s *SlowStore) Save(ctx context.Context, userID string, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[userID] = sess.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, userID string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[userID]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *SlowStore) Evict(ctx context.Context) (int, error) {
	return s.evicted, nil
}

func TestManager_UpdateSerializes(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Read-modify-write without locking would lose increments.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(_ context.Context, s *domain.Session) error {
				s.Turns++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, concurrentWrites, s.Turns)
}

func TestManager_UpdateErrorDiscardsChanges(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	_, err := manager.Update(ctx, "u1", func(_ context.Context, s *domain.Session) error {
		s.Criteria.City = "Austin"
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Update(ctx, "u1", func(_ context.Context, s *domain.Session) error {
		s.Criteria.City = "Dallas"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := manager.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Austin", s.Criteria.City)
}

func TestManager_Evict(t *testing.T) {
	store := &SlowStore{evicted: 3}
	var hooked int
	manager := session.NewManager(store, session.WithEvictHook(func(n int) { hooked += n }))

	n, err := manager.Evict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, hooked)
}

func TestManager_RunStopsWithContext(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		manager.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
