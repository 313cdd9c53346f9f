package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
)

const (
	// DefaultIdleTTL is how long a session survives without a turn.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultCapacity bounds the number of live sessions.
	DefaultCapacity = 10000
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data     map[string]*domain.Session
	mu       sync.RWMutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIdleTTL sets the idle expiry. Zero disables it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithCapacity sets the session bound. Zero disables it.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:     make(map[string]*domain.Session),
		ttl:      DefaultIdleTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the session in memory. The stored value is a deep copy.
func (s *Store) Save(ctx context.Context, userID string, sess *domain.Session) error {
	copied := sess.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = copied
	return nil
}

// Load retrieves the session from memory. Sessions past the idle TTL are
// reported missing even before the janitor removes them.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[userID]
	if !ok || s.expired(sess) {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

// List returns live sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id, sess := range s.data {
		if !s.expired(sess) {
			sessions = append(sessions, id)
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes idle sessions, then the least recently updated ones until
// the store is back under capacity.
func (s *Store) Evict(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.data {
		if s.expired(sess) {
			delete(s.data, id)
			removed++
		}
	}

	if s.capacity <= 0 || len(s.data) <= s.capacity {
		return removed, nil
	}

	type entry struct {
		id string
		at time.Time
	}
	entries := make([]entry, 0, len(s.data))
	for id, sess := range s.data {
		entries = append(entries, entry{id, sess.UpdatedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at.Equal(entries[j].at) {
			return entries[i].id < entries[j].id
		}
		return entries[i].at.Before(entries[j].at)
	})
	for _, e := range entries[:len(entries)-s.capacity] {
		delete(s.data, e.id)
		removed++
	}
	return removed, nil
}

func (s *Store) expired(sess *domain.Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}
