package middleware_test

import (
	"context"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Session),
	}
}

func (s *MockStore) Save(ctx context.Context, userID string, sess *domain.Session) error {
	s.data[userID] = sess
	return nil
}

func (s *MockStore) Load(ctx context.Context, userID string) (*domain.Session, error) {
	sess, ok := s.data[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MockStore) Delete(ctx context.Context, userID string) error {
	delete(s.data, userID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MockStore) Evict(ctx context.Context) (int, error) {
	return 0, nil
}

var _ ports.SessionStore = (*MockStore)(nil)
