package memory

import (
	"context"
	"sync"

	"github.com/propertytek/rentbot/pkg/domain"
)

// DefaultHistoryLimit caps the transcript kept per user.
const DefaultHistoryLimit = 200

// History implements ports.HistoryStore in memory.
type History struct {
	mu    sync.Mutex
	data  map[string][]domain.Message
	limit int
}

// NewHistory creates a transcript store keeping at most limit messages per
// user. A non-positive limit uses DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{data: make(map[string][]domain.Message), limit: limit}
}

// Append adds messages to the user's transcript, dropping the oldest ones
// past the limit.
func (h *History) Append(ctx context.Context, userID string, msgs ...domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := append(h.data[userID], msgs...)
	if over := len(log) - h.limit; over > 0 {
		log = append([]domain.Message(nil), log[over:]...)
	}
	h.data[userID] = log
	return nil
}

// Recent returns at most n messages, oldest first. n <= 0 returns all.
func (h *History) Recent(ctx context.Context, userID string, n int) ([]domain.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.data[userID]
	if n > 0 && len(log) > n {
		log = log[len(log)-n:]
	}
	return append([]domain.Message(nil), log...), nil
}
