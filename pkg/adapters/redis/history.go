package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/propertytek/rentbot/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// History implements ports.HistoryStore with one capped Redis list per user.
type History struct {
	client *backend.Client
	prefix string
	limit  int64
}

// NewHistory creates a transcript store keyed "chat:history:{user}".
func NewHistory(client *backend.Client, limit int) *History {
	if limit <= 0 {
		limit = 200
	}
	return &History{client: client, prefix: "chat:history:", limit: int64(limit)}
}

func (h *History) key(userID string) string {
	return h.prefix + userID
}

// Append pushes messages and trims the list to the newest limit entries.
func (h *History) Append(ctx context.Context, userID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, h.key(userID), values...)
	pipe.LTrim(ctx, h.key(userID), -h.limit, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Recent returns at most n messages, oldest first. n <= 0 returns all.
func (h *History) Recent(ctx context.Context, userID string, n int) ([]domain.Message, error) {
	start := int64(0)
	if n > 0 {
		start = -int64(n)
	}
	raw, err := h.client.LRange(ctx, h.key(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	out := make([]domain.Message, 0, len(raw))
	for _, r := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
