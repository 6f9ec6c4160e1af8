package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const historyKey = "history:downloads"

// History is the bounded recency index over completed tasks: a Redis sorted
// set scored by completion time, trimmed to a fixed cap. The index may
// reference records that have since expired from the task store; consumers
// drop such ids lazily via Remove.
type History struct {
	client  *redis.Client
	maxSize int
}

// NewHistory creates a History capped at maxSize entries.
func NewHistory(client *redis.Client, maxSize int) *History {
	return &History{client: client, maxSize: maxSize}
}

// RecordCompletion inserts the task id scored by its completion time and
// trims the oldest entries so the index never holds more than maxSize. Both
// steps run in one transactional pipeline, so a concurrent reader never
// observes the index above the cap beyond the trim itself.
func (h *History) RecordCompletion(ctx context.Context, id string, when time.Time) error {
	return withRetry(ctx, "history add", func() error {
		pipe := h.client.TxPipeline()
		pipe.ZAdd(ctx, historyKey, redis.Z{
			Score:  float64(when.UnixNano()),
			Member: id,
		})
		// Removes everything below the top maxSize ranks; a no-op while the
		// set is within the cap.
		pipe.ZRemRangeByRank(ctx, historyKey, 0, int64(-h.maxSize-1))
		_, err := pipe.Exec(ctx)
		return err
	})
}

// ListRecent returns up to limit task ids, most recent first. Limits above
// the cap are clamped.
func (h *History) ListRecent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > h.maxSize {
		limit = h.maxSize
	}

	var ids []string
	err := withRetry(ctx, "history list", func() error {
		var err error
		ids, err = h.client.ZRevRange(ctx, historyKey, 0, int64(limit-1)).Result()
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Remove drops a task id from the index. Returns true iff it was present.
func (h *History) Remove(ctx context.Context, id string) (bool, error) {
	var removed int64
	err := withRetry(ctx, "history remove", func() error {
		var err error
		removed, err = h.client.ZRem(ctx, historyKey, id).Result()
		return err
	})
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Size returns the number of entries currently in the index.
func (h *History) Size(ctx context.Context) (int, error) {
	var n int64
	err := withRetry(ctx, "history size", func() error {
		var err error
		n, err = h.client.ZCard(ctx, historyKey).Result()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Clear empties the index.
func (h *History) Clear(ctx context.Context) error {
	return withRetry(ctx, "history clear", func() error {
		return h.client.Del(ctx, historyKey).Err()
	})
}
