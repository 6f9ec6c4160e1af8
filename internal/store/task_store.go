package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/billzhuang6569/gravity/internal/domain"
	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

const taskKeyPrefix = "task:"

// TaskStore persists task records as Redis hashes with a retention TTL.
// Every write re-arms the TTL to the full retention window, so any touch
// extends a record's life.
type TaskStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaskStore creates a TaskStore over an existing Redis client.
func NewTaskStore(client *redis.Client, ttl time.Duration) *TaskStore {
	return &TaskStore{client: client, ttl: ttl}
}

func taskKey(id string) string {
	return taskKeyPrefix + id
}

// Create stores a new task record and arms its TTL. Returns ErrTaskExists
// when the id is already taken; with uuid ids this is practically
// unreachable. The existence check and the write run under WATCH, so a
// concurrent writer aborts the transaction instead of being overwritten.
func (s *TaskStore) Create(ctx context.Context, rec *domain.TaskRecord) error {
	key := taskKey(rec.ID)

	fields, err := recordFields(rec)
	if err != nil {
		return err
	}

	return withRetry(ctx, "create", func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return errpkg.ErrTaskExists
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fields)
				pipe.Expire(ctx, key, s.ttl)
				return nil
			})
			return err
		}, key)
	})
}

// Get retrieves a task record by id. Returns ErrTaskNotFound for absent or
// expired ids.
func (s *TaskStore) Get(ctx context.Context, id string) (*domain.TaskRecord, error) {
	var data map[string]string

	err := withRetry(ctx, "get", func() error {
		var err error
		data, err = s.client.HGetAll(ctx, taskKey(id)).Result()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errpkg.ErrTaskNotFound
	}

	return parseRecord(id, data)
}

// Update applies a partial update to an existing record, refreshing
// updated_at and re-arming the TTL. When the id no longer exists it returns
// (false, nil): late or duplicate progress writes after expiry are a no-op,
// not an error. WATCH guards the existence check; a key expiring between
// check and write aborts the transaction rather than resurrecting a partial
// record under a fresh TTL.
func (s *TaskStore) Update(ctx context.Context, id string, upd domain.TaskUpdate) (bool, error) {
	key := taskKey(id)
	applied := false

	err := withRetry(ctx, "update", func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				applied = false
				return nil
			}

			fields := updateFields(upd)
			fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fields)
				pipe.Expire(ctx, key, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			applied = true
			return nil
		}, key)
	})
	if err != nil {
		return false, err
	}

	if !applied {
		slog.Warn("update for missing task ignored", "task_id", id)
	}
	return applied, nil
}

// Delete removes a task record. Returns true iff the record existed.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	var deleted int64

	err := withRetry(ctx, "delete", func() error {
		var err error
		deleted, err = s.client.Del(ctx, taskKey(id)).Result()
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// Exists reports whether a task record is live.
func (s *TaskStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int64

	err := withRetry(ctx, "exists", func() error {
		var err error
		n, err = s.client.Exists(ctx, taskKey(id)).Result()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TTLRemaining returns the remaining retention for a record. ok is false
// when the record is absent or carries no TTL.
func (s *TaskStore) TTLRemaining(ctx context.Context, id string) (time.Duration, bool, error) {
	var ttl time.Duration

	err := withRetry(ctx, "ttl", func() error {
		var err error
		ttl, err = s.client.TTL(ctx, taskKey(id)).Result()
		return err
	})
	if err != nil {
		return 0, false, err
	}
	if ttl < 0 {
		// -2 means no key, -1 means no TTL set; neither should happen for
		// records written through this store.
		return 0, false, nil
	}
	return ttl, true, nil
}

func recordFields(rec *domain.TaskRecord) (map[string]string, error) {
	opts, err := json.Marshal(rec.Options)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	return map[string]string{
		"source_url":  rec.SourceURL,
		"status":      string(rec.Status),
		"progress":    rec.Progress,
		"title":       rec.Title,
		"result_path": rec.ResultPath,
		"result_url":  rec.ResultURL,
		"error":       rec.Error,
		"options":     string(opts),
		"created_at":  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":  rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func updateFields(upd domain.TaskUpdate) map[string]string {
	fields := make(map[string]string)
	if upd.Status != nil {
		fields["status"] = string(*upd.Status)
	}
	if upd.Progress != nil {
		fields["progress"] = *upd.Progress
	}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.ResultPath != nil {
		fields["result_path"] = *upd.ResultPath
	}
	if upd.ResultURL != nil {
		fields["result_url"] = *upd.ResultURL
	}
	if upd.Error != nil {
		fields["error"] = *upd.Error
	}
	return fields
}

func parseRecord(id string, data map[string]string) (*domain.TaskRecord, error) {
	var opts domain.DownloadOptions
	if raw := data["options"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return nil, fmt.Errorf("parse task %s options: %w", id, err)
		}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse task %s created_at: %w", id, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parse task %s updated_at: %w", id, err)
	}

	return &domain.TaskRecord{
		ID:         id,
		SourceURL:  data["source_url"],
		Status:     domain.TaskStatus(data["status"]),
		Progress:   data["progress"],
		Title:      data["title"],
		ResultPath: data["result_path"],
		ResultURL:  data["result_url"],
		Error:      data["error"],
		Options:    opts,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}
