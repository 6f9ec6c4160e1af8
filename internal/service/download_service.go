package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/billzhuang6569/gravity/internal/domain"
	errpkg "github.com/billzhuang6569/gravity/internal/errors"
	"github.com/billzhuang6569/gravity/internal/extract"
	"github.com/billzhuang6569/gravity/internal/metrics"
	"github.com/billzhuang6569/gravity/internal/queue"
	"github.com/billzhuang6569/gravity/internal/store"
	"github.com/billzhuang6569/gravity/internal/validation"
)

// DownloadService is the submission front: it validates input, creates the
// initial task record, and hands the work item to the queue. It never waits
// for a runner.
type DownloadService struct {
	store     *store.TaskStore
	history   *store.History
	producer  queue.Producer
	extractor extract.Extractor
	logger    *slog.Logger
}

// NewDownloadService wires the service over its collaborators.
func NewDownloadService(
	taskStore *store.TaskStore,
	history *store.History,
	producer queue.Producer,
	extractor extract.Extractor,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		store:     taskStore,
		history:   history,
		producer:  producer,
		extractor: extractor,
		logger:    logger,
	}
}

// Submit validates the URL, creates a PENDING record, and enqueues the work
// item. Validation failures never reach a runner; no record is created for
// them.
func (s *DownloadService) Submit(ctx context.Context, url string, opts domain.DownloadOptions) (string, error) {
	platform, err := validation.ValidateURL(url)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := &domain.TaskRecord{
		ID:        uuid.New().String(),
		SourceURL: url,
		Status:    domain.StatusPending,
		Progress:  "queued",
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("create task record: %w", err)
	}

	msg := queue.TaskMessage{
		TaskID:  rec.ID,
		URL:     url,
		Options: opts,
	}
	if err := s.producer.Enqueue(ctx, msg); err != nil {
		// The record would otherwise sit PENDING until TTL with no worker
		// ever claiming it.
		if _, delErr := s.store.Delete(ctx, rec.ID); delErr != nil {
			s.logger.Error("failed to roll back unqueued task", "task_id", rec.ID, "error", delErr)
		}
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	metrics.TasksSubmitted.Inc()
	s.logger.Info("task submitted",
		"task_id", rec.ID,
		"platform", platform,
		"format", opts.Format)
	return rec.ID, nil
}

// Status returns the record for a task id, or ErrTaskNotFound once it has
// expired.
func (s *DownloadService) Status(ctx context.Context, id string) (*domain.TaskRecord, error) {
	return s.store.Get(ctx, id)
}

// History resolves the recency index against the task store, most recent
// first. Index entries whose record has expired are removed from the index
// as a side effect and skipped; the index may reference fewer records than
// it holds ids, never the reverse.
func (s *DownloadService) History(ctx context.Context, limit int) ([]*domain.TaskRecord, error) {
	ids, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.TaskRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		if errors.Is(err, errpkg.ErrTaskNotFound) {
			if _, rmErr := s.history.Remove(ctx, id); rmErr != nil {
				s.logger.Error("failed to drop dangling history entry", "task_id", id, "error", rmErr)
			} else {
				s.logger.Debug("dangling history entry dropped", "task_id", id)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Probe returns media metadata for a URL without creating a task.
func (s *DownloadService) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if _, err := validation.ValidateURL(url); err != nil {
		return nil, err
	}
	return s.extractor.Probe(ctx, url)
}
