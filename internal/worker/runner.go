package worker

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/billzhuang6569/gravity/internal/domain"
	errpkg "github.com/billzhuang6569/gravity/internal/errors"
	"github.com/billzhuang6569/gravity/internal/extract"
	"github.com/billzhuang6569/gravity/internal/fileserve"
	"github.com/billzhuang6569/gravity/internal/metrics"
	"github.com/billzhuang6569/gravity/internal/queue"
	"github.com/billzhuang6569/gravity/internal/store"
)

// Runner drives one task through its state machine: mark it running, invoke
// the extraction engine with a progress sink, and finish with exactly one
// terminal write. Retries are not the runner's business; the dispatcher
// re-invokes Execute for a fresh attempt.
type Runner struct {
	store     *store.TaskStore
	history   *store.History
	extractor extract.Extractor
	files     *fileserve.FileStorage
	hardLimit time.Duration
	logger    *slog.Logger
}

// NewRunner wires a runner over its collaborators.
func NewRunner(
	taskStore *store.TaskStore,
	history *store.History,
	extractor extract.Extractor,
	files *fileserve.FileStorage,
	hardLimit time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		store:     taskStore,
		history:   history,
		extractor: extractor,
		files:     files,
		hardLimit: hardLimit,
		logger:    logger,
	}
}

// Execute processes one work item. On a retry re-invocation the RUNNING
// write below overwrites the stale FAILED status and error field.
//
// A record that has expired from the store makes every write a no-op; the
// work still runs, its result just cannot be persisted. That is an accepted
// degradation, not a fatal error.
func (r *Runner) Execute(ctx context.Context, msg queue.TaskMessage) error {
	applied, err := r.store.Update(ctx, msg.TaskID, domain.RunningUpdate("starting"))
	if err != nil {
		return r.fail(ctx, msg.TaskID, err)
	}
	if !applied {
		r.logger.Warn("task record expired before execution, result will not be persisted",
			"task_id", msg.TaskID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.hardLimit)
	defer cancel()

	sink := func(progress string) {
		// Fire-and-forget: a missed tick never affects the final state, and
		// the store applies writes last-wins.
		if _, err := r.store.Update(ctx, msg.TaskID, domain.ProgressUpdate(progress)); err != nil {
			r.logger.Debug("progress write dropped", "task_id", msg.TaskID, "error", err)
		}
	}

	started := time.Now()
	result, err := r.extractor.Fetch(fetchCtx, msg.TaskID, msg.URL, msg.Options, sink)
	if err != nil {
		if fetchCtx.Err() != nil && ctx.Err() == nil {
			err = &errpkg.ExtractionError{
				Message: "download timed out",
				Err:     err,
			}
		}
		return r.fail(ctx, msg.TaskID, err)
	}

	resultURL, err := r.files.PublicURL(result.FilePath)
	if err != nil {
		return r.fail(ctx, msg.TaskID, err)
	}

	// The terminal store write must land before the history insertion; an
	// index entry pointing at a not-yet-COMPLETED record would be a
	// correctness bug. The two effects need not be atomic with each other.
	if _, err := r.store.Update(ctx, msg.TaskID,
		domain.CompletedUpdate(result.Title, result.FilePath, resultURL)); err != nil {
		return r.fail(ctx, msg.TaskID, err)
	}

	if err := r.history.RecordCompletion(ctx, msg.TaskID, time.Now()); err != nil {
		r.logger.Error("completed task missing from history", "task_id", msg.TaskID, "error", err)
	}

	metrics.TasksCompleted.Inc()
	metrics.DownloadDuration.Observe(time.Since(started).Seconds())
	if size, err := r.files.FileSize(filepath.Base(result.FilePath)); err == nil {
		metrics.DownloadBytes.Add(float64(size))
	}

	r.logger.Info("task completed",
		"task_id", msg.TaskID,
		"title", result.Title,
		"result_url", resultURL,
		"duration", time.Since(started))
	return nil
}

// fail performs the best-effort terminal FAILED write and hands the error
// back for the retry decision. Storage faults surfacing here are treated as
// a failed outcome like any other.
func (r *Runner) fail(ctx context.Context, taskID string, cause error) error {
	if _, err := r.store.Update(ctx, taskID, domain.FailedUpdate(userMessage(cause))); err != nil {
		r.logger.Error("terminal failed write did not persist", "task_id", taskID, "error", err)
	}

	r.logger.Error("task failed", "task_id", taskID, "error", cause)
	return cause
}

// userMessage picks the string stored on the record's error field.
func userMessage(err error) string {
	var ee *errpkg.ExtractionError
	if errors.As(err, &ee) {
		return ee.Message
	}
	var se *errpkg.StorageError
	if errors.As(err, &se) {
		return "internal storage error"
	}
	return err.Error()
}
