package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/billzhuang6569/gravity/internal/metrics"
	"github.com/billzhuang6569/gravity/internal/queue"
	"github.com/billzhuang6569/gravity/internal/retry"
)

// Dispatcher consumes the work queue and fans messages out to a bounded set
// of concurrent runner executions. When an execution fails it consults the
// retry policy and, on Retry, re-enqueues the same task with attempt+1
// after the decided delay. Re-scheduling lives here, not in the runner, so
// a crashed worker never carries a private retry loop with it.
type Dispatcher struct {
	runner   *Runner
	consumer queue.Consumer
	producer queue.Producer
	policy   retry.Policy
	sem      chan struct{}
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher running at most maxWorkers concurrent
// executions.
func NewDispatcher(
	runner *Runner,
	consumer queue.Consumer,
	producer queue.Producer,
	policy retry.Policy,
	maxWorkers int,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		runner:   runner,
		consumer: consumer,
		producer: producer,
		policy:   policy,
		sem:      make(chan struct{}, maxWorkers),
		logger:   logger,
	}
}

// Run consumes messages until ctx is cancelled, then waits for in-flight
// executions to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	err := d.consumer.Consume(ctx, func(ctx context.Context, msg queue.TaskMessage) {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			select {
			case d.sem <- struct{}{}:
				defer func() { <-d.sem }()
				d.handle(ctx, msg)
			case <-ctx.Done():
			}
		}()
	})

	d.wg.Wait()
	return err
}

func (d *Dispatcher) handle(ctx context.Context, msg queue.TaskMessage) {
	d.logger.Info("executing task",
		"task_id", msg.TaskID,
		"url", msg.URL,
		"attempt", msg.Attempt)

	err := d.runner.Execute(ctx, msg)
	if err == nil {
		return
	}

	decision := d.policy.Decide(msg.Attempt, err)
	if !decision.Retry {
		metrics.TasksFailed.Inc()
		d.logger.Warn("task failed permanently",
			"task_id", msg.TaskID,
			"attempts", msg.Attempt+1,
			"error", err)
		return
	}

	metrics.TaskRetries.Inc()
	d.logger.Info("task scheduled for retry",
		"task_id", msg.TaskID,
		"attempt", msg.Attempt+1,
		"delay", decision.Delay)

	next := msg
	next.Attempt++
	time.AfterFunc(decision.Delay, func() {
		if err := d.producer.Enqueue(context.Background(), next); err != nil {
			d.logger.Error("retry re-enqueue failed, task stays failed",
				"task_id", next.TaskID,
				"attempt", next.Attempt,
				"error", err)
		}
	})
}
