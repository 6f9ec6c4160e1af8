package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

// MemoryQueue is the in-process transport: a buffered channel feeding the
// worker dispatcher in the same binary. It is the default queue driver.
type MemoryQueue struct {
	messages chan TaskMessage
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue creates a memory queue with the given buffer size.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	return &MemoryQueue{
		messages: make(chan TaskMessage, size),
		logger:   logger,
	}
}

// Enqueue adds a message without blocking. Returns ErrQueueFull when the
// buffer is exhausted and ErrQueueClosed after Close. The mutex is held
// across the send so Close cannot close the channel mid-enqueue; the send
// never blocks, so neither does the lock.
func (q *MemoryQueue) Enqueue(ctx context.Context, msg TaskMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errpkg.ErrQueueClosed
	}

	select {
	case q.messages <- msg:
		q.logger.Debug("task enqueued",
			"task_id", msg.TaskID,
			"attempt", msg.Attempt,
			"queue_len", len(q.messages),
			"queue_cap", cap(q.messages))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: capacity %d reached", errpkg.ErrQueueFull, cap(q.messages))
	}
}

// Consume delivers messages to the handler until ctx is cancelled or the
// queue is closed and drained. Handler calls are sequential per Consume
// call; concurrency is the dispatcher's concern.
func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case msg, ok := <-q.messages:
			if !ok {
				return nil
			}
			handler(ctx, msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the queue; subsequent Enqueue calls fail with ErrQueueClosed.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.messages)
		q.logger.Info("memory queue closed")
	}
}
