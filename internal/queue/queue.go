package queue

import (
	"context"

	"github.com/billzhuang6569/gravity/internal/domain"
)

// TaskMessage is the work-queue contract between the submission front and
// the task runners. Attempt counts retry re-enqueues; the first delivery
// carries 0. Consumption is expected to be at-least-once; idempotent status
// transitions in the store make duplicate delivery safe.
type TaskMessage struct {
	TaskID  string                 `json:"task_id"`
	URL     string                 `json:"url"`
	Options domain.DownloadOptions `json:"options"`
	Attempt int                    `json:"attempt"`
}

// Producer enqueues work items for the task runners.
type Producer interface {
	// Enqueue hands a message to the transport. Returns an error when the
	// transport is full or closed; the message is then lost to the caller.
	Enqueue(ctx context.Context, msg TaskMessage) error
}

// Handler processes one dequeued message.
type Handler func(ctx context.Context, msg TaskMessage)

// Consumer drives a handler over incoming messages until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}
