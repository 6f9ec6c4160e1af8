package domain

import (
	"time"
)

// TaskStatus represents the current state of a download task. Transitions
// are one-directional: PENDING -> RUNNING -> COMPLETED or FAILED.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusRunning   TaskStatus = "RUNNING"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusFailed    TaskStatus = "FAILED"
)

// Terminal reports whether no further status transition occurs for this
// task execution.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DownloadOptions configures a single retrieval job. Set once at creation
// and immutable afterwards.
type DownloadOptions struct {
	Quality     string `json:"quality" validate:"required"`
	Format      string `json:"format" validate:"oneof=video audio"`
	AudioFormat string `json:"audio_format,omitempty" validate:"omitempty,oneof=mp3 m4a"`
}

// DefaultOptions returns the options applied when a request leaves fields
// empty.
func DefaultOptions() DownloadOptions {
	return DownloadOptions{
		Quality:     "best",
		Format:      "video",
		AudioFormat: "mp3",
	}
}

// TaskRecord is the central entity: one user-submitted retrieval job.
// Title, ResultPath and ResultURL are populated only on COMPLETED; Error
// only on FAILED.
type TaskRecord struct {
	ID         string          `json:"task_id"`
	SourceURL  string          `json:"url"`
	Status     TaskStatus      `json:"status"`
	Progress   string          `json:"progress,omitempty"`
	Title      string          `json:"title,omitempty"`
	ResultPath string          `json:"result_path,omitempty"`
	ResultURL  string          `json:"result_url,omitempty"`
	Error      string          `json:"error,omitempty"`
	Options    DownloadOptions `json:"options"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TaskUpdate carries partial field updates for a task record. Nil fields
// are left untouched by the store.
type TaskUpdate struct {
	Status     *TaskStatus
	Progress   *string
	Title      *string
	ResultPath *string
	ResultURL  *string
	Error      *string
}

func strptr(s string) *string { return &s }

// RunningUpdate resets a task to RUNNING and clears any stale error left by
// a previous failed attempt.
func RunningUpdate(progress string) TaskUpdate {
	status := StatusRunning
	return TaskUpdate{
		Status:   &status,
		Progress: strptr(progress),
		Error:    strptr(""),
	}
}

// ProgressUpdate overwrites only the free-form progress string.
func ProgressUpdate(progress string) TaskUpdate {
	return TaskUpdate{Progress: strptr(progress)}
}

// CompletedUpdate is the single terminal write for a successful task.
func CompletedUpdate(title, resultPath, resultURL string) TaskUpdate {
	status := StatusCompleted
	return TaskUpdate{
		Status:     &status,
		Progress:   strptr("done"),
		Title:      strptr(title),
		ResultPath: strptr(resultPath),
		ResultURL:  strptr(resultURL),
	}
}

// FailedUpdate is the terminal write for a failed task.
func FailedUpdate(message string) TaskUpdate {
	status := StatusFailed
	return TaskUpdate{
		Status: &status,
		Error:  strptr(message),
	}
}
