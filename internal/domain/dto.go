package domain

import (
	"time"
)

// DownloadRequest represents the request body for creating a download task.
type DownloadRequest struct {
	URL         string `json:"url" validate:"required,platform_url"`
	Quality     string `json:"quality,omitempty"`
	Format      string `json:"format,omitempty" validate:"omitempty,oneof=video audio"`
	AudioFormat string `json:"audio_format,omitempty" validate:"omitempty,oneof=mp3 m4a"`
}

// Options builds the immutable DownloadOptions for this request, filling
// defaults for fields the client left empty.
func (r *DownloadRequest) Options() DownloadOptions {
	opts := DefaultOptions()
	if r.Quality != "" {
		opts.Quality = r.Quality
	}
	if r.Format != "" {
		opts.Format = r.Format
	}
	if r.AudioFormat != "" {
		opts.AudioFormat = r.AudioFormat
	}
	return opts
}

// TaskCreateResponse is returned when a download task is accepted.
type TaskCreateResponse struct {
	TaskID  string     `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message"`
}

// TaskResponse is the public projection of a task record.
type TaskResponse struct {
	TaskID    string     `json:"task_id"`
	URL       string     `json:"url"`
	Status    TaskStatus `json:"status"`
	Progress  string     `json:"progress,omitempty"`
	Title     string     `json:"title,omitempty"`
	ResultURL string     `json:"download_url,omitempty"`
	Error     string     `json:"error_message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTaskResponse projects a record into its API shape.
func NewTaskResponse(rec *TaskRecord) TaskResponse {
	return TaskResponse{
		TaskID:    rec.ID,
		URL:       rec.SourceURL,
		Status:    rec.Status,
		Progress:  rec.Progress,
		Title:     rec.Title,
		ResultURL: rec.ResultURL,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// HistoryResponse lists the most recent completed tasks.
type HistoryResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// ProbeRequest asks for media metadata without creating a task.
type ProbeRequest struct {
	URL string `json:"url" validate:"required,platform_url"`
}

// MediaFormat describes one downloadable format option.
type MediaFormat struct {
	FormatID string `json:"format_id"`
	Quality  string `json:"quality"`
	Ext      string `json:"ext"`
	Filesize int64  `json:"filesize,omitempty"`
}

// MediaInfo is the metadata returned by a probe.
type MediaInfo struct {
	Title    string        `json:"title"`
	Duration string        `json:"duration,omitempty"`
	Formats  []MediaFormat `json:"formats"`
}
