package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/billzhuang6569/gravity/internal/domain"
	errpkg "github.com/billzhuang6569/gravity/internal/errors"
	"github.com/billzhuang6569/gravity/internal/fileserve"
	"github.com/billzhuang6569/gravity/internal/validation"
)

// DownloadServiceI defines the interface for download-related business logic.
type DownloadServiceI interface {
	Submit(ctx context.Context, url string, opts domain.DownloadOptions) (string, error)
	Status(ctx context.Context, id string) (*domain.TaskRecord, error)
	History(ctx context.Context, limit int) ([]*domain.TaskRecord, error)
	Probe(ctx context.Context, url string) (*domain.MediaInfo, error)
}

// DownloadHandler handles HTTP requests for download tasks.
type DownloadHandler struct {
	service   DownloadServiceI
	files     *fileserve.FileStorage
	validator *validator.Validate
	logger    *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler with the provided service,
// file storage and logger.
func NewDownloadHandler(service DownloadServiceI, files *fileserve.FileStorage, logger *slog.Logger) *DownloadHandler {
	v := validator.New()
	if err := validation.Register(v); err != nil {
		logger.Error("failed to register URL validation rule", "error", err)
	}

	return &DownloadHandler{
		service:   service,
		files:     files,
		validator: v,
		logger:    logger,
	}
}

// SubmitDownload handles POST /downloads: accept a URL plus options and
// return the new task id without waiting for a runner.
func (h *DownloadHandler) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadRequest, "invalid or unsupported URL")
		return
	}

	taskID, err := h.service.Submit(ctx, req.URL, req.Options())
	if err != nil {
		var ve *errpkg.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		h.logger.Error("failed to submit task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, domain.TaskCreateResponse{
		TaskID:  taskID,
		Status:  domain.StatusPending,
		Message: "download task accepted",
	})
}

// GetStatus handles GET /downloads/{taskID}/status.
func (h *DownloadHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")

	rec, err := h.service.Status(ctx, taskID)
	if err != nil {
		if errors.Is(err, errpkg.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("failed to get task", "task_id", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, domain.NewTaskResponse(rec))
}

// GetHistory handles GET /downloads/history: up to the index cap of
// most-recently completed tasks.
func (h *DownloadHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.History(ctx, 0)
	if err != nil {
		h.logger.Error("failed to get history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := domain.HistoryResponse{Tasks: make([]domain.TaskResponse, 0, len(records))}
	for _, rec := range records {
		resp.Tasks = append(resp.Tasks, domain.NewTaskResponse(rec))
	}
	resp.Total = len(resp.Tasks)

	writeJSON(w, http.StatusOK, resp)
}

// ProbeInfo handles POST /downloads/info: resolve metadata without creating
// a task.
func (h *DownloadHandler) ProbeInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid or unsupported URL")
		return
	}

	info, err := h.service.Probe(ctx, req.URL)
	if err != nil {
		var ee *errpkg.ExtractionError
		if errors.As(err, &ee) {
			writeError(w, http.StatusUnprocessableEntity, ee.Message)
			return
		}
		h.logger.Error("failed to probe URL", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// ServeFile handles GET /downloads/{filename}: static delivery of a
// finished artifact.
func (h *DownloadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.files.Resolve(filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
