package fileserve

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/billzhuang6569/gravity/internal/metrics"
)

// Janitor removes downloaded files that outlive the retention window. Task
// records expire on their own through the store TTL; files need an explicit
// sweep.
type Janitor struct {
	dirs      []string
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor sweeps the given directories every interval, deleting files
// whose modification time is older than retention.
func NewJanitor(dirs []string, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{dirs: dirs, retention: retention, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *Janitor) sweep() {
	cutoff := time.Now().Add(-j.retention)
	var removed int
	var freed int64

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			j.logger.Error("janitor failed to read directory", "dir", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				j.logger.Error("janitor failed to remove file", "path", path, "error", err)
				continue
			}
			removed++
			freed += info.Size()
			metrics.FilesCleaned.Inc()
		}
	}

	if removed > 0 {
		j.logger.Info("expired files removed",
			"count", removed,
			"bytes_freed", freed,
			"cutoff", cutoff)
	}
}
