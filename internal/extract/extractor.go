// Package extract defines the boundary to the media extraction engine. The
// engine itself is an external collaborator; the rest of the system only
// ever sees this interface and the mapped errors it produces.
package extract

import (
	"context"

	"github.com/billzhuang6569/gravity/internal/domain"
)

// ProgressFunc receives free-form human-readable progress strings. Calls
// are fire-and-forget: a missed or out-of-order tick must not affect the
// final task state.
type ProgressFunc func(progress string)

// FetchResult describes a successfully retrieved media file.
type FetchResult struct {
	Title    string
	FilePath string
}

// Extractor resolves media metadata and downloads content.
type Extractor interface {
	// Probe returns metadata for a URL without downloading anything.
	Probe(ctx context.Context, url string) (*domain.MediaInfo, error)

	// Fetch downloads the media described by url and opts, reporting
	// progress through sink. id names the output file, so a retried task
	// overwrites its own partial result. Failures are returned as
	// *errors.ExtractionError with a user-facing message and a
	// permanent/retryable classification.
	Fetch(ctx context.Context, id, url string, opts domain.DownloadOptions, sink ProgressFunc) (*FetchResult, error)
}
