package extract

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billzhuang6569/gravity/internal/domain"
)

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name string
		opts domain.DownloadOptions
		want []string
	}{
		{
			name: "default video",
			opts: domain.DownloadOptions{Format: "video", Quality: "best"},
			want: []string{"-f", "bestvideo+bestaudio/best"},
		},
		{
			name: "empty quality falls back to best",
			opts: domain.DownloadOptions{Format: "video"},
			want: []string{"-f", "bestvideo+bestaudio/best"},
		},
		{
			name: "capped quality",
			opts: domain.DownloadOptions{Format: "video", Quality: "720p"},
			want: []string{"-f", "bestvideo[height<=720]+bestaudio/best[height<=720]"},
		},
		{
			name: "audio with explicit format",
			opts: domain.DownloadOptions{Format: "audio", AudioFormat: "m4a"},
			want: []string{"-x", "--audio-format", "m4a"},
		},
		{
			name: "audio defaults to mp3",
			opts: domain.DownloadOptions{Format: "audio"},
			want: []string{"-x", "--audio-format", "mp3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatArgs(tt.opts))
		})
	}
}

func TestFormatProgressLine(t *testing.T) {
	assert.Equal(t,
		"downloading 12.3% - speed 512.00KiB/s - eta 00:42",
		formatProgressLine("  12.3%|512.00KiB/s|00:42"))

	assert.Empty(t, formatProgressLine("12.3%|512KiB/s"), "short lines are dropped")
	assert.Empty(t, formatProgressLine("|N/A|N/A"), "missing percent is dropped")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:42", formatDuration(42*time.Second))
	assert.Equal(t, "3:05", formatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "1:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}

func TestLocateOutput(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	y := NewYtDlp("yt-dlp", dir, t.TempDir(), time.Minute, logger)

	_, err := y.locateOutput("t1")
	assert.Error(t, err, "no artifact yet")

	path := filepath.Join(dir, "t1.webm")
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))

	got, err := y.locateOutput("t1")
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
