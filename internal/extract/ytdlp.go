package extract

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/billzhuang6569/gravity/internal/domain"
)

const progressPrefix = "download:"

// YtDlp runs the yt-dlp binary as the extraction engine. The soft time
// limit sends an interrupt so yt-dlp can finish the current fragment; the
// hard limit is enforced by the caller's context and kills the process.
type YtDlp struct {
	binary      string
	downloadDir string
	tempDir     string
	softLimit   time.Duration
	logger      *slog.Logger
}

// NewYtDlp creates an extractor writing finished files into downloadDir.
func NewYtDlp(binary, downloadDir, tempDir string, softLimit time.Duration, logger *slog.Logger) *YtDlp {
	return &YtDlp{
		binary:      binary,
		downloadDir: downloadDir,
		tempDir:     tempDir,
		softLimit:   softLimit,
		logger:      logger,
	}
}

type ytdlpInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Formats  []struct {
		FormatID string  `json:"format_id"`
		Ext      string  `json:"ext"`
		Height   int     `json:"height"`
		Filesize float64 `json:"filesize"`
	} `json:"formats"`
}

// Probe runs yt-dlp in dump-json mode and maps the result into MediaInfo.
func (y *YtDlp) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, y.binary, "--dump-json", "--no-playlist", url)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, mapError(stderr.String(), err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, mapError("", fmt.Errorf("parse engine output: %w", err))
	}

	out := &domain.MediaInfo{Title: info.Title}
	if info.Duration > 0 {
		out.Duration = formatDuration(time.Duration(info.Duration * float64(time.Second)))
	}
	for _, f := range info.Formats {
		quality := f.Ext
		if f.Height > 0 {
			quality = fmt.Sprintf("%dp", f.Height)
		}
		out.Formats = append(out.Formats, domain.MediaFormat{
			FormatID: f.FormatID,
			Quality:  quality,
			Ext:      f.Ext,
			Filesize: int64(f.Filesize),
		})
	}
	return out, nil
}

// Fetch downloads the media into the download dir, named by the task id.
// Progress lines arrive on stdout prefixed by progressPrefix and are
// forwarded to sink as "percent - speed - eta" strings.
func (y *YtDlp) Fetch(ctx context.Context, id, url string, opts domain.DownloadOptions, sink ProgressFunc) (*FetchResult, error) {
	args := []string{
		"--no-playlist",
		"--newline",
		"--print", "before_dl:title:%(title)s",
		"--progress-template", progressPrefix + "%(progress._percent_str)s|%(progress._speed_str)s|%(progress._eta_str)s",
		"--paths", y.downloadDir,
		"--paths", "temp:" + y.tempDir,
		"-o", id + ".%(ext)s",
	}
	args = append(args, formatArgs(opts)...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, mapError("", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, mapError(stderr.String(), err)
	}

	// Cooperative wrap-up: past the soft limit, ask yt-dlp to stop cleanly.
	// The hard limit lives in ctx and kills the process outright.
	softTimer := time.AfterFunc(y.softLimit, func() {
		y.logger.Warn("soft time limit reached, interrupting extraction")
		_ = cmd.Process.Signal(os.Interrupt)
	})
	defer softTimer.Stop()

	title := ""
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, progressPrefix):
			if msg := formatProgressLine(strings.TrimPrefix(line, progressPrefix)); msg != "" && sink != nil {
				sink(msg)
			}
		case strings.HasPrefix(line, "title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "title:"))
		}
	}

	if err := cmd.Wait(); err != nil {
		return nil, mapError(stderr.String(), err)
	}

	path, err := y.locateOutput(id)
	if err != nil {
		return nil, mapError("", err)
	}

	return &FetchResult{Title: title, FilePath: path}, nil
}

// formatArgs translates DownloadOptions into yt-dlp format selection.
func formatArgs(opts domain.DownloadOptions) []string {
	if opts.Format == "audio" {
		audioFormat := opts.AudioFormat
		if audioFormat == "" {
			audioFormat = "mp3"
		}
		return []string{"-x", "--audio-format", audioFormat}
	}

	if opts.Quality == "" || opts.Quality == "best" {
		return []string{"-f", "bestvideo+bestaudio/best"}
	}
	height := strings.TrimSuffix(opts.Quality, "p")
	return []string{"-f", fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", height, height)}
}

// formatProgressLine turns "  12.3%|512KiB/s|00:42" into a display string.
func formatProgressLine(raw string) string {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return ""
	}
	percent := strings.TrimSpace(parts[0])
	speed := strings.TrimSpace(parts[1])
	eta := strings.TrimSpace(parts[2])
	if percent == "" {
		return ""
	}
	return fmt.Sprintf("downloading %s - speed %s - eta %s", percent, speed, eta)
}

// locateOutput finds the finished file; the extension is only known to
// yt-dlp, so match on the task id.
func (y *YtDlp) locateOutput(id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(y.downloadDir, id+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no output file for %s", id)
	}
	return matches[0], nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
