package legacy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DownloaderConfig carries the shared network retry policy plus the HTTP
// timeout for asset fetches.
type DownloaderConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Downloader fetches one remote asset file at a time from the legacy site.
type Downloader struct {
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func NewDownloader(cfg DownloaderConfig, logger *slog.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "downloader"),
	}
}

// Download fetches url into destPath. An existing destPath short-circuits so
// interrupted runs can be replayed. Retries apply to transport errors and
// 5xx responses only; a 4xx means the asset is gone and retrying cannot
// help. Returns whether a download actually happened.
func (d *Downloader) Download(ctx context.Context, url, destPath string) (bool, error) {
	if _, err := os.Stat(destPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat dest: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		retryable, err := d.fetch(ctx, url, destPath)
		if err == nil {
			return true, nil
		}
		lastErr = err

		if !retryable || attempt == d.maxAttempts {
			break
		}

		backoff := d.calculateBackoff(attempt)
		d.logger.Warn("download failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return false, fmt.Errorf("download %s: %w", url, lastErr)
}

func (d *Downloader) fetch(ctx context.Context, url, destPath string) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "CrewMigrator/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := writeStream(resp.Body, destPath); err != nil {
		return false, err
	}
	return false, nil
}

// writeStream goes through a temp file + rename so an interrupted download
// never leaves a truncated asset that a later run would skip as done.
func writeStream(body io.Reader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (d *Downloader) calculateBackoff(attempt int) time.Duration {
	backoff := d.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > d.maxBackoff {
		backoff = d.maxBackoff
	}
	return backoff
}
