// Package blob uploads asset files to Azure Blob Storage using a pre-issued
// SAS token.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Content types for the asset extensions the pipeline handles. Anything
// else uploads as an opaque byte stream.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// ContentTypeFor maps a file extension to the Content-Type sent with the
// blob.
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Config holds the container endpoint plus the shared network retry policy.
type Config struct {
	BaseURL        string
	SASToken       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Uploader PUTs block blobs to {baseURL}/{name}?{sasToken}. Blob names are
// deterministic, so re-uploading the same asset overwrites it with
// identical bytes.
type Uploader struct {
	httpClient     *http.Client
	baseURL        string
	sasToken       string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func NewUploader(cfg Config, logger *slog.Logger) *Uploader {
	return &Uploader{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		sasToken:       strings.TrimPrefix(cfg.SASToken, "?"),
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "uploader"),
	}
}

// Upload reads localPath fully and PUTs it as blobName. Retries apply to
// transport errors and 5xx only; a 4xx (bad SAS, bad name) cannot be fixed
// by retrying.
func (u *Uploader) Upload(ctx context.Context, localPath, blobName string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}
	contentType := ContentTypeFor(filepath.Ext(localPath))

	var lastErr error
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		retryable, err := u.doPut(ctx, blobName, data, contentType)
		if err == nil {
			u.logger.Debug("uploaded blob", "blob", blobName, "bytes", len(data))
			return nil
		}
		lastErr = err

		if !retryable || attempt == u.maxAttempts {
			break
		}

		backoff := u.calculateBackoff(attempt)
		u.logger.Warn("upload failed, retrying",
			"blob", blobName,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("upload %s: %w", blobName, lastErr)
}

// Exists asks the container whether blobName is already stored, so resumed
// runs skip re-uploading finished assets.
func (u *Uploader) Exists(ctx context.Context, blobName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.blobURL(blobName), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("head %s: unexpected status %d", blobName, resp.StatusCode)
	}
}

func (u *Uploader) doPut(ctx context.Context, blobName string, data []byte, contentType string) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.blobURL(blobName), bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return false, nil
	}

	// Surface the storage service's response body; it names the exact
	// failure (expired SAS, auth scope, ...). The SAS token itself must
	// never appear in errors or logs.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	return resp.StatusCode >= 500, err
}

func (u *Uploader) blobURL(blobName string) string {
	return fmt.Sprintf("%s/%s?%s", u.baseURL, blobName, u.sasToken)
}

func (u *Uploader) calculateBackoff(attempt int) time.Duration {
	backoff := u.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > u.maxBackoff {
		backoff = u.maxBackoff
	}
	return backoff
}
