package legacy

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeScrape(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scraped.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecords_LoadsAndTransforms(t *testing.T) {
	path := writeScrape(t, `{
		"freelancers": [
			{
				"name": "Jane Doe",
				"slug": "jane-doe",
				"bio": "Camera operator.",
				"categories": ["Camera", "Drone"],
				"image_url": "https://x/jane.jpg",
				"cv_url": "https://x/jane.pdf",
				"website": "https://jane.example",
				"imdb": "https://imdb.com/name/nm1",
				"instagram": "",
				"linkedin": null
			}
		]
	}`)

	records, err := New(path, testLogger()).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "jane-doe", rec.Slug)
	assert.Equal(t, []string{"Camera", "Drone"}, rec.Categories)
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://x/jane.jpg", *rec.ImageURL)
	assert.Nil(t, rec.EquipmentURL)

	// Empty and null links are dropped, present ones keyed by LinkName.
	assert.Equal(t, map[string]string{
		LinkWebsite: "https://jane.example",
		LinkIMDB:    "https://imdb.com/name/nm1",
	}, rec.Links)
}

func TestRecords_MissingSlugFailsFast(t *testing.T) {
	path := writeScrape(t, `{"freelancers": [{"name": "No Slug"}]}`)

	_, err := New(path, testLogger()).Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0")
	assert.Contains(t, err.Error(), "missing slug")
}

func TestRecords_MissingFreelancersKeyFailsFast(t *testing.T) {
	path := writeScrape(t, `{"items": []}`)

	_, err := New(path, testLogger()).Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freelancers")
}

func TestRecords_FileMissing(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.json"), testLogger()).Records(context.Background())
	assert.Error(t, err)
}

func newTestDownloader(maxAttempts int) *Downloader {
	return NewDownloader(DownloaderConfig{
		Timeout:        5 * time.Second,
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func TestDownload_WritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "jane-doe.jpg")
	downloaded, err := newTestDownloader(3).Download(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, downloaded)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), got)
}

func TestDownload_SkipsExistingFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "jane-doe.jpg")
	require.NoError(t, os.WriteFile(dest, []byte("already here"), 0o644))

	downloaded, err := newTestDownloader(3).Download(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.False(t, downloaded)
	assert.Equal(t, int32(0), hits.Load())
}

func TestDownload_RetriesOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	downloaded, err := newTestDownloader(3).Download(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, downloaded)
	assert.Equal(t, int32(3), hits.Load())
}

func TestDownload_NoRetryOn4xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	_, err := newTestDownloader(3).Download(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), hits.Load())
	assert.NoFileExists(t, dest)
}

func TestDownload_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	_, err := newTestDownloader(3).Download(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}
