package blob

import (
	"context"
	"io"
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

func testUploader(baseURL string, maxAttempts int) *Uploader {
	return NewUploader(Config{
		BaseURL:        baseURL,
		SASToken:       "sv=2024&sig=secret",
		Timeout:        5 * time.Second,
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func writeAsset(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeFor(".jpg"))
	assert.Equal(t, "image/jpeg", ContentTypeFor(".jpeg"))
	assert.Equal(t, "image/jpeg", ContentTypeFor(".JPG"))
	assert.Equal(t, "image/png", ContentTypeFor(".png"))
	assert.Equal(t, "application/pdf", ContentTypeFor(".pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor(".docx"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor(""))
}

func TestUpload_SendsBlockBlobPut(t *testing.T) {
	var gotPath, gotQuery, gotBlobType, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotBlobType = r.Header.Get("x-ms-blob-type")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	path := writeAsset(t, "P000077.jpg", []byte("jpeg bytes"))
	err := testUploader(srv.URL, 3).Upload(context.Background(), path, "P000077.jpg")
	require.NoError(t, err)

	assert.Equal(t, "/P000077.jpg", gotPath)
	assert.Equal(t, "sv=2024&sig=secret", gotQuery)
	assert.Equal(t, "BlockBlob", gotBlobType)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte("jpeg bytes"), gotBody)
}

func TestUpload_RetriesOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	path := writeAsset(t, "C000001.pdf", []byte("pdf"))
	err := testUploader(srv.URL, 3).Upload(context.Background(), path, "C000001.pdf")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestUpload_NoRetryOn4xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("AuthenticationFailed"))
	}))
	defer srv.Close()

	path := writeAsset(t, "P000002.jpg", []byte("x"))
	err := testUploader(srv.URL, 3).Upload(context.Background(), path, "P000002.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "AuthenticationFailed")
	assert.Equal(t, int32(1), hits.Load())
}

func TestUpload_ErrorNeverLeaksSASToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := writeAsset(t, "P000003.jpg", []byte("x"))
	err := testUploader(srv.URL, 1).Upload(context.Background(), path, "P000003.jpg")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "sig=secret")
}

func TestUpload_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := writeAsset(t, "P000004.jpg", []byte("x"))
	err := testUploader(srv.URL, 3).Upload(context.Background(), path, "P000004.jpg")
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestUpload_MissingLocalFile(t *testing.T) {
	err := testUploader("http://unused.invalid", 3).Upload(
		context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), "P000005.jpg")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/P000077.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u := testUploader(srv.URL, 3)

	exists, err := u.Exists(context.Background(), "P000077.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = u.Exists(context.Background(), "P000099.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExists_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testUploader(srv.URL, 3).Exists(context.Background(), "P000006.jpg")
	assert.Error(t, err)
}
