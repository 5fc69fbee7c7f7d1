package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitool/sleuth/internal/backend"
)

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644))
	return path
}

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/uploads":
			_, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(backend.UploadResult{ID: "id-1", Filename: header.Filename, Size: header.Size})
		case "/api/uploads/remote":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(backend.RemoteUploadResult{ID: "id-2", SourceURL: r.URL.Query().Get("url")})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestUploadFile_TooLargeFailsBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)
	client, err := backend.NewClient(server.URL)
	require.NoError(t, err)

	u := New(client, 10, time.Second)
	path := writeFile(t, "big.log", 11)

	_, err = u.UploadFile(context.Background(), path, nil)
	assert.True(t, errors.Is(err, ErrTooLarge), "err = %v", err)
	assert.Zero(t, hits.Load(), "no request may be sent for an oversized file")
}

func TestUploadFile_RejectsEmptyAndDirectories(t *testing.T) {
	u := New(nil, 0, 0)

	_, err := u.UploadFile(context.Background(), writeFile(t, "empty.log", 0), nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = u.UploadFile(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNotRegular)

	_, err = u.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadFile_ReportsProgress(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)
	client, err := backend.NewClient(server.URL)
	require.NoError(t, err)

	u := New(client, 0, 0)
	path := writeFile(t, "bugreport.txt", 256<<10)

	var last atomic.Value
	res, err := u.UploadFile(context.Background(), path, func(p Progress) {
		last.Store(p)
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", res.ID)
	assert.Equal(t, "bugreport.txt", res.Filename)
	assert.Equal(t, int32(1), hits.Load())

	final, ok := last.Load().(Progress)
	require.True(t, ok)
	assert.Equal(t, final.Total, final.Sent)
	assert.InDelta(t, 1.0, final.Percent, 1e-9)
}

func TestUploadURL_ValidatesScheme(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)
	client, err := backend.NewClient(server.URL)
	require.NoError(t, err)
	u := New(client, 0, 0)

	for _, bad := range []string{"", "ftp://host/a.zip", "/tmp/a.zip", "http://"} {
		_, err := u.UploadURL(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidURL, "input %q", bad)
	}
	assert.Zero(t, hits.Load())

	res, err := u.UploadURL(context.Background(), "  https://example.com/logs.zip ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/logs.zip", res.SourceURL)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.5 KiB", HumanBytes(1536))
	assert.Equal(t, "500.0 MiB", HumanBytes(DefaultMaxBytes))
	assert.True(t, IsRemote("HTTPS://x"))
	assert.False(t, IsRemote("./x.zip"))
	assert.Equal(t, 0.5, newProgress(5, 10).Percent)
	assert.Zero(t, newProgress(5, 0).Percent)
}

func TestDescribe(t *testing.T) {
	tooLarge := fmt.Errorf("%w: 600 MB > 500 MB", ErrTooLarge)
	assert.Equal(t, tooLarge.Error(), Describe(tooLarge))

	apiErr := fmt.Errorf("upload a.zip: %w", &backend.APIError{Path: "/api/uploads", Status: http.StatusRequestEntityTooLarge})
	assert.Equal(t, "file too large", Describe(apiErr))

	assert.Equal(t, "request timed out", Describe(backend.ErrTimeout))
}
