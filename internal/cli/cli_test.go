package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitool/sleuth/internal/backend"
)

type fakeServer struct {
	mu       sync.Mutex
	files    map[string]backend.FileRecord
	rows     map[string][]backend.LogRow
	deleted  []string
	uploaded []string
	failDel  map[string]bool
	chatDown bool
	queries  []string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		files:   map[string]backend.FileRecord{},
		rows:    map[string][]backend.LogRow{},
		failDel: map[string]bool{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case path == "/api/uploads/test":
		_ = json.NewEncoder(w).Encode(backend.Health{Status: "UP", Message: "upload service ok"})
	case path == "/api/uploads" && r.Method == http.MethodPost:
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, _ := io.Copy(io.Discard, file)
		f.uploaded = append(f.uploaded, header.Filename)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(backend.UploadResult{ID: "id-" + header.Filename, Filename: header.Filename, Size: n})
	case path == "/api/ai/chat":
		if f.chatDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "model offline"})
			return
		}
		var req struct {
			Messages []backend.ChatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		last := req.Messages[len(req.Messages)-1].Content
		_ = json.NewEncoder(w).Encode(map[string]string{"content": "echo " + last})
	case path == "/api/files":
		list := make([]backend.FileRecord, 0, len(f.files))
		for _, rec := range f.files {
			list = append(list, rec)
		}
		_ = json.NewEncoder(w).Encode(list)
	case strings.HasPrefix(path, "/api/files/"):
		rest := strings.TrimPrefix(path, "/api/files/")
		id, suffix, _ := strings.Cut(rest, "/")
		rec, ok := f.files[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "file not found"})
			return
		}
		switch {
		case suffix == "" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(rec)
		case suffix == "" && r.Method == http.MethodDelete:
			if f.failDel[id] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			f.deleted = append(f.deleted, id)
			w.WriteHeader(http.StatusNoContent)
		case suffix == "logs":
			f.queries = append(f.queries, r.URL.RawQuery)
			_ = json.NewEncoder(w).Encode(backend.LogPage{Pages: 1, Data: f.rows[id]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func execute(t *testing.T, apiURL string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SLEUTH_LOG_FILE", filepath.Join(dir, "sleuth.log"))

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	full := append([]string{"--config", filepath.Join(dir, "missing.toml")}, args...)
	if apiURL != "" {
		full = append(full, "--api-url", apiURL)
	}
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestLogsMergesParsedFilesAndReportsSkipped(t *testing.T) {
	f, srv := newFakeServer(t)
	f.files["a"] = backend.FileRecord{UUID: "a", Filename: "a.log", Status: backend.StatusParsed}
	f.files["b"] = backend.FileRecord{UUID: "b", Filename: "b.log", Status: "parsed"}
	f.files["c"] = backend.FileRecord{UUID: "c", Filename: "c.zip", Status: backend.StatusStored}
	f.rows["a"] = []backend.LogRow{
		{Timestamp: "2024-03-01 10:00:01", Level: "E", Tag: "x", Message: "a1"},
		{Timestamp: "2024-03-01 10:00:05", Level: "E", Tag: "x", Message: "a2"},
	}
	f.rows["b"] = []backend.LogRow{
		{Timestamp: "2024-03-01 10:00:03", Level: "E", Tag: "x", Message: "b1"},
	}

	stdout, stderr, err := execute(t, srv.URL, "logs", "a", "b", "c", "--level", "error", "--output", "json", "--all")
	require.NoError(t, err)

	var got []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		var row backend.LogRow
		require.NoError(t, json.Unmarshal([]byte(line), &row))
		got = append(got, row.Message)
	}
	assert.Equal(t, []string{"a1", "b1", "a2"}, got)
	assert.Contains(t, stderr, "c.zip (STORED)")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.queries)
	for _, q := range f.queries {
		assert.Contains(t, q, "level=Error")
	}
}

func TestLogsRejectsInvalidFilter(t *testing.T) {
	_, srv := newFakeServer(t)
	_, _, err := execute(t, srv.URL, "logs", "a", "--level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")

	_, _, err = execute(t, srv.URL, "logs", "a", "--output", "xml")
	require.Error(t, err)
}

func TestDeleteReportsSuccessWhenSomeCallsFail(t *testing.T) {
	f, srv := newFakeServer(t)
	for _, id := range []string{"a", "b", "c"} {
		f.files[id] = backend.FileRecord{UUID: id, Status: backend.StatusParsed}
	}
	f.failDel["b"] = true

	stdout, _, err := execute(t, srv.URL, "delete", "a", "b", "c")
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted 3 files")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "c"}, f.deleted)
}

func TestUploadExpandsPatternsAndSendsOneRequestPerFile(t *testing.T) {
	f, srv := newFakeServer(t)
	dir := t.TempDir()
	for _, name := range []string{"one/a.log", "one/two/b.log", "c.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o644))
	}

	stdout, _, err := execute(t, srv.URL, "upload", filepath.Join(dir, "**", "*.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "uploaded "))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.ElementsMatch(t, []string{"a.log", "b.log"}, f.uploaded)
}

func TestUploadPatternWithoutMatchesFails(t *testing.T) {
	_, srv := newFakeServer(t)
	_, _, err := execute(t, srv.URL, "upload", filepath.Join(t.TempDir(), "*.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
}

func TestChatFallsBackWhenAssistantIsDown(t *testing.T) {
	f, srv := newFakeServer(t)

	stdout, _, err := execute(t, srv.URL, "chat", "why", "crash?")
	require.NoError(t, err)
	assert.Equal(t, "echo why crash?\n", stdout)

	f.mu.Lock()
	f.chatDown = true
	f.mu.Unlock()

	stdout, stderr, err := execute(t, srv.URL, "chat", "hello")
	require.NoError(t, err)
	assert.Equal(t, chatUnavailableReply+"\n", stdout)
	assert.Contains(t, stderr, "assistant unavailable")
}

func TestAPIURLFromEnvironment(t *testing.T) {
	_, srv := newFakeServer(t)
	t.Setenv("SLEUTH_API_URL", srv.URL)

	stdout, _, err := execute(t, "", "ping")
	require.NoError(t, err)
	assert.Contains(t, stdout, "upload service ok")
}

func TestUnknownStrategyIsRejected(t *testing.T) {
	_, srv := newFakeServer(t)
	_, _, err := execute(t, srv.URL, "--strategy", "eager", "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eager")
}
