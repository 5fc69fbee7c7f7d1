package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Client talks to the log inspection REST API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	requestTimeout time.Duration
}

const (
	defaultAPIURL         = "127.0.0.1:8080"
	defaultUserAgent      = "sleuth/0.1"
	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 64 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithRequestTimeout bounds every non-upload request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a Client for the given base URL or host:port value.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:        base,
		http:           &http.Client{},
		userAgent:      defaultUserAgent,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListFiles returns every uploaded file, newest first.
func (c *Client) ListFiles(ctx context.Context) ([]FileRecord, error) {
	var payload []FileRecord
	if err := c.do(ctx, http.MethodGet, "/api/files", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetFile returns the record for a single file.
func (c *Client) GetFile(ctx context.Context, id string) (FileRecord, error) {
	if strings.TrimSpace(id) == "" {
		return FileRecord{}, fmt.Errorf("file id required")
	}
	var payload FileRecord
	if err := c.doURL(ctx, http.MethodGet, fileURL(id, ""), nil, &payload); err != nil {
		return FileRecord{}, err
	}
	payload.Status = payload.Status.Normalize()
	return payload, nil
}

// TriggerParse asks the backend to parse an uploaded file. The backend
// answers 202 and parses asynchronously.
func (c *Client) TriggerParse(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("file id required")
	}
	var payload messageResponse
	if err := c.doURL(ctx, http.MethodPost, fileURL(id, "/parse"), nil, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// DeleteFile removes a file and its parsed rows.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("file id required")
	}
	return c.doURL(ctx, http.MethodDelete, fileURL(id, ""), nil, nil)
}

// LogQuery configures /api/files/{id}/logs requests.
type LogQuery struct {
	Page  int
	Size  int
	Level Level
	Tag   string
	From  time.Time
	To    time.Time
}

// Values encodes the query parameters.
func (q LogQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(max(q.Page, 0)))
	if q.Size > 0 {
		values.Set("size", strconv.Itoa(q.Size))
	}
	if lvl := strings.TrimSpace(string(q.Level)); lvl != "" {
		values.Set("level", lvl)
	}
	if tag := strings.TrimSpace(q.Tag); tag != "" {
		values.Set("tag", tag)
	}
	if !q.From.IsZero() {
		values.Set("from", q.From.Format(LocalTimeLayout))
	}
	if !q.To.IsZero() {
		values.Set("to", q.To.Format(LocalTimeLayout))
	}
	return values
}

// FetchLogs retrieves one page of parsed rows for a file.
func (c *Client) FetchLogs(ctx context.Context, id string, query LogQuery) (LogPage, error) {
	if strings.TrimSpace(id) == "" {
		return LogPage{}, fmt.Errorf("file id required")
	}
	rel := fileURL(id, "/logs")
	rel.RawQuery = query.Values().Encode()
	var payload LogPage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return LogPage{}, err
	}
	return payload, nil
}

// UploadRemote asks the backend to download a log archive from rawURL.
func (c *Client) UploadRemote(ctx context.Context, rawURL string) (RemoteUploadResult, error) {
	values := url.Values{}
	values.Set("url", rawURL)
	rel := &url.URL{Path: "/api/uploads/remote", RawQuery: values.Encode()}
	var payload RemoteUploadResult
	if err := c.doURLTimeout(ctx, 0, http.MethodPost, rel, nil, &payload); err != nil {
		return RemoteUploadResult{}, err
	}
	return payload, nil
}

// Ping checks that the upload service is reachable.
func (c *Client) Ping(ctx context.Context) (Health, error) {
	var payload Health
	if err := c.do(ctx, http.MethodGet, "/api/uploads/test", nil, &payload); err != nil {
		return Health{}, err
	}
	return payload, nil
}

// Chat forwards a conversation to the assistant endpoint and returns the reply.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	var payload chatResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", chatRequest{Messages: messages}, &payload); err != nil {
		return "", err
	}
	return payload.Content, nil
}

// fileURL builds /api/files/{id}{suffix}, escaping the identifier.
func fileURL(id, suffix string) *url.URL {
	id = strings.TrimSpace(id)
	return &url.URL{
		Path:    "/api/files/" + id + suffix,
		RawPath: "/api/files/" + url.PathEscape(id) + suffix,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body any, dest any) error {
	return c.doURLTimeout(ctx, c.requestTimeout, method, rel, body, dest)
}

// doURLTimeout issues a JSON request. A zero timeout leaves the deadline to ctx.
func (c *Client) doURLTimeout(ctx context.Context, timeout time.Duration, method string, rel *url.URL, body any, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, rel.Path, dest)
}

func (c *Client) send(req *http.Request, path string, dest any) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	entry := log.WithFields(log.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"path":       path,
	})
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		entry.WithError(err).Debug("backend request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("execute request: %w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	entry.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	}).Debug("backend request")

	if resp.StatusCode >= 400 {
		return newAPIError(path, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
