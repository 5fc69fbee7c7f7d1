package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrTimeout marks requests that ran past their deadline.
var ErrTimeout = errors.New("request timed out")

// APIError is returned for 4xx/5xx responses. Message carries the backend's
// {"message": ...} text when present.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func newAPIError(path string, resp *http.Response) *APIError {
	apiErr := &APIError{Path: path, Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload messageResponse
	if json.Unmarshal(raw, &payload) == nil && strings.TrimSpace(payload.Message) != "" {
		apiErr.Message = strings.TrimSpace(payload.Message)
		return apiErr
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// Describe turns an error into a short user-facing sentence. The backend's
// own message wins over transport details.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTimeout) {
		return "request timed out"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		switch apiErr.Status {
		case http.StatusNotFound:
			return "not found"
		case http.StatusRequestEntityTooLarge:
			return "file too large"
		}
		return fmt.Sprintf("server error (%d)", apiErr.Status)
	}
	return err.Error()
}
