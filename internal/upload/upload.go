// Package upload validates and submits log archives to the backend.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aitool/sleuth/internal/backend"
)

const (
	DefaultMaxBytes int64 = 500 << 20
	DefaultTimeout        = 5 * time.Minute
)

var (
	// ErrTooLarge is returned before any request when a file exceeds the ceiling.
	ErrTooLarge = errors.New("file exceeds upload size limit")
	// ErrEmptyFile is returned for zero-byte files.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNotRegular is returned for directories and devices.
	ErrNotRegular = errors.New("not a regular file")
	// ErrInvalidURL is returned when a remote URL is not absolute http(s).
	ErrInvalidURL = errors.New("invalid remote url")
)

// Backend is the part of the backend client the uploader needs.
type Backend interface {
	UploadFile(ctx context.Context, name string, content io.Reader, size int64, onProgress backend.ProgressFunc) (backend.UploadResult, error)
	UploadRemote(ctx context.Context, rawURL string) (backend.RemoteUploadResult, error)
}

var _ Backend = (*backend.Client)(nil)

// Progress is one upload progress observation.
type Progress struct {
	Sent    int64
	Total   int64
	Percent float64
}

// Uploader submits single files or remote URLs.
type Uploader struct {
	api      Backend
	maxBytes int64
	timeout  time.Duration
}

// New builds an Uploader. Non-positive limits fall back to the defaults.
func New(api Backend, maxBytes int64, timeout time.Duration) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Uploader{api: api, maxBytes: maxBytes, timeout: timeout}
}

// MaxBytes returns the size ceiling.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Validate checks a local file without sending anything and returns its size.
func (u *Uploader) Validate(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if info.Size() > u.maxBytes {
		return 0, fmt.Errorf("%s is %s, limit %s: %w", filepath.Base(path), HumanBytes(info.Size()), HumanBytes(u.maxBytes), ErrTooLarge)
	}
	return info.Size(), nil
}

// UploadFile submits exactly one local file. onProgress may be nil.
func (u *Uploader) UploadFile(ctx context.Context, path string, onProgress func(Progress)) (backend.UploadResult, error) {
	size, err := u.Validate(path)
	if err != nil {
		return backend.UploadResult{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return backend.UploadResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	name := filepath.Base(path)
	logger := log.WithFields(log.Fields{"file": name, "bytes": size})
	logger.Info("upload started")

	res, err := u.api.UploadFile(ctx, name, f, size, func(sent, total int64) {
		if onProgress != nil {
			onProgress(newProgress(sent, total))
		}
	})
	if err != nil {
		logger.WithError(err).Warn("upload failed")
		return backend.UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}
	logger.WithField("file_id", res.ID).Info("upload complete")
	return res, nil
}

// UploadURL asks the backend to fetch a remote archive.
func (u *Uploader) UploadURL(ctx context.Context, rawURL string) (backend.RemoteUploadResult, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return backend.RemoteUploadResult{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	res, err := u.api.UploadRemote(ctx, target)
	if err != nil {
		log.WithField("url", target).WithError(err).Warn("remote upload failed")
		return backend.RemoteUploadResult{}, fmt.Errorf("remote upload: %w", err)
	}
	log.WithFields(log.Fields{"url": target, "file_id": res.ID}).Info("remote upload accepted")
	return res, nil
}

// ValidateURL trims rawURL and checks it is an absolute http or https URL.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q must be http(s) with a host", ErrInvalidURL, trimmed)
	}
	return trimmed, nil
}

// IsRemote reports whether input looks like a URL rather than a local path.
func IsRemote(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func newProgress(sent, total int64) Progress {
	p := Progress{Sent: sent, Total: total}
	if total > 0 {
		p.Percent = float64(sent) / float64(total)
		if p.Percent > 1 {
			p.Percent = 1
		}
	}
	return p
}

// HumanBytes formats a byte count with binary units, e.g. "1.5 MiB".
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Describe returns a short message for an upload error. Client-side
// validation errors keep their own text; backend errors go through
// backend.Describe.
func Describe(err error) string {
	for _, sentinel := range []error{ErrTooLarge, ErrEmptyFile, ErrNotRegular, ErrInvalidURL} {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}
	return backend.Describe(err)
}
