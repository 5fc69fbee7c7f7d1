package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	LogFile        string
	LogLevel       string
	Upload         UploadConfig
	Viewer         ViewerConfig
}

// UploadConfig bounds local uploads.
type UploadConfig struct {
	MaxBytes int64
	Timeout  time.Duration
}

// ViewerConfig selects the log loading strategy and page sizes.
type ViewerConfig struct {
	Strategy     string
	BulkPageSize int
	PageSize     int
	Concurrency  int
}

const (
	defaultConfigPath     = "~/.config/sleuth/config.toml"
	defaultLogFile        = "~/.local/state/sleuth/sleuth.log"
	defaultAPIURL         = "http://127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 5 * time.Second
	defaultMaxBytes       = 500 << 20
	defaultUploadTimeout  = 5 * time.Minute
	defaultStrategy       = "incremental"
	defaultBulkPageSize   = 3000
	defaultPageSize       = 200
	defaultConcurrency    = 8
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		Upload: UploadConfig{
			MaxBytes: defaultMaxBytes,
			Timeout:  defaultUploadTimeout,
		},
		Viewer: ViewerConfig{
			Strategy:     defaultStrategy,
			BulkPageSize: defaultBulkPageSize,
			PageSize:     defaultPageSize,
			Concurrency:  defaultConcurrency,
		},
	}
}

type rawConfig struct {
	APIURL         string `toml:"api_url"`
	RequestTimeout string `toml:"request_timeout"`
	PollInterval   string `toml:"poll_interval"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	Upload         struct {
		MaxBytes int64  `toml:"max_bytes"`
		Timeout  string `toml:"timeout"`
	} `toml:"upload"`
	Viewer struct {
		Strategy     string `toml:"strategy"`
		BulkPageSize int    `toml:"bulk_page_size"`
		PageSize     int    `toml:"page_size"`
		Concurrency  int    `toml:"concurrency"`
	} `toml:"viewer"`
}

// Load parses the config file at path (or the default location), falling
// back to defaults when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Viewer.Strategy); v != "" {
		cfg.Viewer.Strategy = strings.ToLower(v)
	}
	if raw.Upload.MaxBytes > 0 {
		cfg.Upload.MaxBytes = raw.Upload.MaxBytes
	}
	if raw.Viewer.BulkPageSize > 0 {
		cfg.Viewer.BulkPageSize = raw.Viewer.BulkPageSize
	}
	if raw.Viewer.PageSize > 0 {
		cfg.Viewer.PageSize = raw.Viewer.PageSize
	}
	if raw.Viewer.Concurrency > 0 {
		cfg.Viewer.Concurrency = raw.Viewer.Concurrency
	}

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"upload.timeout", raw.Upload.Timeout, &cfg.Upload.Timeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.value, d.dest); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	switch c.Viewer.Strategy {
	case "bulk", "incremental":
	default:
		return fmt.Errorf("viewer.strategy %q: want bulk or incremental", c.Viewer.Strategy)
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is empty")
	}
	return nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func parseDuration(key, value string, dest *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse config: %s must be positive", key)
	}
	*dest = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
