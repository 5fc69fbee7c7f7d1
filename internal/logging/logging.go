// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Setup points logrus at the JSON log file and sets the level. The returned
// closer flushes and closes the file. An unknown level falls back to info.
func Setup(file, level string) (io.Closer, error) {
	log.SetReportCaller(true)
	log.SetFormatter(&log.JSONFormatter{
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
		},
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, lvlErr := log.ParseLevel(level)
	if lvlErr != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if file == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	if lvlErr != nil {
		log.Infof("Level setup default INFO, err: %v", lvlErr)
	}
	return f, nil
}

// StderrHook copies entries at or above a level to stderr in text form, for
// non-interactive commands where the terminal is free.
type StderrHook struct {
	Out       io.Writer
	MinLevel  log.Level
	formatter log.Formatter
}

// NewStderrHook returns a hook for warnings and errors.
func NewStderrHook() *StderrHook {
	return &StderrHook{
		Out:       os.Stderr,
		MinLevel:  log.WarnLevel,
		formatter: &log.TextFormatter{DisableTimestamp: true, DisableQuote: true},
	}
}

// Levels implements log.Hook.
func (h *StderrHook) Levels() []log.Level {
	var out []log.Level
	for _, l := range log.AllLevels {
		if l <= h.MinLevel {
			out = append(out, l)
		}
	}
	return out
}

// Fire implements log.Hook.
func (h *StderrHook) Fire(entry *log.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.Out.Write(line)
	return err
}
