package backend

import (
	"strings"
	"time"
)

// LocalTimeLayout is the ISO local date-time format the backend accepts for
// the from/to log filters.
const LocalTimeLayout = "2006-01-02T15:04:05"

// FileStatus is the processing state of an uploaded file.
type FileStatus string

const (
	StatusStored    FileStatus = "STORED"
	StatusExtracted FileStatus = "EXTRACTED"
	StatusParsing   FileStatus = "PARSING"
	StatusParsed    FileStatus = "PARSED"
	StatusFailed    FileStatus = "FAILED"
	// StatusUnknown is assigned client-side when the status lookup failed.
	StatusUnknown FileStatus = "UNKNOWN"
)

// Normalize upper-cases the status and maps empty values to StatusUnknown.
func (s FileStatus) Normalize() FileStatus {
	v := FileStatus(strings.ToUpper(strings.TrimSpace(string(s))))
	if v == "" {
		return StatusUnknown
	}
	return v
}

// Viewable reports whether rows can be fetched for a file in this state.
func (s FileStatus) Viewable() bool {
	return s.Normalize() == StatusParsed
}

// FileRecord mirrors the payload returned by /api/files and /api/files/{id}.
type FileRecord struct {
	UUID      string     `json:"uuid"`
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	CreatedAt string     `json:"createdAt"`
	Message   string     `json:"message,omitempty"`
}

// DisplayName returns the filename, falling back to the identifier.
func (f FileRecord) DisplayName() string {
	if name := strings.TrimSpace(f.Filename); name != "" {
		return name
	}
	return f.UUID
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (f FileRecord) ParsedCreatedAt() time.Time {
	return parseTime(f.CreatedAt)
}

// Level is a log severity as understood by the level filter.
type Level string

const (
	LevelError Level = "Error"
	LevelWarn  Level = "Warn"
	LevelInfo  Level = "Info"
	LevelDebug Level = "Debug"
)

// Levels lists the filterable severities, most severe first.
func Levels() []Level {
	return []Level{LevelError, LevelWarn, LevelInfo, LevelDebug}
}

// ParseLevel accepts the four level names in any case and their
// single-letter shorthand (E, W, I, D). These are exactly the values the
// log query endpoint expands; anything else is rejected.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "E", "ERROR":
		return LevelError, true
	case "W", "WARN":
		return LevelWarn, true
	case "I", "INFO":
		return LevelInfo, true
	case "D", "DEBUG":
		return LevelDebug, true
	default:
		return "", false
	}
}

// rowSeverity folds the levels a parsed row may carry onto the four display
// severities. Verbose rows show as debug and fatal rows as errors.
func rowSeverity(value string) Level {
	if lvl, ok := ParseLevel(value); ok {
		return lvl
	}
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "F", "FATAL", "A", "ASSERT", "ERR":
		return LevelError
	case "WARNING":
		return LevelWarn
	case "V", "VERBOSE", "TRACE":
		return LevelDebug
	}
	return ""
}

// LogRow is one parsed log line.
type LogRow struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Tag       string `json:"tag"`
	Message   string `json:"message"`
	RawLine   string `json:"rawLine,omitempty"`
}

// Content returns the raw line when the parser kept it, otherwise the message.
func (r LogRow) Content() string {
	if r.RawLine != "" {
		return r.RawLine
	}
	return r.Message
}

// Key identifies the row within a list. Duplicate keys are possible.
func (r LogRow) Key() string {
	return r.Timestamp + r.Content()
}

// Severity normalizes the row level for display; unknown levels return "".
func (r LogRow) Severity() Level {
	return rowSeverity(r.Level)
}

// LogPage mirrors /api/files/{id}/logs.
type LogPage struct {
	Total int64    `json:"total"`
	Pages int      `json:"pages"`
	Data  []LogRow `json:"data"`
}

// UploadResult mirrors the 201 payload of /api/uploads.
type UploadResult struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// RemoteUploadResult mirrors the 201 payload of /api/uploads/remote.
type RemoteUploadResult struct {
	ID        string `json:"id"`
	SourceURL string `json:"sourceUrl"`
}

// Health mirrors /api/uploads/test.
type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", LocalTimeLayout, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
