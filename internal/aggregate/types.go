package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aitool/sleuth/internal/backend"
)

// Source is the part of the backend the aggregator reads from.
type Source interface {
	GetFile(ctx context.Context, id string) (backend.FileRecord, error)
	FetchLogs(ctx context.Context, id string, query backend.LogQuery) (backend.LogPage, error)
}

var _ Source = (*backend.Client)(nil)

// Strategy selects how pages are pulled from the backend.
type Strategy string

const (
	// Bulk fetches every page of every file up front.
	Bulk Strategy = "bulk"
	// Incremental fetches the first page and more on demand.
	Incremental Strategy = "incremental"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case Bulk:
		return Bulk, nil
	case Incremental, "":
		return Incremental, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want bulk or incremental)", value)
	}
}

// Filter narrows the rows returned by the backend. Zero fields are omitted.
type Filter struct {
	Level backend.Level
	Tag   string
	From  time.Time
	To    time.Time
}

// IsZero reports whether no filter field is set.
func (f Filter) IsZero() bool {
	return f.Level == "" && strings.TrimSpace(f.Tag) == "" && f.From.IsZero() && f.To.IsZero()
}

// Query builds the backend query for one page.
func (f Filter) Query(page, size int) backend.LogQuery {
	return backend.LogQuery{
		Page:  page,
		Size:  size,
		Level: f.Level,
		Tag:   strings.TrimSpace(f.Tag),
		From:  f.From,
		To:    f.To,
	}
}

// String renders the active filter compactly, e.g. "level=Error tag=net".
func (f Filter) String() string {
	var parts []string
	if f.Level != "" {
		parts = append(parts, "level="+string(f.Level))
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		parts = append(parts, "tag="+tag)
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(backend.LocalTimeLayout))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(backend.LocalTimeLayout))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ErrInvalidFilter wraps unparseable filter input.
var ErrInvalidFilter = errors.New("invalid filter")

var boundLayouts = []string{
	backend.LocalTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFilter builds a Filter from user input. Empty fields are left unset.
// Levels accept the shorthand understood by backend.ParseLevel; bounds are
// local date-times with optional seconds or time of day.
func ParseFilter(level, tag, from, to string) (Filter, error) {
	f := Filter{Tag: strings.TrimSpace(tag)}
	if strings.TrimSpace(level) != "" {
		lvl, ok := backend.ParseLevel(level)
		if !ok {
			return Filter{}, fmt.Errorf("%w: unknown level %q", ErrInvalidFilter, level)
		}
		f.Level = lvl
	}
	var err error
	if f.From, err = parseBound(from); err != nil {
		return Filter{}, fmt.Errorf("%w: from: %w", ErrInvalidFilter, err)
	}
	if f.To, err = parseBound(to); err != nil {
		return Filter{}, fmt.Errorf("%w: to: %w", ErrInvalidFilter, err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("%w: range ends before it starts", ErrInvalidFilter)
	}
	return f, nil
}

func parseBound(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date-time", value)
}

// Cursor tracks pagination for one file under the active filter.
type Cursor struct {
	FileID string
	Next   int
	Pages  int
}

// Exhausted reports whether every page has been fetched.
func (c Cursor) Exhausted() bool {
	return c.Next >= c.Pages
}

// Kind distinguishes the first load of a session from follow-up pages.
type Kind int

const (
	KindInitial Kind = iota
	KindMore
)

func (k Kind) String() string {
	if k == KindMore {
		return "more"
	}
	return "initial"
}

// Request describes one unit of fetch work produced by a Session.
type Request struct {
	Generation uint64
	Kind       Kind
	IDs        []string
	Cursors    []Cursor
	Filter     Filter
}

// SkippedFile is a requested file that contributed no rows because it has
// not been parsed.
type SkippedFile struct {
	ID     string
	Name   string
	Status backend.FileStatus
}

// Failure records a per-file error. Other files are unaffected.
type Failure struct {
	FileID string
	Op     string
	Page   int
	Err    error
}

func (f Failure) Error() string {
	if f.Op == opPage {
		return fmt.Sprintf("%s page %d: %v", f.FileID, f.Page, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.FileID, f.Op, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

const (
	opStatus = "status"
	opPage   = "page"
)

// Batch is the result of executing a Request.
type Batch struct {
	Generation uint64
	Kind       Kind
	Rows       []backend.LogRow
	Cursors    []Cursor
	Skipped    []SkippedFile
	Failures   []Failure
}

// DescribeSkipped lists skipped files for a notification, e.g.
// "a.zip (STORED), b.zip (UNKNOWN)".
func DescribeSkipped(skipped []SkippedFile) string {
	names := make([]string, 0, len(skipped))
	for _, s := range skipped {
		names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Status))
	}
	return strings.Join(names, ", ")
}
