package aggregate

import (
	"context"
	"slices"

	"github.com/aitool/sleuth/internal/backend"
)

// Session owns the rows and page cursors of one viewer. It is not safe for
// concurrent use; the UI mutates it from its update loop only and runs
// Fetcher.Fetch in the background.
type Session struct {
	generation uint64
	ids        []string
	filter     Filter
	rows       []backend.LogRow
	cursors    []Cursor
	skipped    []SkippedFile
	loading    bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Begin starts a new query for ids under filter. Accumulated rows and
// cursors are discarded and the generation advances, so batches produced
// for earlier requests are ignored by Apply.
func (s *Session) Begin(ids []string, filter Filter) Request {
	s.generation++
	s.ids = slices.Clone(ids)
	s.filter = filter
	s.rows = nil
	s.cursors = nil
	s.skipped = nil
	s.loading = true
	return Request{
		Generation: s.generation,
		Kind:       KindInitial,
		IDs:        slices.Clone(ids),
		Filter:     filter,
	}
}

// More returns the request for the next page of every file that has one.
// It returns false while a fetch is in flight or when all pages are loaded.
func (s *Session) More() (Request, bool) {
	if s.loading || s.generation == 0 {
		return Request{}, false
	}
	var pending []Cursor
	for _, c := range s.cursors {
		if !c.Exhausted() {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return Request{}, false
	}
	s.loading = true
	return Request{
		Generation: s.generation,
		Kind:       KindMore,
		Cursors:    pending,
		Filter:     s.filter,
	}, true
}

// Apply merges a batch into the session. Batches from a superseded
// generation are dropped and Apply returns false.
func (s *Session) Apply(b Batch) bool {
	if b.Generation != s.generation {
		return false
	}
	switch b.Kind {
	case KindMore:
		s.rows = MergeSorted(s.rows, b.Rows)
		for _, updated := range b.Cursors {
			for i := range s.cursors {
				if s.cursors[i].FileID == updated.FileID {
					s.cursors[i] = updated
				}
			}
		}
	default:
		rows := slices.Clone(b.Rows)
		SortRows(rows)
		s.rows = rows
		s.cursors = slices.Clone(b.Cursors)
		s.skipped = slices.Clone(b.Skipped)
	}
	s.loading = false
	return true
}

// Rows returns the merged rows in timestamp order. The slice must not be
// modified.
func (s *Session) Rows() []backend.LogRow {
	return slices.Clip(s.rows)
}

// Len returns the number of loaded rows.
func (s *Session) Len() int {
	return len(s.rows)
}

// HasMore reports whether any file still has unfetched pages.
func (s *Session) HasMore() bool {
	for _, c := range s.cursors {
		if !c.Exhausted() {
			return true
		}
	}
	return false
}

// Loading reports whether a request is in flight.
func (s *Session) Loading() bool {
	return s.loading
}

// Generation returns the token of the current request set.
func (s *Session) Generation() uint64 {
	return s.generation
}

// IDs returns the file identifiers of the current query.
func (s *Session) IDs() []string {
	return slices.Clone(s.ids)
}

// Filter returns the filter of the current query.
func (s *Session) Filter() Filter {
	return s.filter
}

// Skipped returns the files excluded from the current query.
func (s *Session) Skipped() []SkippedFile {
	return slices.Clone(s.skipped)
}

// Cursors returns a copy of the per-file cursors.
func (s *Session) Cursors() []Cursor {
	return slices.Clone(s.cursors)
}

// Collect runs a complete query synchronously. With all set, an incremental
// fetcher keeps requesting pages until every cursor is exhausted or a round
// makes no progress.
func Collect(ctx context.Context, f *Fetcher, ids []string, filter Filter, all bool) (*Session, []Failure) {
	s := NewSession()
	batch := f.Fetch(ctx, s.Begin(ids, filter))
	s.Apply(batch)
	failures := batch.Failures

	for all && ctx.Err() == nil {
		req, ok := s.More()
		if !ok {
			break
		}
		batch := f.Fetch(ctx, req)
		s.Apply(batch)
		failures = append(failures, batch.Failures...)
		if len(batch.Cursors) == 0 {
			break
		}
	}
	return s, failures
}
