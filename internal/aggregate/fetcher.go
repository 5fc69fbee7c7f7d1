package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aitool/sleuth/internal/backend"
)

const (
	DefaultBulkPageSize = 3000
	DefaultPageSize     = 200
	DefaultConcurrency  = 8
)

// Options configures a Fetcher. Zero values fall back to the defaults.
type Options struct {
	Strategy     Strategy
	BulkPageSize int
	PageSize     int
	Concurrency  int
}

// Fetcher executes Requests against a Source. It holds no per-session state
// and is safe for concurrent use.
type Fetcher struct {
	src          Source
	strategy     Strategy
	bulkPageSize int
	pageSize     int
	concurrency  int
}

// NewFetcher builds a Fetcher.
func NewFetcher(src Source, opts Options) *Fetcher {
	f := &Fetcher{
		src:          src,
		strategy:     opts.Strategy,
		bulkPageSize: opts.BulkPageSize,
		pageSize:     opts.PageSize,
		concurrency:  opts.Concurrency,
	}
	if f.strategy != Bulk {
		f.strategy = Incremental
	}
	if f.bulkPageSize <= 0 {
		f.bulkPageSize = DefaultBulkPageSize
	}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	if f.concurrency <= 0 {
		f.concurrency = DefaultConcurrency
	}
	return f
}

// Strategy returns the configured strategy.
func (f *Fetcher) Strategy() Strategy {
	return f.strategy
}

// collector gathers results from concurrent fetches.
type collector struct {
	mu       sync.Mutex
	rows     [][]backend.LogRow
	cursors  []*Cursor
	failures []Failure
}

func newCollector(n int) *collector {
	return &collector{
		rows:    make([][]backend.LogRow, n),
		cursors: make([]*Cursor, n),
	}
}

func (c *collector) succeed(i int, rows []backend.LogRow, cur Cursor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[i] = rows
	c.cursors[i] = &cur
}

func (c *collector) fail(f Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

func (c *collector) into(b *Batch) {
	total := 0
	for _, r := range c.rows {
		total += len(r)
	}
	b.Rows = make([]backend.LogRow, 0, total)
	for i, r := range c.rows {
		b.Rows = append(b.Rows, r...)
		if c.cursors[i] != nil {
			b.Cursors = append(b.Cursors, *c.cursors[i])
		}
	}
	b.Failures = append(b.Failures, c.failures...)
	SortRows(b.Rows)
}

// Fetch executes req. It never fails as a whole: per-file errors are
// reported in Batch.Failures and the remaining files still contribute rows.
func (f *Fetcher) Fetch(ctx context.Context, req Request) Batch {
	batch := Batch{Generation: req.Generation, Kind: req.Kind}
	logger := log.WithFields(log.Fields{
		"generation": req.Generation,
		"kind":       req.Kind.String(),
		"strategy":   string(f.strategy),
	})

	var targets []Cursor
	switch req.Kind {
	case KindMore:
		targets = req.Cursors
	default:
		eligible, skipped, failures := f.resolve(ctx, req.IDs)
		batch.Skipped = skipped
		batch.Failures = failures
		for _, id := range eligible {
			targets = append(targets, Cursor{FileID: id})
		}
	}

	col := newCollector(len(targets))
	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for i, cur := range targets {
		g.Go(func() error {
			switch {
			case req.Kind == KindMore:
				f.fetchNext(ctx, i, cur, req.Filter, col)
			case f.strategy == Bulk:
				f.fetchAll(ctx, i, cur.FileID, req.Filter, col)
			default:
				f.fetchNext(ctx, i, cur, req.Filter, col)
			}
			return nil
		})
	}
	_ = g.Wait()
	col.into(&batch)

	for _, fail := range batch.Failures {
		logger.WithFields(log.Fields{
			"file_id": fail.FileID,
			"op":      fail.Op,
		}).WithError(fail.Err).Warn("log fetch failed")
	}
	logger.WithFields(log.Fields{
		"rows":    len(batch.Rows),
		"skipped": len(batch.Skipped),
	}).Debug("log fetch complete")
	return batch
}

// resolve looks up every file's status concurrently and splits the ids into
// parsed files and skipped ones, keeping the caller's order.
func (f *Fetcher) resolve(ctx context.Context, ids []string) ([]string, []SkippedFile, []Failure) {
	records := make([]backend.FileRecord, len(ids))
	errs := make([]error, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			records[i], errs[i] = f.src.GetFile(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var (
		eligible []string
		skipped  []SkippedFile
		failures []Failure
	)
	for i, id := range ids {
		if errs[i] != nil {
			failures = append(failures, Failure{FileID: id, Op: opStatus, Err: errs[i]})
			skipped = append(skipped, SkippedFile{ID: id, Name: id, Status: backend.StatusUnknown})
			continue
		}
		rec := records[i]
		if !rec.Status.Viewable() {
			skipped = append(skipped, SkippedFile{ID: id, Name: rec.DisplayName(), Status: rec.Status.Normalize()})
			continue
		}
		eligible = append(eligible, id)
	}
	return eligible, skipped, failures
}

// fetchNext pulls the page at cur.Next. The cursor only advances on success.
func (f *Fetcher) fetchNext(ctx context.Context, i int, cur Cursor, filter Filter, col *collector) {
	page, err := f.src.FetchLogs(ctx, cur.FileID, filter.Query(cur.Next, f.pageSize))
	if err != nil {
		col.fail(Failure{FileID: cur.FileID, Op: opPage, Page: cur.Next, Err: err})
		return
	}
	col.succeed(i, page.Data, Cursor{FileID: cur.FileID, Next: cur.Next + 1, Pages: page.Pages})
}

// fetchAll pulls page 0 to learn the page count, then the remaining pages in
// parallel. A file contributes either all of its pages or nothing.
func (f *Fetcher) fetchAll(ctx context.Context, i int, id string, filter Filter, col *collector) {
	first, err := f.src.FetchLogs(ctx, id, filter.Query(0, f.bulkPageSize))
	if err != nil {
		col.fail(Failure{FileID: id, Op: opPage, Page: 0, Err: err})
		return
	}
	pages := make([][]backend.LogRow, max(first.Pages, 1))
	pages[0] = first.Data

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for p := 1; p < first.Pages; p++ {
		g.Go(func() error {
			page, err := f.src.FetchLogs(gctx, id, filter.Query(p, f.bulkPageSize))
			if err != nil {
				return Failure{FileID: id, Op: opPage, Page: p, Err: err}
			}
			pages[p] = page.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var fail Failure
		if !errors.As(err, &fail) {
			fail = Failure{FileID: id, Op: opPage, Err: fmt.Errorf("fetch pages: %w", err)}
		}
		col.fail(fail)
		return
	}

	var rows []backend.LogRow
	for _, p := range pages {
		rows = append(rows, p...)
	}
	col.succeed(i, rows, Cursor{FileID: id, Next: first.Pages, Pages: first.Pages})
}
