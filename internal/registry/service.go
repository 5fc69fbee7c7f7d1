package registry

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aitool/sleuth/internal/backend"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_fileops.go -package=mocks

// FileOps is the backend surface needed to manage uploaded files.
type FileOps interface {
	ListFiles(ctx context.Context) ([]backend.FileRecord, error)
	TriggerParse(ctx context.Context, id string) (string, error)
	DeleteFile(ctx context.Context, id string) error
}

var _ FileOps = (*backend.Client)(nil)

const defaultConcurrency = 8

// Service runs list-wide actions. Each id is handled by an independent
// call; one failure never stops the others.
type Service struct {
	ops         FileOps
	concurrency int
}

// NewService builds a Service.
func NewService(ops FileOps) *Service {
	return &Service{ops: ops, concurrency: defaultConcurrency}
}

// Refresh lists every file.
func (s *Service) Refresh(ctx context.Context) ([]backend.FileRecord, error) {
	files, err := s.ops.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// ActionError is a per-id failure of a list-wide action.
type ActionError struct {
	ID  string
	Err error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e ActionError) Unwrap() error {
	return e.Err
}

// DeleteSummary reports a delete run. Failed is informational: a delete
// run is reported to the user as successful even when some calls failed.
type DeleteSummary struct {
	Requested int
	Failed    int
	Errors    []ActionError
}

// Message is the notification text for the run.
func (d DeleteSummary) Message() string {
	if d.Requested == 1 {
		return "deleted 1 file"
	}
	return fmt.Sprintf("deleted %d files", d.Requested)
}

// ParseSummary reports a parse run.
type ParseSummary struct {
	Succeeded int
	Failed    int
	Errors    []ActionError
}

// Message is the notification text for the run.
func (p ParseSummary) Message() string {
	msg := fmt.Sprintf("parse triggered for %d file(s)", p.Succeeded)
	if p.Failed > 0 {
		msg += fmt.Sprintf(", %d failed or already parsing", p.Failed)
	}
	return msg
}

// DeleteSelected deletes every id.
func (s *Service) DeleteSelected(ctx context.Context, ids []string) DeleteSummary {
	errs := s.each(ctx, ids, func(ctx context.Context, id string) error {
		return s.ops.DeleteFile(ctx, id)
	})
	for _, e := range errs {
		log.WithFields(log.Fields{"file_id": e.ID, "op": "delete"}).WithError(e.Err).Warn("delete failed")
	}
	return DeleteSummary{Requested: len(ids), Failed: len(errs), Errors: errs}
}

// ParseSelected triggers parsing for every id and waits for all calls to
// settle.
func (s *Service) ParseSelected(ctx context.Context, ids []string) ParseSummary {
	errs := s.each(ctx, ids, func(ctx context.Context, id string) error {
		_, err := s.ops.TriggerParse(ctx, id)
		return err
	})
	for _, e := range errs {
		log.WithFields(log.Fields{"file_id": e.ID, "op": "parse"}).WithError(e.Err).Warn("parse trigger failed")
	}
	return ParseSummary{Succeeded: len(ids) - len(errs), Failed: len(errs), Errors: errs}
}

// each runs fn for every id concurrently and returns the failures in id order.
func (s *Service) each(ctx context.Context, ids []string, fn func(context.Context, string) error) []ActionError {
	results := make([]error, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var errs []ActionError
	for i, err := range results {
		if err != nil {
			errs = append(errs, ActionError{ID: ids[i], Err: err})
		}
	}
	return errs
}
