package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// FileLister is what the poller needs from the backend.
type FileLister interface {
	ListFiles(ctx context.Context) ([]backend.FileRecord, error)
}

// StartPoller launches a background goroutine that refreshes the file list.
// After failures it waits with exponential backoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, lister FileLister, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			Refresh(ctx, store, lister)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// Refresh fetches the file list once and records the outcome in store.
func Refresh(ctx context.Context, store *state.Store, lister FileLister) error {
	files, err := lister.ListFiles(ctx)
	store.Update(files, err)
	if err != nil {
		log.WithError(err).Warn("file list poll failed")
	}
	return err
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for range failures {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
