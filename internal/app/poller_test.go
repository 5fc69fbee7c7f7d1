package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	for failures := 0; failures <= 80; failures++ {
		got := calculateBackoff(failures, 2*time.Second)
		if got > maxBackoff || got <= 0 {
			t.Errorf("calculateBackoff(%d) = %v, want within (0, %v]", failures, got, maxBackoff)
		}
	}
}

type stubLister struct {
	calls atomic.Int32
	err   error
	files []backend.FileRecord
}

func (s *stubLister) ListFiles(context.Context) ([]backend.FileRecord, error) {
	s.calls.Add(1)
	return s.files, s.err
}

func TestRefreshRecordsOutcome(t *testing.T) {
	store := &state.Store{}
	lister := &stubLister{files: []backend.FileRecord{{UUID: "a"}}}

	if err := Refresh(context.Background(), store, lister); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if got := store.Snapshot().Files; len(got) != 1 {
		t.Fatalf("store files = %#v, want 1", got)
	}

	lister.err = errors.New("refused")
	if err := Refresh(context.Background(), store, lister); err == nil {
		t.Fatalf("Refresh returned nil error, want error")
	}
	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 1 || len(snap.Files) != 1 {
		t.Fatalf("snapshot after failure = %+v, want previous files kept", snap)
	}
}

func TestStartPollerStopsWithContext(t *testing.T) {
	store := &state.Store{}
	lister := &stubLister{}
	ctx, cancel := context.WithCancel(context.Background())

	StartPoller(ctx, store, lister, 10*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for lister.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if lister.calls.Load() < 2 {
		t.Fatalf("poller made %d calls, want >= 2", lister.calls.Load())
	}

	time.Sleep(30 * time.Millisecond)
	settled := lister.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if lister.calls.Load() != settled {
		t.Fatalf("poller kept running after cancel")
	}
}
