package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aitool/sleuth/internal/backend"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update([]backend.FileRecord{
		{UUID: "a", Status: "parsed"},
		{UUID: "b", Status: backend.StatusStored},
	}, nil)

	snap := s.Snapshot()
	if len(snap.Files) != 2 || snap.Files[0].Status != backend.StatusParsed {
		t.Fatalf("snapshot files = %#v, want 2 files with normalized status", snap.Files)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	snap.Files[0].UUID = "mutated"
	if s.Snapshot().Files[0].UUID != "a" {
		t.Fatalf("Snapshot should clone files")
	}

	rec, ok := snap.Find("b")
	if !ok || rec.Status != backend.StatusStored {
		t.Fatalf("Find(b) = %#v,%v", rec, ok)
	}
	counts := s.Snapshot().StatusCounts()
	if counts[backend.StatusParsed] != 1 || counts[backend.StatusStored] != 1 {
		t.Fatalf("StatusCounts = %v", counts)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]backend.FileRecord{{UUID: "a"}}, nil)

	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if len(snap.Files) != 1 || snap.Files[0].UUID != "a" {
		t.Fatalf("files changed on error: got %#v", snap.Files)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("cloned error should still wrap the original")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	for i, wantOffline := range []bool{false, true, true} {
		s.Update(nil, errors.New("fail"))
		snap := s.Snapshot()
		if snap.ConsecutiveFailures != i+1 {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i+1)
		}
		if snap.IsOffline() != wantOffline {
			t.Fatalf("after %d failures IsOffline() = %v, want %v", i+1, snap.IsOffline(), wantOffline)
		}
	}

	s.Update(nil, nil)
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("success should reset failures, got %d", snap.ConsecutiveFailures)
	}
}
