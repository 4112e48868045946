// Package testutil provides shared test helpers for setting up stores and services.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/mimir/internal/cardservice"
	"github.com/starford/mimir/internal/cardstore"
	"github.com/starford/mimir/internal/fsrs"
)

// TestStore creates a card store backed by a file in a temp directory.
// The advisory lock is released automatically at cleanup.
func TestStore(t *testing.T) *cardstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.json")
	store, err := cardstore.Open(path)
	if err != nil {
		t.Fatalf("cardstore.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestScheduler creates a scheduler with default FSRS parameters.
func TestScheduler(t *testing.T) *fsrs.Scheduler {
	t.Helper()
	sched, err := fsrs.NewScheduler(fsrs.Config{})
	if err != nil {
		t.Fatalf("fsrs.NewScheduler: %v", err)
	}
	return sched
}

// TestService creates a service over a temp store with a clock pinned to the
// given time. The returned setter advances the clock.
func TestService(t *testing.T, start time.Time) (*cardservice.Service, func(time.Time)) {
	t.Helper()
	now := start
	svc := cardservice.NewService(TestStore(t), TestScheduler(t), 0,
		cardservice.WithClock(func() time.Time { return now }))
	return svc, func(tm time.Time) { now = tm }
}
