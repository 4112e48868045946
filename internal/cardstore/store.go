// Package cardstore persists the card collection as a single JSON document
// with crash-consistent atomic writes. The store is the sole writer to the
// backing file; every mutating operation saves synchronously before returning.
package cardstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

// Store holds the card collection in memory, keyed by id, backed by a JSON
// file. All methods are safe for concurrent use; mutations are serialized.
type Store struct {
	path string
	flk  *flock.Flock

	mu       sync.Mutex
	cards    map[string]*models.Card
	lastSave time.Time
}

// Open loads the store at path, creating parent directories as needed.
// A missing file yields an empty store; a malformed file fails with
// apperr.ErrCorruptStore rather than silently discarding data. An advisory
// lock on <path>.lock guards against a second instance started by mistake.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cardstore: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("cardstore: mkdir: %w", err)
	}

	flk := flock.New(abs + ".lock")
	locked, err := flk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cardstore: acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cardstore: %s is locked by another process", abs)
	}

	s := &Store{path: abs, flk: flk, cards: make(map[string]*models.Card)}
	if err := s.load(); err != nil {
		_ = flk.Unlock()
		return nil, err
	}
	return s, nil
}

// Close releases the advisory lock. The store must not be used afterwards.
func (s *Store) Close() error {
	return s.flk.Unlock()
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cardstore: read %s: %w", s.path, err)
	}

	var cards []*models.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrCorruptStore, s.path, err)
	}
	for _, c := range cards {
		if c.ID == "" {
			return fmt.Errorf("%w: %s: card with empty id", apperr.ErrCorruptStore, s.path)
		}
		if _, dup := s.cards[c.ID]; dup {
			return fmt.Errorf("%w: %s: duplicate card id %s", apperr.ErrCorruptStore, s.path, c.ID)
		}
		// A card violating the structural invariants would crash operations
		// that assume the content matches the kind.
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %s: card %s: %v", apperr.ErrCorruptStore, s.path, c.ID, err)
		}
		s.cards[c.ID] = c
	}
	return nil
}

// save serializes the full collection and writes it atomically:
// tmp file in the same directory → fsync → rename over the target.
// Callers must hold s.mu.
func (s *Store) save() error {
	cards := make([]*models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("cardstore: marshal: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mimir-tmp-*")
	if err != nil {
		return fmt.Errorf("cardstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("cardstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("cardstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cardstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("cardstore: rename: %w", err)
	}
	success = true
	s.lastSave = time.Now()
	return nil
}

// Get returns a copy of the card with the given id.
func (s *Store) Get(id string) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return c.Clone(), nil
}

// Insert adds a new card and persists. The id must not already be present.
func (s *Store) Insert(card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cards[card.ID]; exists {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicateID, card.ID)
	}
	s.cards[card.ID] = card.Clone()
	if err := s.save(); err != nil {
		delete(s.cards, card.ID)
		return err
	}
	return nil
}

// Update applies mutate to a copy of the card and persists. The in-memory
// collection only advances when the write succeeds, so a failed mutation or
// save leaves the store exactly as it was.
func (s *Store) Update(id string, mutate func(*models.Card) error) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cards[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.cards[id] = next
	if err := s.save(); err != nil {
		s.cards[id] = cur
		return nil, err
	}
	return next.Clone(), nil
}

// Remove deletes the card and persists. Removal is permanent.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cards[id]
	if !ok {
		return apperr.ErrNotFound
	}
	delete(s.cards, id)
	if err := s.save(); err != nil {
		s.cards[id] = cur
		return err
	}
	return nil
}

// DueBefore returns up to limit cards with a due date at or before t,
// earliest first, ties broken by id for determinism.
func (s *Store) DueBefore(t time.Time, limit int) []*models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*models.Card
	for _, c := range s.cards {
		if !c.Memory.Due.After(t) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].Memory.Due.Equal(due[j].Memory.Due) {
			return due[i].Memory.Due.Before(due[j].Memory.Due)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]*models.Card, len(due))
	for i, c := range due {
		out[i] = c.Clone()
	}
	return out
}

// All returns copies of every card, sorted by creation time then id.
func (s *Store) All() []*models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of cards in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// SinceLastSave reports how long ago the store last wrote the backing file.
// The watcher uses it to tell the store's own renames from external writes.
func (s *Store) SinceLastSave() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSave.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(s.lastSave)
}
