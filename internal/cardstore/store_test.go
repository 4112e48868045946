package cardstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/fsrs"
	"github.com/starford/mimir/internal/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cards.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func card(id string, due time.Time) *models.Card {
	return &models.Card{
		ID:        id,
		Kind:      models.KindFact,
		Fact:      &models.Fact{Question: "q-" + id, Answer: "a-" + id},
		CreatedAt: t0,
		Memory:    models.Memory{Due: due, State: fsrs.StateNew},
	}
}

func TestOpenMissingFileEmpty(t *testing.T) {
	s := tempStore(t)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestInsertAndGet(t *testing.T) {
	s := tempStore(t)
	if err := s.Insert(card("c1", t0)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.Get("c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fact.Question != "q-c1" {
		t.Errorf("question = %q", got.Fact.Question)
	}
}

func TestGetNotFound(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertDuplicate(t *testing.T) {
	s := tempStore(t)
	if err := s.Insert(card("c1", t0)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(card("c1", t0)); !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	stability := 3.1262
	difficulty := 5.3145
	reviewed := t0.Add(48 * time.Hour)
	full := card("c1", reviewed.Add(72*time.Hour))
	full.Tags = []string{"geo", "europe"}
	full.Memory = models.Memory{
		Stability:      &stability,
		Difficulty:     &difficulty,
		Due:            reviewed.Add(72 * time.Hour),
		State:          fsrs.StateReview,
		Reps:           2,
		Lapses:         1,
		LastReviewedAt: &reviewed,
	}
	full.Reviews = []models.Review{
		{Rating: fsrs.Again, ReviewedAt: t0},
		{Rating: fsrs.Good, ReviewedAt: reviewed},
	}

	concept := &models.Card{
		ID:        "c2",
		Kind:      models.KindConcept,
		Concept:   &models.Concept{Text: "Raft leader election"},
		CreatedAt: t0,
		Memory:    models.Memory{Due: t0, State: fsrs.StateNew},
	}

	for _, c := range []*models.Card{full, concept} {
		if err := s.Insert(c); err != nil {
			t.Fatalf("Insert %s: %v", c.ID, err)
		}
	}
	want := s.All()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got := reopened.All()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, apperr.ErrCorruptStore) {
		t.Errorf("err = %v, want ErrCorruptStore", err)
	}
}

func TestOpenDuplicateIDsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	doc := `[
  {"id": "c1", "kind": "fact", "fact": {"question": "q", "answer": "a"}, "created_at": "2025-06-15T10:00:00Z", "memory": {"due_at": "2025-06-15T10:00:00Z", "state": "new", "reps": 0, "lapses": 0}},
  {"id": "c1", "kind": "concept", "concept": {"text": "x"}, "created_at": "2025-06-15T10:00:00Z", "memory": {"due_at": "2025-06-15T10:00:00Z", "state": "new", "reps": 0, "lapses": 0}}
]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, apperr.ErrCorruptStore) {
		t.Errorf("err = %v, want ErrCorruptStore", err)
	}
}

func TestOpenInvalidCardCorrupt(t *testing.T) {
	docs := map[string]string{
		"fact without content": `[
  {"id": "c1", "kind": "fact", "created_at": "2025-06-15T10:00:00Z", "memory": {"due_at": "2025-06-15T10:00:00Z", "state": "new", "reps": 0, "lapses": 0}}
]`,
		"unknown kind": `[
  {"id": "c1", "kind": "essay", "created_at": "2025-06-15T10:00:00Z", "memory": {"due_at": "2025-06-15T10:00:00Z", "state": "new", "reps": 0, "lapses": 0}}
]`,
		"mixed content": `[
  {"id": "c1", "kind": "concept", "concept": {"text": "x"}, "fact": {"question": "q", "answer": "a"}, "created_at": "2025-06-15T10:00:00Z", "memory": {"due_at": "2025-06-15T10:00:00Z", "state": "new", "reps": 0, "lapses": 0}}
]`,
	}
	for name, doc := range docs {
		path := filepath.Join(t.TempDir(), "cards.json")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, apperr.ErrCorruptStore) {
			t.Errorf("%s: err = %v, want ErrCorruptStore", name, err)
		}
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.Update("missing", func(*models.Card) error { return nil })
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePersists(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("c1", t0))

	updated, err := s.Update("c1", func(c *models.Card) error {
		c.Fact.Answer = "changed"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Fact.Answer != "changed" {
		t.Errorf("answer = %q", updated.Fact.Answer)
	}

	got, _ := s.Get("c1")
	if got.Fact.Answer != "changed" {
		t.Errorf("stored answer = %q", got.Fact.Answer)
	}
}

func TestUpdateFailureLeavesStoreUntouched(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("c1", t0))

	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	boom := fmt.Errorf("mutator rejected")
	if _, err := s.Update("c1", func(c *models.Card) error {
		c.Fact.Answer = "half-applied"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want mutator error", err)
	}

	got, _ := s.Get("c1")
	if got.Fact.Answer != "a-c1" {
		t.Errorf("in-memory card mutated: %q", got.Fact.Answer)
	}
	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("backing file changed after rejected mutation")
	}
}

func TestRemove(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("c1", t0))
	if err := s.Remove("c1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get("c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after remove", err)
	}
	if err := s.Remove("c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestDueBeforeOrderingAndLimit(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("b", t0.Add(time.Hour)))
	_ = s.Insert(card("a", t0))
	_ = s.Insert(card("c", t0.Add(2*time.Hour)))
	_ = s.Insert(card("future", t0.Add(72*time.Hour)))

	due := s.DueBefore(t0.Add(3*time.Hour), 2)
	if len(due) != 2 {
		t.Fatalf("len = %d, want 2", len(due))
	}
	if due[0].ID != "a" || due[1].ID != "b" {
		t.Errorf("order = [%s, %s], want [a, b]", due[0].ID, due[1].ID)
	}
}

func TestDueBeforeTieBreakByID(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("z", t0))
	_ = s.Insert(card("a", t0))
	_ = s.Insert(card("m", t0))

	due := s.DueBefore(t0, 0)
	if len(due) != 3 {
		t.Fatalf("len = %d, want 3", len(due))
	}
	if due[0].ID != "a" || due[1].ID != "m" || due[2].ID != "z" {
		t.Errorf("order = [%s, %s, %s], want [a, m, z]", due[0].ID, due[1].ID, due[2].ID)
	}
}

func TestDueBeforeExcludesFuture(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("later", t0.Add(time.Minute)))
	if due := s.DueBefore(t0, 10); len(due) != 0 {
		t.Errorf("len = %d, want 0", len(due))
	}
}

func TestNoTempFileLeftovers(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < 5; i++ {
		_ = s.Insert(card(fmt.Sprintf("c%d", i), t0))
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), ".mimir-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := tempStore(t)
	_ = s.Insert(card("c1", t0))

	got, _ := s.Get("c1")
	got.Fact.Answer = "tampered"

	again, _ := s.Get("c1")
	if again.Fact.Answer != "a-c1" {
		t.Error("Get returned an aliased card")
	}
}

func TestSecondOpenBlockedByLock(t *testing.T) {
	s := tempStore(t)
	if _, err := Open(s.Path()); err == nil {
		t.Error("expected second Open to fail while lock is held")
	}
}
