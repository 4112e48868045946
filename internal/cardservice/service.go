// Package cardservice orchestrates the card store and the FSRS memory model:
// create, edit, remove, due-card queries, and review application. Every
// operation validates its input before mutating state, so a rejected call
// performs no write.
package cardservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/cardstore"
	"github.com/starford/mimir/internal/fsrs"
	"github.com/starford/mimir/internal/models"
)

const hoursPerDay = 24

// Service coordinates store and scheduler operations.
type Service struct {
	store       *cardstore.Store
	sched       *fsrs.Scheduler
	maxDueLimit int
	now         func() time.Time
	newID       func() string
}

// Option is a functional option for configuring the service.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides card id generation, used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a card service. maxDueLimit caps the limit accepted by
// DueCards; zero or negative means uncapped.
func NewService(store *cardstore.Store, sched *fsrs.Scheduler, maxDueLimit int, opts ...Option) *Service {
	s := &Service{
		store:       store,
		sched:       sched,
		maxDueLimit: maxDueLimit,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCard validates params, builds a new card due immediately, persists it,
// and returns it.
func (s *Service) AddCard(_ context.Context, p AddCardParams) (*models.Card, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	card := &models.Card{
		ID:        s.newID(),
		Kind:      p.Kind,
		Tags:      normalizeTags(p.Tags),
		CreatedAt: now,
		Memory: models.Memory{
			Due:   now,
			State: fsrs.StateNew,
		},
	}
	switch p.Kind {
	case models.KindFact:
		card.Fact = &models.Fact{Question: p.Question, Answer: p.Answer}
	case models.KindConcept:
		card.Concept = &models.Concept{Text: p.Concept}
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Insert(card); err != nil {
		return nil, err
	}
	return card, nil
}

// GetCard returns the card with the given id.
func (s *Service) GetCard(_ context.Context, id string) (*models.Card, error) {
	return s.store.Get(id)
}

// ListCards returns all cards, oldest first.
func (s *Service) ListCards(_ context.Context) []*models.Card {
	return s.store.All()
}

// RemoveCard permanently deletes the card with the given id.
func (s *Service) RemoveCard(_ context.Context, id string) error {
	return s.store.Remove(id)
}

// EditCard updates content fields and tags. Supplied fields must match the
// card's kind; memory state is never touched.
func (s *Service) EditCard(_ context.Context, id string, p EditCardParams) (*models.Card, error) {
	return s.store.Update(id, func(c *models.Card) error {
		switch c.Kind {
		case models.KindFact:
			if p.Concept != nil {
				return fmt.Errorf("%w: card %s is a fact card, concept not applicable", apperr.ErrInvalidContent, id)
			}
			if p.Question != nil {
				c.Fact.Question = *p.Question
			}
			if p.Answer != nil {
				c.Fact.Answer = *p.Answer
			}
		case models.KindConcept:
			if p.Question != nil || p.Answer != nil {
				return fmt.Errorf("%w: card %s is a concept card, question/answer not applicable", apperr.ErrInvalidContent, id)
			}
			if p.Concept != nil {
				c.Concept.Text = *p.Concept
			}
		}
		if p.Tags != nil {
			c.Tags = normalizeTags(*p.Tags)
		}
		return c.Validate()
	})
}

// DueCards returns up to limit cards due at or before now, earliest first.
// limit defaults to 1 and is capped by the configured maximum. An empty
// result means nothing is currently due; it is not an error.
func (s *Service) DueCards(_ context.Context, limit int) []*models.Card {
	if limit < 1 {
		limit = 1
	}
	if s.maxDueLimit > 0 && limit > s.maxDueLimit {
		limit = s.maxDueLimit
	}
	return s.store.DueBefore(s.now().UTC(), limit)
}

// ReviewCard applies a review outcome: it feeds elapsed time and the rating
// through the memory model, then updates stability, difficulty, state, the
// review counters, and the next due date. Content is never touched.
func (s *Service) ReviewCard(_ context.Context, id string, rating fsrs.Rating) (*models.Card, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d (want 1-4)", apperr.ErrInvalidRating, int(rating))
	}

	now := s.now().UTC()
	return s.store.Update(id, func(c *models.Card) error {
		since := c.CreatedAt
		if c.Memory.LastReviewedAt != nil {
			since = *c.Memory.LastReviewedAt
		}
		elapsedDays := now.Sub(since).Hours() / hoursPerDay
		if elapsedDays < 0 {
			elapsedDays = 0
		}

		res := s.sched.Review(fsrs.Memory{
			Stability:   c.Memory.Stability,
			Difficulty:  c.Memory.Difficulty,
			State:       c.Memory.State,
			ElapsedDays: elapsedDays,
		}, rating)

		c.Memory.Stability = &res.Stability
		c.Memory.Difficulty = &res.Difficulty
		c.Memory.State = res.State
		c.Memory.Reps++
		if res.Lapsed {
			c.Memory.Lapses++
		}
		c.Memory.Due = now.Add(time.Duration(res.IntervalDays) * hoursPerDay * time.Hour)
		c.Memory.LastReviewedAt = &now
		c.Reviews = append(c.Reviews, models.Review{Rating: rating, ReviewedAt: now})
		return nil
	})
}

// normalizeTags deduplicates tags preserving first occurrence; nil stays nil
// only when the input is empty.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
