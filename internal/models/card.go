// Package models defines the domain types for Mimir.
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/fsrs"
)

// Kind is the card variant tag. A card is exactly one kind for its lifetime.
type Kind string

const (
	KindFact    Kind = "fact"    // question/answer pair
	KindConcept Kind = "concept" // open-ended concept prompt
)

// Fact is the content of a question/answer card.
type Fact struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Concept is the content of an open-ended concept card. The caller (an agent)
// generates varied questions from the description; Mimir only schedules it.
type Concept struct {
	Text string `json:"text"`
}

// Memory is the per-card FSRS state. Stability, Difficulty, and
// LastReviewedAt are nil until the first review.
type Memory struct {
	Stability      *float64   `json:"stability,omitempty"`
	Difficulty     *float64   `json:"difficulty,omitempty"`
	Due            time.Time  `json:"due_at"`
	State          fsrs.State `json:"state"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// Review is one entry in a card's review history.
type Review struct {
	Rating     fsrs.Rating `json:"rating"`
	ReviewedAt time.Time   `json:"reviewed_at"`
}

// Card is the unit of study. Exactly one of Fact and Concept is populated,
// matching Kind. Edits touch content and tags only; reviews touch Memory only.
type Card struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Fact      *Fact     `json:"fact,omitempty"`
	Concept   *Concept  `json:"concept,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Memory    Memory    `json:"memory"`
	Reviews   []Review  `json:"reviews,omitempty"`
}

// Validate checks the structural invariants: a known kind, the matching
// content populated, the other content absent, and required fields present.
func (c *Card) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Kind, validation.Required, validation.In(KindFact, KindConcept)),
	); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidContent, err)
	}

	switch c.Kind {
	case KindFact:
		if c.Concept != nil {
			return fmt.Errorf("%w: fact card carries concept content", apperr.ErrInvalidContent)
		}
		if c.Fact == nil {
			return fmt.Errorf("%w: fact card missing question and answer", apperr.ErrInvalidContent)
		}
		if err := validation.ValidateStruct(c.Fact,
			validation.Field(&c.Fact.Question, validation.Required),
			validation.Field(&c.Fact.Answer, validation.Required),
		); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidContent, err)
		}
	case KindConcept:
		if c.Fact != nil {
			return fmt.Errorf("%w: concept card carries fact content", apperr.ErrInvalidContent)
		}
		if c.Concept == nil {
			return fmt.Errorf("%w: concept card missing description", apperr.ErrInvalidContent)
		}
		if err := validation.ValidateStruct(c.Concept,
			validation.Field(&c.Concept.Text, validation.Required),
		); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidContent, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the card. Pointer fields are copied by value.
func (c *Card) Clone() *Card {
	out := *c
	if c.Fact != nil {
		v := *c.Fact
		out.Fact = &v
	}
	if c.Concept != nil {
		v := *c.Concept
		out.Concept = &v
	}
	if c.Memory.Stability != nil {
		v := *c.Memory.Stability
		out.Memory.Stability = &v
	}
	if c.Memory.Difficulty != nil {
		v := *c.Memory.Difficulty
		out.Memory.Difficulty = &v
	}
	if c.Memory.LastReviewedAt != nil {
		v := *c.Memory.LastReviewedAt
		out.Memory.LastReviewedAt = &v
	}
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Reviews != nil {
		out.Reviews = append([]Review(nil), c.Reviews...)
	}
	return &out
}
