package models

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/fsrs"
)

func factCard() *Card {
	return &Card{
		ID:        "c1",
		Kind:      KindFact,
		Fact:      &Fact{Question: "Capital of France?", Answer: "Paris"},
		CreatedAt: time.Now(),
		Memory:    Memory{Due: time.Now(), State: fsrs.StateNew},
	}
}

func conceptCard() *Card {
	return &Card{
		ID:        "c2",
		Kind:      KindConcept,
		Concept:   &Concept{Text: "TCP congestion control"},
		CreatedAt: time.Now(),
		Memory:    Memory{Due: time.Now(), State: fsrs.StateNew},
	}
}

func TestValidateOK(t *testing.T) {
	if err := factCard().Validate(); err != nil {
		t.Errorf("fact card: %v", err)
	}
	if err := conceptCard().Validate(); err != nil {
		t.Errorf("concept card: %v", err)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	c := factCard()
	c.Kind = "cloze"
	if err := c.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("err = %v, want ErrInvalidContent", err)
	}
}

func TestValidateRejectsMissingContent(t *testing.T) {
	c := factCard()
	c.Fact = nil
	if err := c.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("fact without content: err = %v", err)
	}

	c = factCard()
	c.Fact.Answer = ""
	if err := c.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("fact without answer: err = %v", err)
	}

	cc := conceptCard()
	cc.Concept = nil
	if err := cc.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("concept without content: err = %v", err)
	}
}

func TestValidateRejectsMixedContent(t *testing.T) {
	c := factCard()
	c.Concept = &Concept{Text: "stray"}
	if err := c.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("fact with concept content: err = %v", err)
	}

	cc := conceptCard()
	cc.Fact = &Fact{Question: "q", Answer: "a"}
	if err := cc.Validate(); !errors.Is(err, apperr.ErrInvalidContent) {
		t.Errorf("concept with fact content: err = %v", err)
	}
}

func TestCloneIndependence(t *testing.T) {
	stability := 4.2
	now := time.Now()
	c := factCard()
	c.Tags = []string{"geo"}
	c.Memory.Stability = &stability
	c.Memory.LastReviewedAt = &now
	c.Reviews = []Review{{Rating: fsrs.Good, ReviewedAt: now}}

	clone := c.Clone()
	clone.Fact.Answer = "Lyon"
	clone.Tags[0] = "changed"
	*clone.Memory.Stability = 99
	clone.Reviews[0].Rating = fsrs.Again

	if c.Fact.Answer != "Paris" {
		t.Error("clone shares fact content")
	}
	if c.Tags[0] != "geo" {
		t.Error("clone shares tags")
	}
	if *c.Memory.Stability != 4.2 {
		t.Error("clone shares stability pointer")
	}
	if c.Reviews[0].Rating != fsrs.Good {
		t.Error("clone shares review history")
	}
}
