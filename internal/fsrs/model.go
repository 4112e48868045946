// Package fsrs implements the FSRS memory model used to schedule card
// reviews. The model is pure: given a card's current memory state, the days
// elapsed since its last review, and a rating, it produces the new stability,
// difficulty, state, and the interval until the next review. It performs no
// I/O and holds no mutable state.
package fsrs

import (
	"fmt"
	"math"
)

// Config configures a Scheduler. Zero values produce defaults.
type Config struct {
	Weights             [19]float64 // zero → DefaultWeights
	DesiredRetention    float64     // zero → DefaultDesiredRetention
	MaximumIntervalDays int         // zero → DefaultMaximumIntervalDays
}

// Scheduler computes memory-state updates using the FSRS-4.5 formulas.
type Scheduler struct {
	w                [19]float64
	desiredRetention float64
	maxIntervalDays  int
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == [19]float64{} {
		w = DefaultWeights
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = DefaultDesiredRetention
	}
	if dr <= 0 || dr > 1 {
		return nil, fmt.Errorf("fsrs: desired retention %f out of range (0, 1]", dr)
	}

	maxIvl := cfg.MaximumIntervalDays
	if maxIvl == 0 {
		maxIvl = DefaultMaximumIntervalDays
	}
	if maxIvl < 1 {
		return nil, fmt.Errorf("fsrs: maximum interval %d must be at least 1 day", maxIvl)
	}

	return &Scheduler{w: w, desiredRetention: dr, maxIntervalDays: maxIvl}, nil
}

// Memory is the scheduling-relevant subset of a card's state fed into Review.
// Stability and Difficulty are nil for a card that has never been reviewed.
type Memory struct {
	Stability   *float64
	Difficulty  *float64
	State       State
	ElapsedDays float64
}

// Result is the memory-state update produced by a single review.
type Result struct {
	Stability    float64
	Difficulty   float64
	State        State
	IntervalDays int
	Lapsed       bool // true when a review-state card was rated Again
}

// Review applies one review with the given rating to the memory state.
// The rating must be valid; callers validate it at the API boundary.
func (s *Scheduler) Review(m Memory, rating Rating) Result {
	var res Result

	switch {
	case m.Stability == nil || m.Difficulty == nil || m.State == StateNew:
		// First-ever review. The state field must agree (reps == 0 iff new),
		// but a missing stability always takes this branch regardless.
		res.Stability = s.initStability(rating)
		res.Difficulty = s.initDifficulty(rating)
		res.State = graduate(StateLearning, res.Stability)

	case m.State == StateLearning || m.State == StateRelearning:
		res.Stability = s.shortTermStability(*m.Stability, rating)
		res.Difficulty = s.nextDifficulty(*m.Difficulty, rating)
		res.State = graduate(m.State, res.Stability)

	default: // StateReview
		r := s.Retrievability(m.ElapsedDays, *m.Stability)
		if rating == Again {
			res.Stability = s.forgetStability(*m.Difficulty, *m.Stability, r)
			res.State = StateRelearning
			res.Lapsed = true
		} else {
			res.Stability = s.recallStability(*m.Difficulty, *m.Stability, r, rating)
			res.State = StateReview
		}
		res.Difficulty = s.nextDifficulty(*m.Difficulty, rating)
	}

	res.IntervalDays = s.intervalDays(res.Stability)
	return res
}

// Retrievability computes R(t, S) = (1 + t/(9S))^(-1), the probability of
// recall t days after the last review of a card with stability S.
// Non-positive elapsed time (same-day review) yields R = 1.
func (s *Scheduler) Retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	return 1 / (1 + elapsedDays/(9*stability))
}

// intervalDays inverts the retrievability curve for the desired retention:
// the number of days until R(t, S) decays to the target, floored at one day
// and capped at the configured maximum.
func (s *Scheduler) intervalDays(stability float64) int {
	days := int(math.Round(9 * stability * (1/s.desiredRetention - 1)))
	if days < 1 {
		days = 1
	}
	if days > s.maxIntervalDays {
		days = s.maxIntervalDays
	}
	return days
}

// initStability returns S₀(G) = w[G-1], one base stability per rating.
func (s *Scheduler) initStability(rating Rating) float64 {
	return clampS(s.w[rating-1])
}

// initDifficulty returns D₀(G) = w[4] - e^(w[5](G-1)) + 1, clamped to [1,10].
func (s *Scheduler) initDifficulty(rating Rating) float64 {
	return clampD(s.rawInitDifficulty(rating))
}

// rawInitDifficulty is the unclamped D₀(G), used as the mean-reversion target.
func (s *Scheduler) rawInitDifficulty(rating Rating) float64 {
	return s.w[4] - math.Exp(s.w[5]*float64(rating-1)) + 1
}

// nextDifficulty applies the rating delta and reverts toward the Easy initial
// difficulty: D'' = w[7]·D₀(Easy) + (1-w[7])·(D - w[6](G-3)), clamped to [1,10].
func (s *Scheduler) nextDifficulty(difficulty float64, rating Rating) float64 {
	next := difficulty - s.w[6]*(float64(rating)-3)
	return clampD(s.w[7]*s.rawInitDifficulty(Easy) + (1-s.w[7])*next)
}

// shortTermStability is the same-cycle update for learning and relearning
// cards: S' = S · e^(w[17](G-3+w[18])). Good and Easy grow stability, Again
// and Hard shrink it.
func (s *Scheduler) shortTermStability(stability float64, rating Rating) float64 {
	return clampS(stability * math.Exp(s.w[17]*(float64(rating)-3+s.w[18])))
}

// recallStability grows stability after a successful review-state recall:
// S' = S(1 + e^(w[8])(11-D)S^(-w[9])(e^((1-R)w[10])-1)·hard·easy).
// Growth shrinks as difficulty rises and as retrievability approaches 1.
func (s *Scheduler) recallStability(d, stability, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = s.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = s.w[16]
	}
	return clampS(stability * (1 + math.Exp(s.w[8])*
		(11-d)*
		math.Pow(stability, -s.w[9])*
		(math.Exp((1-r)*s.w[10])-1)*
		hardPenalty*easyBonus))
}

// forgetStability recomputes stability after a lapse:
// S' = w[11]·D^(-w[12])·((S+1)^w[13] - 1)·e^((1-R)w[14]), capped at the prior
// stability so forgetting never grows memory strength.
func (s *Scheduler) forgetStability(d, stability, r float64) float64 {
	next := s.w[11] *
		math.Pow(d, -s.w[12]) *
		(math.Pow(stability+1, s.w[13]) - 1) *
		math.Exp((1-r)*s.w[14])
	return clampS(math.Min(next, stability))
}

// graduate promotes a learning or relearning card to the review cycle once
// its stability clears the graduation threshold.
func graduate(state State, stability float64) State {
	if stability > graduationStability {
		return StateReview
	}
	return state
}

func clampS(s float64) float64 {
	return math.Max(s, minStability)
}

func clampD(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
