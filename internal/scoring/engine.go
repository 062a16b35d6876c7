// Package scoring holds the pure score and time-bonus computations.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"chemquest/internal/domain"
)

// ErrUnknownVariant is returned by ParseVariant for unsupported names.
var ErrUnknownVariant = errors.New("unknown scoring variant")

// Variant names accepted by ParseVariant.
const (
	NameCountBased      = "count"
	NamePointsWithBonus = "points"
)

// Delta is the outcome of scoring one answer.
type Delta struct {
	Points int // display points awarded for the answer
	Bonus  int // share of Points that came from remaining time
}

// Tally is the per-session input to Finalize.
type Tally struct {
	Correct    int
	Total      int
	Points     int // sum of Delta.Points
	Bonus      int // sum of Delta.Bonus
	// TimeLimits are the countdown lengths the questions were actually played with.
	TimeLimits []int
	Elapsed    time.Duration
}

// Variant is a scoring philosophy. The set of implementations is closed.
type Variant interface {
	Name() string
	// Answer scores a single answer given the whole seconds left on its countdown.
	Answer(correct bool, remainingSeconds int) Delta
	// SessionBonus computes the bonus reported at completion.
	SessionBonus(t Tally) int
	variant()
}

// CountBased counts correct answers and awards one bonus at the end of the session.
// The session budget is the sum of the countdowns the questions were played with.
type CountBased struct {
	NormalizationFactor int
}

// DefaultCountBased awards one bonus point per 10 s saved.
func DefaultCountBased() CountBased {
	return CountBased{NormalizationFactor: 10}
}

func (CountBased) Name() string { return NameCountBased }
func (CountBased) variant() {}

func (CountBased) Answer(correct bool, _ int) Delta {
	if !correct {
		return Delta{}
	}
	return Delta{Points: 1}
}

// SessionBonus is max(0, floor((budget - elapsed) / normalization)).
func (c CountBased) SessionBonus(t Tally) int {
	budget := 0
	for _, limit := range t.TimeLimits {
		budget += limit
	}
	norm := c.NormalizationFactor
	if norm <= 0 {
		norm = 1
	}
	saved := float64(budget) - t.Elapsed.Seconds()
	if saved <= 0 {
		return 0
	}
	return int(math.Floor(saved / float64(norm)))
}

// PointsWithBonus awards a base plus a per-second bonus for each correct answer.
type PointsWithBonus struct {
	BasePoints      int
	PerSecondWeight int
}

// DefaultPointsWithBonus mirrors the enhanced quiz: 100 points plus 10 per remaining second.
func DefaultPointsWithBonus() PointsWithBonus {
	return PointsWithBonus{BasePoints: 100, PerSecondWeight: 10}
}

func (PointsWithBonus) Name() string { return NamePointsWithBonus }
func (PointsWithBonus) variant() {}

func (p PointsWithBonus) Answer(correct bool, remainingSeconds int) Delta {
	if !correct {
		return Delta{}
	}
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	bonus := remainingSeconds * p.PerSecondWeight
	return Delta{Points: p.BasePoints + bonus, Bonus: bonus}
}

// SessionBonus is the accumulated per-answer bonus; there is no separate end-of-session term.
func (PointsWithBonus) SessionBonus(t Tally) int {
	return t.Bonus
}

// ParseVariant resolves a configured variant name, falling back to defaults for zero constants.
func ParseVariant(name string, count CountBased, points PointsWithBonus) (Variant, error) {
	switch name {
	case "", NameCountBased:
		if count.NormalizationFactor == 0 {
			count.NormalizationFactor = DefaultCountBased().NormalizationFactor
		}
		return count, nil
	case NamePointsWithBonus:
		if points.BasePoints == 0 && points.PerSecondWeight == 0 {
			points = DefaultPointsWithBonus()
		}
		return points, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Finalize builds the variant-agnostic completion report.
func Finalize(v Variant, t Tally) domain.Report {
	bonus := v.SessionBonus(t)
	points := t.Points
	if _, ok := v.(CountBased); ok {
		points = t.Correct + bonus
	}
	return domain.Report{
		CorrectCount:   t.Correct,
		TotalQuestions: t.Total,
		Bonus:          bonus,
		Points:         points,
		Variant:        v.Name(),
		Rank:           Rank(t.Correct, t.Total),
		Ending:         Ending(t.Correct, t.Total),
	}
}
