// Package shuffle derives per-session presentation orders from catalog questions.
package shuffle

import (
	"fmt"
	"math/rand"
	"time"

	"chemquest/internal/catalog"
	"chemquest/internal/domain"
)

// Shuffler permutes questions and options with an explicit random source.
// A Shuffler is not safe for concurrent use; give each session its own.
type Shuffler struct {
	rnd *rand.Rand
}

// New wraps src. A nil src seeds from the wall clock.
func New(src *rand.Rand) *Shuffler {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shuffler{rnd: src}
}

// NewSeeded returns a reproducible Shuffler.
func NewSeeded(seed int64) *Shuffler {
	return New(rand.New(rand.NewSource(seed)))
}

// QuestionOrder returns a uniformly permuted copy of questions.
func (s *Shuffler) QuestionOrder(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Draw returns n questions picked uniformly without replacement, in random order.
func (s *Shuffler) Draw(questions []domain.Question, n int) ([]domain.Question, error) {
	if n < 0 || n > len(questions) {
		return nil, fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientQuestions, n, len(questions))
	}
	return s.QuestionOrder(questions)[:n], nil
}

// Options permutes q's options and relocates the correct index by content.
// Questions with duplicate option text are rejected since the mapping would be ambiguous.
func (s *Shuffler) Options(q domain.Question) (domain.ShuffledQuestion, error) {
	if err := catalog.ValidateOptions(q); err != nil {
		return domain.ShuffledQuestion{}, err
	}

	perm := s.rnd.Perm(len(q.Options))
	options := make([]string, len(perm))
	correct := -1
	want := q.CorrectOption()
	for i, from := range perm {
		options[i] = q.Options[from]
		if options[i] == want {
			correct = i
		}
	}

	return domain.ShuffledQuestion{
		ID:               q.ID,
		Scenario:         q.Scenario,
		Prompt:           q.Prompt,
		Explanation:      q.Explanation,
		Options:          options,
		CorrectIndex:     correct,
		OriginalIndex:    perm,
		Difficulty:       q.Difficulty,
		TimeLimitSeconds: q.TimeLimitSeconds,
		RelatedConcepts:  append([]string(nil), q.RelatedConcepts...),
	}, nil
}

// Batch shuffles the question order and then each question's options.
func (s *Shuffler) Batch(questions []domain.Question) ([]domain.ShuffledQuestion, error) {
	ordered := s.QuestionOrder(questions)
	out := make([]domain.ShuffledQuestion, 0, len(ordered))
	for _, q := range ordered {
		sq, err := s.Options(q)
		if err != nil {
			return nil, err
		}
		out = append(out, sq)
	}
	return out, nil
}
