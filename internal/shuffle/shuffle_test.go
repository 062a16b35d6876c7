package shuffle

import (
	"math/rand"
	"testing"

	"chemquest/internal/catalog"
	"chemquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsKeepsCorrectAnswer(t *testing.T) {
	questions := catalog.Default().Questions
	for seed := int64(0); seed < 200; seed++ {
		s := NewSeeded(seed)
		for _, q := range questions {
			sq, err := s.Options(q)
			require.NoError(t, err)
			require.Equal(t, q.CorrectOption(), sq.Options[sq.CorrectIndex], "seed %d question %s", seed, q.ID)
			assert.ElementsMatch(t, q.Options, sq.Options)
			for i, from := range sq.OriginalIndex {
				assert.Equal(t, q.Options[from], sq.Options[i])
			}
		}
	}
}

func TestOptionsDoesNotMutateInput(t *testing.T) {
	q := domain.Question{ID: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	before := append([]string(nil), q.Options...)
	_, err := NewSeeded(7).Options(q)
	require.NoError(t, err)
	assert.Equal(t, before, q.Options)
	assert.Equal(t, 2, q.CorrectIndex)
}

func TestOptionsRejectsDuplicateText(t *testing.T) {
	q := domain.Question{ID: "dup", Options: []string{"same", "other", "same"}, CorrectIndex: 0}
	_, err := NewSeeded(1).Options(q)
	assert.ErrorIs(t, err, domain.ErrAmbiguousOptionText)
}

func TestOptionsDistributionIsUniform(t *testing.T) {
	q := domain.Question{ID: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0}
	s := New(rand.New(rand.NewSource(42)))
	const rounds = 8000
	positions := make([]int, 4)
	for i := 0; i < rounds; i++ {
		sq, err := s.Options(q)
		require.NoError(t, err)
		positions[sq.CorrectIndex]++
	}
	for pos, n := range positions {
		assert.InDelta(t, rounds/4, n, rounds*0.05, "position %d", pos)
	}
}

func TestQuestionOrderIsPermutation(t *testing.T) {
	questions := catalog.Default().Questions
	out := NewSeeded(3).QuestionOrder(questions)
	require.Len(t, out, len(questions))

	ids := func(qs []domain.Question) []string {
		var r []string
		for _, q := range qs {
			r = append(r, q.ID)
		}
		return r
	}
	assert.ElementsMatch(t, ids(questions), ids(out))
	assert.Equal(t, "survival-001", questions[0].ID, "input must stay in catalog order")
}

func TestSameSeedSameOrder(t *testing.T) {
	questions := catalog.Default().Questions
	a, err := NewSeeded(99).Batch(questions)
	require.NoError(t, err)
	b, err := NewSeeded(99).Batch(questions)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDraw(t *testing.T) {
	questions := catalog.Default().Filter(domain.DifficultyEasy)
	got, err := NewSeeded(5).Draw(questions, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = NewSeeded(5).Draw(questions, len(questions)+1)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuestions)
}
