package metrics

import (
	"testing"

	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.SessionStarted(6)
	r.AnswerResolved(domain.AnsweredCorrect, scoring.Delta{Points: 1})
	r.AnswerResolved(domain.TimedOut, scoring.Delta{})
	r.AnswerResolved(domain.TimedOut, scoring.Delta{})
	r.CuePlayed(audio.CueClick)
	r.SessionCompleted(domain.Report{CorrectCount: 1, TotalQuestions: 6, Bonus: 4})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.started))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completed))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.answers.WithLabelValues(string(domain.TimedOut))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cues.WithLabelValues(string(audio.CueClick))))
	assert.Equal(t, 1, testutil.CollectAndCount(r.bonus))
}
