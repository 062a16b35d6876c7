// Package metrics exposes quiz session counters to Prometheus.
package metrics

import (
	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements app.Observer.
type Recorder struct {
	started   prometheus.Counter
	completed prometheus.Counter
	answers   *prometheus.CounterVec
	bonus     prometheus.Histogram
	cues      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemquest_sessions_started_total",
			Help: "Quiz runs started.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemquest_sessions_completed_total",
			Help: "Quiz runs that reached the completion report.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chemquest_answers_total",
			Help: "Resolved questions by outcome.",
		}, []string{"outcome"}),
		bonus: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chemquest_session_bonus",
			Help:    "Time bonus awarded at completion.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 100, 500, 1000, 5000},
		}),
		cues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chemquest_cues_total",
			Help: "Audio cues handed to a host.",
		}, []string{"cue"}),
	}
	reg.MustRegister(r.started, r.completed, r.answers, r.bonus, r.cues)
	return r
}

func (r *Recorder) SessionStarted(int) {
	r.started.Inc()
}

func (r *Recorder) AnswerResolved(state domain.AnsweredState, _ scoring.Delta) {
	r.answers.WithLabelValues(string(state)).Inc()
}

func (r *Recorder) SessionCompleted(report domain.Report) {
	r.completed.Inc()
	r.bonus.Observe(float64(report.Bonus))
}

func (r *Recorder) CuePlayed(cue audio.CueName) {
	r.cues.WithLabelValues(string(cue)).Inc()
}
