package app

import (
	"fmt"
	"time"

	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/schedule"
	"chemquest/internal/scoring"
	"chemquest/internal/shuffle"
	"github.com/rs/zerolog"
)

// Bank supplies catalog questions; domain.Catalog implements it.
type Bank interface {
	Filter(d domain.Difficulty) []domain.Question
}

// Options configures one quiz run.
type Options struct {
	QuestionCount int
	Difficulty    domain.Difficulty
	// PerQuestionSeconds overrides every question's countdown. Zero uses the catalog limit.
	PerQuestionSeconds int
	FeedbackDelay      time.Duration
	Variant            scoring.Variant
}

// DefaultOptions returns a six question count-based run with three seconds of feedback.
func DefaultOptions() Options {
	return Options{
		QuestionCount: 6,
		FeedbackDelay: 3 * time.Second,
		Variant:       scoring.DefaultCountBased(),
	}
}

// WithDefaults fills zero fields from fallback.
func (o Options) WithDefaults(fallback Options) Options {
	if o.QuestionCount <= 0 {
		o.QuestionCount = fallback.QuestionCount
	}
	if o.Difficulty == domain.DifficultyAny {
		o.Difficulty = fallback.Difficulty
	}
	if o.PerQuestionSeconds <= 0 {
		o.PerQuestionSeconds = fallback.PerQuestionSeconds
	}
	if o.FeedbackDelay <= 0 {
		o.FeedbackDelay = fallback.FeedbackDelay
	}
	if o.Variant == nil {
		o.Variant = fallback.Variant
	}
	return o
}

// Observer receives session events, e.g. for metrics.
type Observer interface {
	SessionStarted(total int)
	AnswerResolved(state domain.AnsweredState, delta scoring.Delta)
	SessionCompleted(report domain.Report)
	CuePlayed(cue audio.CueName)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(int) {}
func (nopObserver) AnswerResolved(domain.AnsweredState, scoring.Delta) {}
func (nopObserver) SessionCompleted(domain.Report) {}
func (nopObserver) CuePlayed(audio.CueName) {}

// Deps are the collaborators of a Controller. Scheduler is required.
type Deps struct {
	Shuffler  *shuffle.Shuffler
	Synth     *audio.Synth
	Scheduler schedule.Scheduler
	Observer  Observer
	Logger    zerolog.Logger
}

// Controller is the quiz session state machine:
//
//	Ready -> AwaitingAnswer -> ShowingFeedback -> AwaitingAnswer ... -> Complete
//
// It is not safe for concurrent use. Every method, and every task it schedules, must run on
// the scheduler's goroutine; Session takes care of that for live use.
type Controller struct {
	bank     Bank
	opts     Options
	shuffler *shuffle.Shuffler
	synth    *audio.Synth
	sched    schedule.Scheduler
	observer Observer
	logger   zerolog.Logger

	state     domain.SessionState
	questions []domain.ShuffledQuestion
	current   int
	score     int
	points    int
	bonus     int
	remaining int
	answered  domain.AnsweredState
	selected  int
	lastDelta scoring.Delta
	startedAt time.Time
	report    *domain.Report
	closed    bool

	// at most one live task per phase
	countdown schedule.Task
	feedback  schedule.Task

	onChange   func(domain.Snapshot)
	onComplete func(domain.Report)
}

// NewController builds a controller in the Ready state.
func NewController(bank Bank, opts Options, deps Deps) *Controller {
	opts = opts.WithDefaults(DefaultOptions())
	if deps.Shuffler == nil {
		deps.Shuffler = shuffle.New(nil)
	}
	if deps.Synth == nil {
		deps.Synth = audio.New(nil, audio.Options{}, deps.Logger)
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Controller{
		bank:     bank,
		opts:     opts,
		shuffler: deps.Shuffler,
		synth:    deps.Synth,
		sched:    deps.Scheduler,
		observer: deps.Observer,
		logger:   deps.Logger,
		state:    domain.StateReady,
		answered: domain.Unanswered,
		selected: domain.NoSelection,
	}
}

// OnChange registers a callback invoked with a fresh snapshot after every state change and tick.
func (c *Controller) OnChange(fn func(domain.Snapshot)) {
	c.onChange = fn
}

// OnComplete registers a callback invoked exactly once per run when it completes.
func (c *Controller) OnComplete(fn func(domain.Report)) {
	c.onComplete = fn
}

// State returns the current state machine position.
func (c *Controller) State() domain.SessionState {
	return c.state
}

// Start draws count questions (count <= 0 uses the configured count) and begins the first countdown.
// A running session is superseded: its timers are cancelled before the new run begins.
// On failure the controller is left untouched.
func (c *Controller) Start(count int, difficulty domain.Difficulty) error {
	if c.closed {
		return domain.ErrSessionClosed
	}
	if count <= 0 {
		count = c.opts.QuestionCount
	}
	if difficulty == domain.DifficultyAny {
		difficulty = c.opts.Difficulty
	}

	pool := c.bank.Filter(difficulty)
	drawn, err := c.shuffler.Draw(pool, count)
	if err != nil {
		return err
	}
	questions := make([]domain.ShuffledQuestion, 0, len(drawn))
	for _, q := range drawn {
		sq, err := c.shuffler.Options(q)
		if err != nil {
			return err
		}
		questions = append(questions, sq)
	}

	c.cancelTimers()
	c.questions = questions
	c.current = 0
	c.score = 0
	c.points = 0
	c.bonus = 0
	c.report = nil
	c.startedAt = c.sched.Now()
	c.state = domain.StateAwaitingAnswer
	c.beginQuestion()

	c.logger.Info().
		Int("questions", len(questions)).
		Str("difficulty", string(difficulty)).
		Str("variant", c.opts.Variant.Name()).
		Msg("quiz session started")
	c.observer.SessionStarted(len(questions))
	c.play(audio.CueAmbient)
	c.notify()
	return nil
}

// SubmitAnswer scores optionIndex against the current question. Repeated submissions while
// feedback is showing are ignored. Out-of-range indices fail without touching state.
func (c *Controller) SubmitAnswer(optionIndex int) error {
	if c.closed {
		return domain.ErrSessionClosed
	}
	switch c.state {
	case domain.StateReady:
		return domain.ErrNotStarted
	case domain.StateComplete:
		return domain.ErrSessionComplete
	case domain.StateShowingFeedback:
		return nil
	}

	q := c.questions[c.current]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0, %d)", domain.ErrInvalidAnswerIndex, optionIndex, len(q.Options))
	}
	c.play(audio.CueClick)
	c.resolve(optionIndex, false)
	return nil
}

// Advance moves past the feedback window immediately. It reports false outside ShowingFeedback.
func (c *Controller) Advance() bool {
	if c.closed || c.state != domain.StateShowingFeedback {
		return false
	}
	c.advance()
	return true
}

// Close cancels every pending timer. The controller rejects further calls.
func (c *Controller) Close() {
	c.cancelTimers()
	c.closed = true
}

func (c *Controller) beginQuestion() {
	c.remaining = c.limit(c.questions[c.current])
	c.answered = domain.Unanswered
	c.selected = domain.NoSelection
	c.lastDelta = scoring.Delta{}
	c.countdown = c.sched.AfterFunc(time.Second, c.tick)
}

func (c *Controller) tick() {
	c.countdown = nil
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.timeout()
		return
	}
	c.countdown = c.sched.AfterFunc(time.Second, c.tick)
	c.notify()
}

// timeout is a submission of NoSelection; it shares the scoring and feedback path.
func (c *Controller) timeout() {
	c.logger.Debug().Str("question", c.questions[c.current].ID).Msg("question timed out")
	c.resolve(domain.NoSelection, true)
}

func (c *Controller) resolve(selection int, timedOut bool) {
	if c.countdown != nil {
		c.countdown.Cancel()
		c.countdown = nil
	}

	q := c.questions[c.current]
	correct := !timedOut && selection == q.CorrectIndex
	delta := c.opts.Variant.Answer(correct, c.remaining)
	c.lastDelta = delta
	c.points += delta.Points
	c.bonus += delta.Bonus
	c.selected = selection

	switch {
	case correct:
		c.score++
		c.answered = domain.AnsweredCorrect
		c.play(audio.CueCorrect)
	case timedOut:
		c.answered = domain.TimedOut
		c.play(audio.CueIncorrect)
	default:
		c.answered = domain.AnsweredIncorrect
		c.play(audio.CueIncorrect)
	}
	c.state = domain.StateShowingFeedback
	c.feedback = c.sched.AfterFunc(c.opts.FeedbackDelay, c.advance)

	c.logger.Debug().
		Str("question", q.ID).
		Str("outcome", string(c.answered)).
		Int("awarded", delta.Points).
		Int("remaining", c.remaining).
		Msg("answer resolved")
	c.observer.AnswerResolved(c.answered, delta)
	c.notify()
}

func (c *Controller) advance() {
	if c.feedback != nil {
		c.feedback.Cancel()
		c.feedback = nil
	}
	c.play(audio.CueTransition)

	if c.current+1 < len(c.questions) {
		c.current++
		c.state = domain.StateAwaitingAnswer
		c.beginQuestion()
		c.notify()
		return
	}
	c.current = len(c.questions)
	c.complete()
}

func (c *Controller) complete() {
	limits := make([]int, len(c.questions))
	for i, q := range c.questions {
		limits[i] = c.limit(q)
	}
	report := scoring.Finalize(c.opts.Variant, scoring.Tally{
		Correct:    c.score,
		Total:      len(c.questions),
		Points:     c.points,
		Bonus:      c.bonus,
		TimeLimits: limits,
		Elapsed:    c.sched.Now().Sub(c.startedAt),
	})
	c.report = &report
	c.state = domain.StateComplete
	c.remaining = 0
	c.answered = domain.Unanswered
	c.selected = domain.NoSelection

	if scoring.Percentage(report.CorrectCount, report.TotalQuestions) >= 70 {
		c.play(audio.CueBondFormed)
	}
	c.logger.Info().
		Int("correct", report.CorrectCount).
		Int("total", report.TotalQuestions).
		Int("bonus", report.Bonus).
		Str("rank", report.Rank).
		Msg("quiz session complete")
	c.observer.SessionCompleted(report)
	c.notify()
	if c.onComplete != nil {
		c.onComplete(report)
	}
}

func (c *Controller) limit(q domain.ShuffledQuestion) int {
	if c.opts.PerQuestionSeconds > 0 {
		return c.opts.PerQuestionSeconds
	}
	return q.TimeLimitSeconds
}

func (c *Controller) cancelTimers() {
	if c.countdown != nil {
		c.countdown.Cancel()
		c.countdown = nil
	}
	if c.feedback != nil {
		c.feedback.Cancel()
		c.feedback = nil
	}
}

func (c *Controller) play(cue audio.CueName) {
	c.synth.Play(cue)
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}

// Snapshot returns a read-only copy of the session state.
func (c *Controller) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		State:         c.state,
		CurrentIndex:  c.current,
		Total:         len(c.questions),
		Score:         c.score,
		Points:        c.points,
		Bonus:         c.bonus,
		TimeRemaining: c.remaining,
		AnsweredState: c.answered,
		LastAwarded:   c.lastDelta.Points,
		StartedAt:     c.startedAt,
	}
	if c.report != nil {
		r := *c.report
		snap.Report = &r
	}
	if c.state != domain.StateAwaitingAnswer && c.state != domain.StateShowingFeedback {
		return snap
	}

	q := c.questions[c.current]
	view := &domain.QuestionView{
		ID:               q.ID,
		Scenario:         q.Scenario,
		Prompt:           q.Prompt,
		Options:          append([]string(nil), q.Options...),
		Difficulty:       q.Difficulty,
		TimeLimitSeconds: c.limit(q),
		RelatedConcepts:  append([]string(nil), q.RelatedConcepts...),
	}
	if c.state == domain.StateShowingFeedback {
		correct := q.CorrectIndex
		view.CorrectIndex = &correct
		view.Explanation = q.Explanation
		if c.selected != domain.NoSelection {
			selected := c.selected
			snap.SelectedIndex = &selected
		}
	}
	snap.Question = view
	return snap
}
