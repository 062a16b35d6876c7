package app

import (
	"context"
	"sync"
	"time"

	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/schedule"
	"github.com/rs/zerolog"
)

// Session runs a Controller on its own event loop so that callers on any goroutine can drive it.
// Snapshots fan out to subscribers; slow subscribers lose stale snapshots, never the latest one.
type Session struct {
	id        string
	createdAt time.Time
	loop      *schedule.Loop
	ctrl      *Controller
	synth     *audio.Synth
	stop      context.CancelFunc
	logger    zerolog.Logger

	mu          sync.RWMutex
	closed      bool
	last        domain.Snapshot
	subscribers map[chan domain.Snapshot]struct{}
	completions []func(domain.Report)
}

// NewSession starts a session loop over bank. deps.Scheduler is replaced by the session's loop.
// Infrastructure tests use it to seed stores directly.
func NewSession(id string, bank Bank, opts Options, deps Deps) *Session {
	loop := schedule.NewLoop()
	deps.Scheduler = loop
	if deps.Synth == nil {
		deps.Synth = audio.New(nil, audio.Options{}, deps.Logger)
	}
	logger := deps.Logger.With().Str("session", id).Logger()
	deps.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          id,
		createdAt:   time.Now(),
		loop:        loop,
		ctrl:        NewController(bank, opts, deps),
		synth:       deps.Synth,
		stop:        cancel,
		logger:      logger,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	s.last = s.ctrl.Snapshot()
	s.ctrl.OnChange(s.publish)
	s.ctrl.OnComplete(s.completed)

	go func() {
		_ = loop.Run(ctx)
	}()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Synth exposes the session's synthesizer for volume and mute control.
func (s *Session) Synth() *audio.Synth { return s.synth }

// Start begins (or restarts) the quiz.
func (s *Session) Start(count int, difficulty domain.Difficulty) error {
	var err error
	if runErr := s.run(func() { err = s.ctrl.Start(count, difficulty) }); runErr != nil {
		return runErr
	}
	return err
}

// SubmitAnswer answers the current question.
func (s *Session) SubmitAnswer(optionIndex int) error {
	var err error
	if runErr := s.run(func() { err = s.ctrl.SubmitAnswer(optionIndex) }); runErr != nil {
		return runErr
	}
	return err
}

// Advance skips the rest of the feedback window.
func (s *Session) Advance() (bool, error) {
	var advanced bool
	err := s.run(func() { advanced = s.ctrl.Advance() })
	return advanced, err
}

// Snapshot returns the most recently published state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// OnComplete registers fn to receive the report when a run completes. Callbacks run on the
// session loop and must not call back into the Session.
func (s *Session) OnComplete(fn func(domain.Report)) {
	s.mu.Lock()
	s.completions = append(s.completions, fn)
	s.mu.Unlock()
}

// Subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.last
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close cancels all pending timers, stops the loop, releases audio and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.loop.Do(s.ctrl.Close)
	s.stop()
	<-s.loop.Done()
	s.synth.Dispose()

	s.mu.Lock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
	s.logger.Debug().Msg("quiz session closed")
}

func (s *Session) run(fn func()) error {
	if s.Closed() {
		return domain.ErrSessionClosed
	}
	if err := s.loop.Do(fn); err != nil {
		return domain.ErrSessionClosed
	}
	return nil
}

func (s *Session) publish(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snap
	s.broadcastLocked(snap)
}

func (s *Session) broadcastLocked(snap domain.Snapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) completed(report domain.Report) {
	s.mu.RLock()
	fns := append([]func(domain.Report){}, s.completions...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(report)
	}
}
