// Package audio synthesizes short feedback cues from oscillator primitives. No audio files are involved.
package audio

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// Options configures a Synth.
type Options struct {
	Volume  float64
	Enabled bool
}

// DefaultOptions matches the game's default master volume.
func DefaultOptions() Options {
	return Options{Volume: 0.3, Enabled: true}
}

// Synth plays cues on a Host. It never returns errors to callers: audio is cosmetic, so host
// failures are logged and dropped. A Synth is owned by whoever created it and released with Dispose.
type Synth struct {
	host   Host
	logger zerolog.Logger

	mu       sync.Mutex
	volume   float64
	enabled  bool
	disposed bool
	onPlay   func(CueName)
}

// New creates a synthesizer on host. A nil host discards everything.
func New(host Host, opts Options, logger zerolog.Logger) *Synth {
	if host == nil {
		host = NopHost{}
	}
	return &Synth{
		host:    host,
		logger:  logger,
		volume:  clamp(opts.Volume),
		enabled: opts.Enabled,
	}
}

// Play triggers a cue. It is a no-op while disabled, disposed, or while the host is not running.
func (s *Synth) Play(name CueName) {
	s.mu.Lock()
	if s.disposed || !s.enabled {
		s.mu.Unlock()
		return
	}
	gain := s.volume
	observe := s.onPlay
	s.mu.Unlock()

	if s.host.State() != HostRunning {
		return
	}
	tones, err := Lookup(name)
	if err != nil {
		s.logger.Debug().Err(err).Msg("skip cue")
		return
	}
	if err := s.host.Play(Voice{Cue: name, Tones: tones, Gain: gain}); err != nil {
		s.logger.Debug().Err(err).Str("cue", string(name)).Msg("audio host rejected cue")
		return
	}
	if observe != nil {
		observe(name)
	}
}

// Resume unlocks a suspended host, typically on the first user interaction.
func (s *Synth) Resume(ctx context.Context) {
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed || s.host.State() != HostSuspended {
		return
	}
	if err := s.host.Resume(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("resume audio host")
	}
}

// SetVolume sets the master gain, clamped to [0, 1].
func (s *Synth) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = clamp(v)
	s.mu.Unlock()
}

// Volume returns the master gain.
func (s *Synth) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetEnabled toggles every cue on or off.
func (s *Synth) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// Enabled reports whether cues are audible.
func (s *Synth) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// OnPlay registers a callback invoked after each cue the host accepted.
func (s *Synth) OnPlay(fn func(CueName)) {
	s.mu.Lock()
	s.onPlay = fn
	s.mu.Unlock()
}

// Dispose closes the host. Later calls are no-ops.
func (s *Synth) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()
	if err := s.host.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("close audio host")
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
