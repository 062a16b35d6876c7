package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrHostClosed is returned by hosts after Close.
var ErrHostClosed = errors.New("audio host closed")

// HostState mirrors the lifecycle of a platform audio context.
type HostState string

const (
	HostSuspended HostState = "suspended"
	HostRunning   HostState = "running"
	HostClosed    HostState = "closed"
)

// Host is the platform audio subsystem the synthesizer drives.
// Play must not block on playback.
type Host interface {
	State() HostState
	Resume(ctx context.Context) error
	Play(v Voice) error
	Close() error
}

// NopHost accepts and discards every voice.
type NopHost struct{}

func (NopHost) State() HostState { return HostRunning }
func (NopHost) Resume(context.Context) error { return nil }
func (NopHost) Play(Voice) error { return nil }
func (NopHost) Close() error { return nil }

// BufferHost renders voices to PCM and mixes them onto a timeline that starts when the host is created.
type BufferHost struct {
	rate  int
	now   func() time.Time
	start time.Time

	mu      sync.Mutex
	state   HostState
	samples []float32
}

// BufferOption configures a BufferHost.
type BufferOption func(*BufferHost)

// WithClock places voices using now instead of the wall clock.
func WithClock(now func() time.Time) BufferOption {
	return func(h *BufferHost) { h.now = now }
}

// StartSuspended makes the host wait for Resume, like a browser audio context before user interaction.
func StartSuspended() BufferOption {
	return func(h *BufferHost) { h.state = HostSuspended }
}

// NewBufferHost creates a host rendering at rate samples per second.
func NewBufferHost(rate int, opts ...BufferOption) *BufferHost {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	h := &BufferHost{rate: rate, now: time.Now, state: HostRunning}
	for _, opt := range opts {
		opt(h)
	}
	h.start = h.now()
	return h
}

func (h *BufferHost) State() HostState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *BufferHost) Resume(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == HostClosed {
		return ErrHostClosed
	}
	h.state = HostRunning
	return nil
}

func (h *BufferHost) Play(v Voice) error {
	at := h.now().Sub(h.start)
	pcm := Render(v, h.rate)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == HostClosed {
		return ErrHostClosed
	}
	first := int(at.Seconds() * float64(h.rate))
	if first < 0 {
		first = 0
	}
	if need := first + len(pcm); need > len(h.samples) {
		grown := make([]float32, need)
		copy(grown, h.samples)
		h.samples = grown
	}
	for i, s := range pcm {
		h.samples[first+i] += s
	}
	return nil
}

func (h *BufferHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = HostClosed
	return nil
}

// Samples returns a copy of the mixed timeline.
func (h *BufferHost) Samples() []float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float32, len(h.samples))
	copy(out, h.samples)
	return out
}

// SampleRate reports the rendering rate.
func (h *BufferHost) SampleRate() int {
	return h.rate
}

// WriteWAV encodes the timeline as a mono 16-bit WAV stream.
func (h *BufferHost) WriteWAV(w io.Writer) error {
	return WriteWAV(w, h.Samples(), h.rate)
}
