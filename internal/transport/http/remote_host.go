package http

import (
	"context"
	"errors"
	"sync"

	"chemquest/internal/audio"
)

var errCueDropped = errors.New("cue dropped: connection backlog")

// RemoteHost forwards cues to a browser that synthesizes them. Like a browser audio
// context it starts suspended and only plays after the client's first interaction.
type RemoteHost struct {
	emit func(audio.Voice) bool

	mu    sync.Mutex
	state audio.HostState
}

// NewRemoteHost sends voices through emit, which must not block and reports whether the voice was queued.
func NewRemoteHost(emit func(audio.Voice) bool) *RemoteHost {
	return &RemoteHost{emit: emit, state: audio.HostSuspended}
}

func (h *RemoteHost) State() audio.HostState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *RemoteHost) Resume(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == audio.HostClosed {
		return audio.ErrHostClosed
	}
	h.state = audio.HostRunning
	return nil
}

func (h *RemoteHost) Play(v audio.Voice) error {
	h.mu.Lock()
	closed := h.state == audio.HostClosed
	h.mu.Unlock()
	if closed {
		return audio.ErrHostClosed
	}
	if !h.emit(v) {
		return errCueDropped
	}
	return nil
}

func (h *RemoteHost) Close() error {
	h.mu.Lock()
	h.state = audio.HostClosed
	h.mu.Unlock()
	return nil
}
