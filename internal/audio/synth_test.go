package audio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHost struct {
	state  HostState
	voices []Voice
	err    error
}

func (h *recordingHost) State() HostState { return h.state }

func (h *recordingHost) Resume(context.Context) error {
	h.state = HostRunning
	return nil
}

func (h *recordingHost) Play(v Voice) error {
	if h.err != nil {
		return h.err
	}
	h.voices = append(h.voices, v)
	return nil
}

func (h *recordingHost) Close() error {
	h.state = HostClosed
	return nil
}

func TestSynthPlaysWithMasterGain(t *testing.T) {
	host := &recordingHost{state: HostRunning}
	s := New(host, Options{Volume: 0.5, Enabled: true}, zerolog.Nop())

	var observed []CueName
	s.OnPlay(func(c CueName) { observed = append(observed, c) })
	s.Play(CueCorrect)

	require.Len(t, host.voices, 1)
	assert.Equal(t, CueCorrect, host.voices[0].Cue)
	assert.Equal(t, 0.5, host.voices[0].Gain)
	assert.Len(t, host.voices[0].Tones, 3)
	assert.Equal(t, []CueName{CueCorrect}, observed)
}

func TestSynthDisabledIsSilent(t *testing.T) {
	host := &recordingHost{state: HostRunning}
	s := New(host, Options{Volume: 1, Enabled: false}, zerolog.Nop())
	s.Play(CueClick)
	assert.Empty(t, host.voices)

	s.SetEnabled(true)
	s.Play(CueClick)
	assert.Len(t, host.voices, 1)
}

func TestSynthSuspendedUntilResumed(t *testing.T) {
	host := &recordingHost{state: HostSuspended}
	s := New(host, DefaultOptions(), zerolog.Nop())

	s.Play(CueIncorrect)
	assert.Empty(t, host.voices)

	s.Resume(context.Background())
	s.Play(CueIncorrect)
	assert.Len(t, host.voices, 1)
}

func TestSynthSwallowsHostErrors(t *testing.T) {
	host := &recordingHost{state: HostRunning, err: errors.New("device unplugged")}
	s := New(host, DefaultOptions(), zerolog.Nop())
	assert.NotPanics(t, func() { s.Play(CueTransition) })
	assert.NotPanics(t, func() { s.Play("nope") })
}

func TestSynthVolumeClamped(t *testing.T) {
	s := New(nil, DefaultOptions(), zerolog.Nop())
	s.SetVolume(4)
	assert.Equal(t, 1.0, s.Volume())
	s.SetVolume(-1)
	assert.Equal(t, 0.0, s.Volume())
	s.SetVolume(math.NaN())
	assert.Equal(t, 0.0, s.Volume())
}

func TestSynthDispose(t *testing.T) {
	host := &recordingHost{state: HostRunning}
	s := New(host, DefaultOptions(), zerolog.Nop())
	s.Dispose()
	s.Dispose()
	s.Play(CueCorrect)
	assert.Empty(t, host.voices)
	assert.Equal(t, HostClosed, host.state)
}

func TestCueTable(t *testing.T) {
	for _, name := range Cues() {
		tones, err := Lookup(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, tones, name)
		for _, tone := range tones {
			assert.Positive(t, tone.Frequency, name)
			assert.Positive(t, tone.Duration, name)
		}
	}

	correct, _ := Lookup(CueCorrect)
	for i := 1; i < len(correct); i++ {
		assert.Greater(t, correct[i].Frequency, correct[i-1].Frequency, "correct ascends")
		assert.Greater(t, correct[i].Offset, correct[i-1].Offset)
	}
	incorrect, _ := Lookup(CueIncorrect)
	assert.Less(t, incorrect[1].Frequency, incorrect[0].Frequency, "incorrect descends")
	assert.Equal(t, Sawtooth, incorrect[0].Waveform)

	ambient, _ := Lookup(CueAmbient)
	assert.Equal(t, 10*time.Second, Voice{Tones: ambient}.Length())

	_, err := Lookup("fanfare")
	assert.ErrorIs(t, err, ErrUnknownCue)
}
