package audio

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownCue is returned when a cue name is not in the cue table.
var ErrUnknownCue = errors.New("unknown cue")

// CueName identifies a synthesized sound event.
type CueName string

const (
	CueCorrect    CueName = "correct"
	CueIncorrect  CueName = "incorrect"
	CueClick      CueName = "click"
	CueHover      CueName = "hover"
	CueTransition CueName = "transition"
	CueAmbient    CueName = "ambient"
	CueBondFormed CueName = "bond_formed"
)

// Waveform is an oscillator shape.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

// Envelope ramps linearly from silence to Peak over Attack, holds for Hold, then decays
// exponentially so that it reaches Floor at the end of the tone.
type Envelope struct {
	Peak   float64       `json:"peak"`
	Attack time.Duration `json:"attack"`
	Hold   time.Duration `json:"hold"`
	Floor  float64       `json:"floor"`
}

// LowPass is a resonant low-pass filter whose cutoff sweeps exponentially from Cutoff to EndCutoff.
type LowPass struct {
	Cutoff    float64 `json:"cutoff"`
	EndCutoff float64 `json:"endCutoff,omitempty"`
	Q         float64 `json:"q"`
}

// Tone is one oscillator segment of a cue.
type Tone struct {
	Offset       time.Duration `json:"offset"`
	Duration     time.Duration `json:"duration"`
	Waveform     Waveform      `json:"waveform"`
	Frequency    float64       `json:"frequency"`
	EndFrequency float64       `json:"endFrequency,omitempty"`
	Filter       *LowPass      `json:"filter,omitempty"`
	Envelope     Envelope      `json:"envelope"`
}

// End is the time at which the tone falls silent, relative to the cue start.
func (t Tone) End() time.Duration {
	return t.Offset + t.Duration
}

// Voice is a cue ready for a host: its tones and the master gain at the time it was triggered.
type Voice struct {
	Cue   CueName `json:"cue"`
	Tones []Tone  `json:"tones"`
	Gain  float64 `json:"gain"`
}

// Length is the duration of the longest tone.
func (v Voice) Length() time.Duration {
	var end time.Duration
	for _, t := range v.Tones {
		if e := t.End(); e > end {
			end = e
		}
	}
	return end
}

var blip = Envelope{Peak: 0.3, Attack: 10 * time.Millisecond, Floor: 0.01}

func note(offset time.Duration, freq float64, dur time.Duration, w Waveform) Tone {
	return Tone{Offset: offset, Duration: dur, Waveform: w, Frequency: freq, Envelope: blip}
}

var cues = map[CueName][]Tone{
	CueCorrect: {
		note(0, 880, 100*time.Millisecond, Sine),
		note(100*time.Millisecond, 1100, 150*time.Millisecond, Sine),
		note(200*time.Millisecond, 1320, 200*time.Millisecond, Sine),
	},
	CueIncorrect: {
		note(0, 200, 300*time.Millisecond, Sawtooth),
		note(150*time.Millisecond, 180, 200*time.Millisecond, Sawtooth),
	},
	CueClick: {
		note(0, 800, 50*time.Millisecond, Square),
	},
	CueHover: {
		note(0, 600, 30*time.Millisecond, Sine),
	},
	CueTransition: {{
		Duration:     800 * time.Millisecond,
		Waveform:     Sawtooth,
		Frequency:    400,
		EndFrequency: 100,
		Filter:       &LowPass{Cutoff: 2000, EndCutoff: 200, Q: 1},
		Envelope:     Envelope{Peak: 0.2, Attack: 100 * time.Millisecond, Floor: 0.01},
	}},
	// Two drones through the same resonant filter, held for 8s then released over 2s.
	CueAmbient: {
		drone(60, Sawtooth),
		drone(90, Sine),
	},
	CueBondFormed: {
		note(0, 440, 100*time.Millisecond, Sine),
		note(50*time.Millisecond, 554, 100*time.Millisecond, Sine),
		note(100*time.Millisecond, 659, 150*time.Millisecond, Sine),
	},
}

func drone(freq float64, w Waveform) Tone {
	return Tone{
		Duration:  10 * time.Second,
		Waveform:  w,
		Frequency: freq,
		Filter:    &LowPass{Cutoff: 300, Q: 5},
		Envelope:  Envelope{Peak: 0.05, Hold: 8 * time.Second, Floor: 0.001},
	}
}

// Lookup returns a copy of the tones of a cue.
func Lookup(name CueName) ([]Tone, error) {
	tones, ok := cues[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCue, name)
	}
	out := make([]Tone, len(tones))
	copy(out, tones)
	return out, nil
}

// Cues lists the cue table in name order.
func Cues() []CueName {
	names := make([]CueName, 0, len(cues))
	for name := range cues {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
