package audio

import (
	"math"
	"time"
)

// DefaultSampleRate is used when a host does not specify one.
const DefaultSampleRate = 44100

// filterBlock is how many samples share one set of filter coefficients during a cutoff sweep.
const filterBlock = 64

// Render synthesizes a voice into mono PCM in [-1, 1] (before mixing).
func Render(v Voice, rate int) []float32 {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	out := make([]float32, samplesFor(v.Length(), rate))
	for _, t := range v.Tones {
		renderTone(out, t, v.Gain, rate)
	}
	return out
}

func samplesFor(d time.Duration, rate int) int {
	return int(math.Round(d.Seconds() * float64(rate)))
}

func renderTone(out []float32, t Tone, gain float64, rate int) {
	first := samplesFor(t.Offset, rate)
	n := samplesFor(t.Duration, rate)
	if n == 0 {
		return
	}
	total := t.Duration.Seconds()
	sr := float64(rate)

	var lp *biquad
	if t.Filter != nil {
		lp = &biquad{}
	}

	phase := 0.0
	for i := 0; i < n && first+i < len(out); i++ {
		sec := float64(i) / sr
		x := oscillate(t.Waveform, phase)
		phase += sweep(t.Frequency, t.EndFrequency, sec, total) / sr
		phase -= math.Floor(phase)

		if lp != nil {
			if i%filterBlock == 0 {
				lp.lowPass(sweep(t.Filter.Cutoff, t.Filter.EndCutoff, sec, total), t.Filter.Q, sr)
			}
			x = lp.process(x)
		}
		out[first+i] += float32(x * envelope(t.Envelope, sec, total) * gain)
	}
}

// sweep moves exponentially from start to end over total seconds; end == 0 holds start.
func sweep(start, end, sec, total float64) float64 {
	if end <= 0 || start <= 0 || total <= 0 {
		return start
	}
	return start * math.Pow(end/start, sec/total)
}

func oscillate(w Waveform, phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		return 4*math.Abs(phase-0.5) - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func envelope(e Envelope, sec, total float64) float64 {
	attack := e.Attack.Seconds()
	hold := e.Hold.Seconds()
	if sec < attack {
		return e.Peak * sec / attack
	}
	if sec < attack+hold {
		return e.Peak
	}
	decay := total - attack - hold
	if decay <= 0 || e.Peak <= 0 {
		return e.Peak
	}
	floor := e.Floor
	if floor <= 0 {
		floor = 0.001
	}
	return e.Peak * math.Pow(floor/e.Peak, (sec-attack-hold)/decay)
}

// biquad is an RBJ-cookbook filter in direct form I.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) lowPass(cutoff, q, rate float64) {
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	cutoff = math.Min(math.Max(cutoff, 10), rate*0.45)
	w0 := 2 * math.Pi * cutoff / rate
	cos, sin := math.Cos(w0), math.Sin(w0)
	alpha := sin / (2 * q)
	a0 := 1 + alpha
	f.b0 = (1 - cos) / 2 / a0
	f.b1 = (1 - cos) / a0
	f.b2 = f.b0
	f.a1 = -2 * cos / a0
	f.a2 = (1 - alpha) / a0
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}
