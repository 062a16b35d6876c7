package http

import (
	"encoding/json"
	"errors"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/scoring"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Count      int               `json:"count"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type volumePayload struct {
	Value float64 `json:"value"`
}

type mutePayload struct {
	Muted bool `json:"muted"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionPayload struct {
	SessionID       string            `json:"sessionId"`
	QuestionCount   int               `json:"questionCount"`
	Difficulty      domain.Difficulty `json:"difficulty,omitempty"`
	Variant         string            `json:"variant"`
	FeedbackDelayMs int64             `json:"feedbackDelayMs"`
	Cues            []audio.CueName   `json:"cues"`
}

// cuePayload describes a voice in seconds so a browser can schedule it directly.
type cuePayload struct {
	Cue   audio.CueName `json:"cue"`
	Gain  float64       `json:"gain"`
	Tones []toneMessage `json:"tones"`
}

type toneMessage struct {
	Offset       float64        `json:"offset"`
	Duration     float64        `json:"duration"`
	Waveform     audio.Waveform `json:"waveform"`
	Frequency    float64        `json:"frequency"`
	EndFrequency float64        `json:"endFrequency,omitempty"`
	Filter       *audio.LowPass `json:"filter,omitempty"`
	Peak         float64        `json:"peak"`
	Attack       float64        `json:"attack"`
	Hold         float64        `json:"hold"`
	Floor        float64        `json:"floor"`
}

func newSessionPayload(id string, opts app.Options) sessionPayload {
	return sessionPayload{
		SessionID:       id,
		QuestionCount:   opts.QuestionCount,
		Difficulty:      opts.Difficulty,
		Variant:         opts.Variant.Name(),
		FeedbackDelayMs: opts.FeedbackDelay.Milliseconds(),
		Cues:            audio.Cues(),
	}
}

func newCuePayload(v audio.Voice) cuePayload {
	tones := make([]toneMessage, len(v.Tones))
	for i, t := range v.Tones {
		tones[i] = toneMessage{
			Offset:       seconds(t.Offset),
			Duration:     seconds(t.Duration),
			Waveform:     t.Waveform,
			Frequency:    t.Frequency,
			EndFrequency: t.EndFrequency,
			Filter:       t.Filter,
			Peak:         t.Envelope.Peak,
			Attack:       seconds(t.Envelope.Attack),
			Hold:         seconds(t.Envelope.Hold),
			Floor:        t.Envelope.Floor,
		}
	}
	return cuePayload{Cue: v.Cue, Gain: v.Gain, Tones: tones}
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientQuestions):
		return "insufficient_questions"
	case errors.Is(err, domain.ErrInvalidAnswerIndex):
		return "invalid_answer_index"
	case errors.Is(err, domain.ErrNotStarted):
		return "not_started"
	case errors.Is(err, domain.ErrSessionComplete):
		return "session_complete"
	case errors.Is(err, domain.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrCatalogNotFound):
		return "catalog_not_found"
	case errors.Is(err, scoring.ErrUnknownVariant):
		return "unknown_variant"
	}
	return "bad_request"
}
