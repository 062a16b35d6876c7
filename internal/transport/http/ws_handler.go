package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"chemquest/internal/app"
	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/scoring"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewWSHandler(service *app.QuizService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs one quiz session for the lifetime of the connection.
// Query parameters count, difficulty and variant override the service defaults.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	opts, err := h.optionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	// cues are cosmetic: when the connection backs up they are dropped rather than stalling the session loop
	host := NewRemoteHost(func(v audio.Voice) bool {
		select {
		case <-closeSignals:
			return false
		default:
		}
		select {
		case send <- outboundMessage[any]{Type: "cue", Payload: newCuePayload(v)}:
			return true
		default:
			return false
		}
	})

	ctx := r.Context()
	session, err := h.service.NewSession(ctx, app.SessionConfig{Options: opts, Host: host})
	if err != nil {
		send <- errorMessage(err)
		close(send)
		<-writerDone
		return
	}
	logger := h.logger.With().Str("session", session.ID()).Logger()
	logger.Info().Msg("ws session opened")

	completions := make(chan domain.Report, 1)
	session.OnComplete(func(report domain.Report) {
		select {
		case completions <- report:
		default:
		}
	})
	updates, cancel := session.Subscribe()
	defer cancel()

	send <- outboundMessage[any]{Type: "session", Payload: newSessionPayload(session.ID(), opts.WithDefaults(h.service.Defaults()))}

	go func() {
		defer close(forwardDone)
		for {
			var msg outboundMessage[any]
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msg = outboundMessage[any]{Type: "snapshot", Payload: snap}
			case report := <-completions:
				msg = outboundMessage[any]{Type: "complete", Payload: report}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("ws read error")
			}
			break
		}
		if err := h.dispatch(r, session, inbound); err != nil {
			select {
			case send <- errorMessage(err):
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	// no cue can be emitted once the session loop has stopped
	h.service.Close(context.WithoutCancel(ctx), session.ID())
	<-forwardDone
	close(send)
	<-writerDone
	logger.Info().Msg("ws session closed")
}

func (h *WSHandler) dispatch(r *http.Request, session *app.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return err
		}
		if payload.Difficulty != domain.DifficultyAny && !payload.Difficulty.Valid() {
			return fmt.Errorf("unknown difficulty %q", payload.Difficulty)
		}
		return session.Start(payload.Count, payload.Difficulty)
	case "answer":
		var payload answerPayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return err
		}
		if payload.OptionIndex == nil {
			return errors.New("answer payload needs optionIndex")
		}
		return session.SubmitAnswer(*payload.OptionIndex)
	case "advance":
		_, err := session.Advance()
		return err
	case "resume":
		session.Synth().Resume(r.Context())
		return nil
	case "volume":
		var payload volumePayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return err
		}
		session.Synth().SetVolume(payload.Value)
		return nil
	case "mute":
		var payload mutePayload
		if err := decodePayload(inbound.Payload, &payload); err != nil {
			return err
		}
		session.Synth().SetEnabled(!payload.Muted)
		return nil
	case "hover":
		session.Synth().Play(audio.CueHover)
		return nil
	}
	return fmt.Errorf("unsupported message type %q", inbound.Type)
}

func (h *WSHandler) optionsFromQuery(r *http.Request) (app.Options, error) {
	var opts app.Options
	q := r.URL.Query()
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("invalid count %q", raw)
		}
		opts.QuestionCount = n
	}
	if raw := q.Get("difficulty"); raw != "" {
		d := domain.Difficulty(raw)
		if !d.Valid() {
			return opts, fmt.Errorf("invalid difficulty %q", raw)
		}
		opts.Difficulty = d
	}
	if raw := q.Get("variant"); raw != "" && raw != h.service.Defaults().Variant.Name() {
		v, err := scoring.ParseVariant(raw, scoring.DefaultCountBased(), scoring.DefaultPointsWithBonus())
		if err != nil {
			return opts, err
		}
		opts.Variant = v
	}
	return opts, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
