package app

import (
	"context"
	"fmt"

	"chemquest/internal/audio"
	"chemquest/internal/domain"
	"chemquest/internal/shuffle"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionRepository abstracts where live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Add(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, bool)
	Delete(ctx context.Context, id string)
}

// CatalogRepository loads question catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// ServiceConfig holds the defaults every new session starts from.
type ServiceConfig struct {
	CatalogID string
	Defaults  Options
	Audio     audio.Options
	// Seed makes every session's shuffles reproducible when non-zero.
	Seed     int64
	Observer Observer
	Logger   zerolog.Logger
}

// SessionConfig overrides the service defaults for one session.
type SessionConfig struct {
	Options Options
	// Host receives rendered cues. Nil discards audio.
	Host audio.Host
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions SessionRepository
	catalogs CatalogRepository
	cfg      ServiceConfig
}

func NewQuizService(store SessionRepository, catalogs CatalogRepository, cfg ServiceConfig) *QuizService {
	cfg.Defaults = cfg.Defaults.WithDefaults(DefaultOptions())
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &QuizService{sessions: store, catalogs: catalogs, cfg: cfg}
}

// Defaults returns the options sessions start from.
func (s *QuizService) Defaults() Options {
	return s.cfg.Defaults
}

// NewSession loads the catalog and registers a fresh session in the Ready state.
func (s *QuizService) NewSession(ctx context.Context, sc SessionConfig) (*Session, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, s.cfg.CatalogID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	shuffler := shuffle.New(nil)
	if s.cfg.Seed != 0 {
		shuffler = shuffle.NewSeeded(s.cfg.Seed)
	}
	logger := s.cfg.Logger
	synth := audio.New(sc.Host, s.cfg.Audio, logger.With().Str("session", id).Logger())
	synth.OnPlay(s.cfg.Observer.CuePlayed)

	session := NewSession(id, catalog, sc.Options.WithDefaults(s.cfg.Defaults), Deps{
		Shuffler: shuffler,
		Synth:    synth,
		Observer: s.cfg.Observer,
		Logger:   logger,
	})
	if err := s.sessions.Add(ctx, session); err != nil {
		session.Close()
		return nil, fmt.Errorf("register session: %w", err)
	}
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(ctx context.Context, id string) (*Session, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close tears a session down and forgets it. Unknown ids are ignored.
func (s *QuizService) Close(ctx context.Context, id string) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(ctx, id)
}
