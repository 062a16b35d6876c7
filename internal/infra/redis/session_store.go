package redis

import (
	"context"
	"sync"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions own timers and goroutines, so they stay in a local map; Redis holds a
// per-session hash that marks liveness and, once the run completes, its report:
//
//	HSET session:{id} created_at ... state ... correct ... total ... rank ...
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(ctx context.Context, session *app.Session) error {
	key := s.key(session.ID())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"created_at", session.CreatedAt().UTC().Format(time.RFC3339),
		"state", string(domain.StateReady),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	session.OnComplete(func(report domain.Report) {
		// runs on the session loop; keep it off the network path
		go s.recordReport(session.ID(), report)
	})

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || session.Closed() {
		return nil, false
	}
	if s.ttl > 0 {
		// best-effort liveness refresh
		_ = s.client.Expire(ctx, s.key(id), s.ttl).Err()
	}
	return session, true
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	_ = s.client.Del(ctx, s.key(id)).Err()
}

// recordReportScript writes the report only while the session hash exists, so a
// report landing after Delete cannot resurrect the key.
var recordReportScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
if tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 1
`)

func (s *SessionStore) recordReport(id string, report domain.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	written, err := recordReportScript.Run(ctx, s.client, []string{s.key(id)},
		s.ttl.Milliseconds(),
		"state", string(domain.StateComplete),
		"correct", report.CorrectCount,
		"total", report.TotalQuestions,
		"bonus", report.Bonus,
		"points", report.Points,
		"rank", report.Rank,
	).Int()
	if err != nil {
		s.logger.Warn().Err(err).Str("session", id).Msg("record session report")
		return
	}
	if written == 0 {
		s.logger.Debug().Str("session", id).Msg("session gone before report was recorded")
	}
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}
