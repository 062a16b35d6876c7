package app_test

import (
	"context"
	"testing"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/domain"
	"chemquest/internal/infra/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, defaults app.Options) (*app.QuizService, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(fixtureCatalog(3)), time.Minute)
	return app.NewQuizService(store, catalogs, app.ServiceConfig{
		CatalogID: "fixture",
		Defaults:  defaults,
		Seed:      42,
		Logger:    zerolog.Nop(),
	}), store
}

func TestNewSessionRegistersAndCloses(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, app.Options{})

	session, err := service.NewSession(ctx, app.SessionConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, domain.StateReady, session.Snapshot().State)
	assert.Equal(t, 1, store.Len())

	got, err := service.Session(ctx, session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)

	service.Close(ctx, session.ID())
	assert.True(t, session.Closed())
	_, err = service.Session(ctx, session.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, session.SubmitAnswer(0), domain.ErrSessionClosed)

	// unknown ids are ignored
	service.Close(ctx, "missing")
}

func TestNewSessionUnknownCatalog(t *testing.T) {
	store := memory.NewSessionStore()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(), time.Minute)
	service := app.NewQuizService(store, catalogs, app.ServiceConfig{CatalogID: "nope", Logger: zerolog.Nop()})

	_, err := service.NewSession(context.Background(), app.SessionConfig{})
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
	assert.Zero(t, store.Len())
}

func TestServiceDefaultsApplyToSessions(t *testing.T) {
	service, _ := newTestService(t, app.Options{QuestionCount: 2})
	assert.Equal(t, 2, service.Defaults().QuestionCount)
	assert.Equal(t, 3*time.Second, service.Defaults().FeedbackDelay)

	session, err := service.NewSession(context.Background(), app.SessionConfig{})
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Start(0, domain.DifficultyAny))
	assert.Equal(t, 2, session.Snapshot().Total)
}

func TestSessionRunsOnLoop(t *testing.T) {
	service, _ := newTestService(t, app.Options{QuestionCount: 2, FeedbackDelay: 10 * time.Millisecond})
	session, err := service.NewSession(context.Background(), app.SessionConfig{})
	require.NoError(t, err)
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()
	initial := <-updates
	assert.Equal(t, domain.StateReady, initial.State)

	reports := make(chan domain.Report, 1)
	session.OnComplete(func(r domain.Report) { reports <- r })
	totals := make(chan int, 1)
	session.OnComplete(func(r domain.Report) { totals <- r.TotalQuestions })

	assert.ErrorIs(t, session.SubmitAnswer(0), domain.ErrNotStarted)
	require.NoError(t, session.Start(2, domain.DifficultyAny))

	for i := 0; i < 2; i++ {
		snap := session.Snapshot()
		require.Equal(t, domain.StateAwaitingAnswer, snap.State)
		require.NoError(t, session.SubmitAnswer(indexOf(t, snap.Question.Options, "right")))
		if i == 0 {
			advanced, err := session.Advance()
			require.NoError(t, err)
			assert.True(t, advanced)
		}
	}

	select {
	case r := <-reports:
		assert.Equal(t, 2, r.CorrectCount)
		assert.Equal(t, "Legendary Chemist", r.Rank)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not complete")
	}
	// every registered callback sees the same run
	assert.Equal(t, 2, <-totals)

	var last domain.Snapshot
	require.Eventually(t, func() bool {
		for {
			select {
			case snap := <-updates:
				last = snap
			default:
				return last.State == domain.StateComplete
			}
		}
	}, time.Second, 5*time.Millisecond)
	require.NotNil(t, last.Report)
}

func TestSessionCloseEndsSubscriptions(t *testing.T) {
	service, _ := newTestService(t, app.Options{})
	session, err := service.NewSession(context.Background(), app.SessionConfig{})
	require.NoError(t, err)

	updates, cancel := session.Subscribe()
	<-updates
	session.Close()
	session.Close()
	cancel()

	_, open := <-updates
	assert.False(t, open)
	assert.ErrorIs(t, session.Start(1, domain.DifficultyAny), domain.ErrSessionClosed)

	late, cancelLate := session.Subscribe()
	defer cancelLate()
	_, open = <-late
	assert.False(t, open)
}

func indexOf(t *testing.T, options []string, text string) int {
	t.Helper()
	for i, o := range options {
		if o == text {
			return i
		}
	}
	t.Fatalf("option %q not presented", text)
	return -1
}
