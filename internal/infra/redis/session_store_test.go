package redis

import (
	"context"
	"testing"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute, zerolog.Nop())
	session := app.NewSession("s-1", sampleCatalog(), app.DefaultOptions(), app.Deps{Logger: zerolog.Nop()})
	defer session.Close()

	if err := store.Add(ctx, session); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !mr.Exists("session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("session:s-1", "state"); got != string(domain.StateReady) {
		t.Fatalf("expected ready state, got %q", got)
	}
	if _, ok := store.Get(ctx, "s-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete(ctx, "s-1")
	if mr.Exists("session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(ctx, "s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreRecordsReport(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute, zerolog.Nop())
	opts := app.DefaultOptions()
	opts.FeedbackDelay = 10 * time.Millisecond
	session := app.NewSession("s-2", sampleCatalog(), opts, app.Deps{Logger: zerolog.Nop()})
	defer session.Close()
	if err := store.Add(ctx, session); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := session.Start(1, domain.DifficultyAny); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.SubmitAnswer(0); err != nil {
		t.Fatalf("answer: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for mr.HGet("session:s-2", "state") != string(domain.StateComplete) {
		if time.Now().After(deadline) {
			t.Fatalf("report was not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := mr.HGet("session:s-2", "total"); got != "1" {
		t.Fatalf("expected total 1, got %q", got)
	}
	if mr.HGet("session:s-2", "rank") == "" {
		t.Fatalf("expected rank recorded")
	}
}

func TestSessionStoreReportAfterDeleteIsDropped(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), 0, zerolog.Nop())
	session := app.NewSession("s-3", sampleCatalog(), app.DefaultOptions(), app.Deps{Logger: zerolog.Nop()})
	defer session.Close()
	if err := store.Add(ctx, session); err != nil {
		t.Fatalf("add: %v", err)
	}

	store.recordReport("s-3", domain.Report{CorrectCount: 1, TotalQuestions: 1, Rank: "Legendary Chemist"})
	if got := mr.HGet("session:s-3", "state"); got != string(domain.StateComplete) {
		t.Fatalf("expected complete state while live, got %q", got)
	}
	if ttl := mr.TTL("session:s-3"); ttl != 0 {
		t.Fatalf("expected no expiry with zero ttl, got %v", ttl)
	}

	store.Delete(ctx, "s-3")
	store.recordReport("s-3", domain.Report{CorrectCount: 1, TotalQuestions: 1, Rank: "Legendary Chemist"})
	if mr.Exists("session:s-3") {
		t.Fatalf("late report must not recreate a deleted session key")
	}
}
