package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chemquest/internal/domain"
	"chemquest/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, zerolog.Nop())

	got, err := repo.GetCatalog(context.Background(), "sample")
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls.Load())
	}
	if !mr.Exists("catalog:sample") {
		t.Fatalf("expected catalog:sample to be cached")
	}
	if ttl := mr.TTL("catalog:sample"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetCatalog(context.Background(), "sample")
	if err != nil {
		t.Fatalf("get cached catalog: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls.Load())
	}
	if cached.Questions[1].CorrectOption() != got.Questions[1].CorrectOption() {
		t.Fatalf("cached catalog lost its answer key")
	}
}

func TestCatalogRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, zerolog.Nop())

	_, _ = repo.GetCatalog(context.Background(), "sample")
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetCatalog(context.Background(), "sample")
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls.Load())
	}

	if err := repo.Invalidate(context.Background(), "sample"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("catalog:sample") {
		t.Fatalf("expected cached catalog removed")
	}
}

func TestCatalogRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	_ = mr.Set("catalog:sample", "{not json")

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, zerolog.Nop())

	if _, err := repo.GetCatalog(context.Background(), "sample"); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected corrupt entry to fall through to the loader")
	}
}

func TestCatalogRepositoryDoesNotCacheInvalidCatalog(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bad := sampleCatalog()
	bad.Questions[0].CorrectIndex = 5
	repo := NewCatalogRepository(newClient(mr), memory.NewStaticCatalogLoader(bad), time.Minute, zerolog.Nop())

	if _, err := repo.GetCatalog(context.Background(), "sample"); !errors.Is(err, domain.ErrInvalidCorrectIndex) {
		t.Fatalf("expected invalid correct index, got %v", err)
	}
	if mr.Exists("catalog:sample") {
		t.Fatalf("invalid catalog must not be cached")
	}
}

type countingLoader struct {
	memory.CatalogLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	l.calls.Add(1)
	return l.CatalogLoader.LoadCatalog(ctx, catalogID)
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
		ID: "sample",
		Questions: []domain.Question{
			{
				ID:               "q1",
				Prompt:           "What is the formula of table salt?",
				Options:          []string{"NaCl", "KCl"},
				CorrectIndex:     0,
				Difficulty:       domain.DifficultyEasy,
				TimeLimitSeconds: 30,
			},
			{
				ID:               "q2",
				Prompt:           "Which gas is flammable?",
				Options:          []string{"Helium", "Hydrogen", "Neon"},
				CorrectIndex:     1,
				Difficulty:       domain.DifficultyMedium,
				TimeLimitSeconds: 45,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
