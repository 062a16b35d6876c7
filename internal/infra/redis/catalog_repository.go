package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"chemquest/internal/catalog"
	"chemquest/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// CatalogRepository caches whole catalogs in Redis and falls back to a loader on cache miss.
// Catalogs are stored as JSON: SET catalog:{catalogID} {json} EX ttl
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	logger zerolog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	if c, ok := r.cached(ctx, catalogID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if c, ok := r.cached(ctx, catalogID); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return domain.Catalog{}, err
		}
		if err := catalog.Validate(c.Questions); err != nil {
			return domain.Catalog{}, fmt.Errorf("catalog %s: %w", catalogID, err)
		}

		payload, err := json.Marshal(c)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("encode catalog: %w", err)
		}
		// the cache is best-effort; a failed write only costs a reload
		if err := r.client.Set(ctx, r.key(catalogID), payload, r.ttlWithJitter()).Err(); err != nil {
			r.logger.Warn().Err(err).Str("catalog", catalogID).Msg("cache catalog")
		}
		return c, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate removes the cached copy of a catalog.
func (r *CatalogRepository) Invalidate(ctx context.Context, catalogID string) error {
	return r.client.Del(ctx, r.key(catalogID)).Err()
}

func (r *CatalogRepository) cached(ctx context.Context, catalogID string) (domain.Catalog, bool) {
	payload, err := r.client.Get(ctx, r.key(catalogID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("catalog", catalogID).Msg("read cached catalog")
		}
		return domain.Catalog{}, false
	}
	var c domain.Catalog
	if err := json.Unmarshal(payload, &c); err != nil {
		r.logger.Warn().Err(err).Str("catalog", catalogID).Msg("decode cached catalog")
		return domain.Catalog{}, false
	}
	return c, true
}

func (r *CatalogRepository) key(catalogID string) string {
	return "catalog:" + catalogID
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
