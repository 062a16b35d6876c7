package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"chemquest/internal/catalog"
	"chemquest/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a catalog from a backing store (e.g., Postgres, a YAML file).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// CatalogRepository caches catalogs with TTL to avoid repeated loads.
// Loaded catalogs are validated before they are cached; a zero TTL caches forever.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedCatalog
}

type cachedCatalog struct {
	catalog   domain.Catalog
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCatalog),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	if c, ok := r.cached(catalogID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		if c, ok := r.cached(catalogID); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return domain.Catalog{}, err
		}
		if err := catalog.Validate(c.Questions); err != nil {
			return domain.Catalog{}, fmt.Errorf("catalog %s: %w", catalogID, err)
		}

		r.mu.Lock()
		r.cache[catalogID] = cachedCatalog{
			catalog:   c,
			expiresAt: r.expiry(),
		}
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate drops a cached catalog so the next read reloads it.
func (r *CatalogRepository) Invalidate(catalogID string) {
	r.mu.Lock()
	delete(r.cache, catalogID)
	r.mu.Unlock()
}

func (r *CatalogRepository) cached(catalogID string) (domain.Catalog, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[catalogID]
	if !ok || (!entry.expiresAt.IsZero() && !entry.expiresAt.After(now)) {
		return domain.Catalog{}, false
	}
	return entry.catalog, true
}

// expiry must be called with mu held.
func (r *CatalogRepository) expiry() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.clock().Add(r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1)))
}

// StaticCatalogLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticCatalogLoader struct {
	catalogs map[string]domain.Catalog
}

func NewStaticCatalogLoader(catalogs ...domain.Catalog) *StaticCatalogLoader {
	l := &StaticCatalogLoader{catalogs: make(map[string]domain.Catalog, len(catalogs))}
	for _, c := range catalogs {
		l.catalogs[c.ID] = c
	}
	return l
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	if c, ok := l.catalogs[catalogID]; ok {
		return c, nil
	}
	return domain.Catalog{}, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, catalogID)
}

// FileCatalogLoader reads a YAML catalog from disk on every load; the repository caches it.
type FileCatalogLoader struct {
	path string
}

func NewFileCatalogLoader(path string) *FileCatalogLoader {
	return &FileCatalogLoader{path: path}
}

func (l *FileCatalogLoader) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	c, err := catalog.LoadFile(l.path)
	if err != nil {
		return domain.Catalog{}, err
	}
	if c.ID != catalogID {
		return domain.Catalog{}, fmt.Errorf("%w: %s (file holds %s)", domain.ErrCatalogNotFound, catalogID, c.ID)
	}
	return c, nil
}
