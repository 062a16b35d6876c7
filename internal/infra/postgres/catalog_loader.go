package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"chemquest/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads catalog questions (one JSONB document per row) from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT data FROM questions WHERE catalog_id=$1 ORDER BY position, id`, catalogID)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	c := domain.Catalog{ID: catalogID}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return domain.Catalog{}, fmt.Errorf("unmarshal question: %w", err)
		}
		c.Questions = append(c.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(c.Questions) == 0 {
		return domain.Catalog{}, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, catalogID)
	}
	return c, nil
}
