package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"chemquest/internal/catalog"
	"chemquest/internal/domain"
	pgmigrations "chemquest/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// OpenBun opens a bun handle over pgdriver. The caller closes it.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending migration and returns the group that ran (empty when up to date).
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Migrate(ctx)
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	CatalogID string          `bun:"catalog_id,pk"`
	ID        string          `bun:"id,pk"`
	Position  int             `bun:"position,notnull"`
	Data      json.RawMessage `bun:"data,type:jsonb,notnull"`
}

// SeedCatalog validates c and upserts it, removing questions that are no longer part of it.
func SeedCatalog(ctx context.Context, db *bun.DB, c domain.Catalog) error {
	if err := catalog.Validate(c.Questions); err != nil {
		return fmt.Errorf("seed %s: %w", c.ID, err)
	}
	rows, err := questionRows(c)
	if err != nil {
		return err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (catalog_id, id) DO UPDATE").
			Set("position = EXCLUDED.position").
			Set("data = EXCLUDED.data").
			Set("updated_at = now()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}
		_, err = tx.NewDelete().
			Model((*questionRow)(nil)).
			Where("catalog_id = ?", c.ID).
			Where("id NOT IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("prune questions: %w", err)
		}
		return nil
	})
}

func questionRows(c domain.Catalog) ([]questionRow, error) {
	rows := make([]questionRow, 0, len(c.Questions))
	for i, q := range c.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		rows = append(rows, questionRow{CatalogID: c.ID, ID: q.ID, Position: i, Data: data})
	}
	return rows, nil
}
