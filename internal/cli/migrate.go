package cli

import (
	"context"
	"fmt"
	"os"

	"chemquest/internal/catalog"
	"chemquest/internal/config"
	"chemquest/internal/domain"
	pgstore "chemquest/internal/infra/postgres"
	"chemquest/internal/logging"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations and optionally seeds the question catalog.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "upsert the configured catalog (catalog.path or the built-in one)")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, seed bool) error {
	cfg, logger, err := loadRuntime(configPath, os.Stdout)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(logging.IntoContext(ctx, logger), cfg, seed)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, seed bool) error {
	logger := logging.FromContext(ctx)
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := pgstore.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	group, err := pgstore.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info().Msg("no new migrations")
	} else {
		logger.Info().Str("group", group.String()).Msg("migrations applied")
	}

	if !seed {
		return nil
	}
	c, err := seedCatalog(cfg)
	if err != nil {
		return err
	}
	if err := pgstore.SeedCatalog(ctx, db, c); err != nil {
		return err
	}
	logger.Info().Str("catalog", c.ID).Int("questions", len(c.Questions)).Msg("catalog seeded")
	return nil
}

func seedCatalog(cfg config.Config) (domain.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Default(), nil
}
