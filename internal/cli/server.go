package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/catalog"
	"chemquest/internal/config"
	"chemquest/internal/infra/memory"
	pgloader "chemquest/internal/infra/postgres"
	redisinfra "chemquest/internal/infra/redis"
	"chemquest/internal/logging"
	"chemquest/internal/metrics"
	transport "chemquest/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadRuntime(configPath, os.Stdout)
	if err != nil {
		return err
	}
	ctx = logging.IntoContext(ctx, logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, false); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader := catalogLoader(cfg, pool)
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL, logger)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL, logger)
	} else {
		store = memory.NewSessionStore()
	}

	opts, err := cfg.Quiz.Options()
	if err != nil {
		return err
	}

	// fail fast on a missing or invalid catalog
	if _, err := catalogs.GetCatalog(ctx, cfg.Catalog.ID); err != nil {
		return fmt.Errorf("load catalog %s: %w", cfg.Catalog.ID, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	service := app.NewQuizService(store, catalogs, app.ServiceConfig{
		CatalogID: cfg.Catalog.ID,
		Defaults:  opts,
		Audio:     cfg.Audio.Options(),
		Seed:      cfg.Quiz.Seed,
		Observer:  recorder,
		Logger:    logger,
	})
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("catalog", cfg.Catalog.ID).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server...")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// catalogLoader picks the catalog source: Postgres when configured, else a YAML file, else the embedded catalog.
func catalogLoader(cfg config.Config, pool *pgxpool.Pool) memory.CatalogLoader {
	switch {
	case pool != nil:
		return pgloader.NewCatalogLoader(pool)
	case cfg.Catalog.Path != "":
		return memory.NewFileCatalogLoader(cfg.Catalog.Path)
	}
	return memory.NewStaticCatalogLoader(catalog.Default())
}
