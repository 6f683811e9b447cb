package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
	"quizroom-service/internal/config"
	"quizroom-service/internal/infra/memory"
	"quizroom-service/internal/infra/postgres"
	rediscache "quizroom-service/internal/infra/redis"
	transport "quizroom-service/internal/transport/http"
)

const defaultShutdownTimeout = 10 * time.Second

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	// a missing .env file is fine
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	logger := newLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog, closeCatalog := openCatalog(ctx, cfg, app.NewCatalogLoader(store, store), logger)
	defer closeCatalog()

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), config.TTLDuration(cfg.Auth.TokenTTL, config.DefaultTokenTTL))
	if err != nil {
		return err
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	api := transport.NewAPI(transport.Dependencies{
		Accounts:       app.NewAccountService(store, hasher, tokens, logger),
		Rooms:          app.NewRoomService(store, store, catalog, logger),
		Questions:      app.NewQuestionService(store, store, catalog, logger),
		Results:        app.NewResultService(store, app.NewLeaderboardFeed(), logger),
		Tokens:         tokens,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting quiz room service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, defaultShutdownTimeout))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore picks Postgres when a URL is configured and the in-memory store
// otherwise. The returned health check is nil for the in-memory store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.Store, func(context.Context) error, func(), error) {
	if cfg.Postgres.URL == "" {
		logger.Warn("postgres url not configured, using in-memory store")
		return memory.NewStore(), nil, func() {}, nil
	}
	if err := postgres.Migrate(ctx, cfg.Postgres.URL, logger); err != nil {
		return nil, nil, nil, err
	}
	store, err := postgres.Connect(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, store.Ping, store.Close, nil
}

func openCatalog(ctx context.Context, cfg config.Config, loader *app.CatalogLoader, logger *slog.Logger) (app.RoomCatalog, func()) {
	ttl := config.TTLDuration(cfg.Catalog.TTL, config.DefaultCatalogTTL)
	if cfg.Redis.Addr == "" {
		return memory.NewCatalogCache(loader, ttl), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, catalog reads fall back to the store", "addr", cfg.Redis.Addr, "error", err)
	}
	cache := rediscache.NewCatalogCache(client, loader, ttl, cfg.Redis.Prefix, logger)
	return cache, func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
}
