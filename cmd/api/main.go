package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supaco_backend/internal/activity"
	"supaco_backend/internal/assistant"
	"supaco_backend/internal/assistant/session"
	"supaco_backend/internal/auth"
	"supaco_backend/internal/events"
	apphttp "supaco_backend/internal/http"
	"supaco_backend/internal/http/router"
	"supaco_backend/migrations"
	"supaco_backend/platform/ai/groq"
	"supaco_backend/platform/config"
	"supaco_backend/platform/db"
	"supaco_backend/platform/logger"
	"supaco_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/adk/model"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		applied, err := db.RunMigrations(ctx, cfg, migrations.FS)
		if err == nil {
			log.Info("database migrations complete", "applied", applied)
		}
		return err
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	stores, closeStores := initAssistantStores(ctx, cfg, log)
	if closeStores != nil {
		defer closeStores()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Activity module subscribes to domain events (not HTTP-facing)
	activity.NewModule(log).RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, eventBus, val, log)

	assistantModule, err := assistant.NewModule(pool, cfg, initModel(cfg, log), stores, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize assistant module", "error", err)
		panic("failed to initialize assistant module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			authModule,
			assistantModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initModel returns nil when no provider key is configured; the assistant
// then reports itself as unavailable instead of failing startup.
func initModel(cfg config.AssistantConfig, log *logger.Logger) model.LLM {
	if !cfg.IsAssistantEnabled() {
		log.Warn("GROQ_API_KEY not configured; assistant chat disabled")
		return nil
	}
	log.Info("assistant model configured", "model", cfg.GetGroqModel())
	return groq.NewModel(groq.Config{
		APIKey:  cfg.GetGroqAPIKey(),
		BaseURL: cfg.GetGroqBaseURL(),
		Model:   cfg.GetGroqModel(),
	})
}

type storesConfig interface {
	config.RedisConfig
	config.AssistantConfig
}

func initAssistantStores(ctx context.Context, cfg storesConfig, log *logger.Logger) (assistant.Stores, func()) {
	memory := assistant.Stores{
		Pending: session.NewMemoryPendingStore(cfg.GetAssistantActionTokenTTL()),
		History: session.NewMemoryHistoryStore(cfg.GetAssistantSessionTTL(), cfg.GetAssistantSessionMaxTurns()),
	}
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; assistant sessions kept in memory")
		return memory, nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; assistant sessions kept in memory", "error", err)
		return memory, nil
	}
	rdb := redis.NewClient(opts)

	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Error("redis unavailable; assistant sessions kept in memory", "error", err)
		_ = rdb.Close()
		return memory, nil
	}

	log.Info("assistant sessions stored in redis")
	stores := assistant.Stores{
		Pending: session.NewRedisPendingStore(rdb, cfg.GetAssistantActionTokenTTL()),
		History: session.NewRedisHistoryStore(rdb, cfg.GetAssistantSessionTTL(), cfg.GetAssistantSessionMaxTurns()),
	}
	return stores, func() {
		_ = rdb.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
