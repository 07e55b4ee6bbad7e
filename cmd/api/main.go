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

	"leadlift_backend/internal/adapters"
	"leadlift_backend/internal/auth"
	"leadlift_backend/internal/clients"
	clientsrepo "leadlift_backend/internal/clients/repository"
	"leadlift_backend/internal/email"
	"leadlift_backend/internal/events"
	"leadlift_backend/internal/forms"
	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/internal/http/router"
	"leadlift_backend/internal/notification"
	"leadlift_backend/internal/scheduler"
	"leadlift_backend/internal/submissions"
	"leadlift_backend/migrations"
	"leadlift_backend/platform/cache"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/db"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/metrics"
	"leadlift_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const analyticsCachePrefix = "leadlift:analytics"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	eventBus := events.NewInMemoryBus(log)
	registry := metrics.New()
	val := validator.New()

	summaryCache, closeCache := initAnalyticsCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	alertQueue, closeQueue := initAlertQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg, log), alertQueue, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule, err := auth.NewModule(pool, cfg, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}
	if err := authModule.Bootstrap(ctx, cfg); err != nil {
		log.Error("failed to bootstrap admin user", "error", err)
		panic("failed to bootstrap admin user: " + err.Error())
	}

	clientsModule := clients.NewModule(pool, cfg, eventBus, val, log)

	// Anti-corruption layer: submissions and forms resolve tenants through the
	// clients repository without importing the clients service.
	clientsLookup := adapters.NewClientsLookup(clientsrepo.New(pool))

	ingestLimiter := httpkit.NewPerMinuteLimiter(cfg.GetIngestRatePerMinute(), cfg.GetIngestBurst(), log)
	submissionsModule := submissions.NewModule(pool, clientsLookup, eventBus, registry, ingestLimiter, cfg.GetDefaultPhoneRegion(), val, log)
	if summaryCache != nil {
		submissionsModule.Service().SetCache(summaryCache)
	}

	formsModule := forms.NewModule(pool, clientsLookup, submissionsModule.Repository(), val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  registry,
		Modules: []apphttp.Module{
			authModule,
			clientsModule,
			formsModule,
			submissionsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

// initAnalyticsCache connects to Redis when configured. Analytics are served
// uncached otherwise.
func initAnalyticsCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (*cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; analytics cache disabled")
		return nil, nil
	}

	client, err := cache.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to connect analytics cache", "error", err)
		return nil, nil
	}

	return cache.New(client, analyticsCachePrefix, cfg.GetAnalyticsCacheTTL()), func() {
		_ = client.Close()
	}
}

// initAlertQueue returns a nil enqueuer when Redis is not configured so that
// lead alerts are sent inline.
func initAlertQueue(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.LeadAlertEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead alerts are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize lead alert queue", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
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
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
