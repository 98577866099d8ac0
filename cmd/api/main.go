package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/notification"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/seed"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	store := openStore(ctx, cfg, pg, logger)

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	cacheClient := cache.New(redis.Client, cfg.App.Name+":")

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	revoked := auth.NewTokenStore(cacheClient)

	var mailer notification.Mailer = notification.NewLogMailer(logger)
	if cfg.Notification.SMTPConfigured() {
		mailer = notification.NewSMTPMailer(cfg.Notification)
	} else {
		logger.Warn("SMTP not configured; notification emails will only be logged")
	}
	notifyWorker := worker.StartNotificationWorker(cfg.Notification, cfg.App.Name, mailer, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   store.Users(),
		Tokens:     tokens,
		Revoked:    revoked,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Dispatcher: notifyWorker.Dispatcher(),
		Policy:     cfg.Tickets,
		Logger:     logger,
	})
	userService := service.NewUserService(store, cfg.Auth.BcryptCost, logger)
	reportService := service.NewReportService(service.ReportDependencies{
		Store:    store,
		Cache:    cacheClient,
		CacheTTL: cfg.Reports.CacheTTL(),
		Logger:   logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, cfg.HTTP, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Admin:          handlers.NewAdminHandler(userService, notifyWorker.Notifications()),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revoked),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	notifyWorker.Stop(drainCtx)
}

// openStore picks Postgres when a pool is available and the in-memory store
// otherwise. The in-memory store is seeded with demo accounts in development.
func openStore(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) repository.Store {
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresStore(pg.Pool)
	}

	store := memory.New()
	if cfg.App.Env == "development" {
		if err := seed.Run(ctx, store, seed.DemoAccounts, cfg.Auth.BcryptCost, logger); err != nil {
			logger.Fatal("failed to seed in-memory store", zap.Error(err))
		}
	}
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
