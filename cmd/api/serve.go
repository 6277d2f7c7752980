package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/rbac"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/visibility"
	"github.com/spec-kit/complaint-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	shutdownTracing := observability.SetupTracing(ctx, cfg.App.Name, cfg.Telemetry, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	metrics := observability.NewMetrics()
	catalog := rbac.DefaultCatalog()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL())

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	var (
		store  repository.Store
		checks []handlers.DependencyCheck
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresStore(pool)
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping})
	} else {
		mem := memory.NewStore()
		if err := seedDemo(ctx, mem, tokens, logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		store = mem
	}

	rdb, redisErr := persistence.ConnectRedis(ctx, cfg.Redis, logger)
	if redisErr != nil {
		logger.Warn("running without redis", zap.Error(redisErr))
	}
	defer rdb.Close()
	redisClient := rdb.Client()
	if redisClient != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: rdb.Ping})
	}

	dispatcher := events.NewAsyncDispatcher(cfg.Notification.BufferSize, logger, metrics)
	var publisher service.EventPublisher
	if redisClient != nil {
		publisher = redisClient
	}
	notifications := service.NewNotificationService(dispatcher, publisher, logger, cfg.Notification)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := worker.StartNotificationWorker(workerCtx, dispatcher, notifications)

	deps := service.Dependencies{
		Store:      store,
		OrgUnits:   repository.NewCachedOrgUnitRepository(store.Repositories().OrgUnits, redisClient, cfg.Redis.OrgTreeTTL(), logger),
		Catalog:    catalog,
		Dispatcher: dispatcher,
		Numbers:    service.NewTicketNumberGenerator(cfg.Ticket.NumberPrefix, time.Now),
		Metrics:    metrics,
		Logger:     logger,
		Visibility: visibility.Options{DistrictDepth: cfg.Visibility.DistrictDepth},
	}
	ticketService := service.NewTicketService(deps)
	assignmentService := service.NewAssignmentService(deps)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService),
		Departments:    handlers.NewDepartmentsHandler(assignmentService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Repositories().Actors, catalog),
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
	}

	if shutdownErr := app.ShutdownWithTimeout(shutdownTimeout); shutdownErr != nil {
		logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	stopWorker()
	<-workerDone
	return err
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
