package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/assignment"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	citizenRepo := repository.NewCitizenRepository(pool)
	operatorRepo := repository.NewOperatorRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	authorityRepo := repository.NewAuthorityRepository(pool)
	adminPointRepo := repository.NewAdminPointRepository(pool)

	points, err := adminPointRepo.ListAll(ctx)
	if err != nil {
		logger.Fatal("failed to load admin points", zap.Error(err))
	}
	index := geo.NewIndex(points, cfg.Location.IndexRadiusKm)
	logger.Info("local geospatial index loaded", zap.Int("points", index.Size()))

	var geocoder geo.Geocoder
	if cfg.Geocoder.BaseURL != "" {
		geocoder = geo.NewHTTPGeocoder(cfg.Geocoder, logger)
	} else {
		logger.Warn("GEOCODER_BASE_URL not set; falling back to local index only")
	}
	geocodeCache := geo.NewGeocodeCache(redis.Client, cfg.Geocoder.CacheTTL(), logger)
	locationResolver := geo.NewResolver(index, geocoder, geocodeCache, logger)

	assignmentResolver := assignment.NewResolver(authorityRepo, cfg.Assignment.AllowCrossStateFallback)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	metricsService := service.NewMetricsService(authorityRepo, logger)
	authorityService := service.NewAuthorityService(authorityRepo, metricsService)
	var validator service.AIValidator
	if cfg.AIValidator.BaseURL != "" {
		validator = service.NewHTTPAIValidator(cfg.AIValidator, logger)
	} else {
		validator = service.NewStubAIValidator(logger)
	}
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		TimelineRepo: timelineRepo,
		Validator:    validator,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		IssueRepo:     issueRepo,
		AuthorityRepo: authorityRepo,
		Locations:     locationResolver,
		Resolver:      assignmentResolver,
		Metrics:       metricsService,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo:  citizenRepo,
		OperatorRepo: operatorRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, operatorRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:        handlers.NewAccountsHandler(authService),
		Issues:          handlers.NewIssuesHandler(issueService),
		AdminIssues:     handlers.NewAdminIssuesHandler(lifecycleService, issueService, authorityService),
		AuthorityIssues: handlers.NewAuthorityIssuesHandler(lifecycleService, issueService),
		AuthMiddleware:  authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
