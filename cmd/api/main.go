package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-service/internal/api/http"
	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/triage"
	"github.com/spec-kit/triage-service/internal/worker"
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

	policy, err := triage.NewPolicy(cfg.Triage)
	if err != nil {
		logger.Fatal("invalid triage configuration", zap.Error(err))
	}

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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	reviewerRepo := repository.NewReviewerRepository(pool)

	llmClient := llm.NewHTTPClient(cfg.LLM)
	classifier := triage.NewClassifier(llmClient, cfg.LLM, logger)
	drafter := triage.NewDrafter(llmClient, cfg.LLM, logger)
	mailbox := mail.NewLogMailbox(cfg.Mail, logger)

	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo: ticketRepo,
		Classifier: classifier,
		Drafter:    drafter,
		Policy:     policy,
		Mailbox:    mailbox,
		SeenCache:  redis,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		FetchBatch: cfg.Mail.FetchBatchSize,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Mailbox:    mailbox,
		Policy:     policy,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth, reviewerRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), reviewerRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics)
	authHandler := handlers.NewAuthHandler(authService)
	ticketsHandler := handlers.NewTicketsHandler(triageService, ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Tickets:        ticketsHandler,
		AuthMiddleware: authMiddleware,
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
