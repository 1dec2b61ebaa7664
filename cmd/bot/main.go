package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/project-pulse/pulse/internal/ai"
	httptransport "github.com/project-pulse/pulse/internal/api/http"
	"github.com/project-pulse/pulse/internal/api/http/handlers"
	"github.com/project-pulse/pulse/internal/auth"
	"github.com/project-pulse/pulse/internal/billing"
	"github.com/project-pulse/pulse/internal/config"
	"github.com/project-pulse/pulse/internal/digest"
	"github.com/project-pulse/pulse/internal/engine"
	"github.com/project-pulse/pulse/internal/events"
	"github.com/project-pulse/pulse/internal/gate"
	"github.com/project-pulse/pulse/internal/messenger"
	"github.com/project-pulse/pulse/internal/observability"
	"github.com/project-pulse/pulse/internal/persistence"
	"github.com/project-pulse/pulse/internal/repository"
	"github.com/project-pulse/pulse/internal/service"
	"github.com/project-pulse/pulse/internal/sink"
	"github.com/project-pulse/pulse/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	messageRepo := repository.NewMessageRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to init chat model", zap.Error(err))
	}
	aiClient := ai.NewClient(chatModel, cfg.AI.Timeout(), logger)

	ticketSink, err := sink.New(cfg.Ticket, ticketRepo, logger)
	if err != nil {
		logger.Fatal("failed to init ticket backend", zap.Error(err))
	}

	adapter, err := messenger.NewDiscordAdapter(cfg.Discord, logger)
	if err != nil {
		logger.Fatal("failed to init discord session", zap.Error(err))
	}

	accessGate := gate.NewGate(profileRepo, logger)
	denials := gate.NewDenialNotifier(redis.Client, 0, logger)

	urgencyEngine := engine.New(cfg.Urgency, cfg.Discord.ReportChannel, engine.Dependencies{
		Gate:        accessGate,
		Denials:     denials,
		MessageRepo: messageRepo,
		TicketRepo:  ticketRepo,
		Sink:        ticketSink,
		Classifier:  aiClient,
		Generator:   aiClient,
		Messenger:   adapter,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	alertService := service.NewAlertService(dispatcher, adapter, logger, cfg.Discord)
	worker.StartAlertWorker(alertService)

	digestScheduler := digest.New(cfg.Digest, cfg.Discord.DigestChannel, accessGate, messageRepo, aiClient, adapter, adapter, dispatcher, metrics, logger)

	adapter.SetHandler(urgencyEngine)
	adapter.SetDigestRunner(digestScheduler)

	if err := adapter.Start(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}
	defer adapter.Close() //nolint:errcheck

	if err := digestScheduler.Start(); err != nil {
		logger.Fatal("failed to start digest scheduler", zap.Error(err))
	}
	defer digestScheduler.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 0)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	provider := billing.NewStripeProvider(cfg.Billing.StripeKey, logger)
	billingService := billing.NewService(provider, profileRepo, cfg.Billing, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics)
	billingHandler := handlers.NewBillingHandler(billingService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Billing:        billingHandler,
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
