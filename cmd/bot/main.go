package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-bot/internal/api/http"
	"github.com/spec-kit/support-bot/internal/api/http/handlers"
	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/bot"
	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/persistence"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/internal/service"
	"github.com/spec-kit/support-bot/internal/session"
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

	var tickets repository.TicketRepository
	if pool := pg.PoolHandle(); pool != nil {
		tickets = repository.NewPostgresTicketRepository(pool)
	} else {
		logger.Warn("using in-memory ticket store; tickets will not survive a restart")
		tickets = repository.NewMemoryTicketRepository()
	}

	var sessions session.Store
	if cfg.Session.Backend == "redis" {
		sessions = session.NewRedisStore(redis.Client, cfg.Session.TTL())
	} else {
		sessions, err = session.NewBigcacheStore(cfg.Session.TTL())
		if err != nil {
			logger.Fatal("failed to init session cache", zap.Error(err))
		}
	}

	catalog := render.NewCatalog()
	if cfg.Support.CatalogPath != "" {
		if err := catalog.LoadFile(cfg.Support.CatalogPath); err != nil {
			logger.Fatal("failed to load message catalog", zap.Error(err))
		}
		if err := catalog.Watch(ctx, cfg.Support.CatalogPath, logger); err != nil {
			logger.Warn("catalog hot reload unavailable", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	gw := gateway.NewHTTPGateway(cfg.Gateway, metrics, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	intakeService := service.NewIntakeService(cfg.Support, service.IntakeDependencies{
		Sessions:   sessions,
		Tickets:    tickets,
		Gateway:    gw,
		Dispatcher: dispatcher,
		Catalog:    catalog,
	}, logger)

	lifecycleService := service.NewLifecycleService(cfg.Support, service.LifecycleDependencies{
		Tickets:    tickets,
		Gateway:    gw,
		Dispatcher: dispatcher,
		Catalog:    catalog,
	}, logger)

	replyRouter := service.NewReplyRouter(service.ReplyRouterDependencies{
		Tickets:    tickets,
		Lifecycle:  lifecycleService,
		Gateway:    gw,
		Dispatcher: dispatcher,
		Catalog:    catalog,
	}, logger)

	updateHandler := bot.NewHandler(cfg.Support, bot.HandlerDependencies{
		Intake:    intakeService,
		Replies:   replyRouter,
		Lifecycle: lifecycleService,
		Gateway:   gw,
		Catalog:   catalog,
		Metrics:   metrics,
	}, logger)

	botDispatcher := bot.NewDispatcher(ctx, cfg.Support.StaffChannel, updateHandler.Handle)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:     handlers.NewWebhookHandler(botDispatcher, logger),
		WebhookAuth: auth.NewWebhookAuth(cfg.Gateway.WebhookSecret),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	botDispatcher.Wait()
	cancel()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
