package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/talkahistory/chat-archive/internal/api/http"
	"github.com/talkahistory/chat-archive/internal/api/http/handlers"
	"github.com/talkahistory/chat-archive/internal/auth"
	"github.com/talkahistory/chat-archive/internal/config"
	"github.com/talkahistory/chat-archive/internal/events"
	"github.com/talkahistory/chat-archive/internal/importer"
	"github.com/talkahistory/chat-archive/internal/observability"
	"github.com/talkahistory/chat-archive/internal/persistence"
	"github.com/talkahistory/chat-archive/internal/repository"
	"github.com/talkahistory/chat-archive/internal/service"
	"github.com/talkahistory/chat-archive/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers, metrics)
	if err != nil {
		logger.Fatal("failed to init password hasher", zap.Error(err))
	}
	sessions := auth.NewSessionManager(
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		auth.NewRedisRevocationStore(redis.Client),
		userRepo,
	)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     hasher,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	adminService := service.NewUserAdminService(userRepo, authService, dispatcher)
	conversationService := service.NewConversationService(conversationRepo, messageRepo)
	importService := service.NewImportService(importer.NewParser(time.UTC), conversationRepo, dispatcher, metrics)

	bootstrapAdmin(ctx, adminService, cfg.Auth, logger)

	app := httptransport.NewApp(cfg.App.Name, cfg.App.BodyLimit())
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	validate := handlers.NewValidator()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Users:          handlers.NewUsersHandler(adminService, validate),
		Conversations:  handlers.NewConversationsHandler(conversationService, importService),
		AuthMiddleware: auth.NewAuthMiddleware(sessions),
		Gatherer:       prometheus.DefaultGatherer,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

// bootstrapAdmin makes sure the reserved administrator exists before the
// server accepts traffic.
func bootstrapAdmin(ctx context.Context, admins *service.UserAdminService, cfg config.AuthConfig, logger *zap.Logger) {
	user, created, err := admins.EnsureReservedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	switch {
	case err != nil:
		logger.Fatal("failed to bootstrap admin", zap.String("username", cfg.AdminUsername), zap.Error(err))
	case user == nil:
		logger.Warn("reserved admin missing and AUTH_ADMIN_PASSWORD unset; skipping bootstrap",
			zap.String("username", cfg.AdminUsername))
	case created:
		logger.Info("reserved admin created", zap.String("username", user.Username))
	default:
		logger.Info("reserved admin present", zap.String("username", user.Username))
	}
}
