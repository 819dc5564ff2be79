package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/certhub/admin-gateway/internal/api/http"
	"github.com/certhub/admin-gateway/internal/api/http/handlers"
	"github.com/certhub/admin-gateway/internal/auth"
	"github.com/certhub/admin-gateway/internal/config"
	"github.com/certhub/admin-gateway/internal/events"
	"github.com/certhub/admin-gateway/internal/identity"
	"github.com/certhub/admin-gateway/internal/observability"
	"github.com/certhub/admin-gateway/internal/persistence"
	"github.com/certhub/admin-gateway/internal/repository"
	"github.com/certhub/admin-gateway/internal/repository/memory"
	"github.com/certhub/admin-gateway/internal/service"
	"github.com/certhub/admin-gateway/internal/worker"
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

	readiness := map[string]handlers.Pinger{}

	// Document store.
	mongoDB, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	var (
		userRepo       repository.UserRepository
		courseRepo     repository.CourseRepository
		enrollmentRepo repository.EnrollmentRepository
		txRunner       repository.TxRunner
	)
	if mongoDB != nil {
		defer mongoDB.Close(context.Background())
		if err := repository.EnsureIndexes(ctx, mongoDB.Database); err != nil {
			logger.Fatal("failed to ensure indexes", zap.Error(err))
		}
		userRepo = repository.NewMongoUserRepository(mongoDB.Database)
		courseRepo = repository.NewMongoCourseRepository(mongoDB.Database)
		enrollmentRepo = repository.NewMongoEnrollmentRepository(mongoDB.Database)
		txRunner = repository.NewMongoTxRunner(mongoDB.Client, cfg.Mongo.UseTransactions)
		readiness["mongo"] = mongoDB
	} else {
		store := memory.NewStore()
		userRepo, courseRepo, enrollmentRepo, txRunner = store.Users(), store.Courses(), store.Enrollments(), store
	}

	// Identity accounts.
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	accounts := identity.NewMemoryAccountStore()
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accounts = identity.NewPostgresAccountStore(pool)
		readiness["postgres"] = pg
	}

	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTLMinutes)

	revocations := identity.NewMemoryRevocationStore()
	if redis := persistence.NewRedis(cfg.Redis, logger); redis != nil {
		defer redis.Close()
		revocations = identity.NewRedisRevocationStore(redis.Client, tokens.TTL())
		readiness["redis"] = redis
	}

	provider := identity.NewProvider(accounts, revocations, tokens, cfg.Auth.BcryptCost)

	dispatcher := events.NewInMemoryDispatcher()
	stopWorker := worker.StartNotificationWorker(cfg.AMQP, dispatcher, logger)
	defer stopWorker()

	adminService := service.NewAdminService(service.AdminDependencies{
		Identity:       provider,
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		Tx:             txRunner,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})

	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword != "" {
		if err := adminService.BootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, logger, cfg.Errors.ExposeInternal)
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		ExposeInternal: cfg.Errors.ExposeInternal,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Users:          handlers.NewUsersHandler(provider),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: auth.NewAuthMiddleware(provider, userRepo, logger),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
