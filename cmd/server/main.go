// @title           Lead Dashboard API
// @version         1.0
// @description     Authentication and user administration for the lead dashboard.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "github.com/leadops/dashboard/docs"
	"github.com/leadops/dashboard/internal/api"
	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/core/service"
	"github.com/leadops/dashboard/internal/infrastructure/config"
	"github.com/leadops/dashboard/internal/infrastructure/db/mongo"
	"github.com/leadops/dashboard/internal/infrastructure/db/postgres"
	"github.com/leadops/dashboard/internal/infrastructure/db/redis"
	"github.com/leadops/dashboard/internal/infrastructure/http/handlers"
	"github.com/leadops/dashboard/internal/infrastructure/queue"
	"github.com/leadops/dashboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "lead-dashboard"})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "lead-dashboard",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Stores ---
	pg, err := postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer closePostgres(pg, log)

	if err := postgres.Migrate(ctx, pg); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	mdb, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(closeCtx, mdb)
	}()

	auditRepo := mongo.NewAuditRepository(mdb)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Core ---
	userRepo := postgres.NewUserRepository(pg)
	tokens := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	revocations := redis.NewRevocationStore(rdb, cfg.Auth.TokenTTL)
	limiter := redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)

	// The dispatcher outlives the HTTP server so in-flight audit events are
	// flushed after the last request completes.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	authService := service.NewAuthService(userRepo, tokens, service.AuthDeps{
		Revocations: revocations,
		Limiter:     limiter,
		Audit:       dispatcher,
	}, logger.Component("auth"))
	userService := service.NewUserService(userRepo, revocations, dispatcher, logger.Component("users"))
	auditService := service.NewAuditService(auditRepo)
	guard := service.NewGuard(tokens, userRepo, revocations, logger.Component("guard"))

	if cfg.Auth.BootstrapAdminEmail != "" {
		if err := userService.EnsureBootstrapAdmin(ctx,
			cfg.Auth.BootstrapAdminEmail,
			cfg.Auth.BootstrapAdminPassword,
			cfg.Auth.BootstrapAdminName,
		); err != nil {
			return err
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		AuthService:  authService,
		UserService:  userService,
		AuditService: auditService,
		Guard:        guard,
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.IsProduction(),
			MaxAge: cfg.Auth.TokenTTL,
		},
		CORSOrigins: cfg.CORSOrigins,
		HealthChecks: map[string]handlers.Pinger{
			"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, pg) },
			"redis":    func(ctx context.Context) error { return pingRedis(ctx, rdb) },
			"mongodb":  func(ctx context.Context) error { return pingMongo(ctx, mdb) },
		},
		Logger: log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}

func pingMongo(ctx context.Context, db *mongodriver.Database) error {
	return db.Client().Ping(ctx, nil)
}

func closePostgres(db *gorm.DB, log zerolog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("close postgres")
	}
}
