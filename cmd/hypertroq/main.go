package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/adapter/cache"
	mailadapter "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/adapter/mail"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/bootstrap"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/config"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/database"
	httptransport "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/handler"
	httpmiddleware "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/http/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/jwt"
	apimiddleware "github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/middleware"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/org"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/server"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/service"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newOrganizationRepository,
			newUserRepository,
			newAccountRepository,
			newExerciseRepository,
			newProgramRepository,
			newRedisClient,
			newTokenStore,
			newMailDispatcher,
			newNotifier,
			newTokenGenerator,
			newLimiters,
			org.NewResolver,
			service.NewAuthService,
			service.NewUserService,
			service.NewAdminService,
			service.NewOrganizationService,
			service.NewExerciseService,
			service.NewProgramService,
			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewAdminHandler,
			handler.NewOrganizationHandler,
			handler.NewExerciseHandler,
			handler.NewProgramHandler,
			newHealthHandler,
			newHandlers,
			httpmiddleware.NewAuth,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(
			useTelemetry,
			runMigrations,
			bootstrap.EnsureAdmin,
			startMailDispatcher,
			startDeletionSweeper,
			startHTTPServer,
		),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newOrganizationRepository(pool *pgxpool.Pool) repository.OrganizationRepository {
	return repository.NewPostgresOrganizationRepo(pool)
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

func newExerciseRepository(pool *pgxpool.Pool) repository.ExerciseRepository {
	return repository.NewPostgresExerciseRepo(pool)
}

func newProgramRepository(pool *pgxpool.Pool) repository.ProgramRepository {
	return repository.NewPostgresProgramRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newTokenStore(client redis.UniversalClient, cfg config.Config) repository.TokenStore {
	return cacheadapter.NewRedisTokenStore(client, cfg.EphemeralTokenRetention)
}

func newMailDispatcher(cfg config.Config, logger *zap.Logger) (*mailadapter.Dispatcher, error) {
	renderer, err := mailadapter.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}
	sender := mailadapter.NewSender(cfg, logger)
	return mailadapter.NewDispatcher(renderer, sender, cfg.MailQueueSize, cfg.MailWorkers, logger), nil
}

func newNotifier(d *mailadapter.Dispatcher) service.Notifier {
	return d
}

func newTokenGenerator(cfg config.Config) (*jwt.Generator, error) {
	return jwt.NewGenerator([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

func newLimiters(cfg config.Config) httptransport.Limiters {
	return httptransport.Limiters{
		Global: apimiddleware.NewRateLimiter(cfg.RateLimitRPM, nil),
		Auth:   apimiddleware.NewRateLimiter(cfg.AuthRateLimitRPM, nil),
	}
}

func newHealthHandler(cfg config.Config, pool *pgxpool.Pool, client redis.UniversalClient) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.ServiceName, map[string]handler.HealthCheck{
		"database": pool.Ping,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	})
}

type handlerParams struct {
	fx.In

	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Admin         *handler.AdminHandler
	Organizations *handler.OrganizationHandler
	Exercises     *handler.ExerciseHandler
	Programs      *handler.ProgramHandler
	Health        *handler.HealthHandler
}

func newHandlers(p handlerParams) httptransport.Handlers {
	return httptransport.Handlers{
		Auth:          p.Auth,
		Users:         p.Users,
		Admin:         p.Admin,
		Organizations: p.Organizations,
		Exercises:     p.Exercises,
		Programs:      p.Programs,
		Health:        p.Health,
	}
}

func runMigrations(cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
	if !cfg.AutoMigrate {
		return nil
	}
	migrator := database.NewMigrator(pool)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("database migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func startMailDispatcher(lc fx.Lifecycle, d *mailadapter.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: d.Stop,
	})
}

// startDeletionSweeper purges accounts whose deletion grace period has elapsed.
func startDeletionSweeper(lc fx.Lifecycle, cfg config.Config, users *service.UserService, logger *zap.Logger) {
	if cfg.DeletionSweepInterval <= 0 {
		logger.Info("account deletion sweeper disabled")
		return
	}

	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.DeletionSweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						purged, err := users.PurgeExpiredDeletions(runCtx)
						if err != nil {
							logger.Error("account deletion sweep failed", zap.Error(err))
						}
						if purged > 0 {
							logger.Info("account deletion sweep", zap.Int("purged", purged))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
