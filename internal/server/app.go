// Package server assembles the token service: it opens the credential store,
// applies migrations, builds the caches and the rotation engine, and runs the
// HTTP API and the gRPC health service until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/cache"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/rotation"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const redisPingTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	metrics *metrics.Metrics
	engine  *rotation.Engine
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}
	app.closers = append(app.closers, db.Close)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	negative, sessions, err := app.buildCaches(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	signer := auth.NewSigner([]byte(c.SecretKey), c.AccessTokenLifetime)
	app.engine = rotation.NewEngine(rm.RefreshTokens(db), rm.Users(db), negative, sessions, signer, c,
		rotation.WithLogger(logger),
		rotation.WithMetrics(app.metrics),
	)

	return app, nil
}

// buildCaches returns the negative and session caches for the configured
// backend.
func (app *App) buildCaches(ctx context.Context) (cache.NegativeCache, cache.SessionCache, error) {
	c := app.config

	switch c.CacheBackend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		app.closers = append(app.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis init error: %w", err)
		}

		negative, err := cache.NewRedisNegativeCache(client, c.InvalidTokenCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		sessions, err := cache.NewRedisSessionCache(client, c.SessionCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return negative, sessions, nil

	default:
		negative, err := cache.NewMemoryNegativeCache(c.InvalidTokenCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, func() error { negative.Close(); return nil })

		sessions, err := cache.NewMemorySessionCache(c.SessionCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, func() error { sessions.Close(); return nil })
		return negative, sessions, nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a shutdown signal arrives or one of the
// servers fails. In-flight expired token purges are awaited before returning.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(app.engine, app.db, app.config.AdminToken, app.logger)
	httpServer := httpapi.NewServer(app.config.HTTPAddr, httpapi.NewRouter(handler, app.metrics), app.logger)
	grpcServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return grpcServer.Run(gctx) })

	err := g.Wait()

	app.engine.Reaper().Wait()
	app.close()

	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}
