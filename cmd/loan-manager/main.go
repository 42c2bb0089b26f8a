// cmd/loan-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-origination/internal/api"
	"loan-origination/internal/common/camunda"
	"loan-origination/internal/common/config"
	"loan-origination/internal/common/database"
	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backends holds the optional infrastructure clients; nil means disabled.
type backends struct {
	pg      *database.PostgresClient
	redis   *database.RedisClient
	es      *database.ElasticsearchClient
	camunda *camunda.Client
}

func (b *backends) close(log *zap.Logger) {
	if b.camunda != nil {
		if err := b.camunda.Close(); err != nil {
			log.Error("error closing Zeebe client", zap.Error(err))
		}
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pg != nil {
		_ = b.pg.Close()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting loan manager",
		zap.String("environment", cfg.App.Environment),
		zap.String("sessionBackend", cfg.Session.Backend),
		zap.String("verificationMode", cfg.Verification.Mode),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := connect(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backend initialization failed", zap.Error(err))
	}
	defer b.close(zapLog)

	conv, letters, err := buildConversation(cfg, b, log)
	if err != nil {
		zapLog.Fatal("conversation wiring failed", zap.Error(err))
	}

	var workers *camunda.WorkerSet
	if b.camunda != nil {
		workers, err = startWorkers(ctx, cfg, b, obs, log)
		if err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
	}

	server := api.NewServer(api.Deps{
		Conversation:   conv,
		Letters:        letters,
		Admin:          api.NewAdminAuth(cfg.Server.Admin.JWTSecret, cfg.Server.Admin.Issuer),
		Observability:  obs,
		Readiness:      readinessChecks(b),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("chat API listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("shutdown signal received, draining")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		if workers != nil {
			workers.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("loan manager stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("loan manager stopped gracefully")
}

// connect opens every enabled backend, retrying while they come up.
func connect(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Database.Postgres.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			b.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := b.pg.Ping(ctx); err != nil {
				_ = b.pg.Close()
				b.pg = nil
				return err
			}
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		}
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Database.Postgres.AutoMigrate {
			if err := b.pg.Migrate(ctx); err != nil {
				return nil, err
			}
			zapLog.Info("database migrations applied")
		}
	}

	if cfg.Database.Redis.Address != "" {
		err := retryWithBackoff(func() error {
			var err error
			b.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := b.redis.Ping(ctx); err != nil {
				_ = b.redis.Close()
				b.redis = nil
				return err
			}
			return nil
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Redis connected successfully")
	}

	if cfg.Database.Elasticsearch.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	if cfg.Camunda.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			b.camunda, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Zeebe client connected successfully")

		if len(cfg.Camunda.DeployResources) > 0 {
			key, err := b.camunda.Deploy(ctx, cfg.Camunda.DeployResources...)
			if err != nil {
				return nil, fmt.Errorf("deploy process resources: %w", err)
			}
			zapLog.Info("Process resources deployed",
				zap.Strings("resources", cfg.Camunda.DeployResources),
				zap.Int64("deploymentKey", key))
		}
	}

	return b, nil
}

func readinessChecks(b *backends) map[string]api.ReadinessCheck {
	checks := map[string]api.ReadinessCheck{}
	if b.pg != nil {
		checks["postgres"] = b.pg.Ping
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	if b.es != nil {
		checks["elasticsearch"] = b.es.Ping
	}
	if b.camunda != nil {
		checks["zeebe"] = b.camunda.HealthCheck
	}
	return checks
}
