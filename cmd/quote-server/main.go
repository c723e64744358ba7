// cmd/quote-server/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quote-intake/internal/common/aws"
	"quote-intake/internal/common/camunda"
	"quote-intake/internal/common/config"
	"quote-intake/internal/common/database"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/common/zoho"
	"quote-intake/internal/httpserver"
	"quote-intake/internal/wizard"

	as "quote-intake/internal/workers/intake/address-suggest"
	er "quote-intake/internal/workers/intake/estimate-request"
	fu "quote-intake/internal/workers/intake/file-upload"
	ln "quote-intake/internal/workers/intake/lead-notify"
	sp "quote-intake/internal/workers/intake/submission-persist"
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting quote server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	store := sp.NewPostgresStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("submission schema setup failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}

	notifyDeps := ln.Dependencies{
		SES: aws.NewSESClient(awsCfg),
		SNS: aws.NewSNSClient(awsCfg),
	}
	if cfg.Integrations.Zoho.Enabled {
		notifyDeps.CRM = zoho.NewCRMClient(
			cfg.Integrations.Zoho.BaseURL,
			cfg.Integrations.Zoho.AuthToken,
			config.GetDuration(cfg.Integrations.Zoho.Timeout),
		)
	}

	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		notifyDeps.Process = zeebe
		zapLog.Info("Zeebe client connected successfully")
	}

	zapLog.Info("All external service clients initialized")

	// --- Wire Handlers ---
	suggestCfg := as.LoadConfig(cfg)
	estimateCfg := er.LoadConfig(cfg)
	uploadCfg := fu.LoadConfig(cfg)
	persistCfg := sp.DefaultConfig()
	notifyCfg := ln.LoadConfig(cfg)
	for name, v := range map[string]interface{ Validate() error }{
		as.TaskType: suggestCfg,
		er.TaskType: estimateCfg,
		fu.TaskType: uploadCfg,
		sp.TaskType: persistCfg,
		ln.TaskType: notifyCfg,
	} {
		if err := v.Validate(); err != nil {
			zapLog.Fatal("invalid handler config", zap.String("handler", name), zap.Error(err))
		}
	}

	suggester := as.NewHandler(suggestCfg, rdb.Client, obs, log)
	storage := fu.NewS3Storage(
		aws.NewS3Client(awsCfg),
		cfg.Integrations.AWS.S3.Bucket,
		cfg.Integrations.AWS.Region,
		cfg.Integrations.AWS.S3.PublicBaseURL,
	)

	deps := wizard.Deps{
		Estimator: er.NewHandler(estimateCfg, obs, log),
		Uploader:  fu.NewHandler(uploadCfg, storage, obs, log),
		Persister: sp.NewHandler(persistCfg, store, rdb.Client, obs, log),
		Suggester: suggester,
		Notifier:  ln.NewHandler(notifyCfg, notifyDeps, obs, log),
	}

	opts := wizard.LoadOptions(cfg)
	sessionTTL := config.GetDuration(cfg.Wizard.SessionTTL)
	sessions := wizard.NewRegistry(deps, opts, sessionTTL, log)
	sessions.Start(sessionTTL / 4)
	defer sessions.Close()

	readyChecks := []httpserver.ReadyCheck{
		{Name: "postgres", Check: pg.Ping},
		{Name: "redis", Check: rdb.Ping},
	}
	if zeebe != nil {
		readyChecks = append(readyChecks, httpserver.ReadyCheck{Name: "zeebe", Check: zeebe.HealthCheck})
	}

	server := httpserver.New(cfg.HTTP.Address, httpserver.Deps{
		Sessions:       sessions,
		Suggester:      suggester,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxFileBytes:   opts.MaxFileBytes,
		ReadyChecks:    readyChecks,
		Metrics:        promhttp.Handler(),
		Logger:         log,
	})

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Quote server stopped")
}
