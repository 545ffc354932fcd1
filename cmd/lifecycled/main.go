// cmd/lifecycled/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"researchhub/internal/admission"
	commonaws "researchhub/internal/common/aws"
	"researchhub/internal/common/clock"
	"researchhub/internal/common/config"
	"researchhub/internal/common/database"
	"researchhub/internal/common/logger"
	"researchhub/internal/lifecycle"
	"researchhub/internal/notify"
	"researchhub/internal/resume"
	"researchhub/internal/store"
	"researchhub/internal/sweeper"
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lifecycle daemon...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// --- Init AWS Clients ---
	sesClient, err := commonaws.NewSESClient(ctx, cfg.Mail.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	s3Client, err := commonaws.NewS3Client(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
	if err != nil {
		zapLog.Fatal("s3 client failed", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized")

	// --- Stores & Services ---
	clk := clock.Real{}
	projectStore := store.NewProjectStore(pg.DB)
	applicationStore := store.NewApplicationStore(pg.DB)

	urlTTL := time.Duration(cfg.Storage.SignedURLDays) * 24 * time.Hour
	resumes := resume.NewService(s3Client, clk, log, urlTTL)

	dispatcher := notify.NewDispatcher(rdb.Client, cfg.Notifications.QueueKey, log)
	mailer := notify.NewSESMailer(sesClient, cfg.Mail.FromEmail)
	worker := notify.NewWorker(rdb.Client, mailer, notify.WorkerConfig{
		QueueKey:    cfg.Notifications.QueueKey,
		MaxAttempts: cfg.Notifications.MaxAttempts,
		RetryDelay:  time.Duration(cfg.Notifications.RetryDelayMS) * time.Millisecond,
		PopTimeout:  time.Duration(cfg.Notifications.PopTimeoutSec) * time.Second,
	}, log)

	admissions := admission.NewService(projectStore, applicationStore, resumes, dispatcher, clk, log)
	orchestrator := lifecycle.NewOrchestrator(projectStore, applicationStore, admissions, dispatcher, clk, log)
	sweep := sweeper.NewSweeper(projectStore, orchestrator, clk, log)

	// --- Notification Worker ---
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	// --- Deadline Sweep Trigger ---
	trigger := sweeper.NewCronTrigger(cfg.Sweep.Schedule, log)
	if err := sweep.Run(ctx, trigger); err != nil {
		zapLog.Fatal("sweep trigger failed", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Lifecycle daemon started",
		zap.String("environment", cfg.App.Environment),
		zap.String("sweepSchedule", cfg.Sweep.Schedule),
	)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	trigger.Stop()
	cancel()

	select {
	case <-workerDone:
	case <-time.After(30 * time.Second):
		zapLog.Warn("notification worker did not stop in time")
	}

	zapLog.Info("Lifecycle daemon stopped")
}
