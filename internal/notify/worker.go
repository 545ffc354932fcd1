// internal/notify/worker.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"researchhub/internal/common/logger"
	"researchhub/internal/common/metrics"
	"researchhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// WorkerConfig tunes the delivery loop.
type WorkerConfig struct {
	QueueKey    string
	MaxAttempts int           // attempts per message, not per event
	RetryDelay  time.Duration // flat delay between attempts
	PopTimeout  time.Duration
}

// Worker drains the notification queue and delivers each message with a
// bounded flat-backoff retry. Terminal failures are logged and dropped;
// nothing is re-queued and nothing reaches the lifecycle caller.
type Worker struct {
	rdb       *redis.Client
	mailer    Mailer
	templates map[models.EventType]Template
	cfg       WorkerConfig
	logger    logger.Logger
}

func NewWorker(rdb *redis.Client, mailer Mailer, cfg WorkerConfig, log logger.Logger) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	return &Worker{
		rdb:       rdb,
		mailer:    mailer,
		templates: Templates(),
		cfg:       cfg,
		logger:    log.WithFields(map[string]interface{}{"service": "notify-worker"}),
	}
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", map[string]interface{}{
		"queueKey":    w.cfg.QueueKey,
		"maxAttempts": w.cfg.MaxAttempts,
	})
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped", nil)
			return
		default:
		}

		result, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, w.cfg.QueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("queue pop failed", map[string]interface{}{"error": err})
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value].
		if len(result) < 2 {
			continue
		}
		metrics.NotificationQueueDepth.Dec()

		var n models.Notification
		if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
			w.logger.Error("malformed notification dropped", map[string]interface{}{"error": err})
			continue
		}

		w.Deliver(ctx, &n)
	}
}

// Deliver renders and sends one notification, retrying up to MaxAttempts
// with a flat delay. Each recipient's message retries independently of any
// sibling messages for the same logical event.
func (w *Worker) Deliver(ctx context.Context, n *models.Notification) {
	msg, err := RenderMessage(w.templates, n)
	if err != nil {
		w.logger.Error("notification dropped", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err,
		})
		metrics.NotificationsFailed.WithLabelValues(string(n.Type)).Inc()
		return
	}

	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		lastErr = w.mailer.Send(ctx, msg)
		if lastErr == nil {
			metrics.NotificationsSent.WithLabelValues(string(n.Type)).Inc()
			w.logger.Info("notification delivered", map[string]interface{}{
				"notificationId": n.ID,
				"type":           n.Type,
				"recipient":      n.RecipientEmail,
				"attempt":        attempt,
			})
			return
		}
		if attempt < w.cfg.MaxAttempts {
			metrics.NotificationRetries.Inc()
			w.logger.Warn("notification send failed, retrying", map[string]interface{}{
				"notificationId": n.ID,
				"attempt":        attempt,
				"error":          lastErr,
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.RetryDelay):
			}
		}
	}

	// Exhausted: log and drop, never re-queue, never surface to the caller
	// of the triggering lifecycle operation.
	metrics.NotificationsFailed.WithLabelValues(string(n.Type)).Inc()
	w.logger.Error("notification dropped after retries", map[string]interface{}{
		"notificationId": n.ID,
		"type":           n.Type,
		"recipient":      n.RecipientEmail,
		"attempts":       w.cfg.MaxAttempts,
		"error":          lastErr,
	})
}
