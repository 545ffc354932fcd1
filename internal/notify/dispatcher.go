// internal/notify/dispatcher.go
package notify

import (
	"context"
	"encoding/json"

	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
	"researchhub/internal/common/metrics"
	"researchhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Dispatcher hands notification events off to the delivery queue. Enqueue
// returns as soon as the event is on the queue; delivery timing never
// entangles with the lifecycle operation that triggered the event.
type Dispatcher struct {
	rdb      *redis.Client
	queueKey string
	logger   logger.Logger
}

func NewDispatcher(rdb *redis.Client, queueKey string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		rdb:      rdb,
		queueKey: queueKey,
		logger:   log.WithFields(map[string]interface{}{"service": "notify"}),
	}
}

// Enqueue places one event on the queue. Callers treat failure as
// best-effort: it is logged and never unwinds a committed state change.
func (d *Dispatcher) Enqueue(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return apperrors.NewDependencyFailure("notification queue", err)
	}
	depth, err := d.rdb.LPush(ctx, d.queueKey, payload).Result()
	if err != nil {
		return apperrors.NewDependencyFailure("notification queue", err)
	}
	metrics.NotificationsEnqueued.WithLabelValues(string(n.Type)).Inc()
	metrics.NotificationQueueDepth.Set(float64(depth))
	d.logger.Debug("notification enqueued", map[string]interface{}{
		"notificationId": n.ID,
		"type":           n.Type,
		"recipient":      n.RecipientEmail,
	})
	return nil
}
