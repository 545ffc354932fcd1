// internal/sweeper/trigger.go
package sweeper

import (
	"researchhub/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// Trigger fires a function on some schedule. The sweep logic never knows
// what drives it; tests drive it directly.
type Trigger interface {
	Start(fn func()) error
	Stop()
}

// CronTrigger fires on a cron schedule. Missed runs are not caught up; the
// next scheduled run picks up whatever is expired by then.
type CronTrigger struct {
	schedule string
	cron     *cron.Cron
	logger   logger.Logger
}

func NewCronTrigger(schedule string, log logger.Logger) *CronTrigger {
	return &CronTrigger{
		schedule: schedule,
		cron:     cron.New(),
		logger:   log.WithFields(map[string]interface{}{"service": "sweep-trigger"}),
	}
}

func (t *CronTrigger) Start(fn func()) error {
	if _, err := t.cron.AddFunc(t.schedule, fn); err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("sweep trigger started", map[string]interface{}{
		"schedule": t.schedule,
	})
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (t *CronTrigger) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("sweep trigger stopped", nil)
}
