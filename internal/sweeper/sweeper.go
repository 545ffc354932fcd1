// internal/sweeper/sweeper.go

// Package sweeper force-closes published projects whose application deadline
// has passed. The deadline comparison is strict: a deadline equal to the
// sweep instant has not expired yet.
package sweeper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
	"researchhub/internal/common/metrics"
	"researchhub/internal/lifecycle"
	"researchhub/internal/models"
)

// ExpiredLister selects the projects a sweep must close.
type ExpiredLister interface {
	ListExpired(ctx context.Context, now time.Time) ([]*models.Project, error)
}

// Closer is the sweep-path close on the orchestrator.
type Closer interface {
	CloseExpired(ctx context.Context, projectID string) (*lifecycle.CloseResult, error)
}

// Result reports one sweep run.
type Result struct {
	Candidates int
	Closed     int
	Skipped    int
	Failed     int
}

// Sweeper runs the deadline sweep.
type Sweeper struct {
	projects ExpiredLister
	closer   Closer
	clock    clock.Clock
	logger   logger.Logger
}

func NewSweeper(projects ExpiredLister, closer Closer, clk clock.Clock, log logger.Logger) *Sweeper {
	return &Sweeper{
		projects: projects,
		closer:   closer,
		clock:    clk,
		logger:   log.WithFields(map[string]interface{}{"service": "sweeper"}),
	}
}

// Sweep closes every expired published project. Each project is closed in
// its own goroutine with its own error boundary; one failure never aborts
// the siblings. The listing error is the only error Sweep itself returns.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	started := s.clock.Now()
	metrics.SweepRuns.Inc()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	expired, err := s.projects.ListExpired(ctx, started)
	if err != nil {
		s.logger.Error("sweep listing failed", map[string]interface{}{"error": err})
		return Result{}, apperrors.NewDependencyFailure("entity store", err)
	}
	if len(expired) == 0 {
		s.logger.Info("sweep complete", map[string]interface{}{"candidates": 0})
		return Result{}, nil
	}

	var closed, skipped, failed int64
	var wg sync.WaitGroup
	for _, p := range expired {
		wg.Add(1)
		go func(p *models.Project) {
			defer wg.Done()
			res, err := s.closer.CloseExpired(ctx, p.ID)
			if err != nil {
				// Another actor closing the project between the listing and
				// the write is benign.
				if apperrors.IsNotFound(err) {
					atomic.AddInt64(&skipped, 1)
					return
				}
				atomic.AddInt64(&failed, 1)
				metrics.SweepProjectFailures.Inc()
				s.logger.Error("sweep close failed", map[string]interface{}{
					"projectId": p.ID,
					"error":     err,
				})
				return
			}
			atomic.AddInt64(&closed, 1)
			s.logger.Info("expired project closed", map[string]interface{}{
				"projectId":          p.ID,
				"applicationsClosed": res.ApplicationsClosed,
			})
		}(p)
	}
	wg.Wait()

	result := Result{
		Candidates: len(expired),
		Closed:     int(closed),
		Skipped:    int(skipped),
		Failed:     int(failed),
	}
	s.logger.Info("sweep complete", map[string]interface{}{
		"candidates": result.Candidates,
		"closed":     result.Closed,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	})
	return result, nil
}

// Run wires the sweep onto a trigger. The returned error is the trigger's.
func (s *Sweeper) Run(ctx context.Context, trigger Trigger) error {
	return trigger.Start(func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("scheduled sweep failed", map[string]interface{}{"error": err})
		}
	})
}
