// Package scheduler drives periodic sync runs in serve mode.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlerena/comprobantes/internal/infrastructure/metrics"
	"github.com/mlerena/comprobantes/internal/usecase"
)

// Runner executes one sync pass.
type Runner interface {
	Run(ctx context.Context) (*usecase.RunResult, error)
}

// Scheduler runs the sync immediately on start and then once per
// interval. Runs are strictly sequential: a tick that fires while a run
// is still in flight waits for it.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a scheduler.
func New(runner Runner, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		metrics:  m,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled. Individual run failures are
// recorded and logged but never stop the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.runner.Run(ctx)
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())

	if result != nil {
		s.metrics.ComprobantesFetched.Add(float64(result.Fetched))
		s.metrics.ComprobantesNew.Add(float64(result.New))
	}

	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("sync run failed")
		return
	}

	s.metrics.RunsTotal.WithLabelValues("success").Inc()
	s.metrics.LastSuccess.SetToCurrentTime()
}
