package reindex

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
)

// Runner is the part of Service the scheduler drives.
type Runner interface {
	Run(ctx context.Context, forceAll bool) (domreindex.Report, error)
}

// Scheduler runs incremental reindexing on a fixed interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, logger: logger, done: make(chan struct{})}
}

// Start launches the loop; it stops when ctx is cancelled.
// A non-positive interval disables scheduling.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		close(s.done)
		return
	}
	go s.loop(ctx)
}

// Done is closed once the loop has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.runner.Run(ctx, false)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrReindexInProgress):
				s.logger.Debug("Scheduled reindex skipped, job already running")
			case ctx.Err() != nil:
				return
			default:
				s.logger.Error("Scheduled reindex failed", zap.Error(err))
			}
		}
	}
}
