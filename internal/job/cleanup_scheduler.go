// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"chat-coordination-service/internal/app/service"
	"chat-coordination-service/pkg/locker"
)

// CleanupScheduler periodically sweeps stale entries from the usage pool.
// A distributed lock ensures a single sweeper across all instances: the
// holder renews its lease each round, every other instance skips.
type CleanupScheduler struct {
	presence *service.PresenceService
	lock     locker.Lock
	interval time.Duration
	timeout  time.Duration
	maxAge   time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CleanupConfig holds cleanup scheduler configuration.
type CleanupConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	MaxAge    time.Duration
	OnStartup bool
}

// NewCleanupScheduler creates a scheduler sweeping through presence with
// the given cadence. lock should carry a TTL comfortably above Interval so
// the lease survives between rounds.
func NewCleanupScheduler(
	presence *service.PresenceService,
	lock locker.Lock,
	cfg CleanupConfig,
	logger *zap.Logger,
) *CleanupScheduler {
	return &CleanupScheduler{
		presence: presence,
		lock:     lock,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		maxAge:   cfg.MaxAge,
		logger:   logger,
	}
}

// Start begins the background cleanup job.
func (s *CleanupScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting cleanup scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("max_age", s.maxAge),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler and releases the lock if held.
func (s *CleanupScheduler) Stop() {
	s.logger.Info("stopping cleanup scheduler")
	s.cancel()
	s.wg.Wait()

	if s.lock.Held() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.lock.Release(ctx); err != nil {
			s.logger.Error("failed to release cleanup lock", zap.Error(err))
		}
	}

	s.logger.Info("cleanup scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *CleanupScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeCleanup()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeCleanup()
		}
	}
}

// executeCleanup runs one sweep if this instance owns (or can take) the
// cleanup lock.
//
// Lease behavior:
//   - Holder: renews the lease each round, keeping one stable sweeper.
//   - Renewal refused (lease expired or taken over): falls through to a
//     fresh acquire attempt.
//   - Not holder and acquire fails: another instance sweeps, skip.
func (s *CleanupScheduler) executeCleanup() {
	if s.lock.Held() {
		renewed, err := s.lock.Renew(s.ctx)
		if err != nil {
			s.logger.Error("failed to renew cleanup lock", zap.Error(err))

			return
		}
		if !renewed {
			s.logger.Warn("cleanup lease lost, attempting to reacquire")
		}
	}

	if !s.lock.Held() {
		acquired, err := s.lock.Acquire(s.ctx)
		if err != nil {
			s.logger.Error("failed to acquire cleanup lock", zap.Error(err))

			return
		}
		if !acquired {
			s.logger.Debug("another instance owns usage cleanup, skipping")

			return
		}
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	removed, err := s.presence.CleanupUsage(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("usage cleanup failed",
			zap.Int("removed", removed),
			zap.Error(err),
		)

		return
	}

	s.logger.Debug("usage cleanup completed",
		zap.Int("removed", removed),
	)
}
