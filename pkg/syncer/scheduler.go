package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerActor is recorded as the initiator of scheduled runs.
const SchedulerActor = "scheduler"

// Runner is the part of the Engine the scheduler drives.
type Runner interface {
	SyncAllUsers(ctx context.Context, actor string) UserSyncResult
	SyncAllProducts(ctx context.Context, actor string) ProductSyncResult
}

// Scheduler runs a users pass followed by a products pass on every tick.
type Scheduler struct {
	runner     Runner
	runTimeout time.Duration
	logger     *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a Scheduler. Each tick gets runTimeout to finish both passes.
func NewScheduler(runner Runner, runTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &Scheduler{
		runner:     runner,
		runTimeout: runTimeout,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start starts a background goroutine that syncs every interval
func (s *Scheduler) Start(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("Started periodic sync", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stopCh:
				s.logger.Info("Stopping periodic sync")
				return
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	// Stop aborts a tick in flight.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	users := s.runner.SyncAllUsers(ctx, SchedulerActor)
	if !users.Success {
		s.logger.Error("Periodic user sync failed", zap.String("error", users.Error))
		return
	}

	products := s.runner.SyncAllProducts(ctx, SchedulerActor)
	if !products.Success {
		s.logger.Error("Periodic product sync failed", zap.String("error", products.Error))
		return
	}

	s.logger.Info("Periodic sync completed",
		zap.Int("users_total", users.Total),
		zap.Int("users_created", users.Created),
		zap.Int("users_failed", users.Failed),
		zap.Int("products_synced", products.Synced),
		zap.Int("products_failed", products.Failed),
		zap.Duration("duration", time.Since(start)))
}

// Stop stops the periodic sync and waits for the current tick to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}
