// Package runlog brackets every reconciliation pass with a sync run row.
package runlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/internal/metrics"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
)

// ErrAlreadyFinished is returned when Complete or Fail is called on a run that
// already reached a terminal state.
var ErrAlreadyFinished = errors.New("sync run already finished")

// Store is the persistence the tracker needs.
type Store interface {
	InsertSyncRun(ctx context.Context, run *bridge.SyncRun) error
	FinishSyncRun(ctx context.Context, run *bridge.SyncRun) error
	GetSyncRun(ctx context.Context, id uuid.UUID) (*bridge.SyncRun, error)
}

// Counts are the aggregate record counters of a finished run. Product runs
// report their synced records as Updated.
type Counts struct {
	Total   int
	Created int
	Updated int
	Failed  int
}

// Tracker records the lifecycle of sync runs.
type Tracker struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Tracker.
func New(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start inserts a running row and returns its id.
func (t *Tracker) Start(ctx context.Context, syncType bridge.SyncType, initiatedBy string) (uuid.UUID, error) {
	run := &bridge.SyncRun{
		ID:          uuid.New(),
		SyncType:    syncType,
		Direction:   bridge.SyncDirection,
		StartedAt:   t.now(),
		Status:      bridge.RunStatusRunning,
		InitiatedBy: initiatedBy,
	}
	if err := t.store.InsertSyncRun(ctx, run); err != nil {
		return uuid.Nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	t.logger.Info("Sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("sync_type", string(syncType)),
		zap.String("initiated_by", initiatedBy))
	return run.ID, nil
}

// Complete marks the run completed with counts.
func (t *Tracker) Complete(ctx context.Context, id uuid.UUID, counts Counts) error {
	return t.finish(ctx, id, func(run *bridge.SyncRun) {
		run.Status = bridge.RunStatusCompleted
		run.Total = counts.Total
		run.Created = counts.Created
		run.Updated = counts.Updated
		run.Failed = counts.Failed
	})
}

// Fail marks the run failed with message as its error detail.
func (t *Tracker) Fail(ctx context.Context, id uuid.UUID, message string) error {
	return t.finish(ctx, id, func(run *bridge.SyncRun) {
		run.Status = bridge.RunStatusFailed
		run.ErrorDetail = message
	})
}

func (t *Tracker) finish(ctx context.Context, id uuid.UUID, apply func(*bridge.SyncRun)) error {
	run, err := t.store.GetSyncRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load sync run %s: %w", id, err)
	}
	if run.Status != bridge.RunStatusRunning {
		return ErrAlreadyFinished
	}

	completed := t.now()
	run.CompletedAt = &completed
	apply(run)

	if err := t.store.FinishSyncRun(ctx, run); err != nil {
		if errors.Is(err, bridgestore.ErrRunAlreadyFinished) {
			return ErrAlreadyFinished
		}
		return fmt.Errorf("failed to finish sync run %s: %w", id, err)
	}

	duration := completed.Sub(run.StartedAt)
	metrics.SyncRunsTotal.WithLabelValues(string(run.SyncType), string(run.Status)).Inc()
	metrics.SyncRunDuration.WithLabelValues(string(run.SyncType)).Observe(duration.Seconds())

	fields := []zap.Field{
		zap.String("run_id", id.String()),
		zap.String("sync_type", string(run.SyncType)),
		zap.String("status", string(run.Status)),
		zap.Int("total", run.Total),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("failed", run.Failed),
		zap.Duration("duration", duration),
	}
	if run.Status == bridge.RunStatusFailed {
		t.logger.Error("Sync run failed", append(fields, zap.String("error", run.ErrorDetail))...)
	} else {
		t.logger.Info("Sync run completed", fields...)
	}
	return nil
}
