package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	users    atomic.Int32
	products atomic.Int32
	failUser bool
	actors   chan string
}

func (r *countingRunner) SyncAllUsers(_ context.Context, actor string) UserSyncResult {
	r.users.Add(1)
	select {
	case r.actors <- actor:
	default:
	}
	if r.failUser {
		return UserSyncResult{Error: "boom"}
	}
	return UserSyncResult{Success: true}
}

func (r *countingRunner) SyncAllProducts(context.Context, string) ProductSyncResult {
	r.products.Add(1)
	return ProductSyncResult{Success: true}
}

func TestScheduler_RunsUsersThenProducts(t *testing.T) {
	runner := &countingRunner{actors: make(chan string, 1)}
	s := NewScheduler(runner, time.Second, zap.NewNop())

	s.Start(10 * time.Millisecond)
	require.Eventually(t, func() bool { return runner.products.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, SchedulerActor, <-runner.actors)
	assert.GreaterOrEqual(t, runner.users.Load(), runner.products.Load())

	// Stopped: no more ticks.
	users := runner.users.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, users, runner.users.Load())
}

func TestScheduler_SkipsProductsWhenUsersFail(t *testing.T) {
	runner := &countingRunner{failUser: true, actors: make(chan string, 1)}
	s := NewScheduler(runner, time.Second, zap.NewNop())

	s.Start(10 * time.Millisecond)
	require.Eventually(t, func() bool { return runner.users.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), runner.products.Load())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingRunner{actors: make(chan string, 1)}, 0, zap.NewNop())
	s.Start(time.Hour)
	s.Stop()
	s.Stop()
}
