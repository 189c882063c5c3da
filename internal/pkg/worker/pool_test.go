package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldops.io/fieldops/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func newTestPools(t *testing.T, general, feed int) *Pools {
	t.Helper()
	pools, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: general, FeedPoolSize: feed})
	require.NoError(t, err)
	return pools
}

func TestNewPools(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	require.NoError(t, err)
	defer pools.Shutdown()

	require.NotNil(t, pools.General)
	require.NotNil(t, pools.Feed)
}

func TestPool_Submit(t *testing.T) {
	pools := newTestPools(t, 10, 5)
	defer pools.Shutdown()

	done := make(chan struct{})
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	pools := newTestPools(t, 2, 1)
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pools.General.Submit(ctx, func(context.Context) {
		t.Error("task ran with a cancelled context")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPools_SubmitDetached(t *testing.T) {
	tests := []struct {
		name     string
		poolName string
	}{
		{"general pool", PoolGeneral},
		{"feed pool", PoolFeed},
		{"unknown name falls back to general", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := newTestPools(t, 2, 1)

			got := make(chan context.Context, 1)
			require.NoError(t, pools.SubmitDetached(tt.poolName, func(ctx context.Context) { got <- ctx }))

			var taskCtx context.Context
			select {
			case taskCtx = <-got:
			case <-time.After(2 * time.Second):
				t.Fatal("detached task was not executed")
			}
			require.NoError(t, taskCtx.Err())

			pools.Shutdown()
			require.ErrorIs(t, taskCtx.Err(), context.Canceled)
		})
	}
}

func TestPools_SubmitAfterShutdown(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	pools.Shutdown()

	err := pools.SubmitDetached(PoolFeed, func(context.Context) {})
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPools_Stats(t *testing.T) {
	pools := newTestPools(t, 10, 5)
	defer pools.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pools.SubmitDetached(PoolFeed, func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	defer close(release)

	stats := pools.Stats()
	require.Len(t, stats, 2)
	byName := map[string]int{}
	for i, s := range stats {
		byName[s.Name] = i
	}
	general, feed := stats[byName[PoolGeneral]], stats[byName[PoolFeed]]
	require.Equal(t, 10, general.Cap)
	require.Equal(t, 5, feed.Cap)
	require.Equal(t, 1, feed.Running)
	require.Equal(t, 4, feed.Free)
}

func TestPool_Submit_ContextCancelledWhileQueued(t *testing.T) {
	pools := newTestPools(t, 1, 1)
	defer pools.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pools.General.Submit(context.Background(), func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	submitted := make(chan error, 1)
	ran := make(chan struct{}, 1)
	go func() { //nolint:naked-goroutine // Submit blocks while the pool is full
		submitted <- pools.General.Submit(ctx, func(context.Context) { ran <- struct{}{} })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	close(block)
	if err := <-submitted; err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}

	select {
	case <-ran:
		t.Fatal("queued task ran after its context was cancelled")
	case <-time.After(50 * time.Millisecond):
	}
}
