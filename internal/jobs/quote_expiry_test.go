package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"fieldops.io/fieldops/internal/pkg/logger"
	"fieldops.io/fieldops/internal/pkg/worker"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	n     int
	err   error
}

func (f *fakeExpirer) ExpireDue(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestQuoteExpiryArgsKind(t *testing.T) {
	t.Parallel()

	if got := (QuoteExpiryArgs{}).Kind(); got != "quote_expiry" {
		t.Fatalf("Kind() = %q, want %q", got, "quote_expiry")
	}
}

func TestQuoteExpiryArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (QuoteExpiryArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if !opts.UniqueOpts.ByArgs || !opts.UniqueOpts.ByQueue {
		t.Fatal("UniqueOpts should dedupe by args and queue")
	}
}

func TestQuoteExpiryWorkerWork(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("passes the clock to the expirer", func(t *testing.T) {
		f := &fakeExpirer{n: 3}
		w := NewQuoteExpiryWorker(f)
		w.now = func() time.Time { return cutoff }

		if err := w.Work(context.Background(), nil); err != nil {
			t.Fatalf("Work() error = %v", err)
		}
		if len(f.calls) != 1 || !f.calls[0].Equal(cutoff) {
			t.Fatalf("calls = %v, want one call at %s", f.calls, cutoff)
		}
	})

	t.Run("wraps expirer failure", func(t *testing.T) {
		f := &fakeExpirer{err: errors.New("store unavailable")}
		w := NewQuoteExpiryWorker(f)
		w.now = func() time.Time { return cutoff }

		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "store unavailable") {
			t.Fatalf("Work() error = %v, want wrapped store error", err)
		}
	})

	t.Run("nil receiver", func(t *testing.T) {
		var w *QuoteExpiryWorker
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}

func TestPeriodicQuoteExpiry(t *testing.T) {
	t.Parallel()

	if PeriodicQuoteExpiry(0) == nil {
		t.Fatal("PeriodicQuoteExpiry(0) returned nil")
	}
	if PeriodicQuoteExpiry(time.Minute) == nil {
		t.Fatal("PeriodicQuoteExpiry(1m) returned nil")
	}
}

func TestStartTicker(t *testing.T) {
	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{GeneralPoolSize: 2, FeedPoolSize: 1})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}

	f := &fakeExpirer{}
	if err := StartTicker(pools, NewQuoteExpiryWorker(f), 10*time.Millisecond); err != nil {
		t.Fatalf("StartTicker() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	pools.Shutdown()

	if f.callCount() < 2 {
		t.Fatalf("sweeps = %d, want at least 2", f.callCount())
	}
}
