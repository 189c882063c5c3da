package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/pkg/logger"
)

// DefaultQuoteExpiryInterval is how often the expiry sweep runs when the
// configured interval is not positive.
const DefaultQuoteExpiryInterval = 15 * time.Minute

// QuoteExpirer transitions quotes whose expiry has passed.
// *usecase.QuoteService satisfies it.
type QuoteExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// QuoteExpiryArgs is the periodic sweep that expires sent and viewed quotes
// past their expires_at.
type QuoteExpiryArgs struct{}

// Kind returns the job kind identifier for the quote expiry sweep.
func (QuoteExpiryArgs) Kind() string { return "quote_expiry" }

// InsertOpts keeps at most one sweep queued per interval window.
func (QuoteExpiryArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Minute,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// QuoteExpiryWorker runs the expiry sweep.
type QuoteExpiryWorker struct {
	river.WorkerDefaults[QuoteExpiryArgs]
	quotes QuoteExpirer
	now    func() time.Time
}

// NewQuoteExpiryWorker creates the sweep worker.
func NewQuoteExpiryWorker(quotes QuoteExpirer) *QuoteExpiryWorker {
	return &QuoteExpiryWorker{
		quotes: quotes,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Work expires every due quote. Individual quote failures are logged by the
// expirer and do not fail the job.
func (w *QuoteExpiryWorker) Work(ctx context.Context, _ *river.Job[QuoteExpiryArgs]) error {
	return w.sweep(ctx)
}

func (w *QuoteExpiryWorker) sweep(ctx context.Context) error {
	if w == nil || w.quotes == nil {
		return fmt.Errorf("quote expiry worker is not initialized")
	}

	now := w.now()
	expired, err := w.quotes.ExpireDue(ctx, now)
	if err != nil {
		return fmt.Errorf("expire quotes due before %s: %w", now.Format(time.RFC3339), err)
	}

	if expired > 0 {
		logger.Info("quote expiry sweep completed",
			zap.Int("expired", expired),
			zap.String("cutoff", now.Format(time.RFC3339)),
		)
	} else {
		logger.Debug("quote expiry sweep found nothing due")
	}
	return nil
}
