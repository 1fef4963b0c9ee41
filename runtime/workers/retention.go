package workers

import (
	"context"
	"log/slog"
	"time"
)

// Expirer is the slice of the engine the sweeper needs.
type Expirer interface {
	ExpireDue(now time.Time) int
}

// RetentionWorker drives autonomous message expiry. Instead of one-shot
// timers that would be lost on restart, every message carries a durable
// ExpiresAt and this worker sweeps for due ones on a short ticker. Expiry
// lands at most one tick after the deadline, which is acceptable for a
// minutes-scale retention window.
type RetentionWorker struct {
	log      *slog.Logger
	expirer  Expirer
	interval time.Duration
}

func NewRetentionWorker(log *slog.Logger, expirer Expirer, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{log: log, expirer: expirer, interval: interval}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info("Starting retention sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := w.expirer.ExpireDue(time.Now().UTC()); n > 0 {
				w.log.Debug("Expired messages past retention", "count", n)
			}
		}
	}
}
