package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type ExpiredPurger interface {
	DeleteExpiredRefresh(ctx context.Context, now time.Time) (int64, error)
}

// Janitor periodically removes expired refresh token records. Expired
// records are already rejected on lookup; this only keeps the table small.
type Janitor struct {
	Ledger  ExpiredPurger
	Every   time.Duration
	Now     func() time.Time
	Metrics *metrics.Metrics
}

func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	now := time.Now()
	if j.Now != nil {
		now = j.Now()
	}
	n, err := j.Ledger.DeleteExpiredRefresh(ctx, now)
	if err != nil {
		return 0, err
	}
	j.Metrics.Purged(n)
	return n, nil
}

// Run sweeps every j.Every until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "ledger.janitor")
	if j.Every <= 0 {
		l.Info("janitor_disabled")
		return
	}

	t := time.NewTicker(j.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := j.Sweep(ctx)
			if err != nil {
				l.Error("janitor_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("janitor_sweep", "purged", n)
			}
		}
	}
}
