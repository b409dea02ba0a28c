package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type SessionPurger interface {
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper purges expired sessions once at start and then every
// interval until ctx is cancelled.
func SessionSweeper(ctx context.Context, purger SessionPurger, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		log.Info("Session sweeper disabled")
		return
	}

	sweep := func() {
		if _, err := purger.PurgeSessions(ctx, time.Now()); err != nil && ctx.Err() == nil {
			log.Warn("Session sweep failed", zap.Error(err))
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
