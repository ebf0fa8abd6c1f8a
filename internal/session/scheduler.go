package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 5 * time.Minute

// StartExpiryScheduler removes idle sessions immediately and then every
// interval until ctx is cancelled. It blocks; run it in a goroutine.
func (st *Store) StartExpiryScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session expiry scheduler started",
		"ttl", st.opts.TTL.String(),
		"interval", interval.String(),
	)

	st.runSweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session expiry scheduler stopped")
			return
		case <-ticker.C:
			st.runSweep()
		}
	}
}

func (st *Store) runSweep() {
	start := time.Now()
	removed := st.Sweep(start)
	if removed > 0 {
		slog.Info("expired idle sessions",
			"sessions_removed", removed,
			"sessions_open", st.Count(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
