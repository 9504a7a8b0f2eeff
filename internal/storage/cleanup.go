package storage

import (
	"context"
	"log/slog"
	"time"
)

// CleanupExpiredJobs removes expired job records on a fixed interval until
// ctx is done. Only records are removed; downloads never persist locally.
func (stg *storage) CleanupExpiredJobs(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := stg.log.With(slog.String("action", "cleanup_expired_jobs"), slog.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			stg.performCleanup(ctx)
		case <-ctx.Done():
			log.Info("cleanup expired jobs stopped")

			return
		}
	}
}

func (stg *storage) performCleanup(ctx context.Context) {
	now := time.Now()

	stg.mu.Lock()

	removed := 0

	for session, job := range stg.jobs {
		if job.ExpiresAt.Before(now) {
			delete(stg.jobs, session)

			removed++
		}
	}

	total := len(stg.jobs)

	stg.mu.Unlock()

	if removed == 0 {
		stg.log.DebugContext(ctx, "no expired jobs found to clean up")

		return
	}

	stg.metrics.RecordCleanup(removed)
	stg.metrics.SetStoredJobs(total)

	stg.log.InfoContext(ctx, "expired jobs removed", slog.Int("count", removed))
}
