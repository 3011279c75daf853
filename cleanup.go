package loginshield

import (
	"context"
	"strconv"
	"time"

	"github.com/rasel530/loginshield/store"
)

// CleanupExpiredData reclaims stale entries from stores that cannot expire
// them natively. Against a TTL-native store (Redis) this is a verification
// no-op reporting zero cleaned. A record whose TTL has not elapsed is never
// removed.
func (s *Service) CleanupExpiredData(ctx context.Context) CleanupResult {
	if s == nil {
		return CleanupResult{}
	}

	s.metricInc(MetricCleanupRun)

	sweeper, ok := s.store.(store.Sweeper)
	if !ok {
		// Expiry is the store's job; nothing to sweep.
		return CleanupResult{Success: true}
	}

	cleaned, err := sweeper.Sweep(ctx)
	if err != nil {
		s.storeFailure("sweep", "", err)
		return CleanupResult{Success: false}
	}

	s.auditEmit(ctx, AuditEvent{
		EventType: AuditCleanupRun,
		Metadata: map[string]string{
			"cleaned": strconv.Itoa(cleaned),
		},
	})

	return CleanupResult{Success: true, Cleaned: cleaned}
}

// RunCleanup sweeps on a fixed interval until ctx is cancelled. It runs
// cooperatively on its own goroutine schedule, never on the request path, and
// a pass in flight is abandoned between batches when ctx ends.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if s == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpiredData(ctx)
		}
	}
}
