package loginshield

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// deadService builds a service whose Redis backend is already gone.
func deadService(t *testing.T, cfg Config) *Service {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	svc, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(quietLogger()).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	mr.Close()
	return svc
}

func TestStoreOutage_FailOpenByDefault(t *testing.T) {
	svc := deadService(t, testConfig())
	ctx := context.Background()

	// Recording must swallow the failure, never panic or error.
	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	svc.RecordSuccessfulLogin(ctx, testUser, testIP, "u1", "fp")

	if svc.IsUserLockedOut(ctx, testUser).Locked {
		t.Fatal("fail-open must report unlocked during an outage")
	}
	if svc.IsIPBlocked(ctx, testIP).Blocked {
		t.Fatal("fail-open must report unblocked during an outage")
	}

	sec := svc.SecurityContext(ctx, testUser, testIP, testUA)
	if !sec.Allowed() || sec.Delay != 0 || sec.CaptchaRequired {
		t.Fatalf("fail-open context must carry no restriction, got %+v", sec)
	}

	snap := svc.MetricsSnapshot()
	if snap.Counters[MetricStoreFailure] == 0 {
		t.Fatal("expected store failures to be counted")
	}
}

func TestStoreOutage_FailClosedWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Store.FailClosed = true
	svc := deadService(t, cfg)
	ctx := context.Background()

	if !svc.IsUserLockedOut(ctx, testUser).Locked {
		t.Fatal("fail-closed must report locked during an outage")
	}
	if !svc.IsIPBlocked(ctx, testIP).Blocked {
		t.Fatal("fail-closed must report blocked during an outage")
	}
	if svc.SecurityContext(ctx, testUser, testIP, testUA).Allowed() {
		t.Fatal("fail-closed context must deny during an outage")
	}

	// Recording still swallows errors under fail-closed.
	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
}
