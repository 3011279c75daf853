package loginshield

import (
	"context"
	"testing"
	"time"

	"github.com/rasel530/loginshield/store"
)

func newMemoryService(t *testing.T, cfg Config) *Service {
	t.Helper()

	svc, err := New().
		WithConfig(cfg).
		WithStore(store.NewMemory()).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc
}

func TestCleanup_RedisStoreIsVerificationNoOp(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 3)

	res := svc.CleanupExpiredData(ctx)
	if !res.Success || res.Cleaned != 0 {
		t.Fatalf("expected no-op success against TTL-native store, got %+v", res)
	}
	if got := svc.Stats(ctx, testUser, testIP).UserAttempts; got != 3 {
		t.Fatalf("cleanup touched live counters: %d", got)
	}
}

func TestCleanup_MemoryStoreSweepsOnlyExpired(t *testing.T) {
	cfg := testConfig()
	cfg.Attempts.AttemptWindow = 20 * time.Millisecond
	cfg.Attempts.LockoutDuration = time.Hour
	svc := newMemoryService(t, cfg)
	ctx := context.Background()

	// One short-lived counter and one long-lived lockout record.
	recordFailures(ctx, svc, testUser, "", 5)

	time.Sleep(40 * time.Millisecond)

	res := svc.CleanupExpiredData(ctx)
	if !res.Success {
		t.Fatalf("sweep failed: %+v", res)
	}
	if res.Cleaned == 0 {
		t.Fatal("expected the expired counter to be swept")
	}

	// The lockout's TTL has not elapsed; it must survive the sweep.
	if !svc.IsUserLockedOut(ctx, testUser).Locked {
		t.Fatal("sweep removed an unexpired lockout record")
	}
}

func TestMemoryStoreBackedServiceBehavesLikeRedis(t *testing.T) {
	svc := newMemoryService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 5)

	if !svc.IsUserLockedOut(ctx, testUser).Locked {
		t.Fatal("expected lockout with the in-memory store")
	}

	svc.RecordSuccessfulLogin(ctx, testUser, testIP, "u1", "fp")
	if svc.IsUserLockedOut(ctx, testUser).Locked {
		t.Fatal("expected success to clear the lockout")
	}
}

func TestRunCleanup_StopsOnCancel(t *testing.T) {
	svc := newMemoryService(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop on cancel")
	}
}
