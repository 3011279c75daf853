package loginshield

import (
	"context"
	"testing"
	"time"
)

func TestStats_Aggregates(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 3)

	stats := svc.Stats(ctx, testUser, testIP)
	if stats.UserAttempts != 3 || stats.IPAttempts != 3 {
		t.Fatalf("expected counters 3/3, got %+v", stats)
	}
	if stats.AttemptsRemaining != 2 {
		t.Fatalf("expected 2 attempts remaining, got %d", stats.AttemptsRemaining)
	}
	if stats.Locked || stats.IPBlocked {
		t.Fatalf("expected no restriction yet, got %+v", stats)
	}
	if !stats.CaptchaRequired {
		t.Fatal("expected captcha at threshold")
	}
	if stats.Delay != 4000*time.Millisecond {
		t.Fatalf("expected 4s delay, got %v", stats.Delay)
	}
}

func TestStats_RemainingNeverNegative(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 9)

	if got := svc.Stats(ctx, testUser, testIP).AttemptsRemaining; got != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", got)
	}
}

func TestIsIPBlocked_ReportsExpiry(t *testing.T) {
	cfg := testConfig()
	svc, _ := newTestService(t, cfg)
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 10)

	status := svc.IsIPBlocked(ctx, testIP)
	if !status.Blocked || status.Reason != LockReasonTooManyAttempts {
		t.Fatalf("expected active block, got %+v", status)
	}
	want := cfg.Attempts.IPBlockDuration
	if status.Remaining > want || status.Remaining < want-time.Minute {
		t.Fatalf("expected remaining ~%v, got %v", want, status.Remaining)
	}
	if status.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expiry in the past: %v", status.ExpiresAt)
	}
}

func TestIPBlockExpiresOnlyByTTL(t *testing.T) {
	cfg := testConfig()
	svc, mr := newTestService(t, cfg)
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 10)
	mr.FastForward(cfg.Attempts.IPBlockDuration + time.Second)

	if svc.IsIPBlocked(ctx, testIP).Blocked {
		t.Fatal("expected block to lapse via TTL")
	}
}

func TestSecurityContext_CleanRequest(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	sec := svc.SecurityContext(ctx, testUser, testIP, testUA)
	if !sec.Allowed() {
		t.Fatalf("clean request must be allowed: %+v", sec)
	}
	if sec.Delay != 0 || sec.CaptchaRequired || sec.Suspicion.Suspicious {
		t.Fatalf("expected zero-state context, got %+v", sec)
	}
	if sec.AttemptsRemaining != 5 {
		t.Fatalf("expected full attempt budget, got %d", sec.AttemptsRemaining)
	}
}

func TestSecurityContext_BlockedIP(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, "other@example.com", testIP, 10)

	sec := svc.SecurityContext(ctx, testUser, testIP, testUA)
	if sec.Locked {
		t.Fatal("identifier must not be locked by another account's failures")
	}
	if !sec.IPBlocked || sec.Allowed() {
		t.Fatalf("expected IP block to deny, got %+v", sec)
	}
}
