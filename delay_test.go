package loginshield

import (
	"context"
	"testing"
	"time"
)

func TestDelayFor_Formula(t *testing.T) {
	svc, _ := newTestService(t, testConfig())

	cases := []struct {
		n    int64
		want time.Duration
	}{
		{0, 0},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 8000 * time.Millisecond},
		{5, 16000 * time.Millisecond},
		{6, 30000 * time.Millisecond}, // 32s capped at 30s
		{7, 30000 * time.Millisecond},
		{40, 30000 * time.Millisecond},
		{1000, 30000 * time.Millisecond}, // overflow-safe
	}

	var prev time.Duration
	for _, tc := range cases {
		got := svc.delayFor(tc.n)
		if got != tc.want {
			t.Fatalf("delayFor(%d): expected %v, got %v", tc.n, tc.want, got)
		}
		if got < prev {
			t.Fatalf("delayFor(%d): delay decreased from %v to %v", tc.n, prev, got)
		}
		prev = got
	}
}

func TestProgressiveDelay_DisabledIsZero(t *testing.T) {
	cfg := testConfig()
	cfg.Delay.Enabled = false
	svc, _ := newTestService(t, cfg)
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 4)

	if got := svc.ProgressiveDelay(ctx, testUser, testIP); got != 0 {
		t.Fatalf("expected zero delay when disabled, got %v", got)
	}
}

func TestProgressiveDelay_UsesHigherCounter(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	// Three failures from the same IP across different accounts: the IP
	// counter (3) dominates a fresh identifier's counter (0).
	svc.RecordFailedAttempt(ctx, "a@example.com", testIP, testUA)
	svc.RecordFailedAttempt(ctx, "b@example.com", testIP, testUA)
	svc.RecordFailedAttempt(ctx, "c@example.com", testIP, testUA)

	if got := svc.ProgressiveDelay(ctx, "fresh@example.com", testIP); got != 4000*time.Millisecond {
		t.Fatalf("expected 4s from IP counter, got %v", got)
	}
}

func TestCaptchaRequired_Threshold(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 2)
	if svc.CaptchaRequired(ctx, testUser, testIP) {
		t.Fatal("captcha required below threshold")
	}

	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	if !svc.CaptchaRequired(ctx, testUser, testIP) {
		t.Fatal("captcha not required at threshold")
	}
}

func TestCaptchaRequired_EitherKeyCrosses(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	ctx := context.Background()

	// Only the IP accumulates; the queried identifier is clean.
	svc.RecordFailedAttempt(ctx, "a@example.com", testIP, testUA)
	svc.RecordFailedAttempt(ctx, "b@example.com", testIP, testUA)
	svc.RecordFailedAttempt(ctx, "c@example.com", testIP, testUA)

	if !svc.CaptchaRequired(ctx, "fresh@example.com", testIP) {
		t.Fatal("captcha must trigger on the IP counter alone")
	}
}

func TestCaptchaRequired_DisabledIsFalse(t *testing.T) {
	cfg := testConfig()
	cfg.Captcha.Enabled = false
	svc, _ := newTestService(t, cfg)
	ctx := context.Background()

	recordFailures(ctx, svc, testUser, testIP, 4)

	if svc.CaptchaRequired(ctx, testUser, testIP) {
		t.Fatal("captcha required while disabled")
	}
}

// TestLoginHardeningScenario walks the documented escalation with the default
// thresholds: delay from the first failure, captcha from the third, lockout
// on the fifth with a 30-minute expiry.
func TestLoginHardeningScenario(t *testing.T) {
	cfg := testConfig()
	svc, _ := newTestService(t, cfg)
	ctx := context.Background()

	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	sec := svc.SecurityContext(ctx, testUser, testIP, testUA)
	if sec.Delay != 1000*time.Millisecond || sec.CaptchaRequired || sec.Locked {
		t.Fatalf("after attempt 1: %+v", sec)
	}

	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	sec = svc.SecurityContext(ctx, testUser, testIP, testUA)
	if sec.Delay != 4000*time.Millisecond || !sec.CaptchaRequired || sec.Locked {
		t.Fatalf("after attempt 3: %+v", sec)
	}

	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	svc.RecordFailedAttempt(ctx, testUser, testIP, testUA)
	sec = svc.SecurityContext(ctx, testUser, testIP, testUA)
	if sec.Delay != 16000*time.Millisecond || !sec.CaptchaRequired || !sec.Locked {
		t.Fatalf("after attempt 5: %+v", sec)
	}
	if sec.Allowed() {
		t.Fatal("locked context must not be allowed")
	}

	status := svc.IsUserLockedOut(ctx, testUser)
	want := cfg.Attempts.LockoutDuration
	if status.Remaining > want || status.Remaining < want-time.Minute {
		t.Fatalf("expected lockout expiry ~%v ahead, got %v", want, status.Remaining)
	}
}
