package loginshield

import (
	"context"
	"time"

	"github.com/rasel530/loginshield/internal/suspicion"
)

// IsUserLockedOut reports the identifier's lockout state. Missing records and
// malformed identifiers read as unlocked. Store failure resolves per policy:
// unlocked by default, locked under FailClosed.
func (s *Service) IsUserLockedOut(ctx context.Context, identifier string) LockoutStatus {
	if s == nil {
		return LockoutStatus{}
	}

	id := normalizeIdentifier(identifier)
	if id == "" {
		return LockoutStatus{}
	}

	status, ok := s.readRestriction(ctx, lockKey(id))
	if !ok {
		return LockoutStatus{}
	}

	s.metricInc(MetricLockoutHit)
	return LockoutStatus{
		Locked:    true,
		Reason:    status.reason,
		ExpiresAt: status.expiresAt,
		Remaining: status.remaining,
	}
}

// IsIPBlocked reports the IP's block state, symmetric to [Service.IsUserLockedOut]
// but on the independent IP state machine.
func (s *Service) IsIPBlocked(ctx context.Context, ip string) BlockStatus {
	if s == nil {
		return BlockStatus{}
	}

	addr := normalizeIP(ip)
	if addr == "" {
		return BlockStatus{}
	}

	status, ok := s.readRestriction(ctx, blockKey(addr))
	if !ok {
		return BlockStatus{}
	}

	s.metricInc(MetricIPBlockHit)
	return BlockStatus{
		Blocked:   true,
		Reason:    status.reason,
		ExpiresAt: status.expiresAt,
		Remaining: status.remaining,
	}
}

// Stats is the single aggregated read an endpoint uses to build one response:
// both counters plus every flag derived from them.
func (s *Service) Stats(ctx context.Context, identifier, ip string) AttemptStats {
	if s == nil {
		return AttemptStats{}
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)

	idCount, ipCount := s.attemptCounts(ctx, id, addr)

	remaining := int64(s.cfg.Attempts.MaxAttempts) - idCount
	if remaining < 0 {
		remaining = 0
	}

	return AttemptStats{
		UserAttempts:      idCount,
		IPAttempts:        ipCount,
		AttemptsRemaining: remaining,
		Locked:            s.IsUserLockedOut(ctx, id).Locked,
		IPBlocked:         s.IsIPBlocked(ctx, addr).Blocked,
		CaptchaRequired:   s.captchaRequired(idCount, ipCount),
		Delay:             s.delayFor(maxCount(idCount, ipCount)),
	}
}

// SecurityContext aggregates every pre-check for one request: lockout, IP
// block, remaining attempts, captcha gate, progressive delay, and suspicion
// scoring. The endpoint calls this once before verifying credentials.
func (s *Service) SecurityContext(ctx context.Context, identifier, ip, userAgent string) SecurityContext {
	if s == nil {
		return SecurityContext{}
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)

	idCount, ipCount := s.attemptCounts(ctx, id, addr)

	remaining := int64(s.cfg.Attempts.MaxAttempts) - idCount
	if remaining < 0 {
		remaining = 0
	}

	return SecurityContext{
		Locked:            s.IsUserLockedOut(ctx, id).Locked,
		IPBlocked:         s.IsIPBlocked(ctx, addr).Blocked,
		AttemptsRemaining: remaining,
		CaptchaRequired:   s.captchaRequired(idCount, ipCount),
		Delay:             s.delayFor(maxCount(idCount, ipCount)),
		Suspicion:         s.evaluateSuspicion(ctx, id, addr, userAgent, ipCount),
	}
}

// CheckSuspiciousPatterns scores one attempt against the automation rules:
// user-agent signature match, per-IP attempt volume, and rapid cadence.
func (s *Service) CheckSuspiciousPatterns(ctx context.Context, identifier, ip, userAgent string) SuspicionReport {
	if s == nil {
		return SuspicionReport{}
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)

	var ipCount int64
	if addr != "" {
		ipCount = s.counterValue(ctx, ipAttemptKey(addr))
	}

	return s.evaluateSuspicion(ctx, id, addr, userAgent, ipCount)
}

func (s *Service) evaluateSuspicion(ctx context.Context, identifier, ip, userAgent string, ipCount int64) SuspicionReport {
	var rapidStreak int64
	if ip != "" {
		rapidStreak = s.counterValue(ctx, rapidKey(ip))
	}

	result := s.detector.Evaluate(suspicion.Input{
		UserAgent:   userAgent,
		VolumeCount: ipCount,
		RapidStreak: rapidStreak,
	})

	report := SuspicionReport{
		Suspicious: result.RiskScore > s.cfg.Suspicion.ActivityThreshold,
		RiskScore:  result.RiskScore,
		Reasons:    result.Reasons,
	}

	if report.Suspicious {
		s.metricInc(MetricSuspicionFlagged)
		s.auditEmit(ctx, AuditEvent{
			EventType:  AuditSuspiciousActivity,
			Identifier: identifier,
			IP:         ip,
			RiskScore:  report.RiskScore,
			Metadata:   failureMetadata(userAgent),
		})
	}

	return report
}

/*
====================================
RESTRICTION RECORDS
====================================
*/

type restriction struct {
	reason    LockReason
	expiresAt time.Time
	remaining time.Duration
}

// readRestriction loads a lockout or block record. The record value is the
// reason; the expiry is derived from the key's TTL so it can never drift from
// what the store will actually enforce.
func (s *Service) readRestriction(ctx context.Context, key string) (restriction, bool) {
	reason, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.storeFailure("get", key, err)
		if s.cfg.Store.FailClosed {
			return restriction{reason: LockReasonTooManyAttempts}, true
		}
		return restriction{}, false
	}
	if !ok {
		return restriction{}, false
	}

	remaining, err := s.store.TTL(ctx, key)
	if err != nil {
		s.storeFailure("ttl", key, err)
		remaining = 0
	}
	if remaining < 0 {
		remaining = 0
	}

	return restriction{
		reason:    LockReason(reason),
		expiresAt: s.now().Add(remaining),
		remaining: remaining,
	}, true
}

func maxCount(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
