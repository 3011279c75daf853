package loginshield

import (
	"context"
	"strconv"
)

// RecordFailedAttempt registers one failed login for the identifier and the
// originating IP. Each counter increments atomically under the attempt
// window; crossing MaxAttempts writes the lockout record, crossing
// IPMaxAttempts writes the IP block. Re-crossing a threshold overwrites the
// record idempotently.
//
// The method never returns an error: malformed input degrades to a partial or
// full no-op, and store failures are logged and swallowed.
func (s *Service) RecordFailedAttempt(ctx context.Context, identifier, ip, userAgent string) {
	if s == nil {
		return
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)
	if id == "" && addr == "" {
		return
	}

	s.metricInc(MetricFailureRecorded)

	if id != "" {
		count, err := s.store.Increment(ctx, attemptKey(id), s.cfg.Attempts.AttemptWindow)
		if err != nil {
			s.storeFailure("increment", attemptKey(id), err)
		} else if count >= int64(s.cfg.Attempts.MaxAttempts) {
			s.writeLockout(ctx, id, count)
		}
	}

	if addr != "" {
		count, err := s.store.Increment(ctx, ipAttemptKey(addr), s.cfg.Attempts.AttemptWindow)
		if err != nil {
			s.storeFailure("increment", ipAttemptKey(addr), err)
		} else if count >= int64(s.cfg.Attempts.IPMaxAttempts) {
			s.writeIPBlock(ctx, addr, count)
		}

		s.trackCadence(ctx, addr)
	}

	s.auditEmit(ctx, AuditEvent{
		EventType:  AuditLoginFailure,
		Identifier: id,
		IP:         addr,
		Metadata:   failureMetadata(userAgent),
	})
}

// RecordSuccessfulLogin clears the identifier's counter and lockout. The IP
// counter and any IP block stay put: IP abuse is cross-account and must
// persist regardless of which account eventually succeeded.
//
// The caller invokes this after a credential match, before issuing any
// session or token. Never returns an error.
func (s *Service) RecordSuccessfulLogin(ctx context.Context, identifier, ip, userID, deviceFingerprint string) {
	if s == nil {
		return
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)
	if id == "" {
		return
	}

	s.metricInc(MetricSuccessRecorded)

	if err := s.store.Delete(ctx, attemptKey(id), lockKey(id)); err != nil {
		s.storeFailure("delete", attemptKey(id), err)
	}

	s.auditEmit(ctx, AuditEvent{
		EventType:   AuditLoginSuccess,
		Identifier:  id,
		IP:          addr,
		UserID:      userID,
		Fingerprint: deviceFingerprint,
	})
}

func (s *Service) writeLockout(ctx context.Context, identifier string, count int64) {
	key := lockKey(identifier)
	if err := s.store.SetWithTTL(ctx, key, string(LockReasonTooManyAttempts), s.cfg.Attempts.LockoutDuration); err != nil {
		s.storeFailure("set", key, err)
		return
	}

	s.metricInc(MetricLockoutTriggered)
	s.auditEmit(ctx, AuditEvent{
		EventType:  AuditLockoutTriggered,
		Identifier: identifier,
		Metadata: map[string]string{
			"attempts": strconv.FormatInt(count, 10),
		},
	})
}

func (s *Service) writeIPBlock(ctx context.Context, ip string, count int64) {
	key := blockKey(ip)
	if err := s.store.SetWithTTL(ctx, key, string(LockReasonTooManyAttempts), s.cfg.Attempts.IPBlockDuration); err != nil {
		s.storeFailure("set", key, err)
		return
	}

	s.metricInc(MetricIPBlockTriggered)
	s.auditEmit(ctx, AuditEvent{
		EventType: AuditIPBlockTriggered,
		IP:        ip,
		Metadata: map[string]string{
			"attempts": strconv.FormatInt(count, 10),
		},
	})
}

// trackCadence maintains the per-IP rapid-attempt streak: a run of failures
// each arriving within MinInterval of the previous one. Any slower attempt
// resets the streak. Both keys expire with the attempt window.
func (s *Service) trackCadence(ctx context.Context, ip string) {
	if s.cfg.Suspicion.MinInterval <= 0 {
		return
	}

	nowMillis := s.now().UnixMilli()

	prev, ok, err := s.store.Get(ctx, lastSeenKey(ip))
	if err != nil {
		s.storeFailure("get", lastSeenKey(ip), err)
		return
	}

	if ok {
		prevMillis, parseErr := strconv.ParseInt(prev, 10, 64)
		if parseErr == nil && nowMillis-prevMillis < s.cfg.Suspicion.MinInterval.Milliseconds() {
			if _, err := s.store.Increment(ctx, rapidKey(ip), s.cfg.Attempts.AttemptWindow); err != nil {
				s.storeFailure("increment", rapidKey(ip), err)
			}
		} else {
			if err := s.store.Delete(ctx, rapidKey(ip)); err != nil {
				s.storeFailure("delete", rapidKey(ip), err)
			}
		}
	}

	if err := s.store.SetWithTTL(ctx, lastSeenKey(ip), strconv.FormatInt(nowMillis, 10), s.cfg.Attempts.AttemptWindow); err != nil {
		s.storeFailure("set", lastSeenKey(ip), err)
	}
}

func failureMetadata(userAgent string) map[string]string {
	if userAgent == "" {
		return nil
	}
	return map[string]string{"user_agent": userAgent}
}
