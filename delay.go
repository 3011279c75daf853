package loginshield

import (
	"context"
	"time"
)

// ProgressiveDelay computes the wait the endpoint must apply (or instruct the
// client to retry after) before evaluating credentials. With n the higher of
// the two window counters, the delay is 0 for n == 0 and otherwise
// min(BaseDelay * 2^(n-1), MaxDelay): monotonic, capped, and a pure function
// of the current counts, so it is never separately persisted.
func (s *Service) ProgressiveDelay(ctx context.Context, identifier, ip string) time.Duration {
	if s == nil || !s.cfg.Delay.Enabled {
		return 0
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)

	idCount, ipCount := s.attemptCounts(ctx, id, addr)
	return s.delayFor(maxCount(idCount, ipCount))
}

// delayFor doubles from BaseDelay per attempt past the first, saturating at
// MaxDelay. The loop keeps the doubling overflow-safe for arbitrary counts.
func (s *Service) delayFor(n int64) time.Duration {
	if !s.cfg.Delay.Enabled || n <= 0 {
		return 0
	}

	delay := s.cfg.Delay.BaseDelay
	limit := s.cfg.Delay.MaxDelay
	for i := int64(1); i < n; i++ {
		delay *= 2
		if delay >= limit || delay <= 0 {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}

// CaptchaRequired reports whether the attempt must carry a solved captcha:
// true once either window counter reaches the threshold, whichever key
// crossed it. Always false when captcha gating is disabled.
func (s *Service) CaptchaRequired(ctx context.Context, identifier, ip string) bool {
	if s == nil || !s.cfg.Captcha.Enabled {
		return false
	}

	id := normalizeIdentifier(identifier)
	addr := normalizeIP(ip)

	idCount, ipCount := s.attemptCounts(ctx, id, addr)
	return s.captchaRequired(idCount, ipCount)
}

func (s *Service) captchaRequired(idCount, ipCount int64) bool {
	if !s.cfg.Captcha.Enabled {
		return false
	}
	required := maxCount(idCount, ipCount) >= int64(s.cfg.Captcha.Threshold)
	if required {
		s.metricInc(MetricCaptchaRequired)
	}
	return required
}
