package loginshield

import "time"

// LockReason identifies why a lockout or block record was written.
type LockReason string

// LockReasonTooManyAttempts is the only reason the core writes today; the
// enum leaves room for operator-initiated locks.
const LockReasonTooManyAttempts LockReason = "too_many_attempts"

// LockoutStatus reports the identifier-keyed lockout state.
type LockoutStatus struct {
	Locked    bool
	Reason    LockReason
	ExpiresAt time.Time
	// Remaining is max(0, ExpiresAt-now) at read time.
	Remaining time.Duration
}

// BlockStatus reports the IP-keyed block state. Its lifecycle is fully
// independent of any identifier's lockout.
type BlockStatus struct {
	Blocked   bool
	Reason    LockReason
	ExpiresAt time.Time
	Remaining time.Duration
}

// AttemptStats is the single aggregated read an endpoint uses to build one
// response: both counters plus every derived flag.
type AttemptStats struct {
	UserAttempts      int64
	IPAttempts        int64
	AttemptsRemaining int64
	Locked            bool
	IPBlocked         bool
	CaptchaRequired   bool
	Delay             time.Duration
}

// SuspicionReport is the outcome of scoring one attempt against the
// automation rules.
type SuspicionReport struct {
	Suspicious bool
	RiskScore  int
	// Reasons lists the triggered rule codes: malicious_user_agent,
	// high_attempt_volume, rapid_attempts.
	Reasons []string
}

// SecurityContext aggregates every pre-check for one request. It is computed
// on demand and never persisted.
type SecurityContext struct {
	Locked            bool
	IPBlocked         bool
	AttemptsRemaining int64
	CaptchaRequired   bool
	Delay             time.Duration
	Suspicion         SuspicionReport
}

// Allowed reports whether the attempt may proceed to credential verification.
// The caller must still honor Delay and CaptchaRequired, and must translate a
// false result into a single generic error that does not reveal which
// condition fired.
func (c SecurityContext) Allowed() bool {
	return !c.Locked && !c.IPBlocked
}

// CleanupResult reports one cleanup pass.
type CleanupResult struct {
	Success bool
	// Cleaned is the number of stale entries removed. Zero for TTL-native
	// stores, where expiry needs no sweeping.
	Cleaned int
}
