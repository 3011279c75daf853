// Package loginshield provides a stateful login security core: per-account and
// per-IP failed-attempt tracking, temporary lockouts and IP blocks, capped
// exponential response delays, captcha gating, device fingerprinting, and
// rule-based suspicious-pattern scoring.
//
// The package never authenticates anyone. An external authentication endpoint
// consults [Service.SecurityContext] before verifying credentials and reports
// outcomes back through [Service.RecordFailedAttempt] and
// [Service.RecordSuccessfulLogin]. Credential hashing, token issuance, and
// user storage are the caller's concern.
//
// The package is designed for concurrent server workloads: Service methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The service holds no mutable in-process state; all counters
// and lock records live in the backing [store.Store].
//
// # Architecture boundaries
//
// loginshield is the public surface. It exposes [Service], [Builder], [Config],
// and value types (LockoutStatus, AttemptStats, SecurityContext, etc.).
// Swappable primitives live in the store and fingerprint sub-packages;
// detection rules live under internal/ and are never exported.
//
// # Failure contract
//
// Store unavailability must never fail or hang the login path. Every store
// call is time-bounded; on error the service logs at warning level and
// resolves to the unrestricted default ("fail open"). Deployments that prefer
// to refuse logins while the store is down set Config.Store.FailClosed, which
// flips the status checks only; recording paths always swallow store errors.
package loginshield
