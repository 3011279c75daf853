// Package store defines the minimal TTL key/value contract the login security
// service reads and writes through, plus the two shipped implementations:
// [Redis] for production and [Memory] for tests and cache-less deployments.
//
// The contract is deliberately small so the backing store is swappable and
// independently testable: atomic increment-with-expiry, get, set-with-expiry,
// delete, and a TTL probe. Implementations return [ErrUnavailable]-wrapped
// errors on transport failure; the policy of what to do about that (fail open
// or fail closed) belongs to the caller, not the store.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store is unreachable or timed out.
var ErrUnavailable = errors.New("attempt store unavailable")

// Store is the TTL key/value surface used by the login security service.
//
// All methods must be safe for unrestricted concurrent use. Increment must be
// atomic at the store level: two simultaneous increments of one key must both
// register.
type Store interface {
	// Increment atomically adds one to the counter at key and returns the new
	// value. The TTL is applied when the increment creates the key, anchoring
	// a fixed window at the first failure; later increments within the window
	// do not extend it.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the value at key. The second return is false when the key
	// is absent or expired; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores value at key, overwriting any previous value, and
	// resets the expiry to ttl from now.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys. Deleting an absent key is not an error.
	Delete(ctx context.Context, keys ...string) error

	// TTL returns the remaining lifetime of key, or zero when the key is
	// absent or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Sweeper is implemented by stores that cannot expire entries natively and
// need a periodic sweep. TTL-native stores (Redis) do not implement it, and
// cleanup against them is a verification no-op.
type Sweeper interface {
	// Sweep removes entries whose deadline has passed and returns how many
	// were removed. It must never remove an entry whose TTL has not elapsed.
	Sweep(ctx context.Context) (int, error)
}
