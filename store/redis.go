package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Store] backed by a Redis-compatible server. Expiry is native,
// so Redis does not implement [Sweeper].
//
// Every operation runs under opTimeout so a dead server resolves to an error
// instead of hanging the login path.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

const defaultOpTimeout = 2 * time.Second

// NewRedis wraps client as a [Store]. All keys are stored under prefix
// followed by ":". A non-positive opTimeout falls back to 2s.
func NewRedis(client redis.UniversalClient, prefix string, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Redis{
		client:    client,
		prefix:    prefix,
		opTimeout: opTimeout,
	}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

// Increment implements [Store]. It uses INCR followed by EXPIRE on the first
// hit, giving fixed-window semantics: the TTL anchors at the first increment
// and later increments do not refresh it.
func (r *Redis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	count, err := r.client.Incr(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 && ttl > 0 {
		if err := r.client.Expire(ctx, r.key(key), ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return count, nil
}

// Get implements [Store]. Missing keys return ("", false, nil).
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, true, nil
}

// SetWithTTL implements [Store].
func (r *Redis) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete implements [Store].
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// TTL implements [Store]. Absent keys and keys without expiry report zero.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	d, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if d < 0 {
		// -2 key missing, -1 no expiry.
		return 0, nil
	}
	return d, nil
}
