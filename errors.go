package loginshield

import (
	"errors"

	"github.com/rasel530/loginshield/store"
)

var (
	// ErrStoreUnavailable indicates the backing attempt store is unreachable
	// or timed out. The service recovers from it internally per the fail-open
	// policy; callers using [store.Store] directly can match it with errors.Is.
	// Alias of [store.ErrUnavailable].
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrInvalidConfig indicates a threshold was out of range at startup.
	ErrInvalidConfig = errors.New("invalid login security configuration")

	// ErrStoreRequired indicates Build was called without a store or Redis
	// client.
	ErrStoreRequired = errors.New("attempt store required")

	// ErrBuilderUsed indicates Build was called twice on one builder.
	ErrBuilderUsed = errors.New("builder already used")
)
