package loginshield

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rasel530/loginshield/internal/suspicion"
	"github.com/rasel530/loginshield/store"
)

// Builder assembles a [Service]. Construction is allocation-only; no store
// I/O happens until the first Service call.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  store.Store
	sink   AuditSink
	logger *slog.Logger

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. The builder keeps its own copy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the service with a Redis-compatible client. The client is
// wrapped in the store adapter using the configured key prefix and op
// timeout.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore backs the service with a custom [store.Store], overriding
// WithRedis. The store is expected to apply its own key namespacing.
func (b *Builder) WithStore(st store.Store) *Builder {
	b.store = st
	return b
}

// WithAuditSink sets the destination for security events. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger used for store-failure warnings.
// Defaults to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns the service. A threshold out
// of range is fatal here, never later.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	st := b.store
	if st == nil {
		if b.redis == nil {
			return nil, ErrStoreRequired
		}
		st = store.NewRedis(b.redis, cfg.Store.KeyPrefix, cfg.Store.OpTimeout)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:      cfg,
		store:    st,
		detector: suspicion.New(cfg.suspicionConfig()),
		audit:    newAuditDispatcher(cfg.Audit, b.sink),
		metrics:  NewMetrics(cfg.Metrics.Enabled),
		logger:   logger,
		now:      time.Now,
	}, nil
}
