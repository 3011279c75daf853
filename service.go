package loginshield

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rasel530/loginshield/internal/suspicion"
	"github.com/rasel530/loginshield/store"
)

// Service is the login security core. It is stateless in-process; every
// counter and lock record lives in the backing store, so any number of
// goroutines (or replicas) may call it concurrently without coordination.
//
// Recording methods never fail: store errors are logged at warning level,
// counted, and swallowed so a broken cache cannot take the login path down
// with it. Status methods resolve store errors per the configured fail-open
// or fail-closed policy.
type Service struct {
	cfg      Config
	store    store.Store
	detector *suspicion.Detector
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Close flushes and stops the audit dispatcher. The service must not be used
// after Close.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// SecurityConfig returns a copy of the tunables the service was built with.
func (s *Service) SecurityConfig() Config {
	if s == nil {
		return Config{}
	}
	return cloneConfig(s.cfg)
}

// MetricsSnapshot returns a point-in-time copy of the in-process counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) auditEmit(ctx context.Context, event AuditEvent) {
	if s == nil || s.audit == nil {
		return
	}
	s.audit.Emit(ctx, event)
}

// storeFailure handles a store error on the fail-open path: warn, count,
// carry on with zero state.
func (s *Service) storeFailure(op, key string, err error) {
	s.metricInc(MetricStoreFailure)
	s.logger.Warn("attempt store unavailable, continuing without restriction",
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("error", err))
}

/*
====================================
INPUT NORMALIZATION
====================================
*/

// normalizeIdentifier trims and lowercases the login identifier (email or
// phone). Empty after trimming means the caller is malformed and the related
// state machine is skipped rather than crashed into.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// normalizeIP validates and canonicalizes the client address. Invalid syntax
// returns empty, which skips the IP state machine.
func normalizeIP(ip string) string {
	trimmed := strings.TrimSpace(ip)
	if trimmed == "" {
		return ""
	}
	parsed := net.ParseIP(trimmed)
	if parsed == nil {
		return ""
	}
	return parsed.String()
}

/*
====================================
COUNTER READS
====================================
*/

// counterValue reads one counter, resolving absence and store failure to
// zero.
func (s *Service) counterValue(ctx context.Context, key string) int64 {
	val, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.storeFailure("get", key, err)
		return 0
	}
	if !ok {
		return 0
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// attemptCounts reads both window counters for one request. Empty keys read
// as zero.
func (s *Service) attemptCounts(ctx context.Context, identifier, ip string) (idCount, ipCount int64) {
	if identifier != "" {
		idCount = s.counterValue(ctx, attemptKey(identifier))
	}
	if ip != "" {
		ipCount = s.counterValue(ctx, ipAttemptKey(ip))
	}
	return idCount, ipCount
}
