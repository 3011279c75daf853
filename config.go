package loginshield

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rasel530/loginshield/internal/suspicion"
)

// Config holds every tunable of the login security core. Instances are loaded
// once at process start, validated by [Builder.Build], and treated as
// immutable afterwards; there is no runtime hot-reload.
type Config struct {
	Attempts  AttemptConfig
	Delay     DelayConfig
	Captcha   CaptchaConfig
	Suspicion SuspicionConfig
	Store     StoreConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// AttemptConfig controls the failure counters and the lockout/block records
// derived from them.
type AttemptConfig struct {
	// MaxAttempts is the identifier failure count at which a lockout is
	// written.
	MaxAttempts int

	// AttemptWindow is the TTL of both failure counters. The window anchors
	// at the first failure and lapses via expiry.
	AttemptWindow time.Duration

	// LockoutDuration is the TTL of an identifier lockout record.
	LockoutDuration time.Duration

	// IPMaxAttempts is the per-IP failure count at which an IP block is
	// written. IP counters span accounts, so this sits above MaxAttempts.
	IPMaxAttempts int

	// IPBlockDuration is the TTL of an IP block record.
	IPBlockDuration time.Duration
}

// DelayConfig controls the progressive response delay.
type DelayConfig struct {
	Enabled   bool
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// CaptchaConfig controls human-verification gating.
type CaptchaConfig struct {
	Enabled bool

	// Threshold is the attempt count (identifier or IP, whichever is higher)
	// at which a captcha becomes required.
	Threshold int
}

// SuspicionConfig controls the automation-pattern detector.
type SuspicionConfig struct {
	// Signatures overrides the built-in automation user-agent substrings.
	// Empty means the defaults.
	Signatures []string

	// VolumeThreshold is the per-IP window attempt count at which the
	// high-volume rule fires.
	VolumeThreshold int

	// MinInterval is the inter-attempt gap below which an attempt counts
	// toward the rapid streak.
	MinInterval time.Duration

	// RapidStreak is how many consecutive sub-MinInterval attempts trigger
	// the cadence rule.
	RapidStreak int

	WeightUserAgent int
	WeightVolume    int
	WeightRapid     int

	// ActivityThreshold is the summed rule weight a report must exceed to be
	// flagged suspicious. Zero flags any triggered rule.
	ActivityThreshold int
}

// StoreConfig controls how the service talks to the backing store.
type StoreConfig struct {
	// KeyPrefix namespaces every key the service writes.
	KeyPrefix string

	// OpTimeout bounds each store call. Zero falls back to 2s.
	OpTimeout time.Duration

	// FailClosed makes the status checks (lockout, block, security context)
	// report restricted when the store is unreachable. The default is fail
	// open: an unreachable cache must not deny service to legitimate users.
	FailClosed bool
}

// AuditConfig controls asynchronous security-event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented defaults: five identifier attempts per
// 15-minute window with a 30-minute lockout, ten IP attempts with a one-hour
// block, a 1s to 30s progressive delay, captcha from the third attempt.
func DefaultConfig() Config {
	return Config{
		Attempts: AttemptConfig{
			MaxAttempts:     5,
			AttemptWindow:   15 * time.Minute,
			LockoutDuration: 30 * time.Minute,
			IPMaxAttempts:   10,
			IPBlockDuration: 60 * time.Minute,
		},
		Delay: DelayConfig{
			Enabled:   true,
			BaseDelay: 1000 * time.Millisecond,
			MaxDelay:  30000 * time.Millisecond,
		},
		Captcha: CaptchaConfig{
			Enabled:   true,
			Threshold: 3,
		},
		Suspicion: SuspicionConfig{
			Signatures:        nil, // detector defaults
			VolumeThreshold:   8,
			MinInterval:       2 * time.Second,
			RapidStreak:       3,
			WeightUserAgent:   40,
			WeightVolume:      30,
			WeightRapid:       30,
			ActivityThreshold: 0,
		},
		Store: StoreConfig{
			KeyPrefix:  "ls",
			OpTimeout:  2 * time.Second,
			FailClosed: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Suspicion.Signatures) > 0 {
		out.Suspicion.Signatures = make([]string, len(cfg.Suspicion.Signatures))
		copy(out.Suspicion.Signatures, cfg.Suspicion.Signatures)
	}
	return out
}

// Validate reports the first out-of-range threshold. A failing config is a
// fatal initialization error; [Builder.Build] refuses it.
func (c *Config) Validate() error {
	if c.Attempts.MaxAttempts <= 0 {
		return errors.New("Attempts MaxAttempts must be > 0")
	}
	if c.Attempts.AttemptWindow <= 0 {
		return errors.New("Attempts AttemptWindow must be > 0")
	}
	if c.Attempts.LockoutDuration <= 0 {
		return errors.New("Attempts LockoutDuration must be > 0")
	}
	if c.Attempts.IPMaxAttempts <= 0 {
		return errors.New("Attempts IPMaxAttempts must be > 0")
	}
	if c.Attempts.IPBlockDuration <= 0 {
		return errors.New("Attempts IPBlockDuration must be > 0")
	}

	if c.Delay.Enabled {
		if c.Delay.BaseDelay <= 0 {
			return errors.New("Delay BaseDelay must be > 0 when delay is enabled")
		}
		if c.Delay.MaxDelay < c.Delay.BaseDelay {
			return errors.New("Delay MaxDelay must be >= BaseDelay")
		}
	}

	if c.Captcha.Enabled && c.Captcha.Threshold <= 0 {
		return errors.New("Captcha Threshold must be > 0 when captcha is enabled")
	}

	if c.Suspicion.VolumeThreshold < 0 {
		return errors.New("Suspicion VolumeThreshold must be >= 0")
	}
	if c.Suspicion.MinInterval < 0 {
		return errors.New("Suspicion MinInterval must be >= 0")
	}
	if c.Suspicion.RapidStreak < 0 {
		return errors.New("Suspicion RapidStreak must be >= 0")
	}
	if c.Suspicion.WeightUserAgent < 0 || c.Suspicion.WeightVolume < 0 || c.Suspicion.WeightRapid < 0 {
		return errors.New("Suspicion rule weights must be >= 0")
	}
	if c.Suspicion.ActivityThreshold < 0 {
		return errors.New("Suspicion ActivityThreshold must be >= 0")
	}

	if c.Store.OpTimeout < 0 {
		return errors.New("Store OpTimeout must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func (c *Config) suspicionConfig() suspicion.Config {
	return suspicion.Config{
		Signatures:      c.Suspicion.Signatures,
		VolumeThreshold: c.Suspicion.VolumeThreshold,
		RapidStreak:     c.Suspicion.RapidStreak,
		WeightUserAgent: c.Suspicion.WeightUserAgent,
		WeightVolume:    c.Suspicion.WeightVolume,
		WeightRapid:     c.Suspicion.WeightRapid,
	}
}

/*
====================================
ENV LOADING
====================================
*/

// ConfigFromEnv starts from [DefaultConfig] and applies LOGINSHIELD_*
// environment overrides. A .env file in the working directory is loaded first
// when present. Every threshold is independently overridable.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.Attempts.MaxAttempts = getEnvInt("LOGINSHIELD_MAX_ATTEMPTS", cfg.Attempts.MaxAttempts)
	cfg.Attempts.AttemptWindow = getEnvMinutes("LOGINSHIELD_ATTEMPT_WINDOW_MINUTES", cfg.Attempts.AttemptWindow)
	cfg.Attempts.LockoutDuration = getEnvMinutes("LOGINSHIELD_LOCKOUT_DURATION_MINUTES", cfg.Attempts.LockoutDuration)
	cfg.Attempts.IPMaxAttempts = getEnvInt("LOGINSHIELD_IP_MAX_ATTEMPTS", cfg.Attempts.IPMaxAttempts)
	cfg.Attempts.IPBlockDuration = getEnvMinutes("LOGINSHIELD_IP_BLOCK_DURATION_MINUTES", cfg.Attempts.IPBlockDuration)

	cfg.Delay.Enabled = getEnvBool("LOGINSHIELD_PROGRESSIVE_DELAY_ENABLED", cfg.Delay.Enabled)
	cfg.Delay.BaseDelay = getEnvMillis("LOGINSHIELD_BASE_DELAY_MS", cfg.Delay.BaseDelay)
	cfg.Delay.MaxDelay = getEnvMillis("LOGINSHIELD_MAX_DELAY_MS", cfg.Delay.MaxDelay)

	cfg.Captcha.Enabled = getEnvBool("LOGINSHIELD_CAPTCHA_ENABLED", cfg.Captcha.Enabled)
	cfg.Captcha.Threshold = getEnvInt("LOGINSHIELD_CAPTCHA_THRESHOLD", cfg.Captcha.Threshold)

	cfg.Suspicion.ActivityThreshold = getEnvInt("LOGINSHIELD_SUSPICIOUS_ACTIVITY_THRESHOLD", cfg.Suspicion.ActivityThreshold)
	cfg.Suspicion.VolumeThreshold = getEnvInt("LOGINSHIELD_SUSPICION_VOLUME_THRESHOLD", cfg.Suspicion.VolumeThreshold)

	cfg.Store.KeyPrefix = getEnv("LOGINSHIELD_KEY_PREFIX", cfg.Store.KeyPrefix)
	cfg.Store.OpTimeout = getEnvMillis("LOGINSHIELD_STORE_OP_TIMEOUT_MS", cfg.Store.OpTimeout)
	cfg.Store.FailClosed = getEnvBool("LOGINSHIELD_STORE_FAIL_CLOSED", cfg.Store.FailClosed)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvMinutes(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Minute
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
