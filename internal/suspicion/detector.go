// Package suspicion scores login attempts for automation patterns. The
// detector is a pure rule engine: the service supplies the observed inputs
// (user agent, recent per-IP volume, rapid-attempt streak) and receives a
// weighted score plus the list of triggered rules.
package suspicion

import "strings"

// Reason codes for triggered rules.
const (
	ReasonMaliciousUserAgent = "malicious_user_agent"
	ReasonHighAttemptVolume  = "high_attempt_volume"
	ReasonRapidAttempts      = "rapid_attempts"
)

// DefaultSignatures lists substrings of user agents produced by bare HTTP
// clients and automation frameworks. Matching is case-insensitive.
var DefaultSignatures = []string{
	"curl",
	"wget",
	"python-requests",
	"python-urllib",
	"go-http-client",
	"java/",
	"okhttp",
	"libwww-perl",
	"scrapy",
	"httpclient",
	"phantomjs",
	"headless",
	"selenium",
	"puppeteer",
	"bot",
	"crawler",
	"spider",
}

// Config holds the detector's rules and weights.
type Config struct {
	// Signatures are lowercase substrings matched against the user agent.
	Signatures []string

	// VolumeThreshold is the per-IP recent attempt count at or above which
	// the high-volume rule fires.
	VolumeThreshold int

	// RapidStreak is the number of consecutive attempts spaced below the
	// minimum interval at or above which the cadence rule fires.
	RapidStreak int

	WeightUserAgent int
	WeightVolume    int
	WeightRapid     int
}

// Input carries the observations for one attempt.
type Input struct {
	UserAgent string
	// VolumeCount is the IP's attempt count within the current window.
	VolumeCount int64
	// RapidStreak is the current run of attempts spaced below the minimum
	// inter-attempt interval.
	RapidStreak int64
}

// Result is the outcome of evaluating one attempt. Suspicious is decided by
// the caller's threshold; the detector only reports the score and reasons.
type Result struct {
	RiskScore int
	Reasons   []string
}

// Detector evaluates attempts against the configured rules. It is stateless
// and safe for concurrent use.
type Detector struct {
	cfg        Config
	signatures []string
}

// New builds a detector. An empty signature list falls back to
// [DefaultSignatures].
func New(cfg Config) *Detector {
	sigs := cfg.Signatures
	if len(sigs) == 0 {
		sigs = DefaultSignatures
	}
	lowered := make([]string, len(sigs))
	for i, s := range sigs {
		lowered[i] = strings.ToLower(s)
	}
	return &Detector{cfg: cfg, signatures: lowered}
}

// Evaluate applies every rule and sums the weights of those that fire.
func (d *Detector) Evaluate(in Input) Result {
	var res Result

	if d.matchUserAgent(in.UserAgent) {
		res.RiskScore += d.cfg.WeightUserAgent
		res.Reasons = append(res.Reasons, ReasonMaliciousUserAgent)
	}

	if d.cfg.VolumeThreshold > 0 && in.VolumeCount >= int64(d.cfg.VolumeThreshold) {
		res.RiskScore += d.cfg.WeightVolume
		res.Reasons = append(res.Reasons, ReasonHighAttemptVolume)
	}

	if d.cfg.RapidStreak > 0 && in.RapidStreak >= int64(d.cfg.RapidStreak) {
		res.RiskScore += d.cfg.WeightRapid
		res.Reasons = append(res.Reasons, ReasonRapidAttempts)
	}

	return res
}

func (d *Detector) matchUserAgent(ua string) bool {
	if ua == "" {
		return false
	}
	lowered := strings.ToLower(ua)
	for _, sig := range d.signatures {
		if strings.Contains(lowered, sig) {
			return true
		}
	}
	return false
}
