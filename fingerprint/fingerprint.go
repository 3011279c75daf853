// Package fingerprint derives a stable device fingerprint from request
// headers.
//
// The fingerprint is a deterministic, unsalted hash over a fixed ordered set
// of header values. It is useful for coarse correlation across login attempts
// and nothing more: header-only entropy is low, trivially spoofable, and must
// never be treated as proof of device identity.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const delimiter = "|"

// Signals is the fixed set of request header values the fingerprint covers,
// hashed in field order.
type Signals struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	Accept         string
}

// FromRequest extracts [Signals] from an HTTP request.
func FromRequest(r *http.Request) Signals {
	if r == nil {
		return Signals{}
	}
	return Signals{
		UserAgent:      r.Header.Get("User-Agent"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		AcceptEncoding: r.Header.Get("Accept-Encoding"),
		Accept:         r.Header.Get("Accept"),
	}
}

// Generate hashes the signals into a hex-encoded fingerprint. Identical
// signals always produce identical output; changing any field changes the
// output with overwhelming probability.
func Generate(s Signals) string {
	canonical := strings.Join([]string{
		s.UserAgent,
		s.AcceptLanguage,
		s.AcceptEncoding,
		s.Accept,
	}, delimiter)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// FromHTTPRequest is shorthand for Generate(FromRequest(r)).
func FromHTTPRequest(r *http.Request) string {
	return Generate(FromRequest(r))
}
