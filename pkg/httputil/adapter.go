package httputil

import (
	"net/http"
	"strconv"
	"time"
)

// Reason classifies the outcome of one network attempt.
type Reason int

const (
	// ReasonNone marks a successful attempt.
	ReasonNone Reason = iota

	// Retryable failures.
	ReasonTimeout     // request deadline exceeded
	ReasonConnection  // transport-level failure
	ReasonServerError // 5xx status
	ReasonRateLimited // 429 (or provider-specific equivalent)

	// Fatal failures.
	ReasonNotFound    // 404 status
	ReasonClientError // other non-429 4xx status
	ReasonMalformed   // payload failed structural validation
)

// Retryable reports whether the reason warrants another attempt.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonTimeout, ReasonConnection, ReasonServerError, ReasonRateLimited:
		return true
	}
	return false
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonTimeout:
		return "timeout"
	case ReasonConnection:
		return "connection error"
	case ReasonServerError:
		return "server error"
	case ReasonRateLimited:
		return "rate limited"
	case ReasonNotFound:
		return "not found"
	case ReasonClientError:
		return "client error"
	case ReasonMalformed:
		return "malformed response"
	}
	return "unknown"
}

// Adapter supplies the provider-specific pieces of response handling: which
// headers carry quota metadata and how status codes map to outcome reasons.
// Each provider package has one implementation; the core never hard-codes
// provider conventions.
type Adapter interface {
	// RateMeta extracts quota metadata from response headers.
	// Return the zero value when the response carries none.
	RateMeta(h http.Header) RateMeta

	// Classify maps an HTTP status code to an outcome reason.
	// Return ReasonNone for success statuses.
	Classify(status int) Reason
}

// DefaultAdapter handles the common conventions: X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds) for quota, Retry-After (delta seconds or
// HTTP date) for hints, and the usual status code taxonomy.
type DefaultAdapter struct{}

// RateMeta extracts X-RateLimit-* and Retry-After headers.
func (DefaultAdapter) RateMeta(h http.Header) RateMeta {
	var meta RateMeta

	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.Remaining = n
			meta.HasRemaining = true
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.ResetAt = time.Unix(sec, 0)
		}
	}
	meta.RetryAfter = ParseRetryAfter(h.Get("Retry-After"))

	return meta
}

// Classify maps status codes: 2xx ok, 404 not found, 429 rate limited,
// 5xx server error, remaining 4xx client error.
func (DefaultAdapter) Classify(status int) Reason {
	switch {
	case status >= 200 && status < 300:
		return ReasonNone
	case status == http.StatusNotFound:
		return ReasonNotFound
	case status == http.StatusTooManyRequests:
		return ReasonRateLimited
	case status >= 500:
		return ReasonServerError
	default:
		return ReasonClientError
	}
}

// ParseRetryAfter parses a Retry-After header value, which is either a
// number of seconds or an HTTP date. Returns 0 for empty or unparseable
// values, and never returns a negative duration.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if sec, err := strconv.Atoi(v); err == nil {
		if sec < 0 {
			return 0
		}
		return time.Duration(sec) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Ensure DefaultAdapter implements Adapter.
var _ Adapter = DefaultAdapter{}
