package httputil

import "time"

// resetBuffer is added when waiting for a quota window to reset, so the
// first request after the wait lands inside the new window.
const resetBuffer = time.Second

// RateMeta carries quota metadata extracted from one response. The zero
// value means the response carried no rate information.
type RateMeta struct {
	Remaining    int           // requests left in the current window
	HasRemaining bool          // whether Remaining was present at all
	ResetAt      time.Time     // when the window resets (zero if unknown)
	RetryAfter   time.Duration // explicit retry-after hint (0 if absent)
}

// RateLimiter tracks quota state for a single provider and decides when to
// pause before dispatching. One limiter belongs to exactly one client; it is
// never shared across providers.
//
// State moves in one direction: once a quota header has been observed the
// limiter never forgets it — responses without metadata leave prior state
// untouched.
type RateLimiter struct {
	remaining int
	known     bool
	resetAt   time.Time
	failures  int

	lowWater int           // proactive throttling threshold (0 disables)
	spread   time.Duration // fixed delay applied at or below lowWater
	minGap   time.Duration // minimum interval between consecutive requests
	lastAt   time.Time

	now func() time.Time
}

// NewRateLimiter creates a limiter. lowWater is the remaining-quota level at
// which requests are spread out by the fixed spread delay (0 disables
// proactive throttling); minGap enforces a minimum interval between
// consecutive requests (0 disables).
func NewRateLimiter(lowWater int, spread, minGap time.Duration) *RateLimiter {
	return &RateLimiter{
		lowWater: lowWater,
		spread:   spread,
		minGap:   minGap,
		now:      time.Now,
	}
}

// ShouldPause returns how long the caller must wait before dispatching the
// next request, or 0 when no pause is needed.
//
// An exhausted known quota pauses until the reset time (plus a small
// buffer). A known quota at or below the low-water threshold yields the
// fixed spread delay. When the quota is unknown only the minimum request
// gap applies.
func (l *RateLimiter) ShouldPause() time.Duration {
	now := l.now()

	if l.known && l.remaining == 0 && l.resetAt.After(now) {
		return l.resetAt.Sub(now) + resetBuffer
	}
	if l.known && l.lowWater > 0 && l.remaining <= l.lowWater {
		return l.spread
	}
	if l.minGap > 0 && !l.lastAt.IsZero() {
		if elapsed := now.Sub(l.lastAt); elapsed < l.minGap {
			return l.minGap - elapsed
		}
	}
	return 0
}

// Observe records the outcome of one attempt. It is called after every
// attempt, success or failure. Metadata absence never resets known quota
// state to unknown.
func (l *RateLimiter) Observe(meta RateMeta, ok bool) {
	l.lastAt = l.now()

	if ok {
		l.failures = 0
	} else {
		l.failures++
	}

	if meta.HasRemaining {
		l.remaining = meta.Remaining
		l.known = true
	}
	if !meta.ResetAt.IsZero() {
		l.resetAt = meta.ResetAt
	}
}

// ConsecutiveFailures returns the number of failed attempts since the last
// success.
func (l *RateLimiter) ConsecutiveFailures() int { return l.failures }

// Remaining reports the last observed remaining quota and whether any quota
// signal has been seen yet.
func (l *RateLimiter) Remaining() (int, bool) { return l.remaining, l.known }
