package httputil

import (
	"math"
	"math/rand/v2"
	"time"
)

// randFloat is the jitter source; tests replace it for determinism.
var randFloat = rand.Float64

// RetryPlan configures retry behavior for a client. It is immutable for the
// lifetime of the client that holds it.
type RetryPlan struct {
	MaxAttempts int           // total attempts including the first (min 1)
	BaseDelay   time.Duration // delay before the first retry
	Multiplier  float64       // growth factor per retry
	MaxDelay    time.Duration // cap on the computed delay
	Jitter      float64       // fraction of the delay perturbed, e.g. 0.2 for ±20%
}

// DefaultRetryPlan returns the plan used when the configuration does not
// override it: 3 attempts, 1s base delay doubling per retry, 60s cap,
// ±20% jitter.
func DefaultRetryPlan() RetryPlan {
	return RetryPlan{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		Jitter:      0.2,
	}
}

// DelayFor computes the delay before the retry following failed attempt
// number attempt (1 = the first retry). The exponential delay is capped at
// MaxDelay, then perturbed by uniform jitter and floored at zero. A hint
// (e.g. a Retry-After header) overrides the computed delay when larger.
func (p RetryPlan) DelayFor(attempt int, hint time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	d = math.Min(d, float64(p.MaxDelay))

	if p.Jitter > 0 {
		d *= 1 + p.Jitter*(2*randFloat()-1)
	}
	if d < 0 {
		d = 0
	}

	delay := time.Duration(d)
	if hint > delay {
		return hint
	}
	return delay
}
