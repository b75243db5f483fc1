package httputil

import (
	"testing"
	"time"
)

func TestDelayForExponentialGrowth(t *testing.T) {
	plan := RetryPlan{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		Jitter:      0, // deterministic
	}

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for i, w := range want {
		if got := plan.DelayFor(i+1, 0); got != w {
			t.Errorf("DelayFor(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDelayForMonotoneAndCapped(t *testing.T) {
	plan := RetryPlan{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
		Jitter:      0,
	}

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		d := plan.DelayFor(attempt, 0)
		if d < prev {
			t.Errorf("DelayFor(%d) = %v decreased from %v", attempt, d, prev)
		}
		if d > plan.MaxDelay {
			t.Errorf("DelayFor(%d) = %v exceeds cap %v", attempt, d, plan.MaxDelay)
		}
		prev = d
	}
}

func TestDelayForJitterBounds(t *testing.T) {
	plan := RetryPlan{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		Jitter:      0.2,
	}

	orig := randFloat
	defer func() { randFloat = orig }()

	// rand=1 pushes the delay to the upper jitter bound.
	randFloat = func() float64 { return 1 }
	if got, want := plan.DelayFor(1, 0), 12*time.Second; got != want {
		t.Errorf("upper jitter bound = %v, want %v", got, want)
	}

	// rand=0 pulls it to the lower bound.
	randFloat = func() float64 { return 0 }
	if got, want := plan.DelayFor(1, 0), 8*time.Second; got != want {
		t.Errorf("lower jitter bound = %v, want %v", got, want)
	}

	// rand=0.5 is the midpoint: no perturbation.
	randFloat = func() float64 { return 0.5 }
	if got, want := plan.DelayFor(1, 0), 10*time.Second; got != want {
		t.Errorf("midpoint = %v, want %v", got, want)
	}
}

func TestDelayForHintOverride(t *testing.T) {
	plan := RetryPlan{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		Jitter:      0,
	}

	// A larger hint wins over the computed delay.
	if got := plan.DelayFor(1, 5*time.Second); got != 5*time.Second {
		t.Errorf("DelayFor with 5s hint = %v, want 5s", got)
	}

	// A smaller hint does not shrink the computed delay.
	if got := plan.DelayFor(3, time.Second); got != 4*time.Second {
		t.Errorf("DelayFor(3) with 1s hint = %v, want 4s", got)
	}
}

func TestDelayForFloorsAttempt(t *testing.T) {
	plan := DefaultRetryPlan()
	plan.Jitter = 0

	if got := plan.DelayFor(0, 0); got != plan.BaseDelay {
		t.Errorf("DelayFor(0) = %v, want base delay %v", got, plan.BaseDelay)
	}
}

func TestDefaultRetryPlan(t *testing.T) {
	plan := DefaultRetryPlan()
	if plan.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", plan.MaxAttempts)
	}
	if plan.BaseDelay != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", plan.BaseDelay)
	}
	if plan.Multiplier != 2 {
		t.Errorf("Multiplier = %v, want 2", plan.Multiplier)
	}
	if plan.MaxDelay != 60*time.Second {
		t.Errorf("MaxDelay = %v, want 60s", plan.MaxDelay)
	}
}
