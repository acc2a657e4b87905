// Package retry runs operations under an exponential backoff policy.
//
// Three entry points share one algorithm: the blocking executors (Do, Run, Wrap), the
// context-aware executors (DoContext, RunContext, WrapContext) and the caller-driven Scope.
package retry

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/resilience/internal/core/failure"
)

// Policy defines how many attempts are made and how long to wait between them.
// A Policy is a value and is never mutated by an execution.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64

	Jitter     bool
	JitterLow  float64
	JitterHigh float64
}

// DefaultPolicy returns the compiled-in defaults: 3 retries, 1s doubling up to 60s,
// jitter in [0.5, 1.5].
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
		JitterLow:       0.5,
		JitterHigh:      1.5,
	}
}

// Validate reports the first constraint the policy violates. The jitter range is only
// checked when jitter is enabled.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return failure.New(failure.Configuration, "max_retries must be >= 0, got %d", p.MaxRetries)
	case p.InitialDelay <= 0:
		return failure.New(failure.Configuration, "initial_delay must be > 0, got %s", p.InitialDelay)
	case p.MaxDelay < p.InitialDelay:
		return failure.New(failure.Configuration,
			"max_delay %s must be >= initial_delay %s", p.MaxDelay, p.InitialDelay)
	case !(p.ExponentialBase > 1):
		return failure.New(failure.Configuration,
			"exponential_base must be > 1, got %g", p.ExponentialBase)
	case !p.Jitter:
		return nil
	case !(p.JitterLow > 0) || !(p.JitterHigh > 0):
		return failure.New(failure.Configuration,
			"jitter_range values must be > 0, got (%g, %g)", p.JitterLow, p.JitterHigh)
	case p.JitterLow > p.JitterHigh:
		return failure.New(failure.Configuration,
			"jitter_range low %g must be <= high %g", p.JitterLow, p.JitterHigh)
	}
	return nil
}

// Envelope returns the unjittered wait before retry number attempt (0-indexed):
// min(InitialDelay * ExponentialBase^attempt, MaxDelay).
func (p Policy) Envelope(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.ExponentialBase, float64(attempt))
	if math.IsNaN(d) || d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Rand is a source of uniform samples in [0, 1).
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Delay returns the wait before retry number attempt, jittered with the package source.
func (p Policy) Delay(attempt int) time.Duration {
	return p.DelayWith(attempt, globalRand{})
}

// DelayWith is Delay with an explicit randomness source. The jitter factor multiplies the
// clamped envelope, so a factor above 1 can yield a wait longer than MaxDelay.
func (p Policy) DelayWith(attempt int, r Rand) time.Duration {
	d := p.Envelope(attempt)
	if !p.Jitter {
		return d
	}
	if r == nil {
		r = globalRand{}
	}
	factor := p.JitterLow + r.Float64()*(p.JitterHigh-p.JitterLow)
	j := float64(d) * factor
	if j >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(j)
}

// Schedule lists the unjittered waits for every retry the policy allows.
func (p Policy) Schedule() []time.Duration {
	out := make([]time.Duration, 0, max(p.MaxRetries, 0))
	for k := 0; k < p.MaxRetries; k++ {
		out = append(out, p.Envelope(k))
	}
	return out
}

// Attempts is the total number of invocations the policy allows.
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}
