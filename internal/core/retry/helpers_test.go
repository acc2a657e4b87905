package retry

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

// scenarioA is 3 retries with 1s doubling and no jitter.
var scenarioA = Policy{
	MaxRetries:      3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        60 * time.Second,
	ExponentialBase: 2.0,
	JitterLow:       0.5,
	JitterHigh:      1.5,
}

func bubble(t *testing.T, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, fn)
	})
}

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

type recorder struct {
	mu        sync.Mutex
	retrying  []Event
	callbacks []Event
	exhausted []Event
	rejected  []Event
	canceled  []Event
}

func (r *recorder) Retrying(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrying = append(r.retrying, e)
}

func (r *recorder) CallbackFailed(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, e)
}

func (r *recorder) Exhausted(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhausted = append(r.exhausted, e)
}

func (r *recorder) Rejected(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, e)
}

func (r *recorder) Canceled(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, e)
}

func (r *recorder) delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.retrying))
	for i, e := range r.retrying {
		out[i] = e.Delay
	}
	return out
}

type callbackCall struct {
	err     error
	attempt int
}

type callbackLog struct {
	mu    sync.Mutex
	calls []callbackCall
}

func (c *callbackLog) fn(err error, attempt int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, callbackCall{err: err, attempt: attempt})
	return nil
}
