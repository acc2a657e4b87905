package retry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietddude/resilience/internal/core/failure"
)

func TestPolicy_ScenarioA(t *testing.T) {
	p := scenarioA

	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, p.Schedule())
	for k, want := range []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second} {
		assert.Equal(t, want, p.Delay(k))
	}
}

func TestPolicy_ScenarioD_ClampsToMaxDelay(t *testing.T) {
	p := Policy{
		MaxRetries:      2,
		InitialDelay:    10 * time.Second,
		MaxDelay:        15 * time.Second,
		ExponentialBase: 5.0,
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, []time.Duration{10 * time.Second, 15 * time.Second}, p.Schedule())
}

func TestPolicy_EnvelopeMatchesFormula(t *testing.T) {
	policies := []Policy{
		scenarioA,
		{MaxRetries: 10, InitialDelay: 250 * time.Millisecond, MaxDelay: 30 * time.Second, ExponentialBase: 1.5},
		{MaxRetries: 10, InitialDelay: time.Second, MaxDelay: time.Second, ExponentialBase: 3},
	}

	for i, p := range policies {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			prev := time.Duration(0)
			for k := 0; k < 64; k++ {
				got := p.Envelope(k)
				assert.LessOrEqual(t, got, p.MaxDelay)
				assert.GreaterOrEqual(t, got, prev, "envelope must not decrease at k=%d", k)
				prev = got
			}
		})
	}
}

func TestPolicy_EnvelopeHugeAttemptDoesNotOverflow(t *testing.T) {
	p := scenarioA
	assert.Equal(t, p.MaxDelay, p.Envelope(10_000))
}

func TestPolicy_JitterBounds(t *testing.T) {
	p := scenarioA
	p.Jitter = true

	assert.Equal(t, 500*time.Millisecond, p.DelayWith(0, fixedRand(0)))
	assert.Equal(t, 1*time.Second, p.DelayWith(0, fixedRand(0.5)))
	assert.Equal(t, 3*time.Second, p.DelayWith(1, fixedRand(1)))

	for k := 0; k < 8; k++ {
		d := p.Delay(k)
		env := p.Envelope(k)
		assert.GreaterOrEqual(t, d, time.Duration(float64(env)*p.JitterLow))
		assert.LessOrEqual(t, d, time.Duration(float64(env)*p.JitterHigh))
	}
}

func TestPolicy_JitterMayExceedMaxDelay(t *testing.T) {
	p := scenarioA
	p.Jitter = true
	p.MaxDelay = 2 * time.Second

	assert.Equal(t, 2*time.Second, p.Envelope(5))
	assert.Greater(t, p.DelayWith(5, fixedRand(0.9)), p.MaxDelay)
}

func TestPolicy_DelayWithNilRand(t *testing.T) {
	p := DefaultPolicy()
	d := p.DelayWith(0, nil)
	assert.GreaterOrEqual(t, d, 500*time.Millisecond)
	assert.LessOrEqual(t, d, 1500*time.Millisecond)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	require.NoError(t, p.Validate())
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 4, p.Attempts())
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 60*time.Second, p.MaxDelay)
	assert.Equal(t, 2.0, p.ExponentialBase)
	assert.True(t, p.Jitter)
	assert.Equal(t, 0.5, p.JitterLow)
	assert.Equal(t, 1.5, p.JitterHigh)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
		ok     bool
	}{
		{"default", func(p *Policy) {}, true},
		{"zero retries", func(p *Policy) { p.MaxRetries = 0 }, true},
		{"negative retries", func(p *Policy) { p.MaxRetries = -1 }, false},
		{"zero initial", func(p *Policy) { p.InitialDelay = 0 }, false},
		{"max below initial", func(p *Policy) { p.MaxDelay = p.InitialDelay / 2 }, false},
		{"max equals initial", func(p *Policy) { p.MaxDelay = p.InitialDelay }, true},
		{"base one", func(p *Policy) { p.ExponentialBase = 1 }, false},
		{"zero jitter low", func(p *Policy) { p.JitterLow = 0 }, false},
		{"inverted jitter", func(p *Policy) { p.JitterLow, p.JitterHigh = 2, 1 }, false},
		{"equal jitter", func(p *Policy) { p.JitterLow, p.JitterHigh = 1, 1 }, true},
		{"no range without jitter", func(p *Policy) { p.Jitter, p.JitterLow, p.JitterHigh = false, 0, 0 }, true},
		{"inverted range without jitter", func(p *Policy) { p.Jitter, p.JitterLow, p.JitterHigh = false, 2, 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, failure.Configuration)
		})
	}
}
