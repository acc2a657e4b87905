package metrics

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/retry"
)

func TestRetryMetrics_CountsExecution(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewRetryMetrics(reg)

		p := retry.Policy{
			MaxRetries:      2,
			InitialDelay:    time.Second,
			MaxDelay:        time.Minute,
			ExponentialBase: 2,
			JitterLow:       1,
			JitterHigh:      1,
		}

		_, err := retry.Do(func() (int, error) {
			return 0, failure.New(failure.APITimeout, "slow")
		}, retry.WithPolicy(p), retry.WithObserver(m), retry.WithName("quotes"),
			retry.WithOnRetry(func(error, int) error { return errors.New("cb") }))
		require.Error(t, err)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.RetriesTotal.WithLabelValues("quotes", "api_timeout")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ExhaustedTotal.WithLabelValues("quotes", "api_timeout")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.CallbackErrorsTotal.WithLabelValues("quotes")))
		assert.Equal(t, 1, testutil.CollectAndCount(m.BackoffSeconds))
	})
}

func TestRetryMetrics_Rejected(t *testing.T) {
	m := NewRetryMetrics(nil)

	err := retry.Run(func() error {
		return errors.New("plain")
	}, retry.WithRetryableKinds(failure.API), retry.WithObserver(m), retry.WithName("parse"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTotal.WithLabelValues("parse", "unclassified")))
}

func TestNewRetryMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRetryMetrics(reg)
	m.CanceledTotal.WithLabelValues("x").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["resilience_canceled_total"])
	assert.Panics(t, func() { NewRetryMetrics(reg) })
}
