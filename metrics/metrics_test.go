package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg).(*PrometheusRecorder)

	rec.IncCounter("payment_created", map[string]string{"provider": "paypal"})
	rec.IncCounter("payment_created", map[string]string{"provider": "paypal"})
	rec.IncCounter("payment_created", map[string]string{"provider": "stripe"})

	assert.Equal(t, float64(2), testutil.ToFloat64(rec.counters.WithLabelValues("payment_created", "paypal")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.counters.WithLabelValues("payment_created", "stripe")))

	rec.ObserveLatency("create_payment", 150*time.Millisecond, map[string]string{"provider": "paypal"})
	require.Equal(t, 1, testutil.CollectAndCount(rec.histogram))
}

func TestLatencyBucketsCoverProviderCalls(t *testing.T) {
	require.True(t, len(latencyBuckets) > 0)
	for i := 1; i < len(latencyBuckets); i++ {
		require.Less(t, latencyBuckets[i-1], latencyBuckets[i])
	}
	// A typical provider round trip lands inside the range, not in the
	// catch-all +Inf bucket.
	assert.LessOrEqual(t, latencyBuckets[0], 0.05)
	assert.GreaterOrEqual(t, latencyBuckets[len(latencyBuckets)-1], 30.0)
}

func TestNoopRecorderIsSafe(t *testing.T) {
	var rec Recorder = NoopRecorder{}

	assert.NotPanics(t, func() {
		rec.IncCounter("payment_created", nil)
		rec.ObserveLatency("create_payment", time.Second, nil)
	})
}
