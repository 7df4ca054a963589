package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	require.NotNil(t, m.Cache)
	require.NotNil(t, m.UpstreamCall)
	require.NotNil(t, m.FanOutSize)
	require.NotNil(t, m.PeerHealthy)
}

func TestCacheMetricsNilReceiverIsNoOp(t *testing.T) {
	var m *CacheMetrics
	require.NotPanics(t, func() {
		m.ObserveHit("reaction", "local")
		m.ObserveMiss("reaction", "distributed")
	})
}

func TestRegistryNilReceiverIsNoOp(t *testing.T) {
	var r *Registry
	require.NotPanics(t, func() {
		r.ObserveUpstreamCall("preprocessor", "ok", 10*time.Millisecond)
	})
}

func TestObserveUpstreamCallRecordsIntoHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveUpstreamCall("preprocessor", "ok", 10*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "chemistflow_upstream_call_duration_seconds" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			require.EqualValues(t, 1, f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	require.True(t, found, "expected chemistflow_upstream_call_duration_seconds to be registered")
}

func TestNewOnSameRegistryReturnsExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.NoError(t, err, "registering the same metrics against the same registry twice should reuse, not fail")
}
