// Package metrics exposes ChemistFlow's Prometheus instrumentation
// (SPEC_FULL.md's additive "Metrics" ambient-stack item): cache hit/miss
// counters per tier and kind, upstream call latency histograms, a
// fan-out size histogram, and a peer health gauge.
//
// Grounded on Cizor-spacetime-constellation-sim's
// internal/observability.NewNBICollector: a Registry struct built
// against a prometheus.Registerer, with register* helpers that tolerate
// re-registering the same collector (useful in tests that build several
// servers against the shared default registry).
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric ChemistFlow exposes on /metrics.
type Registry struct {
	Cache        *CacheMetrics
	UpstreamCall *prometheus.HistogramVec
	FanOutSize   prometheus.Histogram
	PeerHealthy  *prometheus.GaugeVec
}

// CacheMetrics tracks per-tier, per-kind hit/miss counts.
type CacheMetrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// New registers every ChemistFlow metric against reg, defaulting to the
// global Prometheus registry when reg is nil.
func New(reg prometheus.Registerer) (*Registry, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	hits, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chemistflow",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits by tier and object kind.",
	}, []string{"kind", "tier"}), "chemistflow_cache_hits_total")
	if err != nil {
		return nil, err
	}

	misses, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chemistflow",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses by tier and object kind.",
	}, []string{"kind", "tier"}), "chemistflow_cache_misses_total")
	if err != nil {
		return nil, err
	}

	upstreamCall, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chemistflow",
		Subsystem: "upstream",
		Name:      "call_duration_seconds",
		Help:      "Latency of Preprocessor/Engine calls by upstream and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream", "outcome"}), "chemistflow_upstream_call_duration_seconds")
	if err != nil {
		return nil, err
	}

	fanOutSize, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chemistflow",
		Subsystem: "reaktoro",
		Name:      "fanout_size",
		Help:      "Number of Engine calls dispatched per compute request.",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
	}), "chemistflow_reaktoro_fanout_size")
	if err != nil {
		return nil, err
	}

	peerHealthy, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chemistflow",
		Subsystem: "cluster",
		Name:      "peer_healthy",
		Help:      "Set to 0 when a gossip peer is marked unhealthy; not reset on recovery.",
	}, []string{"peer"}), "chemistflow_cluster_peer_healthy")
	if err != nil {
		return nil, err
	}

	return &Registry{
		Cache:        &CacheMetrics{hits: hits, misses: misses},
		UpstreamCall: upstreamCall,
		FanOutSize:   fanOutSize,
		PeerHealthy:  peerHealthy,
	}, nil
}

// ObserveUpstreamCall records one upstream call's latency under the given
// name (e.g. "preprocessor", "engine") and outcome ("ok"/"error"),
// feeding the UpstreamCall histogram. Matches remote.Config.Observe's
// signature so a *Registry can be wired in directly. Safe to call on a
// nil *Registry.
func (r *Registry) ObserveUpstreamCall(name, outcome string, d time.Duration) {
	if r == nil || r.UpstreamCall == nil {
		return
	}
	r.UpstreamCall.WithLabelValues(name, outcome).Observe(d.Seconds())
}

// ObserveHit records a cache hit. Safe to call on a nil *CacheMetrics so
// callers that construct a facade without wiring metrics get a no-op.
func (m *CacheMetrics) ObserveHit(kind, tier string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(kind, tier).Inc()
}

// ObserveMiss records a cache miss.
func (m *CacheMetrics) ObserveMiss(kind, tier string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(kind, tier).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
