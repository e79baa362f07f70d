package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ResolveCounter routing resolutions
	ResolveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofabric",
			Subsystem: "routing",
			Name:      "resolve_total",
			Help:      "Total number of routing resolutions.",
		}, []string{"target", "status"})

	// ResolveDurationHistogram routing resolution duration
	ResolveDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gofabric",
			Subsystem: "routing",
			Name:      "resolve_duration_seconds",
			Help:      "Bucketed histogram of routing resolution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 16),
		})

	// CacheCounter routing cache reads
	CacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofabric",
			Subsystem: "routing",
			Name:      "cache_total",
			Help:      "Total number of routing cache reads.",
		}, []string{"kind", "result"})

	// RPCCounter topology service calls
	RPCCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofabric",
			Subsystem: "topology",
			Name:      "rpc_total",
			Help:      "Total number of topology service calls.",
		}, []string{"method", "status"})

	// FaultCounter fault reports sent to the topology service
	FaultCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gofabric",
			Subsystem: "topology",
			Name:      "fault_report_total",
			Help:      "Total number of fault reports.",
		}, []string{"group"})

	// VersionGauge currently held topology version token
	VersionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gofabric",
			Subsystem: "topology",
			Name:      "version",
			Help:      "Currently held topology version token.",
		})
)
