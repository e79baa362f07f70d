package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.Register(ResolveCounter)
	prometheus.Register(ResolveDurationHistogram)
	prometheus.Register(CacheCounter)
	prometheus.Register(RPCCounter)
	prometheus.Register(FaultCounter)
	prometheus.Register(VersionGauge)
}
