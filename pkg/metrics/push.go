package metrics

import (
	"time"

	"github.com/fagongzi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Cfg prometheus pushgateway configuration
type Cfg struct {
	Job      string        `json:"job"`
	Address  string        `json:"address"`
	Interval time.Duration `json:"interval"`
}

// Push starts pushing routing metrics to the pushgateway in the
// background. Disabled when no address or interval is configured.
func Push(cfg *Cfg) {
	if cfg.Interval == 0 || cfg.Address == "" {
		log.Infof("disable prometheus push client")
		return
	}

	log.Info("start prometheus push client")
	go func() {
		for {
			err := push.FromGatherer(cfg.Job,
				push.HostnameGroupingKey(),
				cfg.Address,
				prometheus.DefaultGatherer)
			if err != nil {
				log.Errorf("push metrics to prometheus pushgateway failed with %+v", err)
			}

			time.Sleep(cfg.Interval)
		}
	}()
}
