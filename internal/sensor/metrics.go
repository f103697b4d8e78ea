package sensor

import "github.com/prometheus/client_golang/prometheus"

const prometheusNamespace = "tpmon"

var readingsDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "readings_dropped_total",
		Help:      "notification payloads rejected by the decoder",
	})

func init() {
	prometheus.MustRegister(readingsDropped)
}
