package actuator

import "github.com/prometheus/client_golang/prometheus"

const prometheusNamespace = "tpmon"

var dispatchRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "dispatch_requests_total",
		Help:      "duty-cycle commands sent to heating actuators",
	},
	[]string{"result"})

func init() {
	prometheus.MustRegister(dispatchRequests)
}
