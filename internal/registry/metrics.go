package registry

import "github.com/prometheus/client_golang/prometheus"

const prometheusNamespace = "tpmon"

var (
	readingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "readings_total",
			Help:      "sensor readings merged into the room registry",
		})

	roomCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      "rooms",
			Help:      "rooms currently tracked",
		})

	roomTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      "room_temperature_celsius",
			Help:      "last temperature reported for a room",
		},
		[]string{"room", "address"})

	roomHumidity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      "room_humidity_percent",
			Help:      "last relative humidity reported for a room",
		},
		[]string{"room", "address"})

	lastReading = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Name:      "room_last_reading_timestamp_seconds",
			Help:      "unix time of the last reading merged for a room",
		},
		[]string{"room", "address"})
)

func init() {
	prometheus.MustRegister(readingsTotal, roomCount, roomTemperature, roomHumidity, lastReading)
}
