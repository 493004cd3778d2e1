// Package metrics exposes DHT readings as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rumatoest/gpio-sensors/dht"
)

// Metrics holds the gauges and counters for all sensors, labeled by sensor name.
type Metrics struct {
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	heatIndex   *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	reads       *prometheus.CounterVec
	readErrors  *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"sensor"},
	)
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		temperature: newGauge("dht_temperature_celsius", "Air Temperature (units: degrees Celsius)"),
		humidity:    newGauge("dht_humidity_percent", "Humidity (units: % of relative Humidity)"),
		heatIndex:   newGauge("dht_heat_index_celsius", "Heat Index (units: degrees Celsius)"),
		lastSuccess: newGauge("dht_last_reading_timestamp_seconds", "Time of the last reading taken from the sensor"),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dht_reads_total",
				Help: "Number of reads",
			},
			[]string{"sensor"},
		),
		readErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dht_read_errors_total",
				Help: "Number of failed reads by cause (timeout, checksum, other)",
			},
			[]string{"sensor", "cause"},
		),
	}

	reg.MustRegister(m.temperature, m.humidity, m.heatIndex, m.lastSuccess, m.reads, m.readErrors)
	return m
}

// Observe records the result of one read of sensor.
func (m *Metrics) Observe(sensor string, reading dht.Reading, err error) {
	m.reads.WithLabelValues(sensor).Inc()
	if err != nil {
		m.readErrors.WithLabelValues(sensor, Cause(err)).Inc()
		return
	}

	m.temperature.WithLabelValues(sensor).Set(reading.Celsius())
	m.humidity.WithLabelValues(sensor).Set(reading.Humidity())
	m.heatIndex.WithLabelValues(sensor).Set(reading.HeatIndexCelsius())
	m.lastSuccess.WithLabelValues(sensor).Set(float64(reading.At.UnixNano()) / 1e9)
}

// Cause returns the error label for a read error.
func Cause(err error) string {
	switch {
	case dht.IsTimeout(err):
		return "timeout"
	case dht.IsChecksum(err):
		return "checksum"
	}
	return "other"
}
