// Package metric holds the Prometheus instrumentation of the daemon.
//
// All collectors live on a private registry so tests can build as many
// Metrics values as they like. Methods are safe on a nil *Metrics, which
// disables instrumentation.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thermo"

// Metrics contains all collectors.
type Metrics struct {
	registry *prometheus.Registry

	PollCycles        prometheus.Counter
	PollCycleDuration prometheus.Histogram
	BusTransactions   *prometheus.CounterVec
	SensorExhausted   *prometheus.CounterVec
	SensorTemperature *prometheus.GaugeVec
	SensorUp          *prometheus.GaugeVec
	IndicatorLevel    prometheus.Gauge
	IndicatorWrites   *prometheus.CounterVec
	WriterErrors      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "cycles_total",
			Help:      "Completed poll cycles",
		}),

		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		BusTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "transactions_total",
			Help:      "Register read transactions by sensor and result class",
		}, []string{"sensor", "result"}),

		SensorExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "exhausted_total",
			Help:      "Polls that exhausted every attempt",
		}, []string{"sensor"}),

		SensorTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "temperature_celsius",
			Help:      "Last valid temperature",
		}, []string{"sensor"}),

		SensorUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "up",
			Help:      "1 if the last poll produced a value, 0 otherwise",
		}, []string{"sensor"}),

		IndicatorLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indicator",
			Name:      "level",
			Help:      "Current logical indicator level (1=on)",
		}),

		IndicatorWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indicator",
			Name:      "writes_total",
			Help:      "Indicator writes by source and result",
		}, []string{"source", "result"}),

		WriterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "errors_total",
			Help:      "Cycle delivery failures by target",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PollCycles,
		m.PollCycleDuration,
		m.BusTransactions,
		m.SensorExhausted,
		m.SensorTemperature,
		m.SensorUp,
		m.IndicatorLevel,
		m.IndicatorWrites,
		m.WriterErrors,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveAttempt counts one bus transaction.
func (m *Metrics) ObserveAttempt(sensor, result string) {
	if m == nil {
		return
	}
	m.BusTransactions.WithLabelValues(sensor, result).Inc()
}

// ObserveSensor records the outcome of one sensor poll.
func (m *Metrics) ObserveSensor(sensor string, value float64, ok bool) {
	if m == nil {
		return
	}
	if !ok {
		m.SensorExhausted.WithLabelValues(sensor).Inc()
		m.SensorUp.WithLabelValues(sensor).Set(0)
		return
	}
	m.SensorUp.WithLabelValues(sensor).Set(1)
	m.SensorTemperature.WithLabelValues(sensor).Set(value)
}

// ObserveCycle records one completed cycle.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.PollCycles.Inc()
	m.PollCycleDuration.Observe(d.Seconds())
}

// ObserveIndicator records an indicator write.
func (m *Metrics) ObserveIndicator(source string, on bool, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IndicatorWrites.WithLabelValues(source, "error").Inc()
		return
	}
	m.IndicatorWrites.WithLabelValues(source, "ok").Inc()
	if on {
		m.IndicatorLevel.Set(1)
	} else {
		m.IndicatorLevel.Set(0)
	}
}

// ObserveWriterError counts a failed cycle delivery.
func (m *Metrics) ObserveWriterError(target string) {
	if m == nil {
		return
	}
	m.WriterErrors.WithLabelValues(target).Inc()
}
