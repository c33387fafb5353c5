//go:build !tinygo

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/itohio/goirrigate/pkg/policy"
	"github.com/itohio/goirrigate/pkg/sensor"
)

const namespace = "irrigate"

// Metrics exports loop state to Prometheus. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Cycles      prometheus.Counter
	Faults      *prometheus.CounterVec
	Decisions   *prometheus.CounterVec
	FramesSent  prometheus.Counter
	Pump        prometheus.Gauge
	Temperature prometheus.Gauge
	Moisture    prometheus.Gauge
}

// NewMetrics registers the controller metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Control cycles started.",
		}),
		Faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Aborted cycles by fault kind.",
		}, []string{"kind"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Pump decisions by reason.",
		}, []string{"reason"}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Telemetry frames written to the radio.",
		}),
		Pump: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_on",
			Help:      "1 while the pump relay is energized.",
		}),
		Temperature: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last temperature reading.",
		}),
		Moisture: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "soil_moisture_percent",
			Help:      "Last soil moisture reading.",
		}),
	}
}

func (m *Metrics) cycle() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}

func (m *Metrics) reading(r sensor.Reading) {
	if m == nil {
		return
	}
	m.Temperature.Set(r.TemperatureC)
	m.Moisture.Set(r.MoisturePct)
}

func (m *Metrics) decision(d policy.Decision) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(d.Reason.String()).Inc()
}

func (m *Metrics) pump(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Pump.Set(1)
	} else {
		m.Pump.Set(0)
	}
}

func (m *Metrics) sent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

func (m *Metrics) fault(kind FaultKind) {
	if m == nil {
		return
	}
	m.Faults.WithLabelValues(kind.String()).Inc()
}
