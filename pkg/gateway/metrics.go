package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "irrigate_gateway"

// Metrics exports receiver statistics. A nil *Metrics records nothing.
type Metrics struct {
	Received    *prometheus.CounterVec
	ParseErrors prometheus.Counter
	SinkErrors  *prometheus.CounterVec
	RSSI        *prometheus.GaugeVec
	SNR         *prometheus.GaugeVec
	Temperature *prometheus.GaugeVec
	Moisture    *prometheus.GaugeVec
	Pump        *prometheus.GaugeVec
}

// NewMetrics registers gateway metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	byAddress := []string{"address"}
	return &Metrics{
		Received: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Telemetry messages decoded.",
		}, byAddress),
		ParseErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Receptions that failed to decode.",
		}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sink writes.",
		}, []string{"sink"}),
		RSSI: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rssi_dbm",
			Help:      "Signal strength of the last reception.",
		}, byAddress),
		SNR: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snr_db",
			Help:      "Signal to noise ratio of the last reception.",
		}, byAddress),
		Temperature: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last reported temperature.",
		}, byAddress),
		Moisture: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "soil_moisture_percent",
			Help:      "Last reported soil moisture.",
		}, byAddress),
		Pump: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_on",
			Help:      "Last reported pump state.",
		}, byAddress),
	}
}

func (m *Metrics) received(msg Message) {
	if m == nil {
		return
	}
	addr := strconv.Itoa(msg.Address)
	m.Received.WithLabelValues(addr).Inc()
	m.RSSI.WithLabelValues(addr).Set(float64(msg.RSSI))
	m.SNR.WithLabelValues(addr).Set(float64(msg.SNR))
	m.Temperature.WithLabelValues(addr).Set(msg.TemperatureC)
	m.Moisture.WithLabelValues(addr).Set(msg.MoisturePct)
	pump := 0.0
	if msg.Pump.On() {
		pump = 1
	}
	m.Pump.WithLabelValues(addr).Set(pump)
}

func (m *Metrics) parseError() {
	if m == nil {
		return
	}
	m.ParseErrors.Inc()
}

func (m *Metrics) sinkError(name string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(name).Inc()
}
