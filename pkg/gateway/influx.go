package gateway

import (
	"context"
	"fmt"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/itohio/goirrigate/pkg/config"
)

// InfluxSink stores every message as a point tagged with the sender address.
type InfluxSink struct {
	client      influxdb2.Client
	write       api.WriteAPIBlocking
	measurement string
}

var _ Sink = (*InfluxSink)(nil)

// NewInfluxSink connects to InfluxDB v2.
func NewInfluxSink(cfg config.InfluxConfig) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete: url, token, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	s := newInfluxSink(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement)
	s.client = client
	return s, nil
}

func newInfluxSink(w api.WriteAPIBlocking, measurement string) *InfluxSink {
	if measurement == "" {
		measurement = "irrigation"
	}
	return &InfluxSink{write: w, measurement: measurement}
}

func (s *InfluxSink) Name() string { return "influx" }

// Write stores m synchronously.
func (s *InfluxSink) Write(ctx context.Context, m Message) error {
	if err := s.write.WritePoint(ctx, s.point(m)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (s *InfluxSink) point(m Message) *write.Point {
	return influxdb2.NewPoint(s.measurement,
		map[string]string{
			"address": strconv.Itoa(m.Address),
		},
		map[string]interface{}{
			"temperature_c": m.TemperatureC,
			"moisture_pct":  m.MoisturePct,
			"pump":          m.Pump.On(),
			"rssi":          int64(m.RSSI),
			"snr":           int64(m.SNR),
		},
		m.ReceivedAt,
	)
}

// Close releases the client.
func (s *InfluxSink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
