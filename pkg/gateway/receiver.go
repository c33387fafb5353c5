package gateway

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Receiver reads module output line by line and dispatches receptions.
type Receiver struct {
	sinks   []Sink
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewReceiver creates a receiver writing to sinks in order. metrics may be nil.
func NewReceiver(log zerolog.Logger, metrics *Metrics, sinks ...Sink) *Receiver {
	return &Receiver{
		sinks:   sinks,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Run consumes r until EOF, a read error or ctx cancellation. Context is
// checked between lines; close r to interrupt a blocked read.
func (r *Receiver) Run(ctx context.Context, rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !scanner.Scan() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.HandleLine(ctx, line)
	}
}

// HandleLine decodes a single line. Module responses other than +RCV (such
// as +OK or +ERR=n) are logged and ignored.
func (r *Receiver) HandleLine(ctx context.Context, line string) {
	if !strings.HasPrefix(line, "+RCV=") {
		r.log.Debug().Str("line", line).Msg("module response")
		return
	}

	m, err := Decode(line, r.now())
	if err != nil {
		r.metrics.parseError()
		r.log.Warn().Err(err).Str("line", line).Msg("failed to parse reception")
		return
	}

	r.metrics.received(m)
	r.log.Info().
		Int("address", m.Address).
		Float64("temperature_c", m.TemperatureC).
		Float64("moisture_pct", m.MoisturePct).
		Str("pump", string(m.Pump)).
		Int("rssi", m.RSSI).
		Int("snr", m.SNR).
		Msg("received")

	r.Dispatch(ctx, m)
}

// Dispatch writes m to every sink. A failing sink does not stop the others.
func (r *Receiver) Dispatch(ctx context.Context, m Message) {
	for _, s := range r.sinks {
		if err := s.Write(ctx, m); err != nil {
			r.metrics.sinkError(s.Name())
			r.log.Error().Err(err).Str("sink", s.Name()).Msg("sink write failed")
		}
	}
}
