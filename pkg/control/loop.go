// Package control runs the periodic sample, decide, actuate and report cycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/policy"
	"github.com/itohio/goirrigate/pkg/sensor"
	"github.com/itohio/goirrigate/pkg/telemetry"
)

// DefaultPeriod is the idle delay between cycles.
const DefaultPeriod = 5 * time.Second

// Sampler reads both sensors once.
type Sampler interface {
	Read() (sensor.Reading, error)
}

// Actuator drives the pump relay.
type Actuator interface {
	Set(on bool) error
	Off() error
}

// Sender delivers a telemetry frame.
type Sender interface {
	Send(f telemetry.Frame) error
}

// Options configures a Loop.
type Options struct {
	Thresholds policy.Thresholds
	Period     time.Duration
	Address    int         // Radio peer address
	Clock      clock.Clock // Defaults to the wall clock
	Logger     zerolog.Logger
	Metrics    *Metrics // Optional
}

// Loop owns the sensor, relay and transport handles. It is driven from a
// single goroutine.
type Loop struct {
	sensors Sampler
	relay   Actuator
	sender  Sender
	encoder *telemetry.Encoder

	thresholds policy.Thresholds
	period     time.Duration
	clock      clock.Clock
	log        zerolog.Logger
	metrics    *Metrics
}

// New creates a control loop.
func New(sensors Sampler, relay Actuator, sender Sender, opts Options) *Loop {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Loop{
		sensors:    sensors,
		relay:      relay,
		sender:     sender,
		encoder:    telemetry.NewEncoder(opts.Address),
		thresholds: opts.Thresholds,
		period:     opts.Period,
		clock:      opts.Clock,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Init forces the relay off before the first cycle.
func (l *Loop) Init() error {
	if err := l.relay.Off(); err != nil {
		return &Fault{Kind: FaultActuation, Err: err}
	}
	l.metrics.pump(false)
	return nil
}

// Cycle performs one sample, decide, actuate and report pass. Any failure,
// including a panic in a collaborator, aborts the cycle with the relay off and
// no telemetry sent. The returned error is always a *Fault.
func (l *Loop) Cycle() (d policy.Decision, err error) {
	l.metrics.cycle()

	defer func() {
		if r := recover(); r != nil {
			err = &Fault{Kind: FaultPanic, Err: fmt.Errorf("%v", r)}
		}
		if err != nil {
			l.handleFault(err)
		}
	}()

	reading, err := l.sensors.Read()
	if err != nil {
		return policy.Decision{}, &Fault{Kind: FaultSensor, Err: err}
	}
	l.metrics.reading(reading)

	d = policy.Decide(reading, l.thresholds)
	l.metrics.decision(d)

	if err := l.relay.Set(d.PumpOn); err != nil {
		return d, &Fault{Kind: FaultActuation, Err: err}
	}
	l.metrics.pump(d.PumpOn)

	frame := l.encoder.Encode(reading, telemetry.StatusOf(d.PumpOn))
	if err := l.sender.Send(frame); err != nil {
		return d, &Fault{Kind: FaultTransport, Err: err}
	}
	l.metrics.sent()

	l.log.Info().
		Float64("temperature_c", reading.TemperatureC).
		Float64("moisture_pct", reading.MoisturePct).
		Stringer("reason", d.Reason).
		Bool("pump", d.PumpOn).
		Msg("cycle")
	l.log.Debug().Msgf("Sent: %s", frame.Payload)

	return d, nil
}

// handleFault logs the fault and returns the relay to its safe state.
func (l *Loop) handleFault(err error) {
	var fault *Fault
	if !errors.As(err, &fault) {
		fault = &Fault{Kind: FaultPanic, Err: err}
	}
	l.metrics.fault(fault.Kind)

	ev := l.log.Error().Err(fault.Err).Stringer("kind", fault.Kind)
	switch fault.Kind {
	case FaultSensor:
		ev.Msg("sensor read failed, skipping cycle")
	case FaultActuation:
		ev.Msg("relay actuation failed, skipping cycle")
	case FaultTransport:
		ev.Msg("telemetry send failed, skipping cycle")
	default:
		ev.Msg("cycle panicked, skipping cycle")
	}

	if offErr := l.relay.Off(); offErr != nil {
		l.log.Error().Err(offErr).Msg("failed to force relay off")
		return
	}
	l.metrics.pump(false)
}

// Run forces the relay off, then cycles until ctx is done. Faults never stop
// the loop, including a failed Init: every faulted cycle retries Off. The idle
// delay is not interruptible so ctx is only observed between cycles.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Init(); err != nil {
		l.metrics.fault(FaultActuation)
		l.log.Error().Err(err).Msg("failed to force relay off at startup, continuing")
	}
	l.log.Info().
		Float64("temperature_threshold_c", l.thresholds.TemperatureC).
		Float64("moisture_threshold_pct", l.thresholds.MoisturePct).
		Dur("period", l.period).
		Msg("control loop started")

	for {
		select {
		case <-ctx.Done():
			if err := l.Shutdown(); err != nil {
				l.log.Error().Err(err).Msg("shutdown")
			}
			return ctx.Err()
		default:
		}

		_, _ = l.Cycle()
		l.clock.Sleep(l.period)
	}
}

// Shutdown switches the pump off.
func (l *Loop) Shutdown() error {
	if err := l.relay.Off(); err != nil {
		return &Fault{Kind: FaultActuation, Err: err}
	}
	l.metrics.pump(false)
	l.log.Info().Msg("control loop stopped, pump off")
	return nil
}
