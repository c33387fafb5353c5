package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/goirrigate/pkg/sensor"
)

// TestRun_StopsBetweenCycles tests that Run observes cancellation only after
// the idle delay and runs exactly the cycles that started before it.
func TestRun_StopsBetweenCycles(t *testing.T) {
	f := newFixture(sensor.Reading{TemperatureC: 25.0, MoisturePct: 50.0})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	f.clock.OnSleep = func(time.Duration) {
		sleeps++
		if sleeps == 3 {
			cancel()
		}
	}

	err := f.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 3, f.sampler.calls)
	assert.Len(t, f.sender.frames, 3)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, f.clock.Sleeps())
	assert.Equal(t, 3.0, cyclesOf(f))
}

// TestRun_ShutdownForcesRelayOff tests that a running pump is switched off
// when the loop is cancelled.
func TestRun_ShutdownForcesRelayOff(t *testing.T) {
	f := newFixture(sensor.Reading{TemperatureC: 40.0, MoisturePct: 10.0})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.clock.OnSleep = func(time.Duration) {
		// Pump is on after each cycle.
		assert.True(t, f.relay.State())
		cancel()
	}

	err := f.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.False(t, f.relay.State())
	assert.False(t, f.pin.last())
}

// TestRun_FaultsAreNotFatal tests that a failing sensor keeps the loop
// running with the relay off.
func TestRun_FaultsAreNotFatal(t *testing.T) {
	f := newFixture(sensor.Reading{})
	f.sampler.err = errors.New("probe disconnected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	f.clock.OnSleep = func(time.Duration) {
		sleeps++
		if sleeps == 10 {
			cancel()
		}
	}

	err := f.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 10, f.sampler.calls)
	assert.Empty(t, f.sender.frames)
	assert.False(t, f.relay.State())
	assert.Equal(t, 10.0, faultsOf(f, FaultSensor))
}

// TestRun_InitFailureIsNotFatal tests that a relay that cannot be switched
// off at startup is counted as a fault and retried by the following cycles.
func TestRun_InitFailureIsNotFatal(t *testing.T) {
	f := newFixture(sensor.Reading{TemperatureC: 25.0, MoisturePct: 50.0})
	f.pin.failLow = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	f.clock.OnSleep = func(time.Duration) {
		sleeps++
		f.pin.failLow = false
		if sleeps == 2 {
			cancel()
		}
	}

	err := f.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, f.sampler.calls)
	assert.Len(t, f.sender.frames, 1, "first cycle faults, second reports")
	assert.Equal(t, 2.0, faultsOf(f, FaultActuation), "init and first cycle")
	assert.False(t, f.relay.State())
	assert.False(t, f.pin.last())
}

// TestRun_AlreadyCancelled tests that a cancelled context runs no cycles.
func TestRun_AlreadyCancelled(t *testing.T) {
	f := newFixture(sensor.Reading{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.sampler.calls)
	assert.False(t, f.relay.State())
}
