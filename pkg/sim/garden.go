// Package sim simulates a garden bed: an LM35 on one ADC channel, a soil
// probe on another and a pump relay that wets the soil while energized.
package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/itohio/goirrigate/pkg/config"
	"github.com/itohio/goirrigate/pkg/relay"
	"github.com/itohio/goirrigate/pkg/sensor"
)

// ErrProbeFault is returned by the moisture channel on injected failures.
var ErrProbeFault = errors.New("simulated probe fault")

// thermalTimeConstant is the temperature lag in cycles.
const thermalTimeConstant = 4.0

// State is a snapshot of the simulation.
type State struct {
	Step         int
	TemperatureC float64
	MoisturePct  float64
	PumpOn       bool
}

// Garden advances one step per moisture sample, so one control cycle moves
// simulated time forward once.
type Garden struct {
	cfg      config.MockConfig
	tempCal  sensor.TemperatureCalibration
	moistCal sensor.MoistureCalibration

	mu          sync.RWMutex
	step        int
	reads       int
	temperature float64
	moisture    float64
	pump        bool
}

// New creates a garden. A nil cfg uses the default mock configuration.
func New(cfg *config.MockConfig, temp sensor.TemperatureCalibration, moist sensor.MoistureCalibration) *Garden {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}
	return &Garden{
		cfg:         *cfg,
		tempCal:     temp,
		moistCal:    moist,
		temperature: cfg.AmbientC,
		moisture:    clamp(cfg.InitialPct, 0, 100),
	}
}

// FromConfig creates a garden calibrated like the real sensors in cfg.
func FromConfig(cfg *config.Config) *Garden {
	return New(&cfg.Mock,
		sensor.TemperatureCalibration{
			FullScale:        cfg.ADC.FullScale,
			ReferenceVoltage: cfg.ADC.ReferenceVoltage,
			ScaleFactor:      cfg.Temperature.ScaleFactor,
		},
		sensor.MoistureCalibration{
			WetRaw: cfg.Moisture.WetRaw,
			DryRaw: cfg.Moisture.DryRaw,
		},
	)
}

// TemperatureChannel returns the ADC channel wired to the simulated LM35.
func (g *Garden) TemperatureChannel() sensor.Channel {
	return channelFunc(g.readTemperature)
}

// MoistureChannel returns the ADC channel wired to the simulated soil probe.
func (g *Garden) MoistureChannel() sensor.Channel {
	return channelFunc(g.readMoisture)
}

// Pump returns the relay coil driving the simulated pump (active high).
func (g *Garden) Pump() relay.Pin {
	return pumpPin{g}
}

// State returns the current simulation state.
func (g *Garden) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return State{
		Step:         g.step,
		TemperatureC: g.temperature,
		MoisturePct:  g.moisture,
		PumpOn:       g.pump,
	}
}

func (g *Garden) readTemperature() (int32, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.tempCal.ReferenceVoltage == 0 || g.tempCal.ScaleFactor == 0 {
		return 0, fmt.Errorf("simulated thermometer not calibrated")
	}
	volts := g.temperature / g.tempCal.ScaleFactor
	raw := volts / g.tempCal.ReferenceVoltage * float64(g.tempCal.FullScale)
	return g.toCode(raw, g.tempCal.FullScale), nil
}

func (g *Garden) readMoisture() (int32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reads++
	g.advance()

	if g.cfg.FailEvery > 0 && g.reads%g.cfg.FailEvery == 0 {
		return 0, fmt.Errorf("read %d: %w", g.reads, ErrProbeFault)
	}

	span := float64(g.moistCal.DryRaw - g.moistCal.WetRaw)
	raw := float64(g.moistCal.DryRaw) - g.moisture/100*span
	return g.toCode(raw, int(max(g.moistCal.DryRaw, g.moistCal.WetRaw))), nil
}

// advance moves the simulation one step. Must hold mu.
func (g *Garden) advance() {
	g.step++

	// Daily sinusoid with thermal lag
	target := g.cfg.AmbientC
	if g.cfg.DayCycles > 0 {
		phase := 2 * math.Pi * float64(g.step) / float64(g.cfg.DayCycles)
		target += g.cfg.SwingC * math.Sin(phase)
	}
	g.temperature += (target - g.temperature) / thermalTimeConstant

	if g.pump {
		g.moisture += g.cfg.WateringPct
	} else {
		// Hotter soil dries faster.
		rate := g.cfg.EvaporationPct
		if g.cfg.AmbientC > 0 {
			rate *= math.Max(0.2, g.temperature/g.cfg.AmbientC)
		}
		g.moisture -= rate
	}
	g.moisture = clamp(g.moisture, 0, 100)
}

// toCode adds deterministic jitter and clamps to the converter range.
func (g *Garden) toCode(raw float64, fullScale int) int32 {
	if g.cfg.NoiseCodes > 0 {
		s := float64(g.step)
		jitter := (math.Sin(s*1.7) + math.Cos(s*0.9)) * 0.5
		raw += jitter * float64(g.cfg.NoiseCodes)
	}
	return int32(clamp(math.Round(raw), 0, float64(fullScale)))
}

func (g *Garden) setPump(on bool) {
	g.mu.Lock()
	g.pump = on
	g.mu.Unlock()
}

type channelFunc func() (int32, error)

func (f channelFunc) Read() (int32, error) {
	return f()
}

type pumpPin struct {
	g *Garden
}

func (p pumpPin) Set(high bool) error {
	p.g.setPump(high)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
