// Package sensor converts raw analog samples into calibrated temperature and
// soil moisture readings.
package sensor

import (
	"fmt"
)

// Channel is a single analog input. Read performs one blocking conversion
// and returns the raw code.
type Channel interface {
	Read() (int32, error)
}

// Thermometer reports a temperature in °C.
type Thermometer interface {
	Temperature() (float64, error)
}

// Reading is one sample of both sensors.
type Reading struct {
	TemperatureC float64
	MoisturePct  float64 // Always within [0, 100]
}

// TemperatureCalibration describes a linear analog temperature sensor.
type TemperatureCalibration struct {
	FullScale        int     // Maximum ADC code
	ReferenceVoltage float64 // Voltage at FullScale (V)
	ScaleFactor      float64 // °C per volt
}

// MoistureCalibration describes an inverted resistive soil probe.
type MoistureCalibration struct {
	WetRaw int32 // Code at 100 %
	DryRaw int32 // Code at 0 %
}

// adcToVoltage converts an ADC code to volts.
func adcToVoltage(raw int32, fullScale int, vref float64) float64 {
	return (float64(raw) / float64(fullScale)) * vref
}

// Celsius converts a raw code from a linear sensor to °C. The result is not
// clamped.
func Celsius(raw int32, cal TemperatureCalibration) float64 {
	if cal.FullScale == 0 {
		return 0
	}
	return adcToVoltage(raw, cal.FullScale, cal.ReferenceVoltage) * cal.ScaleFactor
}

// MoisturePercent converts a raw probe code to a percentage clamped to
// [0, 100]. Codes beyond the calibration bounds saturate.
func MoisturePercent(raw int32, cal MoistureCalibration) float64 {
	span := float64(cal.DryRaw) - float64(cal.WetRaw)
	if span == 0 {
		return 0
	}
	pct := (float64(cal.DryRaw) - float64(raw)) / span * 100
	return clamp(pct, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LM35 is a 10 mV/°C analog temperature sensor on an ADC channel.
type LM35 struct {
	ch  Channel
	cal TemperatureCalibration
}

var _ Thermometer = (*LM35)(nil)

// NewLM35 creates a thermometer reading ch.
func NewLM35(ch Channel, cal TemperatureCalibration) *LM35 {
	return &LM35{ch: ch, cal: cal}
}

// Temperature samples the channel once.
func (s *LM35) Temperature() (float64, error) {
	raw, err := s.ch.Read()
	if err != nil {
		return 0, fmt.Errorf("read temperature channel: %w", err)
	}
	return Celsius(raw, s.cal), nil
}

// SoilProbe is a resistive soil moisture probe (FC-28 style) on an ADC channel.
type SoilProbe struct {
	ch  Channel
	cal MoistureCalibration
}

// NewSoilProbe creates a moisture probe reading ch.
func NewSoilProbe(ch Channel, cal MoistureCalibration) *SoilProbe {
	return &SoilProbe{ch: ch, cal: cal}
}

// Moisture samples the channel once.
func (p *SoilProbe) Moisture() (float64, error) {
	raw, err := p.ch.Read()
	if err != nil {
		return 0, fmt.Errorf("read moisture channel: %w", err)
	}
	return MoisturePercent(raw, p.cal), nil
}

// Reader owns both sensors and produces one Reading per call.
type Reader struct {
	thermometer Thermometer
	soil        *SoilProbe
}

// NewReader creates a Reader.
func NewReader(thermometer Thermometer, soil *SoilProbe) *Reader {
	return &Reader{thermometer: thermometer, soil: soil}
}

// Temperature returns the current temperature in °C.
func (r *Reader) Temperature() (float64, error) {
	return r.thermometer.Temperature()
}

// Moisture returns the current soil moisture in percent.
func (r *Reader) Moisture() (float64, error) {
	return r.soil.Moisture()
}

// Read samples temperature, then moisture. No retries are attempted.
func (r *Reader) Read() (Reading, error) {
	t, err := r.Temperature()
	if err != nil {
		return Reading{}, err
	}
	m, err := r.Moisture()
	if err != nil {
		return Reading{}, err
	}
	return Reading{TemperatureC: t, MoisturePct: m}, nil
}
