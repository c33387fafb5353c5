package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	esp32Temperature = TemperatureCalibration{FullScale: 4095, ReferenceVoltage: 3.3, ScaleFactor: 100}
	fc28Moisture     = MoistureCalibration{WetRaw: 0, DryRaw: 4095}
)

type fakeChannel struct {
	raw   int32
	err   error
	reads int
}

func (c *fakeChannel) Read() (int32, error) {
	c.reads++
	return c.raw, c.err
}

func TestCelsius(t *testing.T) {
	tests := []struct {
		name string
		raw  int32
		want float64
	}{
		{"zero", 0, 0.0},
		{"full scale", 4095, 330.0},
		{"25 degrees", 310, 24.98},   // 310/4095*3.3*100 ≈ 24.98
		{"half scale", 2047, 164.96}, // ≈ 164.96
		{"above full scale not clamped", 5000, 402.93},
		{"negative not clamped", -100, -8.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Celsius(tt.raw, esp32Temperature)
			assert.InDelta(t, tt.want, got, 0.01, "Celsius(%d) = %f, want %f", tt.raw, got, tt.want)
		})
	}
}

func TestCelsius_ZeroFullScale(t *testing.T) {
	assert.Equal(t, 0.0, Celsius(1000, TemperatureCalibration{ReferenceVoltage: 3.3, ScaleFactor: 100}))
}

func TestMoisturePercent(t *testing.T) {
	tests := []struct {
		name string
		raw  int32
		want float64
	}{
		{"wet", 0, 100.0},
		{"dry", 4095, 0.0},
		{"half", 2047, 50.01},
		{"quarter wet", 1024, 74.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoisturePercent(tt.raw, fc28Moisture)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestMoisturePercent_Inverted(t *testing.T) {
	wetter := MoisturePercent(1000, fc28Moisture)
	drier := MoisturePercent(3000, fc28Moisture)
	assert.Greater(t, wetter, drier, "lower raw code must mean wetter soil")
}

func TestMoisturePercent_ClampedForAllCodes(t *testing.T) {
	calibrations := []MoistureCalibration{
		fc28Moisture,
		{WetRaw: 1200, DryRaw: 3100},
		{WetRaw: 3100, DryRaw: 1200}, // probe wired the other way round
	}

	for _, cal := range calibrations {
		for raw := int32(-10000); raw <= 14095; raw += 7 {
			pct := MoisturePercent(raw, cal)
			require.GreaterOrEqual(t, pct, 0.0, "raw=%d cal=%+v", raw, cal)
			require.LessOrEqual(t, pct, 100.0, "raw=%d cal=%+v", raw, cal)
		}
	}
}

func TestMoisturePercent_DriftBeyondCalibration(t *testing.T) {
	cal := MoistureCalibration{WetRaw: 1200, DryRaw: 3100}
	assert.Equal(t, 100.0, MoisturePercent(900, cal))
	assert.Equal(t, 0.0, MoisturePercent(3500, cal))
}

func TestMoisturePercent_DegenerateCalibration(t *testing.T) {
	assert.Equal(t, 0.0, MoisturePercent(1000, MoistureCalibration{WetRaw: 2000, DryRaw: 2000}))
}

func TestReader_Read(t *testing.T) {
	temp := &fakeChannel{raw: 310}
	soil := &fakeChannel{raw: 2047}
	r := NewReader(NewLM35(temp, esp32Temperature), NewSoilProbe(soil, fc28Moisture))

	reading, err := r.Read()
	require.NoError(t, err)
	assert.InDelta(t, 24.98, reading.TemperatureC, 0.01)
	assert.InDelta(t, 50.01, reading.MoisturePct, 0.01)
	assert.Equal(t, 1, temp.reads)
	assert.Equal(t, 1, soil.reads)
}

func TestReader_TemperatureError(t *testing.T) {
	boom := errors.New("adc timeout")
	temp := &fakeChannel{err: boom}
	soil := &fakeChannel{raw: 1000}
	r := NewReader(NewLM35(temp, esp32Temperature), NewSoilProbe(soil, fc28Moisture))

	_, err := r.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "temperature")
	assert.Equal(t, 0, soil.reads, "moisture must not be sampled after a failed temperature read")
}

func TestReader_MoistureError(t *testing.T) {
	boom := errors.New("adc timeout")
	r := NewReader(
		NewLM35(&fakeChannel{raw: 100}, esp32Temperature),
		NewSoilProbe(&fakeChannel{err: boom}, fc28Moisture),
	)

	_, err := r.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "moisture")
}

func TestReader_SingleSampleNoRetry(t *testing.T) {
	temp := &fakeChannel{raw: 4095}
	soil := &fakeChannel{raw: -50} // glitch: accepted and clamped
	r := NewReader(NewLM35(temp, esp32Temperature), NewSoilProbe(soil, fc28Moisture))

	reading, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 100.0, reading.MoisturePct)
	assert.InDelta(t, 330.0, reading.TemperatureC, 1e-9)
	assert.Equal(t, 1, temp.reads)
	assert.Equal(t, 1, soil.reads)
}
