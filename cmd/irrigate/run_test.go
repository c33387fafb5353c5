package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goirrigate/pkg/config"
)

func TestOpenHardware_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.NoiseCodes = 0

	hw, err := openHardware(cfg, true)
	require.NoError(t, err)
	defer hw.Close()

	reading, err := hw.sampler.Read()
	require.NoError(t, err)
	assert.InDelta(t, cfg.Mock.AmbientC, reading.TemperatureC, 0.5)
	assert.InDelta(t, cfg.Mock.InitialPct, reading.MoisturePct, 1.0)
	assert.NoError(t, hw.pin.Set(true))
}

type levelPin struct {
	levels []bool
}

func (p *levelPin) Set(high bool) error {
	p.levels = append(p.levels, high)
	return nil
}

func TestArmPump(t *testing.T) {
	tests := []struct {
		name      string
		activeLow bool
		level     bool
	}{
		{"active high", false, false},
		{"active low", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pin := &levelPin{}
			pump := armPump(pin, tt.activeLow)

			assert.False(t, pump.State())
			assert.Equal(t, []bool{tt.level}, pin.levels, "pump is driven off before anything else")
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  temperature_c: 28\n  moisture_pct: 35\n"), 0644))

	old := cfgFile
	cfgFile = path
	defer func() { cfgFile = old }()
	t.Setenv("SERIAL_PORT", "/dev/ttyAMA0")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 28.0, cfg.Thresholds.TemperatureC)
	assert.Equal(t, 35.0, cfg.Thresholds.MoisturePct)
	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature:\n  source: thermistor\n"), 0644))

	old := cfgFile
	cfgFile = path
	defer func() { cfgFile = old }()

	_, err := loadConfig()
	assert.ErrorIs(t, err, config.ErrInvalid)
}
