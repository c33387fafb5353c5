//go:build !tinygo

package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

var adsChannels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADS1115 is an external I2C ADC for Linux hosts without analog inputs.
// The periph host drivers must be initialized before OpenADS1115.
type ADS1115 struct {
	bus        i2c.BusCloser
	dev        *ads1x15.Dev
	maxVoltage physic.ElectricPotential
	rate       physic.Frequency
}

// OpenADS1115 opens busName (empty for the first bus) and the converter at addr.
// maxVoltage selects the programmable gain range, rate the samples per second.
func OpenADS1115(busName string, addr uint16, maxVoltage float64, rate int) (*ADS1115, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ads1115 at 0x%02x: %w", addr, err)
	}

	return &ADS1115{
		bus:        bus,
		dev:        dev,
		maxVoltage: physic.ElectricPotential(maxVoltage * float64(physic.Volt)),
		rate:       physic.Frequency(rate) * physic.Hertz,
	}, nil
}

// Channel returns single-ended input n (0-3).
func (a *ADS1115) Channel(n int) (Channel, error) {
	if n < 0 || n >= len(adsChannels) {
		return nil, fmt.Errorf("ads1115 channel out of range: %d", n)
	}
	pin, err := a.dev.PinForChannel(adsChannels[n], a.maxVoltage, a.rate, ads1x15.BestQuality)
	if err != nil {
		return nil, fmt.Errorf("ads1115 channel %d: %w", n, err)
	}
	return &adsChannel{pin: pin}, nil
}

// Close releases the I2C bus.
func (a *ADS1115) Close() error {
	return a.bus.Close()
}

type adsChannel struct {
	pin ads1x15.PinADC
}

func (c *adsChannel) Read() (int32, error) {
	sample, err := c.pin.Read()
	if err != nil {
		return 0, err
	}
	return sample.Raw, nil
}
