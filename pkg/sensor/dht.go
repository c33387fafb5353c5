//go:build !tinygo

package sensor

import (
	"fmt"

	"github.com/MichaelS11/go-dht"
)

// DHT22 is a digital temperature/humidity sensor used as an alternative to
// the analog LM35. Only the temperature is consumed; soil moisture always
// comes from the probe.
type DHT22 struct {
	pin string
	dev *dht.DHT
}

var _ Thermometer = (*DHT22)(nil)

// NewDHT22 initializes the host GPIO driver and the sensor on pin
// (e.g. "GPIO4").
func NewDHT22(pin string) (*DHT22, error) {
	if err := dht.HostInit(); err != nil {
		return nil, fmt.Errorf("dht host init: %w", err)
	}

	dev, err := dht.NewDHT(pin, dht.Celsius, "dht22")
	if err != nil {
		return nil, fmt.Errorf("dht22 on %s: %w", pin, err)
	}

	return &DHT22{pin: pin, dev: dev}, nil
}

// Temperature performs a single read without retries.
func (d *DHT22) Temperature() (float64, error) {
	_, temperature, err := d.dev.Read()
	if err != nil {
		return 0, fmt.Errorf("read dht22 on %s: %w", d.pin, err)
	}
	return temperature, nil
}
