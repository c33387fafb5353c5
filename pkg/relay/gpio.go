//go:build !tinygo

package relay

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// GPIO is a host GPIO line. The periph host drivers must be initialized
// before OpenGPIO.
type GPIO struct {
	pin gpio.PinOut
}

var _ Pin = (*GPIO)(nil)

// OpenGPIO looks up a line by name (e.g. "GPIO23") and drives it to the relay's
// inactive level: high for an active-low board, low otherwise.
func OpenGPIO(name string, activeLow bool) (*GPIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	if err := p.Out(gpio.Level(activeLow)); err != nil {
		return nil, fmt.Errorf("gpio %s: %w", name, err)
	}
	return &GPIO{pin: p}, nil
}

// Set drives the line.
func (g *GPIO) Set(high bool) error {
	return g.pin.Out(gpio.Level(high))
}

func (g *GPIO) String() string {
	return g.pin.String()
}
