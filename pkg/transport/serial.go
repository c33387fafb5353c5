//go:build !tinygo

package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Open opens a serial port in 8N1 mode.
func Open(name string, baudRate int) (serial.Port, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// Ports returns a list of available serial ports. Ports that cannot be opened
// right now (busy or no permission) are still listed.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		desc := name
		port, err := serial.Open(name, &serial.Mode{BaudRate: DefaultBaudRate})
		if err != nil {
			desc = fmt.Sprintf("%s (unavailable: %v)", name, err)
		} else {
			port.Close()
		}
		result = append(result, Port{
			Name:        name,
			Description: desc,
		})
	}

	return result, nil
}
