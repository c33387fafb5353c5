// Package relay drives the pump relay output.
package relay

import (
	"fmt"
	"sync"
)

// Pin is a digital output.
type Pin interface {
	Set(high bool) error
}

// Relay is the sole owner of the pump output. The safe state is off.
type Relay struct {
	pin       Pin
	activeLow bool

	mu sync.RWMutex
	on bool
}

// New creates a relay on pin. activeLow inverts the electrical level for
// boards that energize the coil on a low input. The pin is not driven until
// the first Set.
func New(pin Pin, activeLow bool) *Relay {
	return &Relay{pin: pin, activeLow: activeLow}
}

// Set drives the output on every call, whether or not the state changes.
func (r *Relay) Set(on bool) error {
	level := on != r.activeLow
	if err := r.pin.Set(level); err != nil {
		return fmt.Errorf("relay: set pump %s: %w", onOff(on), err)
	}

	r.mu.Lock()
	r.on = on
	r.mu.Unlock()
	return nil
}

// Off switches the pump off.
func (r *Relay) Off() error {
	return r.Set(false)
}

// State returns the last successfully applied state.
func (r *Relay) State() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.on
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
