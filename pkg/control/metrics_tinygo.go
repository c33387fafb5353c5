//go:build tinygo

package control

import (
	"github.com/itohio/goirrigate/pkg/policy"
	"github.com/itohio/goirrigate/pkg/sensor"
)

// Metrics is not available on microcontrollers; Options.Metrics stays nil.
type Metrics struct{}

func (m *Metrics) cycle()                   {}
func (m *Metrics) reading(sensor.Reading)   {}
func (m *Metrics) decision(policy.Decision) {}
func (m *Metrics) pump(bool)                {}
func (m *Metrics) sent()                    {}
func (m *Metrics) fault(FaultKind)          {}
