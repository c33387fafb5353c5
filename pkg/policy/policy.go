// Package policy maps a sensor reading to a pump command.
package policy

import "github.com/itohio/goirrigate/pkg/sensor"

// Reason explains a Decision.
type Reason int

const (
	ReasonNormal Reason = iota
	ReasonTemperatureHigh
	ReasonMoistureLow
)

func (r Reason) String() string {
	switch r {
	case ReasonNormal:
		return "Normal"
	case ReasonTemperatureHigh:
		return "TemperatureHigh"
	case ReasonMoistureLow:
		return "MoistureLow"
	default:
		return "Unknown"
	}
}

// Thresholds are fixed at startup.
type Thresholds struct {
	TemperatureC float64 // Pump on strictly above
	MoisturePct  float64 // Pump on strictly below
}

// Decision is the pump command for one cycle.
type Decision struct {
	PumpOn bool
	Reason Reason
}

// Decide is a pure function of its inputs. Temperature is checked before
// moisture and the first match wins. There is no hysteresis: a reading that
// oscillates across a threshold toggles the pump every cycle.
func Decide(r sensor.Reading, t Thresholds) Decision {
	switch {
	case r.TemperatureC > t.TemperatureC:
		return Decision{PumpOn: true, Reason: ReasonTemperatureHigh}
	case r.MoisturePct < t.MoisturePct:
		return Decision{PumpOn: true, Reason: ReasonMoistureLow}
	default:
		return Decision{PumpOn: false, Reason: ReasonNormal}
	}
}
