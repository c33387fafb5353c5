package control

import "fmt"

// FaultKind identifies the step of a cycle that failed.
type FaultKind int

const (
	FaultSensor FaultKind = iota + 1
	FaultActuation
	FaultTransport
	FaultPanic
)

func (k FaultKind) String() string {
	switch k {
	case FaultSensor:
		return "sensor"
	case FaultActuation:
		return "actuation"
	case FaultTransport:
		return "transport"
	case FaultPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Fault aborts a single cycle. It is never fatal to the loop.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
