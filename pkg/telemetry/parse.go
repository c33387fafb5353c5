package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/goirrigate/pkg/sensor"
)

// ErrMalformed is wrapped by all parse errors.
var ErrMalformed = errors.New("malformed telemetry")

const receivePrefix = "+RCV="

// MaxAddress is the highest module address the radio accepts.
const MaxAddress = 65535

// Reception is a frame reported by the receiving radio module.
type Reception struct {
	Address int
	Payload string
	RSSI    int
	SNR     int
}

// Payload is a decoded message body.
type Payload struct {
	Reading sensor.Reading
	Pump    PumpStatus
}

// ParseReceive parses a +RCV line. The declared length is used to slice the
// payload, which itself contains commas.
// Example: +RCV=0,19,T:25.0,H:35.0,P:OFF,-42,11
func ParseReceive(line string) (Reception, error) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, receivePrefix)
	if !ok {
		return Reception{}, fmt.Errorf("%w: missing %s prefix: %q", ErrMalformed, receivePrefix, line)
	}

	addrStr, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return Reception{}, fmt.Errorf("%w: missing address: %q", ErrMalformed, line)
	}
	address, err := strconv.Atoi(addrStr)
	if err != nil {
		return Reception{}, fmt.Errorf("%w: invalid address: %w", ErrMalformed, err)
	}
	if address < 0 || address > MaxAddress {
		return Reception{}, fmt.Errorf("%w: address %d out of range", ErrMalformed, address)
	}

	lenStr, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return Reception{}, fmt.Errorf("%w: missing length: %q", ErrMalformed, line)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return Reception{}, fmt.Errorf("%w: invalid length: %w", ErrMalformed, err)
	}
	if length < 0 || length > len(rest) {
		return Reception{}, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformed, length, len(rest))
	}

	payload := rest[:length]
	tail, ok := strings.CutPrefix(rest[length:], ",")
	if !ok {
		return Reception{}, fmt.Errorf("%w: payload length mismatch: %q", ErrMalformed, line)
	}

	parts := strings.Split(tail, ",")
	if len(parts) != 2 {
		return Reception{}, fmt.Errorf("%w: expected rssi and snr, got %d fields", ErrMalformed, len(parts))
	}
	rssi, err := strconv.Atoi(parts[0])
	if err != nil {
		return Reception{}, fmt.Errorf("%w: invalid rssi: %w", ErrMalformed, err)
	}
	snr, err := strconv.Atoi(parts[1])
	if err != nil {
		return Reception{}, fmt.Errorf("%w: invalid snr: %w", ErrMalformed, err)
	}

	return Reception{
		Address: address,
		Payload: payload,
		RSSI:    rssi,
		SNR:     snr,
	}, nil
}

// ParsePayload decodes T:<t>,H:<h>,P:<ON|OFF>.
func ParsePayload(s string) (Payload, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Payload{}, fmt.Errorf("%w: expected 3 comma-separated fields, got %d", ErrMalformed, len(parts))
	}

	temp, err := parseField(parts[0], "T")
	if err != nil {
		return Payload{}, err
	}
	moisture, err := parseField(parts[1], "H")
	if err != nil {
		return Payload{}, err
	}

	status, ok := strings.CutPrefix(parts[2], "P:")
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing P field: %q", ErrMalformed, parts[2])
	}
	pump := PumpStatus(status)
	if pump != PumpOn && pump != PumpOff {
		return Payload{}, fmt.Errorf("%w: invalid pump status %q", ErrMalformed, status)
	}

	return Payload{
		Reading: sensor.Reading{TemperatureC: temp, MoisturePct: moisture},
		Pump:    pump,
	}, nil
}

func parseField(field, key string) (float64, error) {
	value, ok := strings.CutPrefix(field, key+":")
	if !ok {
		return 0, fmt.Errorf("%w: missing %s field: %q", ErrMalformed, key, field)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value: %w", ErrMalformed, key, err)
	}
	return v, nil
}
