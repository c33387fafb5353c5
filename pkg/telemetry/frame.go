// Package telemetry encodes readings into the AT-command frames understood by
// RYLR998-class LoRa modules, and parses them back on the receiving side.
//
// Payload:  T:<temperature>,H:<moisture>,P:<ON|OFF>
// Frame:    AT+SEND=<address>,<payload length>,<payload>\r\n
// Received: +RCV=<address>,<payload length>,<payload>,<rssi>,<snr>
package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/goirrigate/pkg/sensor"
)

// PumpStatus is the pump field of the payload.
type PumpStatus string

const (
	PumpOn  PumpStatus = "ON"
	PumpOff PumpStatus = "OFF"
)

// StatusOf converts a pump command to its wire form.
func StatusOf(on bool) PumpStatus {
	if on {
		return PumpOn
	}
	return PumpOff
}

// On reports whether the status is PumpOn.
func (s PumpStatus) On() bool {
	return s == PumpOn
}

// Frame is one encoded telemetry message.
type Frame struct {
	TemperatureC float64
	MoisturePct  float64
	Pump         PumpStatus
	Address      int
	PayloadLen   int // Always len(Payload)
	Payload      string
}

// String returns the complete AT+SEND command including CRLF.
func (f Frame) String() string {
	return Command("SEND", strconv.Itoa(f.Address), strconv.Itoa(f.PayloadLen), f.Payload)
}

// Bytes returns the frame as sent on the wire.
func (f Frame) Bytes() []byte {
	return []byte(f.String())
}

// FormatPayload formats the message body with one decimal place per value.
func FormatPayload(r sensor.Reading, status PumpStatus) string {
	return fmt.Sprintf("T:%.1f,H:%.1f,P:%s", r.TemperatureC, r.MoisturePct, status)
}

// Encoder builds frames addressed to a fixed peer.
type Encoder struct {
	address int
}

// NewEncoder creates an encoder for the given peer address.
func NewEncoder(address int) *Encoder {
	return &Encoder{address: address}
}

// Encode formats a reading. The payload length is taken from the formatted
// string so that body and length cannot disagree.
func (e *Encoder) Encode(r sensor.Reading, status PumpStatus) Frame {
	payload := FormatPayload(r, status)
	return Frame{
		TemperatureC: r.TemperatureC,
		MoisturePct:  r.MoisturePct,
		Pump:         status,
		Address:      e.address,
		PayloadLen:   len(payload),
		Payload:      payload,
	}
}

// Command builds an AT command terminated by CRLF:
// Command("") is "AT\r\n", Command("ADDRESS", "5") is "AT+ADDRESS=5\r\n".
func Command(name string, args ...string) string {
	var cmd strings.Builder
	cmd.WriteString("AT")
	if name != "" {
		cmd.WriteByte('+')
		cmd.WriteString(name)
		if len(args) > 0 {
			cmd.WriteByte('=')
			cmd.WriteString(strings.Join(args, ","))
		}
	}
	cmd.WriteString("\r\n")
	return cmd.String()
}
