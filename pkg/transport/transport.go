// Package transport writes encoded frames to the radio module's UART.
package transport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/telemetry"
)

const (
	// DefaultBaudRate is the RYLR998 factory UART rate.
	DefaultBaudRate = 115200
	// DefaultSettle is the wait after each command before the module accepts
	// the next one.
	DefaultSettle = time.Second
)

// Transport is fire-and-forget: module responses are never read back.
type Transport struct {
	w      io.Writer
	settle time.Duration
	clock  clock.Clock

	mu sync.Mutex
}

// New creates a transport writing to w. A nil clk selects the wall clock.
func New(w io.Writer, settle time.Duration, clk clock.Clock) *Transport {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Transport{
		w:      w,
		settle: settle,
		clock:  clk,
	}
}

// Send writes the frame then waits for the settle delay. On a write error it
// returns immediately.
func (t *Transport) Send(f telemetry.Frame) error {
	if err := t.write(f.Bytes()); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Command writes a raw AT command (already CRLF terminated) then waits for the
// settle delay.
func (t *Transport) Command(cmd string) error {
	if err := t.write([]byte(cmd)); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// Configure sets the module's own address, network ID and band. Zero values
// leave the module's stored setting unchanged.
func (t *Transport) Configure(address, networkID, band int) error {
	var cmds []string
	if address != 0 {
		cmds = append(cmds, telemetry.Command("ADDRESS", fmt.Sprint(address)))
	}
	if networkID != 0 {
		cmds = append(cmds, telemetry.Command("NETWORKID", fmt.Sprint(networkID)))
	}
	if band != 0 {
		cmds = append(cmds, telemetry.Command("BAND", fmt.Sprint(band)))
	}
	for _, cmd := range cmds {
		if err := t.Command(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) write(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	t.clock.Sleep(t.settle)
	return nil
}
