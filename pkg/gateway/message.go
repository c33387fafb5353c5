// Package gateway receives telemetry from a serial-attached radio module and
// fans it out to storage, a message broker and an HTTP API.
package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/itohio/goirrigate/pkg/telemetry"
)

// Message is one decoded telemetry reception.
type Message struct {
	Address      int                  `json:"address"`
	TemperatureC float64              `json:"temperature_c"`
	MoisturePct  float64              `json:"moisture_pct"`
	Pump         telemetry.PumpStatus `json:"pump"`
	RSSI         int                  `json:"rssi"`
	SNR          int                  `json:"snr"`
	ReceivedAt   time.Time            `json:"received_at"`
}

// Decode parses a +RCV line and its payload.
func Decode(line string, at time.Time) (Message, error) {
	rx, err := telemetry.ParseReceive(line)
	if err != nil {
		return Message{}, err
	}
	p, err := telemetry.ParsePayload(rx.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("from address %d: %w", rx.Address, err)
	}
	return Message{
		Address:      rx.Address,
		TemperatureC: p.Reading.TemperatureC,
		MoisturePct:  p.Reading.MoisturePct,
		Pump:         p.Pump,
		RSSI:         rx.RSSI,
		SNR:          rx.SNR,
		ReceivedAt:   at,
	}, nil
}

// Sink consumes decoded messages.
type Sink interface {
	Name() string
	Write(ctx context.Context, m Message) error
}

// Latest keeps the most recent message per address.
type Latest struct {
	mu     sync.RWMutex
	byAddr map[int]Message
}

var _ Sink = (*Latest)(nil)

// NewLatest creates an empty store.
func NewLatest() *Latest {
	return &Latest{byAddr: make(map[int]Message)}
}

func (l *Latest) Name() string { return "latest" }

// Write replaces the stored message for m.Address.
func (l *Latest) Write(_ context.Context, m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byAddr[m.Address] = m
	return nil
}

// Get returns the latest message from address.
func (l *Latest) Get(address int) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.byAddr[address]
	return m, ok
}

// All returns the latest message of every address, ordered by address.
func (l *Latest) All() []Message {
	l.mu.RLock()
	result := make([]Message, 0, len(l.byAddr))
	for _, m := range l.byAddr {
		result = append(result, m)
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return result
}
