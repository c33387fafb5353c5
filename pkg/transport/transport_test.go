package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/sensor"
	"github.com/itohio/goirrigate/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct {
	err error
}

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestSend(t *testing.T) {
	var buf bytes.Buffer
	clk := clock.NewFake(time.Unix(0, 0))
	tr := New(&buf, time.Second, clk)

	frame := telemetry.NewEncoder(0).Encode(sensor.Reading{TemperatureC: 25.0, MoisturePct: 35.0}, telemetry.PumpOff)
	require.NoError(t, tr.Send(frame))

	assert.Equal(t, "AT+SEND=0,19,T:25.0,H:35.0,P:OFF\r\n", buf.String())
	assert.Equal(t, []time.Duration{time.Second}, clk.Sleeps())
}

func TestSend_WriteErrorSkipsSettle(t *testing.T) {
	boom := errors.New("uart fault")
	clk := clock.NewFake(time.Unix(0, 0))
	tr := New(failingWriter{err: boom}, time.Second, clk)

	err := tr.Send(telemetry.Frame{Payload: "x", PayloadLen: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, clk.Sleeps())
}

func TestSend_ShortWrite(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	tr := New(shortWriter{}, time.Second, clk)

	err := tr.Send(telemetry.Frame{Payload: "HELLO", PayloadLen: 5})
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Empty(t, clk.Sleeps())
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name      string
		address   int
		networkID int
		band      int
		want      string
		sleeps    int
	}{
		{
			name: "nothing configured",
		},
		{
			name:    "address only",
			address: 12,
			want:    "AT+ADDRESS=12\r\n",
			sleeps:  1,
		},
		{
			name:      "all parameters",
			address:   5,
			networkID: 18,
			band:      868500000,
			want:      "AT+ADDRESS=5\r\nAT+NETWORKID=18\r\nAT+BAND=868500000\r\n",
			sleeps:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			clk := clock.NewFake(time.Unix(0, 0))
			tr := New(&buf, 500*time.Millisecond, clk)

			require.NoError(t, tr.Configure(tt.address, tt.networkID, tt.band))
			assert.Equal(t, tt.want, buf.String())
			assert.Len(t, clk.Sleeps(), tt.sleeps)
		})
	}
}

func TestConfigure_StopsOnError(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	tr := New(failingWriter{err: errors.New("closed")}, time.Second, clk)

	err := tr.Configure(1, 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send command")
	assert.Empty(t, clk.Sleeps())
}

func TestNew_DefaultClock(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, 0, nil)
	require.NoError(t, tr.Command(telemetry.Command("")))
	assert.Equal(t, "AT\r\n", buf.String())
}
