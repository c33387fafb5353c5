package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name     string
	messages []Message
	err      error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, m Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m)
	return nil
}

func newTestReceiver(sinks ...Sink) (*Receiver, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	r := NewReceiver(zerolog.Nop(), metrics, sinks...)
	r.now = func() time.Time { return receivedAt }
	return r, metrics
}

func TestReceiver_Run(t *testing.T) {
	input := strings.Join([]string{
		"+OK",
		"",
		"+RCV=0,19,T:25.0,H:35.0,P:OFF,-42,11",
		"+RCV=0,garbage",
		"+ERR=2",
		"+RCV=3,18,T:31.3,H:52.0,P:ON,-70,-3",
	}, "\r\n") + "\r\n"

	sink := &recordingSink{name: "rec"}
	r, metrics := newTestReceiver(sink)

	require.NoError(t, r.Run(context.Background(), strings.NewReader(input)))

	require.Len(t, sink.messages, 2)
	assert.Equal(t, 0, sink.messages[0].Address)
	assert.Equal(t, 35.0, sink.messages[0].MoisturePct)
	assert.Equal(t, receivedAt, sink.messages[0].ReceivedAt)
	assert.Equal(t, 3, sink.messages[1].Address)
	assert.True(t, sink.messages[1].Pump.On())
	assert.Equal(t, -3, sink.messages[1].SNR)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ParseErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Received.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Received.WithLabelValues("3")))
	assert.Equal(t, -70.0, testutil.ToFloat64(metrics.RSSI.WithLabelValues("3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Pump.WithLabelValues("3")))
}

func TestReceiver_FailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := &recordingSink{name: "broken", err: errors.New("down")}
	healthy := &recordingSink{name: "healthy"}
	r, metrics := newTestReceiver(broken, healthy)

	r.HandleLine(context.Background(), "+RCV=1,19,T:25.0,H:35.0,P:OFF,-42,11")

	assert.Len(t, healthy.messages, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("broken")))
}

func TestReceiver_CancelledContext(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	r, _ := newTestReceiver(sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, strings.NewReader("+RCV=0,19,T:25.0,H:35.0,P:OFF,-42,11\r\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.messages)
}

func TestReceiver_NilMetrics(t *testing.T) {
	sink := &recordingSink{name: "rec", err: errors.New("down")}
	r := NewReceiver(zerolog.Nop(), nil, sink)

	assert.NotPanics(t, func() {
		r.HandleLine(context.Background(), "+RCV=0,19,T:25.0,H:35.0,P:OFF,-42,11")
		r.HandleLine(context.Background(), "+RCV=0,bad")
	})
}

func TestReceiver_OutOfRangeAddressIsNotStored(t *testing.T) {
	latest := NewLatest()
	history := NewHistory(10)
	r, metrics := newTestReceiver(latest, history)

	r.HandleLine(context.Background(), "+RCV=-1,19,T:25.0,H:35.0,P:OFF,-42,11")
	r.HandleLine(context.Background(), "+RCV=123456,19,T:25.0,H:35.0,P:OFF,-42,11")

	assert.Empty(t, latest.All())
	assert.Empty(t, history.Get(-1, 0))
	assert.Empty(t, history.Get(123456, 0))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ParseErrors))
}
