package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/itohio/goirrigate/pkg/config"
)

const (
	publishTimeout    = 5 * time.Second
	breakerFailures   = 3
	breakerOpenDelay  = 30 * time.Second
	connectRetries    = 5
	disconnectQuiesce = 250 // ms
)

var errPublishTimeout = errors.New("publish timed out")

// ConnectMQTT connects to the broker with exponential backoff. The client is
// disconnected when ctx is done.
func ConnectMQTT(ctx context.Context, cfg config.MQTTConfig, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", cfg.Broker).Msg("failed to connect to mqtt broker")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish mqtt connection after retries: %w", err)
	}

	log.Info().Str("broker", cfg.Broker).Msg("connected to mqtt broker")

	go func() {
		<-ctx.Done()
		client.Disconnect(disconnectQuiesce)
	}()

	return client, nil
}

// MQTTSink publishes messages as JSON. A circuit breaker stops publishing
// while the broker keeps failing.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	qos     byte
	breaker *gobreaker.CircuitBreaker
}

var _ Sink = (*MQTTSink)(nil)

// NewMQTTSink creates a sink on a connected client. "{address}" in the topic
// is replaced with the sender address.
func NewMQTTSink(client mqtt.Client, cfg config.MQTTConfig, log zerolog.Logger) *MQTTSink {
	return &MQTTSink{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mqtt",
			Timeout: breakerOpenDelay,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (s *MQTTSink) Name() string { return "mqtt" }

// Topic returns the topic for address.
func (s *MQTTSink) Topic(address int) string {
	return strings.ReplaceAll(s.topic, "{address}", strconv.Itoa(address))
}

// Write publishes m. It fails fast with gobreaker.ErrOpenState while the
// breaker is open.
func (s *MQTTSink) Write(_ context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	topic := s.Topic(m.Address)
	_, err = s.breaker.Execute(func() (interface{}, error) {
		token := s.client.Publish(topic, s.qos, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return nil, errPublishTimeout
		}
		return nil, token.Error()
	})
	if err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// State returns the breaker state.
func (s *MQTTSink) State() gobreaker.State {
	return s.breaker.State()
}
