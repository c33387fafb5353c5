package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/gateway"
	"github.com/itohio/goirrigate/pkg/transport"
)

var gatewayPort string

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Receive telemetry from a serial-attached radio module",
	Long: `gateway configures a second radio module with radio.address as its own
address, decodes every +RCV line and forwards the readings to:
  - the in-memory stores behind the HTTP API (gateway.http_addr)
  - InfluxDB v2 when gateway.influx.url is set
  - an MQTT broker when gateway.mqtt.broker is set`,
	Example: `  irrigate gateway --config ./config.yaml
  INFLUX_TOKEN=... irrigate gateway -p /dev/ttyUSB1`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)

	gatewayCmd.Flags().StringVarP(&gatewayPort, "port", "p", "", "Serial port override (e.g. /dev/ttyUSB0)")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gatewayPort != "" {
		cfg.Gateway.Port = gatewayPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := gateway.NewMetrics(reg)

	latest := gateway.NewLatest()
	history := gateway.NewHistory(cfg.Gateway.HistorySize)
	sinks := []gateway.Sink{latest, history}

	if cfg.Gateway.Influx.URL != "" {
		influx, err := gateway.NewInfluxSink(cfg.Gateway.Influx)
		if err != nil {
			return err
		}
		defer influx.Close()
		sinks = append(sinks, influx)
		log.Info().Str("url", cfg.Gateway.Influx.URL).Str("bucket", cfg.Gateway.Influx.Bucket).Msg("influx sink enabled")
	}

	if cfg.Gateway.MQTT.Broker != "" {
		client, err := gateway.ConnectMQTT(ctx, cfg.Gateway.MQTT, component("mqtt"))
		if err != nil {
			return err
		}
		sinks = append(sinks, gateway.NewMQTTSink(client, cfg.Gateway.MQTT, component("mqtt")))
		log.Info().Str("topic", cfg.Gateway.MQTT.Topic).Msg("mqtt sink enabled")
	}

	port, err := transport.Open(cfg.Gateway.Port, cfg.Gateway.BaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	radio := transport.New(port, cfg.Radio.Settle, clock.Real{})
	if err := radio.Configure(cfg.Radio.Address, cfg.Radio.NetworkID, cfg.Radio.Band); err != nil {
		return fmt.Errorf("configure radio: %w", err)
	}

	server := gateway.NewServer(latest, history, reg, component("http"))
	receiver := gateway.NewReceiver(component("receiver"), metrics, sinks...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, cfg.Gateway.HTTPAddr)
	})
	g.Go(func() error {
		return receiver.Run(ctx, port)
	})
	g.Go(func() error {
		// Closing the port unblocks the receiver's pending read.
		<-ctx.Done()
		_ = port.Close()
		return nil
	})

	log.Info().Str("port", cfg.Gateway.Port).Str("http_addr", cfg.Gateway.HTTPAddr).Msg("gateway started")

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
