package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"periph.io/x/host/v3"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/config"
	"github.com/itohio/goirrigate/pkg/control"
	"github.com/itohio/goirrigate/pkg/policy"
	"github.com/itohio/goirrigate/pkg/relay"
	"github.com/itohio/goirrigate/pkg/sensor"
	"github.com/itohio/goirrigate/pkg/sim"
	"github.com/itohio/goirrigate/pkg/transport"
)

var (
	runPort   string
	runMock   bool
	runStdout bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the irrigation control loop",
	Long: `run samples the sensors every loop.period, switches the pump relay and
sends one AT+SEND frame per cycle to the radio module on the serial port.

With --mock the sensors and pump are replaced by a simulated garden bed so
the loop can run without hardware.`,
	Example: `  irrigate run --config ./config.yaml
  irrigate run --mock --stdout --log-level debug`,
	RunE: runController,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runPort, "port", "p", "", "Serial port override (e.g. /dev/ttyS0)")
	runCmd.Flags().BoolVar(&runMock, "mock", false, "Use the simulated garden instead of hardware")
	runCmd.Flags().BoolVar(&runStdout, "stdout", false, "Write frames to stdout instead of the serial port")
}

func runController(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runPort != "" {
		cfg.Serial.Port = runPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hw, err := openHardware(cfg, runMock)
	if err != nil {
		return err
	}
	defer hw.Close()

	pump := armPump(hw.pin, cfg.Relay.ActiveLow)
	defer forcePumpOff(pump)

	out, err := openRadio(cfg, runStdout)
	if err != nil {
		return err
	}
	defer out.Close()

	tx := transport.New(out, cfg.Radio.Settle, clock.Real{})
	if err := tx.Configure(cfg.Radio.LocalAddress, cfg.Radio.NetworkID, cfg.Radio.Band); err != nil {
		return fmt.Errorf("configure radio: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := control.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := serveMetrics(ctx, cfg.Metrics.Addr, reg); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server failed")
			}
		}()
	}

	loop := control.New(hw.sampler, pump, tx, control.Options{
		Thresholds: policy.Thresholds{
			TemperatureC: cfg.Thresholds.TemperatureC,
			MoisturePct:  cfg.Thresholds.MoisturePct,
		},
		Period:  cfg.Loop.Period,
		Address: cfg.Radio.Address,
		Clock:   clock.Real{},
		Logger:  component("control"),
		Metrics: metrics,
	})

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// armPump wraps pin and switches the pump off before the radio or the loop
// are touched.
func armPump(pin relay.Pin, activeLow bool) *relay.Relay {
	pump := relay.New(pin, activeLow)
	forcePumpOff(pump)
	return pump
}

func forcePumpOff(pump *relay.Relay) {
	if err := pump.Off(); err != nil {
		log.Error().Err(err).Msg("failed to force pump off")
	}
}

// hardware is the sensor and relay wiring of one controller.
type hardware struct {
	sampler control.Sampler
	pin     relay.Pin
	closers []io.Closer
}

func (h *hardware) Close() error {
	var errs []error
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func temperatureCalibration(cfg *config.Config) sensor.TemperatureCalibration {
	return sensor.TemperatureCalibration{
		FullScale:        cfg.ADC.FullScale,
		ReferenceVoltage: cfg.ADC.ReferenceVoltage,
		ScaleFactor:      cfg.Temperature.ScaleFactor,
	}
}

func moistureCalibration(cfg *config.Config) sensor.MoistureCalibration {
	return sensor.MoistureCalibration{
		WetRaw: cfg.Moisture.WetRaw,
		DryRaw: cfg.Moisture.DryRaw,
	}
}

func openHardware(cfg *config.Config, mock bool) (*hardware, error) {
	if mock {
		garden := sim.FromConfig(cfg)
		log.Info().
			Float64("ambient_c", cfg.Mock.AmbientC).
			Float64("initial_pct", cfg.Mock.InitialPct).
			Msg("using simulated garden")
		return &hardware{
			sampler: sensor.NewReader(
				sensor.NewLM35(garden.TemperatureChannel(), temperatureCalibration(cfg)),
				sensor.NewSoilProbe(garden.MoistureChannel(), moistureCalibration(cfg)),
			),
			pin: garden.Pump(),
		}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	hw := &hardware{}
	ads, err := sensor.OpenADS1115(cfg.Hardware.I2CBus, cfg.Hardware.I2CAddress, cfg.Hardware.ADCMaxVoltage, cfg.Hardware.ADCRate)
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, ads)

	moistureCh, err := ads.Channel(cfg.Moisture.Channel)
	if err != nil {
		hw.Close()
		return nil, err
	}

	var thermometer sensor.Thermometer
	switch cfg.Temperature.Source {
	case config.SourceDHT22:
		thermometer, err = sensor.NewDHT22(cfg.Temperature.DHTPin)
	default:
		var ch sensor.Channel
		ch, err = ads.Channel(cfg.Temperature.Channel)
		if err == nil {
			thermometer = sensor.NewLM35(ch, temperatureCalibration(cfg))
		}
	}
	if err != nil {
		hw.Close()
		return nil, err
	}

	pin, err := relay.OpenGPIO(cfg.Relay.Pin, cfg.Relay.ActiveLow)
	if err != nil {
		hw.Close()
		return nil, err
	}

	hw.sampler = sensor.NewReader(thermometer, sensor.NewSoilProbe(moistureCh, moistureCalibration(cfg)))
	hw.pin = pin

	log.Info().
		Str("temperature_source", cfg.Temperature.Source).
		Str("relay_pin", pin.String()).
		Uint16("i2c_address", cfg.Hardware.I2CAddress).
		Msg("hardware initialized")
	return hw, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func openRadio(cfg *config.Config, stdout bool) (io.WriteCloser, error) {
	if stdout {
		return nopCloser{os.Stdout}, nil
	}
	port, err := transport.Open(cfg.Serial.Port, cfg.Serial.BaudRate)
	if err != nil {
		return nil, err
	}
	log.Info().Str("port", cfg.Serial.Port).Int("baud_rate", cfg.Serial.BaudRate).Msg("radio serial port opened")
	return port, nil
}
