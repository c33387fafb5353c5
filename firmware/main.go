//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"context"
	"machine"

	"github.com/rs/zerolog"

	"github.com/itohio/goirrigate/pkg/clock"
	"github.com/itohio/goirrigate/pkg/control"
	"github.com/itohio/goirrigate/pkg/policy"
	"github.com/itohio/goirrigate/pkg/relay"
	"github.com/itohio/goirrigate/pkg/sensor"
	"github.com/itohio/goirrigate/pkg/transport"
)

// adcChannel adapts machine.ADC, which reports 16-bit scaled samples, to the
// configured resolution.
type adcChannel struct {
	adc machine.ADC
}

func (c adcChannel) Read() (int32, error) {
	return int32(c.adc.Get() >> (16 - ADC_RESOLUTION)), nil
}

type outputPin struct {
	pin machine.Pin
}

func (p outputPin) Set(high bool) error {
	p.pin.Set(high)
	return nil
}

func main() {
	logger := zerolog.New(machine.Serial).With().Timestamp().Logger()

	// Relay first so the pump is held off while everything else starts.
	PIN_RELAY.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_RELAY.Low()

	machine.InitADC()
	adcConfig := machine.ADCConfig{Resolution: ADC_RESOLUTION}
	tempADC := machine.ADC{Pin: PIN_TEMPERATURE}
	tempADC.Configure(adcConfig)
	moistADC := machine.ADC{Pin: PIN_MOISTURE}
	moistADC.Configure(adcConfig)

	uart := machine.UART2
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
		TX:       PIN_UART_TX,
		RX:       PIN_UART_RX,
	})

	reader := sensor.NewReader(
		sensor.NewLM35(adcChannel{tempADC}, sensor.TemperatureCalibration{
			FullScale:        ADC_FULL_SCALE,
			ReferenceVoltage: ADC_REFERENCE_V,
			ScaleFactor:      LM35_SCALE,
		}),
		sensor.NewSoilProbe(adcChannel{moistADC}, sensor.MoistureCalibration{
			WetRaw: MOISTURE_WET_RAW,
			DryRaw: MOISTURE_DRY_RAW,
		}),
	)

	loop := control.New(
		reader,
		relay.New(outputPin{PIN_RELAY}, false),
		transport.New(uart, RADIO_SETTLE, clock.Real{}),
		control.Options{
			Thresholds: policy.Thresholds{
				TemperatureC: TEMPERATURE_THRESHOLD_C,
				MoisturePct:  MOISTURE_THRESHOLD_PCT,
			},
			Period:  LOOP_PERIOD,
			Address: RADIO_ADDRESS,
			Clock:   clock.Real{},
			Logger:  logger,
		},
	)

	// Never returns: the context is never cancelled on the MCU.
	loop.Run(context.Background())
}
