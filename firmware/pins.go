//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Control loop
	LOOP_PERIOD  = 5 * time.Second
	RADIO_SETTLE = 1 * time.Second

	// Thresholds
	TEMPERATURE_THRESHOLD_C = 30.0 // Pump on above
	MOISTURE_THRESHOLD_PCT  = 40.0 // Pump on below

	// ADC configuration
	ADC_RESOLUTION  = 12   // 0-4095
	ADC_FULL_SCALE  = 4095 // Maximum code at ADC_RESOLUTION
	ADC_REFERENCE_V = 3.3  // 11 dB attenuation on the ESP32
	LM35_SCALE      = 100  // °C per volt (10 mV/°C)

	// Soil probe calibration: raw code in saturated and dry soil
	MOISTURE_WET_RAW = 0
	MOISTURE_DRY_RAW = 4095

	// Sensor pins (ADC1, usable while the radio is active)
	PIN_TEMPERATURE = machine.GPIO34
	PIN_MOISTURE    = machine.GPIO35

	// Pump relay (active high)
	PIN_RELAY = machine.GPIO23

	// RYLR998 on UART2
	PIN_UART_TX    = machine.GPIO17
	PIN_UART_RX    = machine.GPIO16
	UART_BAUD_RATE = 115200
	RADIO_ADDRESS  = 0 // AT+SEND destination
)
