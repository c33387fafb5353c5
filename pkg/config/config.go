package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by all Validate errors.
var ErrInvalid = errors.New("invalid configuration")

// Temperature sources.
const (
	SourceLM35  = "lm35"
	SourceDHT22 = "dht22"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Radio       RadioConfig       `yaml:"radio"`
	ADC         ADCConfig         `yaml:"adc"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Moisture    MoistureConfig    `yaml:"moisture"`
	Thresholds  ThresholdsConfig  `yaml:"thresholds"`
	Relay       RelayConfig       `yaml:"relay"`
	Loop        LoopConfig        `yaml:"loop"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Mock        MockConfig        `yaml:"mock"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Log         LogConfig         `yaml:"log"`
}

// SerialConfig contains the UART link to the radio module.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// RadioConfig contains AT-command radio parameters.
type RadioConfig struct {
	Address      int           `yaml:"address"`       // Peer address used in AT+SEND
	LocalAddress int           `yaml:"local_address"` // Sent as AT+ADDRESS at startup when non-zero
	NetworkID    int           `yaml:"network_id"`    // Sent as AT+NETWORKID at startup when non-zero
	Band         int           `yaml:"band"`          // Sent as AT+BAND at startup when non-zero (Hz)
	Settle       time.Duration `yaml:"settle"`        // Wait after each command
}

// ADCConfig describes the converter shared by both sensor channels.
type ADCConfig struct {
	FullScale        int     `yaml:"full_scale"`        // Maximum code, e.g. 4095 for 12 bit
	ReferenceVoltage float64 `yaml:"reference_voltage"` // Voltage mapped to FullScale (V)
}

// TemperatureConfig selects and calibrates the temperature sensor.
type TemperatureConfig struct {
	Source      string  `yaml:"source"`       // lm35 or dht22
	Channel     int     `yaml:"channel"`      // ADC channel for lm35
	ScaleFactor float64 `yaml:"scale_factor"` // °C per volt (100 for 10 mV/°C)
	DHTPin      string  `yaml:"dht_pin"`      // GPIO name for dht22
}

// MoistureConfig calibrates the soil moisture probe. Lower raw codes mean
// wetter soil.
type MoistureConfig struct {
	Channel int   `yaml:"channel"`
	WetRaw  int32 `yaml:"wet_raw"` // Raw code read in saturated soil (100 %)
	DryRaw  int32 `yaml:"dry_raw"` // Raw code read in dry soil (0 %)
}

// ThresholdsConfig contains actuation thresholds.
type ThresholdsConfig struct {
	TemperatureC float64 `yaml:"temperature_c"` // Pump on above this temperature
	MoisturePct  float64 `yaml:"moisture_pct"`  // Pump on below this moisture
}

// RelayConfig contains the pump relay output.
type RelayConfig struct {
	Pin       string `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
}

// LoopConfig contains control loop timing.
type LoopConfig struct {
	Period time.Duration `yaml:"period"`
}

// HardwareConfig contains host (Linux) hardware bindings.
type HardwareConfig struct {
	I2CBus        string  `yaml:"i2c_bus"`         // Empty selects the first bus
	I2CAddress    uint16  `yaml:"i2c_address"`     // ADS1115 address
	ADCMaxVoltage float64 `yaml:"adc_max_voltage"` // ADS1115 programmable gain range (V)
	ADCRate       int     `yaml:"adc_rate"`        // ADS1115 samples per second
}

// MockConfig contains simulator configuration.
type MockConfig struct {
	AmbientC       float64 `yaml:"ambient_c"`       // Mean temperature (°C)
	SwingC         float64 `yaml:"swing_c"`         // Daily temperature swing amplitude (°C)
	DayCycles      int     `yaml:"day_cycles"`      // Cycles per simulated day
	InitialPct     float64 `yaml:"initial_pct"`     // Starting soil moisture (%)
	WateringPct    float64 `yaml:"watering_pct"`    // Moisture gained per cycle while pumping
	EvaporationPct float64 `yaml:"evaporation_pct"` // Moisture lost per cycle
	NoiseCodes     int32   `yaml:"noise_codes"`     // Max raw jitter
	FailEvery      int     `yaml:"fail_every"`      // Inject a moisture read fault every N reads (0 = never)
}

// MetricsConfig contains the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // Empty disables the endpoint
}

// GatewayConfig contains receiver-side settings.
type GatewayConfig struct {
	Port        string       `yaml:"port"`
	BaudRate    int          `yaml:"baud_rate"`
	HTTPAddr    string       `yaml:"http_addr"`
	HistorySize int          `yaml:"history_size"` // Messages kept per address for /api/history
	Influx      InfluxConfig `yaml:"influx"`
	MQTT        MQTTConfig   `yaml:"mqtt"`
}

// InfluxConfig contains InfluxDB v2 connection settings. Empty URL disables it.
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// MQTTConfig contains MQTT broker settings. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"` // May contain {address}
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
}

// LogConfig contains logging options.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration matching the reference ESP32 build:
// LM35 and FC-28 on a 12-bit 3.3 V ADC, relay on GPIO23, RYLR998 on a
// 115200 baud UART.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyS0",
			BaudRate: 115200,
		},
		Radio: RadioConfig{
			Address: 0,
			Settle:  time.Second,
		},
		ADC: ADCConfig{
			FullScale:        4095,
			ReferenceVoltage: 3.3,
		},
		Temperature: TemperatureConfig{
			Source:      SourceLM35,
			Channel:     0,
			ScaleFactor: 100,
			DHTPin:      "GPIO4",
		},
		Moisture: MoistureConfig{
			Channel: 1,
			WetRaw:  0,
			DryRaw:  4095,
		},
		Thresholds: ThresholdsConfig{
			TemperatureC: 30.0,
			MoisturePct:  40.0,
		},
		Relay: RelayConfig{
			Pin: "GPIO23",
		},
		Loop: LoopConfig{
			Period: 5 * time.Second,
		},
		Hardware: HardwareConfig{
			I2CAddress:    0x48,
			ADCMaxVoltage: 4.096,
			ADCRate:       128,
		},
		Mock: MockConfig{
			AmbientC:       24.0,
			SwingC:         8.0,
			DayCycles:      720, // 1 hour at 5 s per cycle
			InitialPct:     50.0,
			WateringPct:    2.5,
			EvaporationPct: 0.4,
			NoiseCodes:     8,
		},
		Gateway: GatewayConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    115200,
			HTTPAddr:    ":8080",
			HistorySize: 720,
			Influx: InfluxConfig{
				Measurement: "irrigation",
			},
			MQTT: MQTTConfig{
				ClientID: "goirrigate-gateway",
				Topic:    "irrigation/{address}/telemetry",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and deployment specific values from environment
// variables. Unset variables leave the configuration untouched.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SERIAL_PORT"); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		c.Gateway.Port = v
	}
	if v := os.Getenv("INFLUX_URL"); v != "" {
		c.Gateway.Influx.URL = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		c.Gateway.Influx.Token = v
	}
	if v := os.Getenv("INFLUX_ORG"); v != "" {
		c.Gateway.Influx.Org = v
	}
	if v := os.Getenv("INFLUX_BUCKET"); v != "" {
		c.Gateway.Influx.Bucket = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Gateway.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_USER"); v != "" {
		c.Gateway.MQTT.User = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.Gateway.MQTT.Password = v
	}
}

// Validate reports settings the controller cannot run with.
func (c *Config) Validate() error {
	if c.ADC.FullScale <= 0 {
		return fmt.Errorf("%w: adc.full_scale must be positive, got %d", ErrInvalid, c.ADC.FullScale)
	}
	if c.ADC.ReferenceVoltage <= 0 {
		return fmt.Errorf("%w: adc.reference_voltage must be positive, got %g", ErrInvalid, c.ADC.ReferenceVoltage)
	}
	if c.Moisture.WetRaw == c.Moisture.DryRaw {
		return fmt.Errorf("%w: moisture.wet_raw and moisture.dry_raw must differ, both are %d", ErrInvalid, c.Moisture.WetRaw)
	}
	switch c.Temperature.Source {
	case SourceLM35, SourceDHT22:
	default:
		return fmt.Errorf("%w: unknown temperature.source %q", ErrInvalid, c.Temperature.Source)
	}
	if c.Loop.Period <= 0 {
		return fmt.Errorf("%w: loop.period must be positive, got %s", ErrInvalid, c.Loop.Period)
	}
	if c.Radio.Settle < 0 {
		return fmt.Errorf("%w: radio.settle must not be negative, got %s", ErrInvalid, c.Radio.Settle)
	}
	if c.Radio.Address < 0 || c.Radio.Address > 65535 {
		return fmt.Errorf("%w: radio.address out of range: %d", ErrInvalid, c.Radio.Address)
	}
	if c.Radio.LocalAddress < 0 || c.Radio.LocalAddress > 65535 {
		return fmt.Errorf("%w: radio.local_address out of range: %d", ErrInvalid, c.Radio.LocalAddress)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// Thresholds, radio address and wet_raw are legitimately zero and are not back-filled.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Radio.Settle == 0 {
		c.Radio.Settle = def.Radio.Settle
	}

	if c.ADC.FullScale == 0 {
		c.ADC.FullScale = def.ADC.FullScale
	}
	if c.ADC.ReferenceVoltage == 0 {
		c.ADC.ReferenceVoltage = def.ADC.ReferenceVoltage
	}

	if c.Temperature.Source == "" {
		c.Temperature.Source = def.Temperature.Source
	}
	if c.Temperature.ScaleFactor == 0 {
		c.Temperature.ScaleFactor = def.Temperature.ScaleFactor
	}
	if c.Temperature.DHTPin == "" {
		c.Temperature.DHTPin = def.Temperature.DHTPin
	}

	// dry_raw may be 0 on an inverted probe, so only an unset pair is filled.
	if c.Moisture.WetRaw == 0 && c.Moisture.DryRaw == 0 {
		c.Moisture.DryRaw = def.Moisture.DryRaw
	}

	if c.Relay.Pin == "" {
		c.Relay.Pin = def.Relay.Pin
	}

	if c.Loop.Period == 0 {
		c.Loop.Period = def.Loop.Period
	}

	if c.Hardware.I2CAddress == 0 {
		c.Hardware.I2CAddress = def.Hardware.I2CAddress
	}
	if c.Hardware.ADCMaxVoltage == 0 {
		c.Hardware.ADCMaxVoltage = def.Hardware.ADCMaxVoltage
	}
	if c.Hardware.ADCRate == 0 {
		c.Hardware.ADCRate = def.Hardware.ADCRate
	}

	if c.Mock.DayCycles == 0 {
		c.Mock.DayCycles = def.Mock.DayCycles
	}

	if c.Gateway.BaudRate == 0 {
		c.Gateway.BaudRate = def.Gateway.BaudRate
	}
	if c.Gateway.HistorySize == 0 {
		c.Gateway.HistorySize = def.Gateway.HistorySize
	}
	if c.Gateway.Influx.Measurement == "" {
		c.Gateway.Influx.Measurement = def.Gateway.Influx.Measurement
	}
	if c.Gateway.MQTT.ClientID == "" {
		c.Gateway.MQTT.ClientID = def.Gateway.MQTT.ClientID
	}
	if c.Gateway.MQTT.Topic == "" {
		c.Gateway.MQTT.Topic = def.Gateway.MQTT.Topic
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
