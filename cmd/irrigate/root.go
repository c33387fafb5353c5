package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itohio/goirrigate/pkg/config"
)

var (
	// cfgFile is the YAML configuration shared by all subcommands.
	cfgFile string

	// logLevel overrides log.level from the configuration when set.
	logLevel string

	// envFile holds secrets such as INFLUX_TOKEN and MQTT_PASSWORD.
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "irrigate",
	Short: "Soil moisture and temperature driven irrigation controller",
	Long: `irrigate samples a temperature sensor and a soil moisture probe, switches
the pump relay and reports every cycle over a LoRa radio module.

The gateway subcommand runs the receiving side: it decodes telemetry from a
second radio module and forwards it to InfluxDB, MQTT and an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		setupLogger(logLevel)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (trace, debug, info, warn, error); overrides log.level")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file with secrets")
}

func setupLogger(level string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	setLevel(level)
}

func setLevel(level string) {
	if level == "" {
		return
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("provided_level", level).Msg("Invalid log level provided. Defaulting to 'info'.")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if lvl <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// loadConfig loads the configuration file, applies environment overrides and
// validates the result. The --log-level flag wins over log.level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logLevel == "" {
		setLevel(cfg.Log.Level)
	}
	return cfg, nil
}

func component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
