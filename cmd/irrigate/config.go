package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/itohio/goirrigate/pkg/config"
)

var configWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `config loads the configuration file over the built-in defaults, applies
environment overrides and prints the result as YAML. With --write the
result is saved back to the configuration file.`,
	Example: `  irrigate config
  irrigate config --config ./garden.yaml --write`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configWrite {
			// Saved without environment overrides so secrets stay out of the file.
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(cfgFile); err != nil {
				return err
			}
			log.Info().Str("config_file", cfgFile).Msg("configuration saved")
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configWrite, "write", false, "Save the effective configuration to --config")
}
