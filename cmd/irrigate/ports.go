package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itohio/goirrigate/pkg/transport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := transport.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
