package main

import (
	"github.com/spf13/cobra"

	"github.com/ghettovoice/doorphone/config"
)

var rootCmd = &cobra.Command{
	Use:   "doorphone",
	Short: "Door intercom driven by the linphonec console client",
	Long: `doorphone supervises a linphonec process, registers the SIP account,
dials a number when the door button is pressed and hangs up calls that last too long.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "doorphone.yaml", "Path to the YAML or TOML config file")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}
