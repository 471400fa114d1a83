package main

import (
	"github.com/spf13/cobra"

	"github.com/ghettovoice/doorphone/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and print the effective configuration",
	Long:  `Loads the config file over the defaults, validates it and prints the result with the SIP password masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		masked := cfg.Masked()
		out, err := masked.Marshal(format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	checkCmd.Flags().String("format", config.FormatYAML, "Output format: yaml or toml")
	rootCmd.AddCommand(checkCmd)
}
