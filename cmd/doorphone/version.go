package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/doorphone"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of doorphone",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "doorphone version %s\n", strings.TrimSpace(doorphone.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
