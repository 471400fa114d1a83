package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/doorphone/dns"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the SIP registrar once",
	Long:  `Looks up the registrar of the configured SIP host through NAPTR, SRV and address records and prints the targets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		r := &dns.Resolver{NameServer: cfg.SIP.NameServer}
		targets, err := r.ResolveRegistrar(ctx, cfg.SIP.Host)
		if err != nil {
			return err
		}
		for _, t := range targets {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s:%d\t%v\n", t.Transport, t.Host, t.Port, t.IPs)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().Duration("timeout", 10*time.Second, "Overall lookup timeout")
	rootCmd.AddCommand(resolveCmd)
}
