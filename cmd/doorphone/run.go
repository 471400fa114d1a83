package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ghettovoice/doorphone"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the doorphone until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := cfg.LogWriter()
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer func() { _ = out.Close() }()
		logger, err := cfg.Logger(out)
		if err != nil {
			return err
		}

		if cfg.LockFile != "" {
			lock := flock.New(cfg.LockFile)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock %s: %w", cfg.LockFile, err)
			}
			if !locked {
				return fmt.Errorf("another doorphone holds %s", cfg.LockFile)
			}
			defer func() { _ = lock.Unlock() }()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return doorphone.New(cfg, &doorphone.Options{Logger: logger}).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
