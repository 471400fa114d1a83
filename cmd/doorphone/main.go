package main

import (
	"log/slog"
	"os"

	"github.com/ghettovoice/doorphone/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Def.Error("doorphone failed", slog.Any("error", err))
		os.Exit(1)
	}
}
