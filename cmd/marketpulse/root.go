package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the marketpulse CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "marketpulse",
		Short: "Backend for the finance symposium site: market data pipeline and content store",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to configuration file")
	root.AddCommand(serveCmd())
	root.AddCommand(snapshotCmd())
	return root.ExecuteContext(ctx)
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
