package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsymposium/marketpulse/internal/config"
	"github.com/finsymposium/marketpulse/internal/market"
	"github.com/finsymposium/marketpulse/internal/net/breaker"
	"github.com/finsymposium/marketpulse/internal/net/ratelimit"
	"github.com/finsymposium/marketpulse/internal/provider/yahoo"
)

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch one market snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			setLogLevel(cfg.Log.Level)

			session := market.NewSession(nil)
			fallback := market.NewFallbackGenerator(session, 0)
			source := yahoo.NewClient(yahoo.Config{
				Endpoints: cfg.Provider.Endpoints,
				Timeout:   cfg.Provider.Timeout,
				UserAgent: cfg.Provider.UserAgent,
			}, nil, ratelimit.NewLimiter(cfg.Provider.RPS, cfg.Provider.Burst), breaker.New("yahoo"), session)

			orchestrator := market.NewOrchestrator(source, fallback, session, market.OrchestratorConfig{
				ItemTimeout:   cfg.Provider.ItemTimeout,
				StockRetry:    market.RetryPolicy{ExtraAttempts: cfg.Provider.StockRetries, Delay: cfg.Provider.RetryDelay},
				CurrencyRetry: market.RetryPolicy{},
				Version:       version,
			})

			snapshot := orchestrator.FetchAll(cmd.Context())
			out, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
