package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/finsymposium/marketpulse/internal/cache"
	"github.com/finsymposium/marketpulse/internal/config"
	httpserver "github.com/finsymposium/marketpulse/internal/interfaces/http"
	"github.com/finsymposium/marketpulse/internal/market"
	"github.com/finsymposium/marketpulse/internal/metrics"
	"github.com/finsymposium/marketpulse/internal/net/breaker"
	"github.com/finsymposium/marketpulse/internal/net/ratelimit"
	"github.com/finsymposium/marketpulse/internal/provider/yahoo"
	"github.com/finsymposium/marketpulse/internal/scheduler"
	"github.com/finsymposium/marketpulse/internal/store/github"
	"github.com/finsymposium/marketpulse/internal/stream"
)

const version = "2.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			setLogLevel(cfg.Log.Level)
			return runServe(cmd.Context(), cfg)
		},
	}
}

// runServe is the composition root: every component is constructed and
// wired exactly once here.
func runServe(ctx context.Context, cfg config.Config) error {
	session := market.NewSession(nil)
	fallback := market.NewFallbackGenerator(session, 0)

	limiter := ratelimit.NewLimiter(cfg.Provider.RPS, cfg.Provider.Burst)
	brk := breaker.New("yahoo")
	source := yahoo.NewClient(yahoo.Config{
		Endpoints: cfg.Provider.Endpoints,
		Timeout:   cfg.Provider.Timeout,
		UserAgent: cfg.Provider.UserAgent,
	}, nil, limiter, brk, session)

	registry := metrics.NewRegistry()

	orchestrator := market.NewOrchestrator(source, fallback, session, market.OrchestratorConfig{
		ItemTimeout:   cfg.Provider.ItemTimeout,
		StockRetry:    market.RetryPolicy{ExtraAttempts: cfg.Provider.StockRetries, Delay: cfg.Provider.RetryDelay},
		CurrencyRetry: market.RetryPolicy{},
		Version:       version,
	})
	orchestrator.SetObserver(registry)

	sched := scheduler.New(orchestrator, fallback, scheduler.Config{Interval: cfg.Scheduler.Interval})
	defer sched.Stop()

	docCache := cache.New(cfg.Store.CacheSize)
	defer docCache.Stop()
	store := github.NewStore(github.NewClient(github.Config{
		Owner:      cfg.Store.Owner,
		Repo:       cfg.Store.Repo,
		Branch:     cfg.Store.Branch,
		Token:      cfg.Store.Token,
		APIBaseURL: "https://api.github.com",
		RawBaseURL: "https://raw.githubusercontent.com",
	}, nil), docCache)
	if !store.WritesEnabled() {
		log.Warn().Msg("GITHUB_TOKEN is not set, document writes are disabled")
	}

	hub := stream.NewHub(func(count int) {
		registry.StreamClients.Set(float64(count))
	})

	// The hub rides the scheduler like any other observer; its presence
	// keeps the refresh loop alive for as long as the server runs.
	unsubscribe := sched.Subscribe(hub.Broadcast)
	defer unsubscribe()
	registry.Subscribers.Set(float64(sched.SubscriberCount()))

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, httpserver.Deps{
		Orchestrator: orchestrator,
		Fallback:     fallback,
		Scheduler:    sched,
		Store:        store,
		Hub:          hub,
		Metrics:      registry,
		Version:      version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
