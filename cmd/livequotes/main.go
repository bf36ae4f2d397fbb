// livequotes streams Polymarket quotes for configured and popular
// instruments and serves the latest values over HTTP.
//
// Usage: go run ./cmd/livequotes --config configs/livequotes.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/polymarket-live/internal/api"
	"github.com/rickgao/polymarket-live/internal/config"
	"github.com/rickgao/polymarket-live/internal/history"
	"github.com/rickgao/polymarket-live/internal/live"
	"github.com/rickgao/polymarket-live/internal/logging"
	"github.com/rickgao/polymarket-live/internal/market"
	"github.com/rickgao/polymarket-live/internal/model"
	"github.com/rickgao/polymarket-live/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/livequotes.yaml", "path to config file (empty for defaults)")
	envPath := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintln(os.Stderr, "livequotes:", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if err := config.LoadEnvFile(envPath); err != nil {
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadAndValidate(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, closeLog, err := logging.New(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting livequotes",
		"version", version.Version,
		"commit", version.Commit,
		"config", configPath,
		"ws_url", cfg.API.WSURL,
	)

	// Validated above; the default is always valid.
	defaultInterval, _ := model.ParseInterval(cfg.History.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	apiClient := api.NewClient(
		cfg.API.GammaURL,
		cfg.API.ClobURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	catalog := market.NewCatalog(cfg.CatalogConfig(), apiClient, logger.With("component", "catalog"))
	if err := catalog.Start(ctx); err != nil {
		return fmt.Errorf("start catalog: %w", err)
	}

	liveClient := live.New(cfg.SupervisorConfig(), logger)

	ids := append([]string(nil), cfg.Assets...)
	if cfg.Discovery.SubscribeTop > 0 {
		ids = append(ids, catalog.TopTokenIDs(cfg.Discovery.SubscribeTop)...)
	}
	if len(ids) == 0 {
		logger.Warn("no instruments configured; set assets or discovery.subscribe_top")
	}
	liveClient.Connect(ids)

	fetcher := history.New(cfg.FetcherConfig(), apiClient, logger.With("component", "history"))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: newHandler(handlerDeps{
			Quotes:             liveClient,
			Catalog:            catalog,
			Events:             apiClient,
			History:            fetcher,
			DefaultInterval:    defaultInterval,
			FilterPlaceholders: cfg.CatalogConfig().FilterPlaceholders,
			Logger:             logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Discovery.SubscribeTop > 0 {
		g.Go(func() error {
			followDiscovered(gctx, catalog.Discovered(), liveClient, logger)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	logger.Info("livequotes running",
		"subscriptions", len(liveClient.Subscriptions()),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.HTTP.Port),
	)

	err = g.Wait()

	logger.Info("shutting down...")
	liveClient.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if stopErr := catalog.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("catalog stop", "error", stopErr)
	}

	logger.Info("livequotes stopped", "stats", liveClient.Stats())
	return err
}

// followDiscovered subscribes to newly popular tokens until ctx is done.
func followDiscovered(ctx context.Context, discovered <-chan []string, client *live.Client, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ids := <-discovered:
			logger.Info("subscribing to newly popular instruments", "count", len(ids))
			client.Subscribe(ids)
		}
	}
}
