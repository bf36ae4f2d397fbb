// streamtest connects to the Polymarket market channel and prints a quote
// table to the console.
// Usage: go run ./cmd/streamtest -assets 1234,5678 [-interval 5s]
//
// With no -assets, the most popular instruments are streamed instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rickgao/polymarket-live/internal/api"
	"github.com/rickgao/polymarket-live/internal/config"
	"github.com/rickgao/polymarket-live/internal/connection"
	"github.com/rickgao/polymarket-live/internal/live"
	"github.com/rickgao/polymarket-live/internal/logging"
	"github.com/rickgao/polymarket-live/internal/market"
	"github.com/rickgao/polymarket-live/internal/model"
)

func main() {
	assets := flag.String("assets", "", "comma-separated instrument ids")
	top := flag.Int("top", 5, "popular instruments to stream when -assets is empty")
	interval := flag.Duration("interval", 5*time.Second, "table refresh interval")
	wsURL := flag.String("ws-url", config.DefaultWSURL, "market channel URL")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	if err := run(*assets, *top, *interval, *wsURL, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "streamtest:", err)
		os.Exit(1)
	}
}

// checkFlags rejects values that would make the stream or the table unusable.
func checkFlags(top int, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("-interval must be > 0, got %v", interval)
	}
	if top < 0 {
		return fmt.Errorf("-top must be >= 0, got %d", top)
	}
	return nil
}

func run(assets string, top int, interval time.Duration, wsURL string, verbose bool) error {
	if err := checkFlags(top, interval); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.API.WSURL = wsURL
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintln(os.Stderr, "close log:", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Resolve names for the table, and pick instruments if none were given.
	apiClient := api.NewClient(cfg.API.GammaURL, cfg.API.ClobURL, api.WithLogger(logger))
	catalogCfg := cfg.CatalogConfig()
	catalogCfg.RefreshInterval = 0
	catalog := market.NewCatalog(catalogCfg, apiClient, logger)
	if err := catalog.Start(ctx); err != nil {
		return fmt.Errorf("start catalog: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := catalog.Stop(shutdownCtx); err != nil {
			logger.Warn("catalog stop", "error", err)
		}
	}()

	ids := splitIDs(assets)
	if len(ids) == 0 && top > 0 {
		ids = catalog.TopTokenIDs(top)
	}
	if len(ids) == 0 {
		return errors.New("no instruments to stream; pass -assets")
	}

	client := live.New(cfg.SupervisorConfig(), logger)
	client.Connect(ids)
	logger.Info("streaming started - press Ctrl+C to stop", "instruments", len(ids))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			printTable(os.Stdout, client, catalog)
		}
	}

	client.Disconnect()

	stats := client.Stats()
	logger.Info("shutdown complete",
		"sessions", stats.Sessions,
		"messages", stats.Router.MessagesReceived,
		"updates", stats.Router.UpdatesApplied,
		"decode_errors", stats.Router.DecodeErrors,
	)
	return nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// quoteTable is the read side of live.Client used by the table.
type quoteTable interface {
	GetAll() map[string]model.Quote
	Subscriptions() []string
	State() connection.State
}

// instrumentLookup is satisfied by market.Catalog.
type instrumentLookup interface {
	Lookup(tokenID string) (model.Instrument, bool)
}

func printTable(w io.Writer, client quoteTable, catalog instrumentLookup) {
	quotes := client.GetAll()

	ids := client.Subscriptions()
	sort.SliceStable(ids, func(i, j int) bool {
		_, iok := quotes[ids[i]]
		_, jok := quotes[ids[j]]
		return iok && !jok
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\n[%s] state=%s\n", time.Now().Format(time.TimeOnly), client.State())
	fmt.Fprintln(tw, "INSTRUMENT\tBID\tASK\tLAST\tSPREAD\tVOLUME")
	for _, id := range ids {
		q := quotes[id]
		spread := "-"
		if s, ok := q.Spread(); ok {
			spread = api.FormatPrice(s)
		}
		volume := "-"
		if inst, ok := catalog.Lookup(id); ok {
			volume = api.FormatVolume(inst.Volume)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			label(catalog, id),
			formatField(q.BestBid),
			formatField(q.BestAsk),
			formatField(q.LastTradePrice),
			spread,
			volume,
		)
	}
	tw.Flush()
}

func label(catalog instrumentLookup, id string) string {
	inst, ok := catalog.Lookup(id)
	if !ok {
		return truncate(id, 16)
	}
	name := inst.Question
	if name == "" {
		name = inst.EventTitle
	}
	return truncate(name, 48) + " [" + inst.Outcome + "]"
}

func formatField(v *float64) string {
	if v == nil {
		return "-"
	}
	return api.FormatPrice(*v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

