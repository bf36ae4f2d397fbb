package history

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/polymarket-live/internal/model"
)

// Source provides price series. *api.Client satisfies it.
type Source interface {
	GetPriceHistory(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error)
}

// Config holds fetcher configuration.
type Config struct {
	Concurrency int           // Max concurrent requests (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Fetcher retrieves price history.
type Fetcher struct {
	cfg    Config
	source Source
	logger *slog.Logger
}

// New creates a new Fetcher.
func New(cfg Config, source Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Fetcher{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// Fetch returns the series for one token.
func (f *Fetcher) Fetch(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}
	return f.source.GetPriceHistory(ctx, tokenID, interval)
}

// FetchAll fetches several series concurrently. A token whose request fails
// is logged and left out of the result; only cancellation of ctx is returned
// as an error.
func (f *Fetcher) FetchAll(ctx context.Context, tokenIDs []string, interval model.Interval) (map[string][]model.PricePoint, error) {
	start := time.Now()

	var mu sync.Mutex
	results := make(map[string][]model.PricePoint, len(tokenIDs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for _, id := range tokenIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			points, err := f.Fetch(gctx, id, interval)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				f.logger.Warn("failed to fetch price history",
					"asset_id", id,
					"interval", interval,
					"err", err,
				)
				failed.Add(1)
				return nil
			}

			mu.Lock()
			results[id] = points
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.logger.Debug("history batch complete",
		"requested", len(tokenIDs),
		"fetched", len(results),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)

	return results, nil
}
