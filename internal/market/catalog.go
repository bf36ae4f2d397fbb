package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/polymarket-live/internal/api"
	"github.com/rickgao/polymarket-live/internal/model"
)

// DiscoveredBufferSize is the capacity of the Discovered channel.
const DiscoveredBufferSize = 16

// Catalog caches discovered events and resolves token ids to instruments.
type Catalog interface {
	// Start performs the first refresh and begins periodic refreshes.
	Start(ctx context.Context) error

	// Stop gracefully shuts down.
	Stop(ctx context.Context) error

	// Events returns the cached popular events, most popular first.
	Events() []model.Event

	// Lookup resolves a token id seen in popular or search results.
	Lookup(tokenID string) (model.Instrument, bool)

	// TopTokenIDs returns the first token of each market, most popular
	// event first, up to n ids (n <= 0 means all).
	TopTokenIDs(n int) []string

	// Search queries the discovery service. Results are indexed for Lookup
	// but do not replace the popular list.
	Search(ctx context.Context, query string) ([]model.Event, error)

	// Discovered returns a channel of top token ids that were not in the
	// previous refresh.
	Discovered() <-chan []string
}

// EventSource is the discovery service. *api.Client satisfies it.
type EventSource interface {
	GetPopularEvents(ctx context.Context, limit int) ([]api.APIEvent, error)
	SearchEvents(ctx context.Context, query string, limitPerType int) ([]api.APIEvent, error)
}

// Config holds Catalog configuration.
type Config struct {
	PopularLimit       int
	SearchLimit        int
	RefreshInterval    time.Duration
	FilterPlaceholders bool
	TopN               int // how many top tokens to track for Discovered
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PopularLimit:       20,
		SearchLimit:        20,
		RefreshInterval:    5 * time.Minute,
		FilterPlaceholders: true,
	}
}

// catalogImpl implements the Catalog interface.
type catalogImpl struct {
	cfg    Config
	source EventSource
	logger *slog.Logger

	state *catalogState

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCatalog creates a new Catalog.
func NewCatalog(cfg Config, source EventSource, logger *slog.Logger) Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	return &catalogImpl{
		cfg:    cfg,
		source: source,
		logger: logger,
		state:  newState(),
	}
}

// Start refreshes once and then keeps refreshing in the background. An
// upstream failure is logged, not returned; the next tick retries.
func (c *catalogImpl) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	if err := c.refresh(ctx); err != nil {
		c.logger.Warn("initial catalog refresh failed", "error", err)
	}

	go func() {
		defer close(c.done)
		c.refreshLoop(ctx)
	}()

	c.logger.Info("catalog started",
		"events", c.state.eventCount(),
		"instruments", c.state.instrumentCount(),
	)

	return nil
}

// Stop gracefully shuts down.
func (c *catalogImpl) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()

	select {
	case <-c.done:
		c.logger.Info("catalog stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *catalogImpl) Events() []model.Event {
	return c.state.getEvents()
}

func (c *catalogImpl) Lookup(tokenID string) (model.Instrument, bool) {
	return c.state.lookup(tokenID)
}

func (c *catalogImpl) TopTokenIDs(n int) []string {
	return c.state.topTokenIDs(n)
}

func (c *catalogImpl) Discovered() <-chan []string {
	return c.state.discovered
}

// Search queries the discovery service and indexes the results.
func (c *catalogImpl) Search(ctx context.Context, query string) ([]model.Event, error) {
	raw, err := c.source.SearchEvents(ctx, query, c.cfg.SearchLimit)
	if err != nil {
		return nil, err
	}

	events := c.convert(raw)
	c.state.index(events)
	return events, nil
}

// refreshLoop periodically re-fetches popular events.
func (c *catalogImpl) refreshLoop(ctx context.Context) {
	if c.cfg.RefreshInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.refresh(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("catalog refresh failed", "error", err)
			}
		}
	}
}

// refresh replaces the popular list and announces new top tokens.
func (c *catalogImpl) refresh(ctx context.Context) error {
	start := time.Now()

	raw, err := c.source.GetPopularEvents(ctx, c.cfg.PopularLimit)
	if err != nil {
		return err
	}

	events := c.convert(raw)
	added := c.state.replace(events, c.cfg.TopN)
	if len(added) > 0 {
		c.state.notifyDiscovered(added)
	}

	c.logger.Debug("catalog refreshed",
		"events", len(events),
		"new_tokens", len(added),
		"duration", time.Since(start),
	)

	return nil
}

func (c *catalogImpl) convert(raw []api.APIEvent) []model.Event {
	events := make([]model.Event, 0, len(raw))
	for i := range raw {
		ev := raw[i].ToModel()
		if c.cfg.FilterPlaceholders {
			var ok bool
			if ev, ok = FilterEvent(ev); !ok {
				continue
			}
		}
		events = append(events, ev)
	}
	return events
}
