// Package live wires the quote store, normalizer, subscription registry and
// reconnect supervisor into a single streaming client.
package live

import (
	"log/slog"

	"github.com/rickgao/polymarket-live/internal/connection"
	"github.com/rickgao/polymarket-live/internal/model"
	"github.com/rickgao/polymarket-live/internal/quote"
	"github.com/rickgao/polymarket-live/internal/router"
	"github.com/rickgao/polymarket-live/internal/subscription"
)

// Stats is a point-in-time view of the streaming client.
type Stats struct {
	State         string       `json:"state"`
	Sessions      int64        `json:"sessions"`
	Subscriptions int          `json:"subscriptions"`
	Quotes        int          `json:"quotes"`
	Router        router.Stats `json:"router"`
}

// Client streams live quotes and serves the latest known values. Reads never
// block on the network and keep returning last known values while
// disconnected; check State to judge staleness.
type Client struct {
	store      *quote.Store
	registry   *subscription.Registry
	router     *router.Router
	supervisor *connection.Supervisor
}

// New creates a Client. Nothing connects until Connect is called.
func New(cfg connection.SupervisorConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	store := quote.NewStore()
	registry := subscription.NewRegistry()
	r := router.NewRouter(store, logger.With("component", "router"))

	return &Client{
		store:      store,
		registry:   registry,
		router:     r,
		supervisor: connection.NewSupervisor(cfg, registry, r, logger.With("component", "stream")),
	}
}

// Connect subscribes to ids and starts streaming if not already running.
func (c *Client) Connect(ids []string) {
	c.supervisor.Connect(ids)
}

// Subscribe adds ids to the subscription set.
func (c *Client) Subscribe(ids []string) {
	c.supervisor.Subscribe(ids)
}

// Disconnect stops streaming. Subscriptions and quotes are kept.
func (c *Client) Disconnect() {
	c.supervisor.Disconnect()
}

// Get returns the latest quote for id.
func (c *Client) Get(id string) (model.Quote, bool) {
	return c.store.Get(id)
}

// GetAll returns a snapshot of every known quote.
func (c *Client) GetAll() map[string]model.Quote {
	return c.store.GetAll()
}

// Subscriptions returns every subscribed id in the order it was added.
func (c *Client) Subscriptions() []string {
	return c.registry.AllIDs()
}

// IsSubscribed reports whether id is in the subscription set.
func (c *Client) IsSubscribed(id string) bool {
	return c.registry.Contains(id)
}

// State returns the connection state.
func (c *Client) State() connection.State {
	return c.supervisor.State()
}

// Stats returns current statistics.
func (c *Client) Stats() Stats {
	return Stats{
		State:         c.supervisor.State().String(),
		Sessions:      c.supervisor.Sessions(),
		Subscriptions: c.registry.Len(),
		Quotes:        c.store.Len(),
		Router:        c.router.Stats(),
	}
}
