package config

import (
	"time"

	"github.com/rickgao/polymarket-live/internal/connection"
	"github.com/rickgao/polymarket-live/internal/history"
	"github.com/rickgao/polymarket-live/internal/market"
)

// Config is the root configuration for a livequotes instance.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Stream    StreamConfig    `yaml:"stream"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	History   HistoryConfig   `yaml:"history"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Assets    []string        `yaml:"assets"` // Instrument ids subscribed at startup
}

// APIConfig holds Polymarket endpoint settings.
type APIConfig struct {
	GammaURL   string        `yaml:"gamma_url"`
	ClobURL    string        `yaml:"clob_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StreamConfig holds market channel connection settings.
type StreamConfig struct {
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PongTimeout      time.Duration `yaml:"pong_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// DiscoveryConfig holds event catalog settings.
type DiscoveryConfig struct {
	PopularLimit       int           `yaml:"popular_limit"`
	SearchLimit        int           `yaml:"search_limit"`
	RefreshInterval    time.Duration `yaml:"refresh_interval"`
	SubscribeTop       int           `yaml:"subscribe_top"`       // Popular tokens to stream (0 = none)
	FilterPlaceholders *bool         `yaml:"filter_placeholders"` // nil means true
}

// HistoryConfig holds price history settings.
type HistoryConfig struct {
	Interval    string        `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// HTTPConfig holds the query API listener.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logger settings. File output is rotated by size.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SupervisorConfig converts the stream settings for the connection package.
func (c *Config) SupervisorConfig() connection.SupervisorConfig {
	return connection.SupervisorConfig{
		Client: connection.ClientConfig{
			URL:              c.API.WSURL,
			PingInterval:     c.Stream.PingInterval,
			PongTimeout:      c.Stream.PongTimeout,
			WriteTimeout:     c.Stream.WriteTimeout,
			HandshakeTimeout: c.Stream.HandshakeTimeout,
			BufferSize:       c.Stream.BufferSize,
		},
		ReconnectDelay: c.Stream.ReconnectDelay,
	}
}

// CatalogConfig converts the discovery settings for the market package.
func (c *Config) CatalogConfig() market.Config {
	filter := true
	if c.Discovery.FilterPlaceholders != nil {
		filter = *c.Discovery.FilterPlaceholders
	}
	return market.Config{
		PopularLimit:       c.Discovery.PopularLimit,
		SearchLimit:        c.Discovery.SearchLimit,
		RefreshInterval:    c.Discovery.RefreshInterval,
		FilterPlaceholders: filter,
		TopN:               c.Discovery.SubscribeTop,
	}
}

// FetcherConfig converts the history settings for the history package.
func (c *Config) FetcherConfig() history.Config {
	return history.Config{
		Concurrency: c.History.Concurrency,
		Timeout:     c.History.Timeout,
	}
}
