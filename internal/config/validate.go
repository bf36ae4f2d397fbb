package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/polymarket-live/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.WSURL == "" {
		return errors.New("api.ws_url is required")
	}
	if u, err := url.Parse(c.API.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("api.ws_url must be a ws:// or wss:// url, got %q", c.API.WSURL)
	}
	if c.API.GammaURL == "" {
		return errors.New("api.gamma_url is required")
	}
	if c.API.ClobURL == "" {
		return errors.New("api.clob_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Stream.ReconnectDelay <= 0 {
		return errors.New("stream.reconnect_delay must be > 0")
	}
	if c.Stream.PingInterval < 0 {
		return errors.New("stream.ping_interval must be >= 0")
	}
	if c.Stream.PongTimeout < 0 {
		return errors.New("stream.pong_timeout must be >= 0")
	}
	if c.Stream.WriteTimeout < 0 {
		return errors.New("stream.write_timeout must be >= 0")
	}
	if c.Stream.HandshakeTimeout < 0 {
		return errors.New("stream.handshake_timeout must be >= 0")
	}
	if c.Stream.BufferSize < 1 {
		return errors.New("stream.buffer_size must be >= 1")
	}

	if c.Discovery.PopularLimit < 1 {
		return errors.New("discovery.popular_limit must be >= 1")
	}
	if c.Discovery.SubscribeTop < 0 {
		return errors.New("discovery.subscribe_top must be >= 0")
	}

	if _, err := model.ParseInterval(c.History.Interval); err != nil {
		return fmt.Errorf("history.interval: %w", err)
	}
	if c.History.Concurrency < 1 {
		return errors.New("history.concurrency must be >= 1")
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	for i, id := range c.Assets {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("assets[%d] is empty", i)
		}
	}

	return nil
}
