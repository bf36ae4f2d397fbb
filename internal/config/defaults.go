package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGammaURL         = "https://gamma-api.polymarket.com"
	DefaultClobURL          = "https://clob.polymarket.com"
	DefaultWSURL            = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	DefaultAPITimeout       = 10 * time.Second
	DefaultMaxRetries       = 3
	DefaultReconnectDelay   = 5 * time.Second
	DefaultPingInterval     = 10 * time.Second
	DefaultPongTimeout      = 5 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultBufferSize       = 1000
	DefaultPopularLimit     = 20
	DefaultSearchLimit      = 20
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultHistoryInterval  = "1d"
	DefaultHistoryWorkers   = 4
	DefaultHistoryTimeout   = 10 * time.Second
	DefaultHTTPPort         = 8080
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxBackups    = 3
	DefaultLogMaxAgeDays    = 28
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.GammaURL == "" {
		c.API.GammaURL = DefaultGammaURL
	}
	if c.API.ClobURL == "" {
		c.API.ClobURL = DefaultClobURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Stream defaults
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.PongTimeout == 0 {
		c.Stream.PongTimeout = DefaultPongTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Stream.HandshakeTimeout == 0 {
		c.Stream.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultBufferSize
	}

	// Discovery defaults
	if c.Discovery.PopularLimit == 0 {
		c.Discovery.PopularLimit = DefaultPopularLimit
	}
	if c.Discovery.SearchLimit == 0 {
		c.Discovery.SearchLimit = DefaultSearchLimit
	}
	if c.Discovery.RefreshInterval == 0 {
		c.Discovery.RefreshInterval = DefaultRefreshInterval
	}

	// History defaults
	if c.History.Interval == "" {
		c.History.Interval = DefaultHistoryInterval
	}
	if c.History.Concurrency == 0 {
		c.History.Concurrency = DefaultHistoryWorkers
	}
	if c.History.Timeout == 0 {
		c.History.Timeout = DefaultHistoryTimeout
	}

	// HTTP defaults
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}
}
