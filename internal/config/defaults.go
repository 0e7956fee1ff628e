package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel = "info"

	DefaultGammaURL     = "https://gamma-api.polymarket.com"
	DefaultBookURL      = "https://clob.polymarket.com"
	DefaultAPITimeout   = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultPageSize     = 500
	DefaultMaxMarkets   = 1_000_000
	DefaultSyncInterval = 5 * time.Minute

	DefaultFeedURL             = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	DefaultTokensPerConnection = 1000
	DefaultMaxConnections      = 10
	DefaultReconnectBaseDelay  = 1 * time.Second
	DefaultReconnectMaxDelay   = 30 * time.Second
	DefaultReadTimeout         = 30 * time.Second
	DefaultWriteTimeout        = 5 * time.Second

	DefaultFlushInterval = 1 * time.Second
	DefaultStatsInterval = 10 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *IngesterConfig) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Gamma defaults
	if c.Gamma.BaseURL == "" {
		c.Gamma.BaseURL = DefaultGammaURL
	}
	if c.Gamma.BookURL == "" {
		c.Gamma.BookURL = DefaultBookURL
	}
	if c.Gamma.Timeout == 0 {
		c.Gamma.Timeout = DefaultAPITimeout
	}
	if c.Gamma.MaxRetries == 0 {
		c.Gamma.MaxRetries = DefaultMaxRetries
	}
	if c.Gamma.PageSize == 0 {
		c.Gamma.PageSize = DefaultPageSize
	}
	if c.Gamma.MaxMarkets == 0 {
		c.Gamma.MaxMarkets = DefaultMaxMarkets
	}
	if c.Gamma.SyncInterval == 0 {
		c.Gamma.SyncInterval = DefaultSyncInterval
	}

	// Feed defaults
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.TokensPerConnection == 0 {
		c.Feed.TokensPerConnection = DefaultTokensPerConnection
	}
	if c.Feed.MaxConnections == 0 {
		c.Feed.MaxConnections = DefaultMaxConnections
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.ReadTimeout == 0 {
		c.Feed.ReadTimeout = DefaultReadTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}

	// Buffer defaults
	if c.Buffer.FlushInterval == 0 {
		c.Buffer.FlushInterval = DefaultFlushInterval
	}
	if c.Buffer.StatsInterval == 0 {
		c.Buffer.StatsInterval = DefaultStatsInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
