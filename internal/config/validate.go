package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *IngesterConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Gamma.PageSize < 1 {
		return errors.New("gamma.page_size must be >= 1")
	}
	if c.Gamma.MaxMarkets < 1 {
		return errors.New("gamma.max_markets must be >= 1")
	}

	if c.Feed.TokensPerConnection < 1 {
		return errors.New("feed.tokens_per_connection must be >= 1")
	}
	if c.Feed.MaxConnections < 1 {
		return errors.New("feed.max_connections must be >= 1")
	}
	if c.Feed.ReconnectBaseDelay > c.Feed.ReconnectMaxDelay {
		return fmt.Errorf("feed.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)",
			c.Feed.ReconnectBaseDelay, c.Feed.ReconnectMaxDelay)
	}

	if c.Buffer.FlushInterval <= 0 {
		return errors.New("buffer.flush_interval must be > 0")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
