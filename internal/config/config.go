package config

import "time"

// IngesterConfig is the root configuration for an ingester instance.
type IngesterConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Log      LogConfig      `yaml:"log"`
	Database DBConfig       `yaml:"database"`
	Gamma    GammaConfig    `yaml:"gamma"`
	Feed     FeedConfig     `yaml:"feed"`
	Buffer   BufferConfig   `yaml:"buffer"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this ingester.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DBConfig holds the sink database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// GammaConfig holds metadata API settings.
type GammaConfig struct {
	BaseURL      string        `yaml:"base_url"`
	BookURL      string        `yaml:"book_url"` // CLOB API base for diagnostic book fetches
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	PageSize     int           `yaml:"page_size"`
	MaxMarkets   int           `yaml:"max_markets"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// FeedConfig holds streaming feed settings.
type FeedConfig struct {
	URL                 string        `yaml:"url"`
	TokensPerConnection int           `yaml:"tokens_per_connection"`
	MaxConnections      int           `yaml:"max_connections"`
	ReconnectBaseDelay  time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay   time.Duration `yaml:"reconnect_max_delay"`
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	CategoryFilter      string        `yaml:"category_filter"` // Restrict ingestion to one computed category
}

// BufferConfig holds buffer coordinator settings.
type BufferConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// MetricsConfig holds the health/metrics HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
