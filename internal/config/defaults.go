package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultCursorBackend   = "postgres"
	DefaultRedisKeyPrefix  = "progress:"
	DefaultSyncInterval    = 29 * time.Minute
	DefaultSyncConcurrency = 16
	DefaultSyncTimeout     = 10 * time.Minute
	DefaultChunkSize       = 500
	DefaultAppsSource      = "static"
	DefaultSideshiftURL    = "https://sideshift.ai/api"
	DefaultPageLimit       = 500
	DefaultLookback        = 5 * 24 * time.Hour
	DefaultAPITimeout      = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultEventsTopic     = "partner-transactions"
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func (c *Config) applyDefaults() {
	applyDBDefaults(&c.Database)

	// Cursor store defaults
	if c.CursorStore.Backend == "" {
		c.CursorStore.Backend = DefaultCursorBackend
	}
	if c.CursorStore.Redis.KeyPrefix == "" {
		c.CursorStore.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = DefaultSyncConcurrency
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = DefaultSyncTimeout
	}

	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = DefaultChunkSize
	}
	if c.Apps.Source == "" {
		c.Apps.Source = DefaultAppsSource
	}

	// Partner defaults
	ss := &c.Partners.Sideshift
	if ss.BaseURL == "" {
		ss.BaseURL = DefaultSideshiftURL
	}
	if ss.PageLimit == 0 {
		ss.PageLimit = DefaultPageLimit
	}
	if ss.Lookback == 0 {
		ss.Lookback = DefaultLookback
	}
	if ss.Timeout == 0 {
		ss.Timeout = DefaultAPITimeout
	}
	if ss.MaxRetries == 0 {
		ss.MaxRetries = DefaultMaxRetries
	}

	if c.Events.Topic == "" {
		c.Events.Topic = DefaultEventsTopic
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
