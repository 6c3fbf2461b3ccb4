package config

import "time"

// Config is the top-level configuration for the partner sync service.
type Config struct {
	Instance    InstanceConfig    `yaml:"instance"`
	Database    DBConfig          `yaml:"database"`
	CursorStore CursorStoreConfig `yaml:"cursor_store"`
	Sync        SyncConfig        `yaml:"sync"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Apps        AppsConfig        `yaml:"apps"`
	Partners    PartnersConfig    `yaml:"partners"`
	Events      EventsConfig      `yaml:"events"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// InstanceConfig identifies this process in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DBConfig holds PostgreSQL connection settings.
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

// CursorStoreConfig selects where progress cursors live.
type CursorStoreConfig struct {
	Backend string      `yaml:"backend"` // "postgres", "redis" or "memory"
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SyncConfig configures the polling orchestrator.
type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"`    // Sleep between cycles
	Concurrency int           `yaml:"concurrency"` // Max bindings in flight
	Timeout     time.Duration `yaml:"timeout"`     // Per-binding fetch deadline
}

// IngestConfig configures transaction ingestion.
type IngestConfig struct {
	ChunkSize  int               `yaml:"chunk_size"`
	Currencies map[string]string `yaml:"currencies"` // Extra canonicalization entries
}

// AppsConfig selects the app registry source.
type AppsConfig struct {
	Source string      `yaml:"source"` // "static" or "postgres"
	Static []AppConfig `yaml:"static"`
}

// AppConfig is one statically configured app.
type AppConfig struct {
	ID       string                       `yaml:"app_id"`
	Partners map[string]map[string]string `yaml:"partners"` // partnerId -> credentials
}

// PartnersConfig holds per-adapter settings.
type PartnersConfig struct {
	Sideshift SideshiftConfig `yaml:"sideshift"`
}

// SideshiftConfig configures the sideshift adapter.
type SideshiftConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	AffiliateID string        `yaml:"affiliate_id"`
	PageLimit   int           `yaml:"page_limit"`
	Lookback    time.Duration `yaml:"lookback"`
	MaxPages    int           `yaml:"max_pages"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// EventsConfig configures the ingested-transaction event stream.
// Publishing is disabled when Brokers is empty.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MetricsConfig configures the health and metrics HTTP server.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
