package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	switch c.CursorStore.Backend {
	case "postgres", "memory":
	case "redis":
		if c.CursorStore.Redis.Addr == "" {
			return errors.New("cursor_store.redis.addr is required")
		}
	default:
		return fmt.Errorf("cursor_store.backend must be postgres, redis or memory, got %q", c.CursorStore.Backend)
	}

	if c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be > 0")
	}
	if c.Sync.Concurrency < 1 {
		return errors.New("sync.concurrency must be >= 1")
	}
	if c.Ingest.ChunkSize < 1 {
		return errors.New("ingest.chunk_size must be >= 1")
	}

	switch c.Apps.Source {
	case "static":
		for i, app := range c.Apps.Static {
			if app.ID == "" {
				return fmt.Errorf("apps.static[%d].app_id is required", i)
			}
		}
	case "postgres":
	default:
		return fmt.Errorf("apps.source must be static or postgres, got %q", c.Apps.Source)
	}

	if c.Partners.Sideshift.Enabled && c.Partners.Sideshift.PageLimit < 1 {
		return errors.New("partners.sideshift.page_limit must be >= 1")
	}

	if len(c.Events.Brokers) > 0 && c.Events.Topic == "" {
		return errors.New("events.topic is required when brokers are set")
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
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
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
