package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/partner-reports/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	return buildURL("postgres", cfg)
}

// MigrationURL builds the connection URL understood by the migrate pgx/v5 driver.
func MigrationURL(cfg config.DBConfig) string {
	return buildURL("pgx5", cfg)
}

func buildURL(scheme string, cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme,
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
