// Package apps provides the registry of apps and the partners each is bound to.
package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/partner-reports/internal/model"
)

// Source lists the registered apps.
type Source interface {
	ListApps(ctx context.Context) ([]model.App, error)
}

// Bindings flattens apps into one binding per (app, partner) pair, ordered by
// app then partner.
func Bindings(apps []model.App) []model.Binding {
	var out []model.Binding
	for _, app := range apps {
		ids := make([]string, 0, len(app.Partners))
		for id := range app.Partners {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, model.Binding{
				AppID:       app.AppID,
				PartnerID:   id,
				Credentials: app.Partners[id],
			})
		}
	}
	return out
}

// StaticSource serves a fixed list of apps.
type StaticSource []model.App

// ListApps implements Source.
func (s StaticSource) ListApps(ctx context.Context) ([]model.App, error) {
	out := make([]model.App, len(s))
	copy(out, s)
	return out, nil
}

// Querier is the subset of *pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const listAppsSQL = `SELECT app_id, partner_ids FROM apps ORDER BY app_id`

// PostgresSource reads apps from the apps table. partner_ids holds a JSON
// object of partnerId to credentials.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a PostgresSource.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// ListApps implements Source.
func (s *PostgresSource) ListApps(ctx context.Context) ([]model.App, error) {
	rows, err := s.db.Query(ctx, listAppsSQL)
	if err != nil {
		return nil, fmt.Errorf("query apps: %w", err)
	}

	apps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.App, error) {
		var (
			app  model.App
			data []byte
		)
		if err := row.Scan(&app.AppID, &data); err != nil {
			return model.App{}, err
		}
		if err := json.Unmarshal(data, &app.Partners); err != nil {
			return model.App{}, fmt.Errorf("decode partners for %s: %w", app.AppID, err)
		}
		return app, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read apps: %w", err)
	}
	return apps, nil
}
