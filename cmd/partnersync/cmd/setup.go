package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rickgao/partner-reports/internal/api"
	"github.com/rickgao/partner-reports/internal/apps"
	"github.com/rickgao/partner-reports/internal/config"
	"github.com/rickgao/partner-reports/internal/cursor"
	"github.com/rickgao/partner-reports/internal/database"
	"github.com/rickgao/partner-reports/internal/events"
	"github.com/rickgao/partner-reports/internal/metrics"
	"github.com/rickgao/partner-reports/internal/model"
	"github.com/rickgao/partner-reports/internal/orchestrator"
	"github.com/rickgao/partner-reports/internal/partner"
	"github.com/rickgao/partner-reports/internal/partner/sideshift"
	"github.com/rickgao/partner-reports/internal/store"
	"github.com/rickgao/partner-reports/internal/version"
)

// loadConfig reads the .env file and config file named by the persistent flags.
func loadConfig(ccmd *cobra.Command) (*config.Config, error) {
	envFile, _ := ccmd.Flags().GetString(flagEnvFile)
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	path, _ := ccmd.Flags().GetString(flagConfig)
	return config.LoadAndValidate(path)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// env is everything a command needs, built from config.
type env struct {
	cfg    *config.Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	transactions store.Store
	cursors      cursor.Store
	apps         apps.Source
	partners     *partner.Registry
	publisher    events.Publisher

	registry *prometheus.Registry
	metrics  *metrics.SyncMetrics
}

type setupOptions struct {
	dryRun bool // keep transactions and cursors in memory
}

// setup loads config and wires stores, adapters and metrics.
func setup(ctx context.Context, ccmd *cobra.Command, opts setupOptions) (*env, error) {
	cfg, err := loadConfig(ccmd)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting partnersync",
		append(version.LogAttrs(), "instance_id", cfg.Instance.ID, "command", ccmd.Name())...)

	e := &env{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	cursorBackend := cfg.CursorStore.Backend
	if opts.dryRun {
		cursorBackend = "memory"
	}
	needDB := !opts.dryRun || cfg.Apps.Source == "postgres" || cursorBackend == "postgres"

	if needDB {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		e.pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("database connected")
	}

	storeOpts := []store.Option{
		store.WithCurrencyTable(currencyTable(cfg.Ingest.Currencies)),
		store.WithChunkSize(cfg.Ingest.ChunkSize),
		store.WithLogger(logger),
	}
	if opts.dryRun {
		e.transactions = store.NewMemoryStore(storeOpts...)
	} else {
		e.transactions = store.NewPostgresStore(e.pool, storeOpts...)
	}

	switch cursorBackend {
	case "redis":
		e.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.CursorStore.Redis.Addr,
			Password: cfg.CursorStore.Redis.Password,
			DB:       cfg.CursorStore.Redis.DB,
		})
		if err := e.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		e.cursors = cursor.NewRedisStore(e.redis, cfg.CursorStore.Redis.KeyPrefix)
	case "memory":
		e.cursors = cursor.NewMemoryStore()
	default:
		e.cursors = cursor.NewPostgresStore(e.pool)
	}

	if cfg.Apps.Source == "postgres" {
		e.apps = apps.NewPostgresSource(e.pool)
	} else {
		e.apps = staticApps(cfg.Apps.Static)
	}

	e.partners, err = newRegistry(cfg.Partners, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("partner adapters registered", "partners", e.partners.IDs())

	if len(cfg.Events.Brokers) > 0 && !opts.dryRun {
		e.publisher = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		})
	} else {
		e.publisher = events.NopPublisher{}
	}

	e.registry = prometheus.NewRegistry()
	e.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	e.metrics = metrics.NewSyncMetrics(e.registry)

	ok = true
	return e, nil
}

func (e *env) orchestrator() (*orchestrator.Orchestrator, error) {
	return orchestrator.New(orchestrator.Config{
		Interval:    e.cfg.Sync.Interval,
		Concurrency: e.cfg.Sync.Concurrency,
		Timeout:     e.cfg.Sync.Timeout,
	}, orchestrator.Deps{
		Apps:         e.apps,
		Partners:     e.partners,
		Transactions: e.transactions,
		Cursors:      e.cursors,
		Publisher:    e.publisher,
		Metrics:      e.metrics,
	}, e.logger)
}

// Close releases connections. It is safe on a partially built env.
func (e *env) Close() {
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			e.logger.Warn("failed to close publisher", "error", err)
		}
	}
	if e.redis != nil {
		e.redis.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

func newRegistry(cfg config.PartnersConfig, logger *slog.Logger) (*partner.Registry, error) {
	reg, err := partner.NewRegistry()
	if err != nil {
		return nil, err
	}

	if ss := cfg.Sideshift; ss.Enabled {
		client := api.NewClient(ss.BaseURL, "",
			api.WithLogger(logger),
			api.WithTimeout(ss.Timeout),
			api.WithRetries(ss.MaxRetries, time.Second),
		)
		adapter := sideshift.New(sideshift.Config{
			PageLimit:   ss.PageLimit,
			Lookback:    ss.Lookback,
			MaxPages:    ss.MaxPages,
			AffiliateID: ss.AffiliateID,
		}, client, logger)
		if err := reg.Register(adapter); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func staticApps(cfgs []config.AppConfig) apps.StaticSource {
	out := make(apps.StaticSource, 0, len(cfgs))
	for _, c := range cfgs {
		app := model.App{AppID: c.ID, Partners: make(map[string]model.Credentials, len(c.Partners))}
		for partnerID, creds := range c.Partners {
			app.Partners[partnerID] = model.Credentials(creds)
		}
		out = append(out, app)
	}
	return out
}

// currencyTable merges configured entries over the built-in table.
func currencyTable(extra map[string]string) model.CurrencyTable {
	t := model.DefaultCurrencyTable()
	for from, to := range extra {
		t[from] = to
	}
	return t
}

// openStore connects only what the query commands need: config, logger and
// the Postgres transaction store.
func openStore(ctx context.Context, ccmd *cobra.Command) (*store.PostgresStore, *pgxpool.Pool, *slog.Logger, error) {
	cfg, err := loadConfig(ccmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg.Logging)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	s := store.NewPostgresStore(pool,
		store.WithCurrencyTable(currencyTable(cfg.Ingest.Currencies)),
		store.WithLogger(logger),
	)
	return s, pool, logger, nil
}
