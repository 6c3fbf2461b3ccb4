package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rickgao/partner-reports/internal/metrics"
	"github.com/rickgao/partner-reports/internal/partner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync loop until interrupted",
	RunE:  runSync,
}

func runSync(ccmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(ccmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, ccmd, setupOptions{})
	if err != nil {
		return err
	}
	defer e.Close()
	logger := e.logger

	orch, err := e.orchestrator()
	if err != nil {
		return err
	}

	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", e.cfg.Metrics.Port),
		Handler:           healthHandler(e.pool, e.partners, e.registry, e.cfg.Metrics.Path),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting health server", "port", e.cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := orch.Start(ctx); err != nil {
		return err
	}

	logger.Info("partnersync running",
		"instance_id", e.cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", e.cfg.Metrics.Port),
	)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := orch.Stop(shutdownCtx); err != nil {
		logger.Warn("sync loop did not stop in time", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("partnersync stopped")
	return nil
}

// healthHandler serves /health and the Prometheus endpoint.
func healthHandler(pool *pgxpool.Pool, partners *partner.Registry, g prometheus.Gatherer, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		ids := partners.IDs()
		health.Components["partners"] = ids
		if len(ids) == 0 && health.Status == "healthy" {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			slog.Default().Warn("failed to write health response", "error", err)
		}
	})

	mux.Handle(metricsPath, metrics.Handler(g))

	return mux
}
