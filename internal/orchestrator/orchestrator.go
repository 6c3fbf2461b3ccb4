package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/partner-reports/internal/apps"
	"github.com/rickgao/partner-reports/internal/cursor"
	"github.com/rickgao/partner-reports/internal/events"
	"github.com/rickgao/partner-reports/internal/metrics"
	"github.com/rickgao/partner-reports/internal/model"
	"github.com/rickgao/partner-reports/internal/partner"
	"github.com/rickgao/partner-reports/internal/store"
)

// Config holds orchestrator configuration.
type Config struct {
	Interval    time.Duration // Sleep between cycles (default: 29m)
	Concurrency int           // Max bindings in flight (default: 16)
	Timeout     time.Duration // Per-binding fetch deadline, 0 for none (default: 10m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    29 * time.Minute,
		Concurrency: 16,
		Timeout:     10 * time.Minute,
	}
}

// Deps are the collaborators a sync cycle needs. Publisher and Metrics are optional.
type Deps struct {
	Apps         apps.Source
	Partners     *partner.Registry
	Transactions store.Store
	Cursors      cursor.Store
	Publisher    events.Publisher
	Metrics      *metrics.SyncMetrics
}

// Orchestrator periodically syncs every binding.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Orchestrator.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Apps == nil:
		return nil, errors.New("apps source is required")
	case deps.Partners == nil:
		return nil, errors.New("partner registry is required")
	case deps.Transactions == nil:
		return nil, errors.New("transaction store is required")
	case deps.Cursors == nil:
		return nil, errors.New("cursor store is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}, nil
}

// Start begins the sync loop in the background.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.ctx, o.cancel = context.WithCancel(ctx)

	o.wg.Add(1)
	go o.run()

	o.logger.Info("partner sync started",
		"interval", o.cfg.Interval,
		"concurrency", o.cfg.Concurrency,
	)

	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to return.
func (o *Orchestrator) Stop(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("partner sync stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main sync loop.
func (o *Orchestrator) run() {
	defer o.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := o.RunCycle(o.ctx); err != nil {
			o.logger.Error("sync cycle failed", "error", err)
		}

		o.logger.Info("snoozing", "interval", o.cfg.Interval)
		timer.Reset(o.cfg.Interval)
	}
}

// BindingStatus is the outcome of syncing one binding.
type BindingStatus struct {
	AppID      string
	PartnerID  string
	Err        error
	Duration   time.Duration
	Fetched    int
	Inserted   int
	Duplicates int
	FailedKeys []string
}

// OK reports whether the binding synced and its cursor advanced.
func (s BindingStatus) OK() bool {
	return s.Err == nil
}

func (s BindingStatus) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", s.AppID, s.PartnerID, s.Err)
	}
	if len(s.FailedKeys) > 0 {
		return fmt.Sprintf("%s %s synced %d transactions (%d new, %d rejected) in %s",
			s.AppID, s.PartnerID, s.Fetched, s.Inserted, len(s.FailedKeys), s.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s %s synced %d transactions (%d new) in %s",
		s.AppID, s.PartnerID, s.Fetched, s.Inserted, s.Duration.Round(time.Millisecond))
}

// CycleReport summarizes one sync cycle.
type CycleReport struct {
	ID       uuid.UUID
	Started  time.Time
	Duration time.Duration
	Bindings []BindingStatus
}

// Failed returns the number of bindings that did not complete.
func (r CycleReport) Failed() int {
	n := 0
	for _, b := range r.Bindings {
		if !b.OK() {
			n++
		}
	}
	return n
}

// RunCycle syncs every binding once and waits for all of them. Per-binding
// failures are reported in the CycleReport; the error is non-nil only when
// the app list itself could not be loaded.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{ID: uuid.New(), Started: time.Now()}
	logger := o.logger.With("cycle_id", report.ID.String())

	appList, err := o.deps.Apps.ListApps(ctx)
	if err != nil {
		return report, fmt.Errorf("list apps: %w", err)
	}

	bindings := apps.Bindings(appList)
	if len(bindings) == 0 {
		logger.Debug("no bindings to sync")
		return report, nil
	}

	report.Bindings = make([]BindingStatus, len(bindings))
	var synced, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Concurrency)
	for i, b := range bindings {
		g.Go(func() error {
			st := o.syncBinding(ctx, logger, b)
			report.Bindings[i] = st
			if st.OK() {
				synced.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.Started)
	o.deps.Metrics.ObserveCycle(report.Duration)

	logger.Info("sync cycle complete",
		"bindings", len(bindings),
		"synced", synced.Load(),
		"failed", failed.Load(),
		"duration", report.Duration,
	)

	return report, nil
}

// syncBinding runs load -> fetch -> ingest -> publish -> save for one binding.
func (o *Orchestrator) syncBinding(ctx context.Context, logger *slog.Logger, b model.Binding) (st BindingStatus) {
	start := time.Now()
	st = BindingStatus{AppID: b.AppID, PartnerID: b.PartnerID}
	logger = logger.With("app_id", b.AppID, "partner_id", b.PartnerID)

	defer func() {
		st.Duration = time.Since(start)
		o.deps.Metrics.ObserveBinding(b.PartnerID, st.OK(), st.Duration)
		if st.OK() {
			logger.Info("binding synced",
				"fetched", st.Fetched,
				"inserted", st.Inserted,
				"duplicates", st.Duplicates,
				"rejected", len(st.FailedKeys),
				"duration", st.Duration,
			)
		} else {
			logger.Error("binding sync failed",
				"error", st.Err,
				"failed_keys", st.FailedKeys,
				"duration", st.Duration,
			)
		}
	}()

	adapter, err := o.deps.Partners.Lookup(b.PartnerID)
	if err != nil {
		st.Err = err
		return st
	}

	prior, found, err := o.deps.Cursors.Load(ctx, b.AppID, b.PartnerID)
	if err != nil {
		st.Err = fmt.Errorf("load cursor: %w", err)
		return st
	}
	if !found {
		logger.Info("no previous progress, starting from scratch")
		prior = model.CursorState{}
	}

	res, err := o.fetch(ctx, adapter, prior, b.Credentials)
	if err != nil {
		st.Err = &AdapterError{AppID: b.AppID, PartnerID: b.PartnerID, Err: err}
		return st
	}
	st.Fetched = len(res.Transactions)

	ir, err := o.deps.Transactions.Ingest(ctx, res.Transactions, b.Namespace())
	st.Inserted, st.Duplicates, st.FailedKeys = ir.Inserted, ir.Duplicates, ir.FailedKeys
	o.deps.Metrics.AddIngested(b.PartnerID, ir.Inserted, ir.Duplicates, len(ir.FailedKeys))
	if len(ir.InsertedKeys) > 0 {
		if perr := o.deps.Publisher.PublishIngested(ctx, b.Namespace(), ir.InsertedKeys); perr != nil {
			logger.Warn("failed to publish ingested events", "error", perr, "count", len(ir.InsertedKeys))
		}
	}
	var ierr *store.IngestionError
	switch {
	case err == nil:
	case errors.As(err, &ierr) && len(ierr.FailedKeys) > 0:
		// Rejected records would fail again on replay; the rest of the
		// batch is stored, so the cursor moves on.
		logger.Warn("records rejected by ingestion",
			"failed_keys", ierr.FailedKeys,
			"error", ierr.Err,
		)
	default:
		// Keep the old cursor so the whole window is fetched again.
		st.Err = err
		return st
	}

	next := res.State
	if next == nil {
		next = prior
	}
	if err := o.deps.Cursors.Save(ctx, b.AppID, b.PartnerID, next); err != nil {
		st.Err = &CursorWriteError{AppID: b.AppID, PartnerID: b.PartnerID, Err: err}
		return st
	}

	return st
}

// fetch calls the adapter under the per-binding timeout and turns a panic
// into an error so one adapter cannot take down the cycle.
func (o *Orchestrator) fetch(ctx context.Context, a partner.Adapter, prior model.CursorState, creds model.Credentials) (res partner.FetchResult, err error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return a.Fetch(ctx, prior.Clone(), creds)
}
