// Package orchestrator runs the periodic partner sync.
//
// Each cycle lists the registered apps, expands them into (app, partner)
// bindings and syncs the bindings concurrently up to a fixed limit:
//
//	load cursor -> adapter.Fetch -> store.Ingest -> publish -> save cursor
//
// The cursor is saved only after ingestion has written the batch, so a crash
// or a store failure at any step replays the same window on the next cycle.
// Individual records the store rejects are logged by key and do not hold the
// cursor back. A failing
// binding is logged and counted; it never stops the cycle or its siblings.
// Cycles are separated by a fixed sleep measured from the end of the previous
// cycle, and the sleep ends early when the context is cancelled.
package orchestrator
