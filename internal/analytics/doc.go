// Package analytics rolls stored transactions up into time buckets.
//
// Aggregate is a pure function over a window [start, end): the window is cut
// into UTC-aligned hour, day or month buckets, every transaction lands in
// exactly one bucket per granularity, and buckets without transactions are
// still emitted so callers get a regularly spaced series.
//
// Service is the query side used by the CLI: it validates a request, reads the
// range from a transaction store and aggregates it. It also answers point
// lookups of a single order's USD value.
package analytics
