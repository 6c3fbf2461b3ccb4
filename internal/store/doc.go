// Package store implements idempotent ingestion and lookup of normalized
// partner transactions.
//
// Every transaction is addressed by its storage key, lower("<namespace>:<orderId>").
// Ingest never overwrites an existing key: a record already present is counted
// as a duplicate and left untouched. Records that fail to persist are reported
// by key in an *IngestionError while the rest of the batch is still written.
//
// Backends:
//   - PostgresStore: transactions table, batched INSERT ... ON CONFLICT DO NOTHING
//   - MemoryStore: in-process map, used in tests and the dry-run CLI
package store
