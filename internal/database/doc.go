// Package database provides the PostgreSQL connection pool and schema migrations.
//
// Tables:
//   - transactions: normalized partner transactions keyed by storage key
//   - progress_cursors: per-binding sync cursors
//   - apps: registered apps and their partner credentials
package database
