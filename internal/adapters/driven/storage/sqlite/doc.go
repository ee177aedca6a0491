// Package sqlite provides the SQLite-backed implementations of the
// vector index and the scheduler store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share a single database:
//
//   - VectorIndex: embedded documents, searched by brute-force cosine distance
//   - SchedulerStore: nightly reindex state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.quarry/data/quarry.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
