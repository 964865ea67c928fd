// Package database provides SQLite-based storage for pkgstats.
//
// This package implements the StatsDB, which stores:
//   - Completed statistics runs with their parameters and totals
//   - The ranked top-N packages of each run for historical comparison
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
