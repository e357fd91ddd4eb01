// Package database provides SQLite-based storage for crawl job history.
//
// This package implements the HistoryDB, which stores:
//   - One job row per crawl run with aggregate statistics
//   - Per-page rows with level, status, and content hash
//   - Per-asset rows with local path and dedup outcome
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
