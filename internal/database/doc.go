// Package database provides SQLite-based storage for seoscan audit history.
//
// This package implements the AuditDB, which stores one summary row per
// finished audit: the averaged category scores, issue counts, health label
// and the full site summary as JSON. Page analyses are never stored.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets history queries run while an audit is being saved
package database
