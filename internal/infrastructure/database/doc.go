// Package database provides SQLite connectivity for RZA Core.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Transactions via WithTx (BEGIN IMMEDIATE, commit or rollback)
//   - Schema migrations from embedded SQL files
//   - Timestamp and nullable column helpers shared by repositories
//   - Classification of SQLite constraint errors
//
// Concurrency:
//
// The pool holds a single connection and every transaction starts with
// BEGIN IMMEDIATE. Writers therefore run one at a time in a global order.
// Inside a WithTx callback only the supplied handle may be used; touching
// the *DB directly would wait for the connection the callback already holds.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Files are named YYYYMMDD_HHMMSS_description.up.sql with a matching
// .down.sql. Each migration is applied in its own transaction and recorded
// in schema_migrations.
package database
