// Package database handles database connections and schema inspection.
//
// It wraps GORM to open the local roster cache. SQLite is the default driver
// (a single file under data/); MySQL can be selected for a shared cache.
//
// # Connect
//
// Connect picks the dialector from Config.Driver, applies connection pool
// settings (and PRAGMAs for SQLite) and pings the database before returning.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let callers verify that the on-disk
// schema still carries the columns the store relies on after migration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "players", []string{"battalion"})
package database
