package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	DSN string
}

// DefaultConfig points at a shared in-memory database, so the cache is
// discarded at process exit. Operators who want the mosaic cache to
// survive restarts can point MAPBRIDGE_CACHE_DSN at a file.
func DefaultConfig() Config {
	if dsn := os.Getenv("MAPBRIDGE_CACHE_DSN"); dsn != "" {
		return Config{DSN: dsn}
	}
	return Config{DSN: "file:mapbridge?mode=memory&cache=shared"}
}

func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// an in-memory database vanishes when its last connection closes;
	// a single shared connection keeps it alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("failed to open cache db: %v", err)
	}
	return db
}
