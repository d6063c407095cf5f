package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"helpdesk/internal/platform/config"
)

// New opens the sqlite database and configures the connection pool.
// The handle is constructed once at startup and passed to each
// component; Close it on shutdown.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
