package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

func DefaultConfig() Config {
	cfg := Config{BusyTimeout: 5 * time.Second}

	if p := os.Getenv("EDICOLA_DB_PATH"); p != "" {
		cfg.Path = p
		return cfg
	}

	// local default: ~/.edicola/data.db
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	cfg.Path = filepath.Join(home, ".edicola", "data.db")
	return cfg
}

// dsn builds the sqlite3 driver DSN. Foreign keys and WAL are set here
// rather than with post-open PRAGMAs so every pooled connection gets them.
func (cfg Config) dsn() string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	if cfg.BusyTimeout > 0 {
		q.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds()))
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

func Open(cfg Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
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
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}
