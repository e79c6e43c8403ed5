// Package db is the durable store for profiles and events, backed by
// sqlite. It is the "data layer" in front of the reminder engine: API
// handlers write here first and only then tell the engine.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the tracker.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT '',
			birth_date DATETIME,
			feeding_interval_min INTEGER NOT NULL DEFAULT 180,
			night_feeding_interval_min INTEGER NOT NULL DEFAULT 240,
			pumping_duration_min INTEGER NOT NULL DEFAULT 20,
			pumping_interval_min INTEGER NOT NULL DEFAULT 180,
			night_pumping_interval_min INTEGER NOT NULL DEFAULT 300,
			baby_daytime_start INTEGER NOT NULL DEFAULT 7,
			baby_daytime_end INTEGER NOT NULL DEFAULT 19,
			parent_daytime_start INTEGER NOT NULL DEFAULT 7,
			parent_daytime_end INTEGER NOT NULL DEFAULT 22,
			enable_feeding_reminder BOOLEAN NOT NULL DEFAULT 1,
			enable_pumping_reminder BOOLEAN NOT NULL DEFAULT 0,
			enable_feeding_notification BOOLEAN NOT NULL DEFAULT 0,
			enable_pumping_notification BOOLEAN NOT NULL DEFAULT 0,
			enable_other_activities_notification BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			type TEXT NOT NULL,
			time DATETIME NOT NULL,
			end_time DATETIME,
			amount REAL NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_profile_time ON events(profile_id, time)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
