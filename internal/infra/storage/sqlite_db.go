package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for the simulation log, ship snapshots, and the saved simulation clock.
func InitSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS sim_state (
			sim_id TEXT PRIMARY KEY,
			game_time_s REAL NOT NULL DEFAULT 0,
			tick_count INTEGER NOT NULL DEFAULT 0,
			credits REAL NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ships (
			ship_id TEXT PRIMARY KEY,
			sim_id TEXT NOT NULL,
			name TEXT,
			class_key TEXT,
			status TEXT NOT NULL,
			location_key TEXT,
			engine_key TEXT,
			engine_state TEXT NOT NULL,
			fuel_kg REAL NOT NULL DEFAULT 0,
			oxygen_pct REAL NOT NULL DEFAULT 100,
			provisions_kg REAL NOT NULL DEFAULT 0,
			stranded BOOLEAN NOT NULL DEFAULT 0,
			crew_json TEXT,
			equipment_json TEXT,
			flight_json TEXT,
			last_updated DATETIME NOT NULL,
			FOREIGN KEY (sim_id) REFERENCES sim_state(sim_id)
		);`,
		`CREATE TABLE IF NOT EXISTS sim_log (
			id TEXT PRIMARY KEY,
			sim_id TEXT NOT NULL,
			game_time_s REAL NOT NULL,
			category TEXT NOT NULL,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			ship_name TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			FOREIGN KEY (sim_id) REFERENCES sim_state(sim_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sim_log_sim_id ON sim_log(sim_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sim_log_category ON sim_log(category);`,
		`CREATE INDEX IF NOT EXISTS idx_sim_log_ship_name ON sim_log(ship_name);`,
		`CREATE INDEX IF NOT EXISTS idx_ships_sim_id ON ships(sim_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
