package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// SQLiteLogRepository persists simulation log entries.
type SQLiteLogRepository struct {
	db    *sql.DB
	simID string
}

func NewSQLiteLogRepository(db *sql.DB, simID string) *SQLiteLogRepository {
	return &SQLiteLogRepository{db: db, simID: simID}
}

func (r *SQLiteLogRepository) Append(ctx context.Context, e simlog.Entry) error {
	metaBytes, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO sim_log (id, sim_id, game_time_s, category, code, message, ship_name, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, r.simID, e.GameTimeS, string(e.Category), e.Code, e.Message,
		e.ShipName, string(metaBytes), e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func (r *SQLiteLogRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]simlog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []simlog.Entry
	for rows.Next() {
		var e simlog.Entry
		var category, metaStr string
		err := rows.Scan(&e.ID, &e.GameTimeS, &category, &e.Code, &e.Message, &e.ShipName, &metaStr, &e.Timestamp)
		if err != nil {
			return nil, err
		}
		e.Category = simlog.Category(category)
		if metaStr != "" && metaStr != "null" {
			if err := json.Unmarshal([]byte(metaStr), &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const logColumns = `id, game_time_s, category, code, message, ship_name, metadata, timestamp`

func (r *SQLiteLogRepository) GetRecent(ctx context.Context, limit int) ([]simlog.Entry, error) {
	query := `SELECT ` + logColumns + ` FROM sim_log WHERE sim_id = ? ORDER BY game_time_s DESC LIMIT ?`
	return r.getMany(ctx, query, r.simID, limit)
}

func (r *SQLiteLogRepository) GetByCategory(ctx context.Context, category string) ([]simlog.Entry, error) {
	query := `SELECT ` + logColumns + ` FROM sim_log WHERE sim_id = ? AND category = ? ORDER BY game_time_s ASC`
	return r.getMany(ctx, query, r.simID, category)
}

func (r *SQLiteLogRepository) GetByShip(ctx context.Context, shipName string) ([]simlog.Entry, error) {
	query := `SELECT ` + logColumns + ` FROM sim_log WHERE sim_id = ? AND ship_name = ? ORDER BY game_time_s ASC`
	return r.getMany(ctx, query, r.simID, shipName)
}

// ---------------------------------------------------------
// SQLiteFleetRepository
// ---------------------------------------------------------

// SQLiteFleetRepository snapshots ship aggregates for crash recovery. The
// nested aggregates (crew, equipment, flight plan) travel as JSON columns.
type SQLiteFleetRepository struct {
	db    *sql.DB
	simID string
}

func NewSQLiteFleetRepository(db *sql.DB, simID string) *SQLiteFleetRepository {
	return &SQLiteFleetRepository{db: db, simID: simID}
}

func (r *SQLiteFleetRepository) Upsert(ctx context.Context, s *ship.Ship) error {
	crewBytes, err := json.Marshal(s.Crew)
	if err != nil {
		return fmt.Errorf("failed to marshal crew: %w", err)
	}
	equipBytes, err := json.Marshal(s.Equipment)
	if err != nil {
		return fmt.Errorf("failed to marshal equipment: %w", err)
	}
	flightBytes, err := json.Marshal(s.Flight)
	if err != nil {
		return fmt.Errorf("failed to marshal flight: %w", err)
	}

	query := `
		INSERT INTO ships (ship_id, sim_id, name, class_key, status, location_key, engine_key, engine_state,
			fuel_kg, oxygen_pct, provisions_kg, stranded, crew_json, equipment_json, flight_json, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ship_id) DO UPDATE SET
			name=excluded.name,
			class_key=excluded.class_key,
			status=excluded.status,
			location_key=excluded.location_key,
			engine_key=excluded.engine_key,
			engine_state=excluded.engine_state,
			fuel_kg=excluded.fuel_kg,
			oxygen_pct=excluded.oxygen_pct,
			provisions_kg=excluded.provisions_kg,
			stranded=excluded.stranded,
			crew_json=excluded.crew_json,
			equipment_json=excluded.equipment_json,
			flight_json=excluded.flight_json,
			last_updated=excluded.last_updated
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, r.simID, s.Name, s.ClassKey, string(s.Status), s.LocationKey,
		s.EngineKey, string(s.EngineState), s.FuelKg, s.OxygenPct, s.ProvisionsKg,
		s.Stranded, string(crewBytes), string(equipBytes), string(flightBytes), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ship: %w", err)
	}
	return nil
}

// GetAll loads every persisted ship for the simulation. Fields not carried
// by dedicated columns are restored from the JSON aggregates.
func (r *SQLiteFleetRepository) GetAll(ctx context.Context) ([]*ship.Ship, error) {
	query := `SELECT ship_id, name, class_key, status, location_key, engine_key, engine_state,
		fuel_kg, oxygen_pct, provisions_kg, stranded, crew_json, equipment_json, flight_json
		FROM ships WHERE sim_id = ?`
	rows, err := r.db.QueryContext(ctx, query, r.simID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fleet []*ship.Ship
	for rows.Next() {
		s := &ship.Ship{}
		var status, engineState, crewStr, equipStr, flightStr string
		err := rows.Scan(&s.ID, &s.Name, &s.ClassKey, &status, &s.LocationKey,
			&s.EngineKey, &engineState, &s.FuelKg, &s.OxygenPct, &s.ProvisionsKg,
			&s.Stranded, &crewStr, &equipStr, &flightStr)
		if err != nil {
			return nil, err
		}
		s.Status = ship.Status(status)
		s.EngineState = ship.EngineState(engineState)
		if err := json.Unmarshal([]byte(crewStr), &s.Crew); err != nil {
			return nil, fmt.Errorf("failed to unmarshal crew for %s: %w", s.ID, err)
		}
		if err := json.Unmarshal([]byte(equipStr), &s.Equipment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal equipment for %s: %w", s.ID, err)
		}
		if flightStr != "" && flightStr != "null" {
			if err := json.Unmarshal([]byte(flightStr), &s.Flight); err != nil {
				return nil, fmt.Errorf("failed to unmarshal flight for %s: %w", s.ID, err)
			}
		}
		if s.Assignments == nil {
			s.Assignments = make(map[ship.Room][]string)
		}
		fleet = append(fleet, s)
	}
	return fleet, rows.Err()
}

// ---------------------------------------------------------
// SQLiteStateRepository
// ---------------------------------------------------------

// SQLiteStateRepository persists the simulation clock and treasury.
type SQLiteStateRepository struct {
	db    *sql.DB
	simID string
}

func NewSQLiteStateRepository(db *sql.DB, simID string) *SQLiteStateRepository {
	return &SQLiteStateRepository{db: db, simID: simID}
}

func (r *SQLiteStateRepository) Save(ctx context.Context, gameTimeS float64, tickCount int64, credits float64) error {
	query := `
		INSERT INTO sim_state (sim_id, game_time_s, tick_count, credits, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sim_id) DO UPDATE SET
			game_time_s=excluded.game_time_s,
			tick_count=excluded.tick_count,
			credits=excluded.credits,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query, r.simID, gameTimeS, tickCount, credits, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save sim state: %w", err)
	}
	return nil
}

// Load restores the clock and treasury; ok is false when no save exists.
func (r *SQLiteStateRepository) Load(ctx context.Context) (gameTimeS float64, tickCount int64, credits float64, ok bool, err error) {
	query := `SELECT game_time_s, tick_count, credits FROM sim_state WHERE sim_id = ?`
	row := r.db.QueryRowContext(ctx, query, r.simID)
	err = row.Scan(&gameTimeS, &tickCount, &credits)
	if err == sql.ErrNoRows {
		return 0, 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, 0, false, err
	}
	return gameTimeS, tickCount, credits, true, nil
}
