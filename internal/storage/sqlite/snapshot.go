package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/skyhawk-aero/wxbrief/internal/snapshot"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
	_ "modernc.org/sqlite"
)

// SnapshotStorage is a SQLite-based store for flight-leg weather snapshots
type SnapshotStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSnapshotStorage opens (or creates) the snapshot database
func NewSnapshotStorage(dbPath string, log *logger.Logger) (*SnapshotStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
		return nil, fmt.Errorf("failed to set cache size: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *SnapshotStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS legs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			departure_icao TEXT NOT NULL,
			arrival_icao TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create legs table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshot_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			leg_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			station TEXT NOT NULL,
			raw TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			FOREIGN KEY (leg_id) REFERENCES legs(id) ON DELETE CASCADE,
			UNIQUE(leg_id, kind, station)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot_values table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshot_values_leg_id ON snapshot_values(leg_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on snapshot_values.leg_id: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_legs_ended_at ON legs(ended_at)`)
	if err != nil {
		return fmt.Errorf("failed to create index on legs.ended_at: %w", err)
	}

	return nil
}

// SaveLeg persists a new leg and its captured values in one transaction and
// ends any previously active leg. Returns the new leg ID.
func (s *SnapshotStorage) SaveLeg(leg *snapshot.Leg) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.Exec(`UPDATE legs SET ended_at = ? WHERE ended_at IS NULL`, now); err != nil {
		return 0, fmt.Errorf("failed to end previous legs: %w", err)
	}

	startedAt := leg.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	res, err := tx.Exec(
		`INSERT INTO legs (departure_icao, arrival_icao, started_at) VALUES (?, ?, ?)`,
		strings.ToUpper(leg.DepartureICAO), strings.ToUpper(leg.ArrivalICAO), startedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert leg: %w", err)
	}
	legID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get leg ID: %w", err)
	}

	for _, v := range leg.Values {
		_, err := tx.Exec(
			`INSERT INTO snapshot_values (leg_id, kind, station, raw, fetched_at) VALUES (?, ?, ?, ?, ?)`,
			legID, v.Kind, strings.ToUpper(v.Station), v.Raw, v.FetchedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert snapshot value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Saved leg snapshot",
		logger.Int64("leg_id", legID),
		logger.String("departure", leg.DepartureICAO),
		logger.String("arrival", leg.ArrivalICAO),
		logger.Int("values", len(leg.Values)))

	return legID, nil
}

// EndLeg marks a leg as finished
func (s *SnapshotStorage) EndLeg(legID int64) error {
	res, err := s.db.Exec(`UPDATE legs SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, time.Now().UTC(), legID)
	if err != nil {
		return fmt.Errorf("failed to end leg: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no active leg with ID %d", legID)
	}
	return nil
}

// ActiveLeg loads the current active leg with its values, if one exists
func (s *SnapshotStorage) ActiveLeg() (*snapshot.Leg, error) {
	leg := &snapshot.Leg{}
	err := s.db.QueryRow(
		`SELECT id, departure_icao, arrival_icao, started_at FROM legs WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`,
	).Scan(&leg.ID, &leg.DepartureICAO, &leg.ArrivalICAO, &leg.StartedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active leg: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT kind, station, raw, fetched_at FROM snapshot_values WHERE leg_id = ? ORDER BY kind, station`,
		leg.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v snapshot.Value
		if err := rows.Scan(&v.Kind, &v.Station, &v.Raw, &v.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot value: %w", err)
		}
		leg.Values = append(leg.Values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot values: %w", err)
	}

	return leg, nil
}

// InFlight reports whether an active leg exists. It satisfies the
// flight-state collaborator for the weather orchestrator.
func (s *SnapshotStorage) InFlight() bool {
	leg, err := s.ActiveLeg()
	if err != nil {
		s.logger.Error("Failed to check flight state", logger.Error(err))
		return false
	}
	return leg.Active()
}

// ActiveLegSnapshot returns the active leg for snapshot-first lookups
func (s *SnapshotStorage) ActiveLegSnapshot() (*snapshot.Leg, bool) {
	leg, err := s.ActiveLeg()
	if err != nil {
		s.logger.Error("Failed to load active leg", logger.Error(err))
		return nil, false
	}
	if !leg.Active() {
		return nil, false
	}
	return leg, true
}
