package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

// sqliteSchema creates the ledger tables. seq preserves insertion order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS activities (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	category       TEXT NOT NULL,
	type           TEXT NOT NULL,
	value          REAL NOT NULL,
	unit           TEXT NOT NULL,
	co2_impact     REAL NOT NULL,
	factor_version TEXT NOT NULL,
	recorded_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS positive_actions (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	action_id      TEXT NOT NULL,
	name           TEXT NOT NULL,
	input_kind     TEXT NOT NULL,
	value          REAL NOT NULL,
	co2_saved      REAL NOT NULL CHECK (co2_saved > 0),
	factor_version TEXT NOT NULL,
	recorded_at    TEXT NOT NULL
);`

// factorVersionKey is the ledger_meta key holding the factor table version.
const factorVersionKey = "factor_version"

// SQLiteStore persists the ledger in a SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLiteStore opens or creates the database at path, defaulting to
// ~/.carbonledger/ledger.db.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".carbonledger", "ledger.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{path: path, db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", string(DriverSQLite)).
		Str("path", path).
		Msg("sqlite store ready")
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger_meta WHERE key = ?`, factorVersionKey).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `INSERT INTO ledger_meta (key, value) VALUES (?, ?)`,
			factorVersionKey, greenops.FactorTableVersion)
		if err != nil {
			return fmt.Errorf("recording factor version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading factor version: %w", err)
	}
	return checkFactorVersion(version)
}

// Snapshot reads every record inside one transaction.
func (s *SQLiteStore) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("beginning snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	activities, err := s.readActivities(ctx, tx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	actions, err := s.readPositiveActions(ctx, tx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{Activities: activities, PositiveActions: actions}, tx.Commit()
}

func (s *SQLiteStore) readActivities(ctx context.Context, tx *sql.Tx) ([]engine.ActivityRecord, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, category, type, value, unit, co2_impact, factor_version, recorded_at
		FROM activities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var out []engine.ActivityRecord
	for rows.Next() {
		var (
			rec engine.ActivityRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Type, &rec.Value, &rec.Unit,
			&rec.CO2Impact, &rec.FactorVersion, &ts); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		if rec.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) readPositiveActions(ctx context.Context, tx *sql.Tx) ([]engine.PositiveActionRecord, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, action_id, name, input_kind, value, co2_saved, factor_version, recorded_at
		FROM positive_actions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying positive actions: %w", err)
	}
	defer rows.Close()

	var out []engine.PositiveActionRecord
	for rows.Next() {
		var (
			rec engine.PositiveActionRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.ActionID, &rec.Name, &rec.InputKind, &rec.Value,
			&rec.CO2Saved, &rec.FactorVersion, &ts); err != nil {
			return nil, fmt.Errorf("scanning positive action: %w", err)
		}
		if rec.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AddActivity inserts an activity.
func (s *SQLiteStore) AddActivity(ctx context.Context, rec engine.ActivityRecord) error {
	if err := validateActivity(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO activities
		(id, category, type, value, unit, co2_impact, factor_version, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Category), rec.Type, rec.Value, rec.Unit, rec.CO2Impact,
		rec.FactorVersion, formatTimestamp(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// AddPositiveAction inserts a positive action.
func (s *SQLiteStore) AddPositiveAction(ctx context.Context, rec engine.PositiveActionRecord) error {
	if err := validatePositiveAction(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO positive_actions
		(id, action_id, name, input_kind, value, co2_saved, factor_version, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ActionID, rec.Name, string(rec.InputKind), rec.Value, rec.CO2Saved,
		rec.FactorVersion, formatTimestamp(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting positive action: %w", err)
	}
	return nil
}

// RemoveActivity deletes an activity.
func (s *SQLiteStore) RemoveActivity(ctx context.Context, id string) error {
	return s.remove(ctx, `DELETE FROM activities WHERE id = ?`, "activity", id)
}

// RemovePositiveAction deletes a positive action.
func (s *SQLiteStore) RemovePositiveAction(ctx context.Context, id string) error {
	return s.remove(ctx, `DELETE FROM positive_actions WHERE id = ?`, "positive action", id)
}

func (s *SQLiteStore) remove(ctx context.Context, query, kind, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Timestamps are stored as RFC 3339 text so the original UTC offset survives
// a round trip.
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", ErrStoreCorrupted, s, err)
	}
	return t, nil
}
