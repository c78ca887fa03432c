package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ledger_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS activities (
	seq            BIGSERIAL PRIMARY KEY,
	id             TEXT NOT NULL UNIQUE,
	category       TEXT NOT NULL,
	type           TEXT NOT NULL,
	value          DOUBLE PRECISION NOT NULL,
	unit           TEXT NOT NULL,
	co2_impact     DOUBLE PRECISION NOT NULL,
	factor_version TEXT NOT NULL,
	recorded_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS positive_actions (
	seq            BIGSERIAL PRIMARY KEY,
	id             TEXT NOT NULL UNIQUE,
	action_id      TEXT NOT NULL,
	name           TEXT NOT NULL,
	input_kind     TEXT NOT NULL,
	value          DOUBLE PRECISION NOT NULL,
	co2_saved      DOUBLE PRECISION NOT NULL CHECK (co2_saved > 0),
	factor_version TEXT NOT NULL,
	recorded_at    TEXT NOT NULL
);`

// PostgresStore persists the ledger in Postgres through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore connects to dsn and creates the ledger tables.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store requires a DSN")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", string(DriverPostgres)).
		Msg("postgres store ready")
	return s, nil
}

// NewPostgresStore wraps an existing pool. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		factorVersionKey, greenops.FactorTableVersion); err != nil {
		return fmt.Errorf("recording factor version: %w", err)
	}

	var version string
	if err := s.pool.QueryRow(ctx, `SELECT value FROM ledger_meta WHERE key = $1`, factorVersionKey).
		Scan(&version); err != nil {
		return fmt.Errorf("reading factor version: %w", err)
	}
	return checkFactorVersion(version)
}

// Snapshot reads every record in one repeatable-read transaction.
func (s *PostgresStore) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("beginning snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT id, category, type, value, unit, co2_impact, factor_version, recorded_at
		FROM activities ORDER BY seq`)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("querying activities: %w", err)
	}
	var snap engine.Snapshot
	for rows.Next() {
		var (
			rec engine.ActivityRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Type, &rec.Value, &rec.Unit,
			&rec.CO2Impact, &rec.FactorVersion, &ts); err != nil {
			rows.Close()
			return engine.Snapshot{}, fmt.Errorf("scanning activity: %w", err)
		}
		if rec.Timestamp, err = parseTimestamp(ts); err != nil {
			rows.Close()
			return engine.Snapshot{}, err
		}
		snap.Activities = append(snap.Activities, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return engine.Snapshot{}, fmt.Errorf("reading activities: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT id, action_id, name, input_kind, value, co2_saved, factor_version, recorded_at
		FROM positive_actions ORDER BY seq`)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("querying positive actions: %w", err)
	}
	for rows.Next() {
		var (
			rec engine.PositiveActionRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.ActionID, &rec.Name, &rec.InputKind, &rec.Value,
			&rec.CO2Saved, &rec.FactorVersion, &ts); err != nil {
			rows.Close()
			return engine.Snapshot{}, fmt.Errorf("scanning positive action: %w", err)
		}
		if rec.Timestamp, err = parseTimestamp(ts); err != nil {
			rows.Close()
			return engine.Snapshot{}, err
		}
		snap.PositiveActions = append(snap.PositiveActions, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return engine.Snapshot{}, fmt.Errorf("reading positive actions: %w", err)
	}

	return snap, tx.Commit(ctx)
}

// AddActivity inserts an activity.
func (s *PostgresStore) AddActivity(ctx context.Context, rec engine.ActivityRecord) error {
	if err := validateActivity(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO activities
		(id, category, type, value, unit, co2_impact, factor_version, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, string(rec.Category), rec.Type, rec.Value, rec.Unit, rec.CO2Impact,
		rec.FactorVersion, formatTimestamp(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// AddPositiveAction inserts a positive action.
func (s *PostgresStore) AddPositiveAction(ctx context.Context, rec engine.PositiveActionRecord) error {
	if err := validatePositiveAction(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO positive_actions
		(id, action_id, name, input_kind, value, co2_saved, factor_version, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.ActionID, rec.Name, string(rec.InputKind), rec.Value, rec.CO2Saved,
		rec.FactorVersion, formatTimestamp(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("inserting positive action: %w", err)
	}
	return nil
}

// RemoveActivity deletes an activity.
func (s *PostgresStore) RemoveActivity(ctx context.Context, id string) error {
	return s.remove(ctx, `DELETE FROM activities WHERE id = $1`, "activity", id)
}

// RemovePositiveAction deletes a positive action.
func (s *PostgresStore) RemovePositiveAction(ctx context.Context, id string) error {
	return s.remove(ctx, `DELETE FROM positive_actions WHERE id = $1`, "positive action", id)
}

func (s *PostgresStore) remove(ctx context.Context, query, kind, id string) error {
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(kind, id)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
