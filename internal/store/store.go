// Package store provides the persistence backends behind engine.Store.
//
// Four drivers are available: an in-process memory store, a JSON file
// guarded by an advisory lockfile, SQLite (modernc.org/sqlite, no cgo) and
// Postgres (pgx). Every backend records the emission factor table version it
// was written with and refuses to open data written by an incompatible major
// version.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by the store backends.
var (
	// ErrStoreCorrupted indicates persisted data that cannot be decoded.
	// Callers should abort rather than start from an empty ledger.
	ErrStoreCorrupted = constError("store corrupted")

	// ErrIncompatibleFactorVersion indicates data written with a factor table
	// whose major version differs from the running one.
	ErrIncompatibleFactorVersion = constError("incompatible factor table version")

	// ErrUnknownDriver indicates an unsupported store.driver value.
	ErrUnknownDriver = constError("unknown store driver")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = constError("store closed")
)

// Driver names a store backend.
type Driver string

// Supported drivers.
const (
	DriverMemory   Driver = "memory"
	DriverJSON     Driver = "json"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Drivers returns the supported driver names.
func Drivers() []Driver {
	return []Driver{DriverMemory, DriverJSON, DriverSQLite, DriverPostgres}
}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of memory, json, sqlite or postgres.
	Driver Driver `yaml:"driver" json:"driver"`
	// Path is the file path for the json and sqlite drivers.
	Path string `yaml:"path" json:"path"`
	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// ParseDriver parses a driver name case-insensitively.
func ParseDriver(s string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Drivers() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, s)
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (engine.Store, error) {
	driver, err := ParseDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", string(driver)).
		Str("path", cfg.Path).
		Msg("opening store")

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverJSON:
		return OpenJSONStore(ctx, cfg.Path)
	case DriverSQLite:
		return OpenSQLiteStore(ctx, cfg.Path)
	case DriverPostgres:
		return OpenPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// checkFactorVersion rejects data written with an incompatible factor table.
// An empty version means the data predates versioning and is accepted.
func checkFactorVersion(version string) error {
	if version == "" {
		return nil
	}
	ok, err := greenops.CompatibleFactorVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if !ok {
		return fmt.Errorf("%w: data written with %s, running %s",
			ErrIncompatibleFactorVersion, version, greenops.FactorTableVersion)
	}
	return nil
}

// validateActivity and validatePositiveAction are shared by every backend so
// that no store accepts a record the ledger could not have produced.
func validateActivity(rec engine.ActivityRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("adding activity: %w", err)
	}
	return nil
}

func validatePositiveAction(rec engine.PositiveActionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("adding positive action: %w", err)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", engine.ErrRecordNotFound, kind, id)
}
