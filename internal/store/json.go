package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

// JSONStoreVersion is the current schema version of the ledger file.
const JSONStoreVersion = 1

// jsonStoreData is the serialized form of the ledger file.
type jsonStoreData struct {
	Version         int                           `json:"version"`
	FactorVersion   string                        `json:"factor_version"`
	Activities      []engine.ActivityRecord       `json:"activities"`
	PositiveActions []engine.PositiveActionRecord `json:"positive_actions"`
}

// JSONStore persists the ledger as a single JSON file. Every call re-reads
// the file under an advisory lockfile, so several processes can share one
// ledger; writes replace the file atomically.
type JSONStore struct {
	mu       sync.Mutex
	filePath string
	closed   bool
}

// DefaultJSONPath returns ~/.carbonledger/ledger.json.
func DefaultJSONPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(homeDir, ".carbonledger", "ledger.json"), nil
}

// OpenJSONStore opens the ledger file at filePath, defaulting to
// DefaultJSONPath. A missing file is an empty ledger; a corrupted file or
// one written with an incompatible factor table is an error.
func OpenJSONStore(ctx context.Context, filePath string) (*JSONStore, error) {
	if filePath == "" {
		def, err := DefaultJSONPath()
		if err != nil {
			return nil, err
		}
		filePath = def
	}

	s := &JSONStore{filePath: filePath}
	if _, err := s.Snapshot(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// FilePath returns the ledger file path.
func (s *JSONStore) FilePath() string {
	return s.filePath
}

// load reads the ledger file. Callers hold the lockfile.
func (s *JSONStore) load() (jsonStoreData, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return jsonStoreData{Version: JSONStoreVersion, FactorVersion: greenops.FactorTableVersion}, nil
		}
		return jsonStoreData{}, fmt.Errorf("reading ledger file: %w", err)
	}

	var stored jsonStoreData
	if err := json.Unmarshal(data, &stored); err != nil {
		return jsonStoreData{}, fmt.Errorf("%w: %s: %w", ErrStoreCorrupted, s.filePath, err)
	}
	if stored.Version != JSONStoreVersion {
		return jsonStoreData{}, fmt.Errorf("%w: %s: unsupported version %d (expected %d)",
			ErrStoreCorrupted, s.filePath, stored.Version, JSONStoreVersion)
	}
	if err := checkFactorVersion(stored.FactorVersion); err != nil {
		return jsonStoreData{}, fmt.Errorf("%s: %w", s.filePath, err)
	}
	return stored, nil
}

func (s *JSONStore) save(stored jsonStoreData) error {
	stored.Version = JSONStoreVersion
	stored.FactorVersion = greenops.FactorTableVersion
	if stored.Activities == nil {
		stored.Activities = []engine.ActivityRecord{}
	}
	if stored.PositiveActions == nil {
		stored.PositiveActions = []engine.PositiveActionRecord{}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	if err := writeFileAtomic(s.filePath, data); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}

// withLock runs fn under the in-process mutex and the lockfile. When fn
// reports a change the ledger is written back.
func (s *JSONStore) withLock(ctx context.Context, op string, fn func(*jsonStoreData) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	unlock, err := acquireFileLock(s.filePath)
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	stored, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(&stored)
	if err != nil || !changed {
		return err
	}
	if err := s.save(stored); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("operation", op).
		Str("path", s.filePath).
		Int("activities", len(stored.Activities)).
		Int("positive_actions", len(stored.PositiveActions)).
		Msg("ledger file written")
	return nil
}

// Snapshot reads the ledger file.
func (s *JSONStore) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := s.withLock(ctx, "Snapshot", func(d *jsonStoreData) (bool, error) {
		snap = engine.Snapshot{Activities: d.Activities, PositiveActions: d.PositiveActions}
		return false, nil
	})
	return snap, err
}

// AddActivity appends an activity to the ledger file.
func (s *JSONStore) AddActivity(ctx context.Context, rec engine.ActivityRecord) error {
	if err := validateActivity(rec); err != nil {
		return err
	}
	return s.withLock(ctx, "AddActivity", func(d *jsonStoreData) (bool, error) {
		d.Activities = append(d.Activities, rec)
		return true, nil
	})
}

// AddPositiveAction appends a positive action to the ledger file.
func (s *JSONStore) AddPositiveAction(ctx context.Context, rec engine.PositiveActionRecord) error {
	if err := validatePositiveAction(rec); err != nil {
		return err
	}
	return s.withLock(ctx, "AddPositiveAction", func(d *jsonStoreData) (bool, error) {
		d.PositiveActions = append(d.PositiveActions, rec)
		return true, nil
	})
}

// RemoveActivity deletes an activity from the ledger file.
func (s *JSONStore) RemoveActivity(ctx context.Context, id string) error {
	return s.withLock(ctx, "RemoveActivity", func(d *jsonStoreData) (bool, error) {
		i := slices.IndexFunc(d.Activities, func(r engine.ActivityRecord) bool { return r.ID == id })
		if i < 0 {
			return false, notFound("activity", id)
		}
		d.Activities = slices.Delete(d.Activities, i, i+1)
		return true, nil
	})
}

// RemovePositiveAction deletes a positive action from the ledger file.
func (s *JSONStore) RemovePositiveAction(ctx context.Context, id string) error {
	return s.withLock(ctx, "RemovePositiveAction", func(d *jsonStoreData) (bool, error) {
		i := slices.IndexFunc(d.PositiveActions, func(r engine.PositiveActionRecord) bool { return r.ID == id })
		if i < 0 {
			return false, notFound("positive action", id)
		}
		d.PositiveActions = slices.Delete(d.PositiveActions, i, i+1)
		return true, nil
	})
}

// Close marks the store closed. The file is left in place.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
