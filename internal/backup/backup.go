// Package backup archives the ledger to a local directory or an S3 bucket
// and restores it into an empty store.
//
// An archive is a single JSON document named ledger-<ulid>.json. The ULID
// orders archives by creation time, so listing needs no extra metadata.
package backup

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

// ArchiveVersion is the schema version written into every archive.
const ArchiveVersion = 1

const (
	namePrefix = "ledger-"
	nameSuffix = ".json"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
var (
	// ErrBackupNotFound indicates an archive name the sink does not hold.
	ErrBackupNotFound = constError("backup not found")

	// ErrInvalidArchive indicates an archive that cannot be decoded or was
	// written with an unsupported schema version.
	ErrInvalidArchive = constError("invalid backup archive")

	// ErrTargetNotEmpty indicates a restore into a store that already holds
	// records.
	ErrTargetNotEmpty = constError("restore target is not empty")

	// ErrUnknownDriver indicates an unsupported backup.driver value.
	ErrUnknownDriver = constError("unknown backup driver")
)

// Driver names a backup sink.
type Driver string

// Supported drivers.
const (
	DriverFile Driver = "file"
	DriverS3   Driver = "s3"
)

// Config selects and configures the backup sink.
type Config struct {
	// Driver is file or s3.
	Driver Driver `yaml:"driver" json:"driver"`
	// Dir holds archives for the file driver.
	Dir string   `yaml:"dir" json:"dir"`
	S3  S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// Info describes one stored archive.
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive is the serialized form of a backup.
type Archive struct {
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	FactorVersion string          `json:"factor_version"`
	Ledger        engine.Snapshot `json:"ledger"`
}

// Sink stores archives by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Info, error)
	// Location describes where archives go, for messages.
	Location() string
}

// Source is anything that can produce a consistent ledger snapshot.
type Source interface {
	Snapshot(ctx context.Context) (engine.Snapshot, error)
}

// Open returns the sink named by cfg.Driver. An empty driver means file.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch Driver(strings.ToLower(string(cfg.Driver))) {
	case DriverFile, "":
		dir := cfg.Dir
		if dir == "" {
			def, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = def
		}
		return NewFileSink(dir), nil
	case DriverS3:
		return NewS3Sink(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// DefaultDir returns ~/.carbonledger/backups.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".carbonledger", "backups"), nil
}

// Create snapshots src and writes it to sink as a new archive.
func Create(ctx context.Context, src Source, sink Sink, now time.Time) (Info, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "backup").
		Str("operation", "create").
		Logger()

	snap, err := src.Snapshot(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("reading ledger: %w", err)
	}
	snap.SortByTime()

	archive := Archive{
		Version:       ArchiveVersion,
		CreatedAt:     now.UTC(),
		FactorVersion: greenops.FactorTableVersion,
		Ledger:        snap,
	}
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encoding archive: %w", err)
	}

	name, err := newName(now)
	if err != nil {
		return Info{}, err
	}
	if err := sink.Put(ctx, name, data); err != nil {
		return Info{}, fmt.Errorf("writing %s to %s: %w", name, sink.Location(), err)
	}

	log.Info().
		Str("name", name).
		Int("activities", len(snap.Activities)).
		Int("positive_actions", len(snap.PositiveActions)).
		Str("location", sink.Location()).
		Msg("backup created")

	return Info{Name: name, Size: int64(len(data)), CreatedAt: archive.CreatedAt}, nil
}

// List returns the archives in sink, newest first.
func List(ctx context.Context, sink Sink) ([]Info, error) {
	infos, err := sink.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backups in %s: %w", sink.Location(), err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// Latest returns the name of the newest archive.
func Latest(ctx context.Context, sink Sink) (string, error) {
	infos, err := List(ctx, sink)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("%w: %s holds no archives", ErrBackupNotFound, sink.Location())
	}
	return infos[0].Name, nil
}

// Read fetches and decodes one archive.
func Read(ctx context.Context, sink Sink, name string) (Archive, error) {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return Archive{}, err
	}
	return decode(bytes.NewReader(data))
}

// Restore copies the archive called name into dst, which must be empty.
// Records keep their IDs, timestamps and frozen impacts.
func Restore(ctx context.Context, sink Sink, name string, dst engine.Store) (Archive, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "backup").
		Str("operation", "restore").
		Str("name", name).
		Logger()

	archive, err := Read(ctx, sink, name)
	if err != nil {
		return Archive{}, err
	}
	if err := checkArchiveFactorVersion(archive.FactorVersion); err != nil {
		return Archive{}, err
	}

	current, err := dst.Snapshot(ctx)
	if err != nil {
		return Archive{}, fmt.Errorf("reading restore target: %w", err)
	}
	if n := len(current.Activities) + len(current.PositiveActions); n > 0 {
		return Archive{}, fmt.Errorf("%w: holds %d records", ErrTargetNotEmpty, n)
	}

	for _, rec := range archive.Ledger.Activities {
		if err := dst.AddActivity(ctx, rec); err != nil {
			return Archive{}, fmt.Errorf("restoring activity %s: %w", rec.ID, err)
		}
	}
	for _, rec := range archive.Ledger.PositiveActions {
		if err := dst.AddPositiveAction(ctx, rec); err != nil {
			return Archive{}, fmt.Errorf("restoring positive action %s: %w", rec.ID, err)
		}
	}

	log.Info().
		Int("activities", len(archive.Ledger.Activities)).
		Int("positive_actions", len(archive.Ledger.PositiveActions)).
		Msg("backup restored")
	return archive, nil
}

func decode(r io.Reader) (Archive, error) {
	var archive Archive
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&archive); err != nil {
		return Archive{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if archive.Version != ArchiveVersion {
		return Archive{}, fmt.Errorf("%w: version %d, want %d", ErrInvalidArchive, archive.Version, ArchiveVersion)
	}
	return archive, nil
}

func checkArchiveFactorVersion(version string) error {
	if version == "" {
		return nil
	}
	ok, err := greenops.CompatibleFactorVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if !ok {
		return fmt.Errorf("%w: written with factor table %s, running %s",
			ErrInvalidArchive, version, greenops.FactorTableVersion)
	}
	return nil
}

func newName(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating archive id: %w", err)
	}
	return namePrefix + id.String() + nameSuffix, nil
}

// parseName extracts the creation time from an archive name.
func parseName(name string) (time.Time, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, namePrefix) || !strings.HasSuffix(base, nameSuffix) {
		return time.Time{}, false
	}
	id, err := ulid.ParseStrict(strings.TrimSuffix(strings.TrimPrefix(base, namePrefix), nameSuffix))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()).UTC(), true
}

// validName rejects names that could escape the sink's namespace.
func validName(name string) error {
	if _, ok := parseName(name); !ok || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q is not an archive name", ErrBackupNotFound, name)
	}
	return nil
}
