package backup_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/backup"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/store"
)

var backupNow = time.Date(2024, time.May, 20, 18, 30, 0, 0, time.UTC)

func seededTracker(t *testing.T) *engine.Tracker {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	tracker := engine.NewTracker(st, engine.WithClock(func() time.Time { return backupNow }))

	ctx := context.Background()
	_, err := tracker.LogActivity(ctx, greenops.CategoryEnergy, "electricity", 10)
	require.NoError(t, err)
	_, err = tracker.LogActivity(ctx, greenops.CategoryFood, "beef", 0.5)
	require.NoError(t, err)
	_, err = tracker.LogPositiveAction(ctx, "plant_tree", 1)
	require.NoError(t, err)
	return tracker
}

func TestCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	tracker := seededTracker(t)
	sink := backup.NewFileSink(filepath.Join(t.TempDir(), "backups"))

	info, err := backup.Create(ctx, tracker, sink, backupNow)
	require.NoError(t, err)
	assert.Regexp(t, `^ledger-[0-9A-Z]{26}\.json$`, info.Name)
	assert.Positive(t, info.Size)
	assert.Equal(t, backupNow, info.CreatedAt)

	listed, err := backup.List(ctx, sink)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, info.Name, listed[0].Name)
	assert.Equal(t, info.Size, listed[0].Size)
	assert.True(t, backupNow.Equal(listed[0].CreatedAt))

	dst := store.NewMemoryStore()
	archive, err := backup.Restore(ctx, sink, info.Name, dst)
	require.NoError(t, err)
	assert.Equal(t, greenops.FactorTableVersion, archive.FactorVersion)

	want, err := tracker.Snapshot(ctx)
	require.NoError(t, err)
	got, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Activities, 2)
	require.Len(t, got.PositiveActions, 1)
	for i := range want.Activities {
		assert.Equal(t, want.Activities[i].ID, got.Activities[i].ID)
		assert.InDelta(t, want.Activities[i].CO2Impact, got.Activities[i].CO2Impact, 1e-9)
		assert.True(t, want.Activities[i].Timestamp.Equal(got.Activities[i].Timestamp))
	}
	assert.InDelta(t, 21.0, got.PositiveActions[0].CO2Saved, 1e-9)
}

func TestRestore_TargetNotEmpty(t *testing.T) {
	ctx := context.Background()
	tracker := seededTracker(t)
	sink := backup.NewFileSink(t.TempDir())

	info, err := backup.Create(ctx, tracker, sink, backupNow)
	require.NoError(t, err)

	snap, err := tracker.Snapshot(ctx)
	require.NoError(t, err)
	dst := store.NewMemoryStore()
	require.NoError(t, dst.AddActivity(ctx, snap.Activities[0]))

	_, err = backup.Restore(ctx, sink, info.Name, dst)
	require.ErrorIs(t, err, backup.ErrTargetNotEmpty)

	after, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Activities, 1, "a refused restore leaves the target untouched")
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := backup.NewFileSink(dir)

	writeArchive := func(t *testing.T, body []byte) string {
		t.Helper()
		name := "ledger-" + ulid.Make().String() + ".json"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o600))
		return name
	}
	encode := func(t *testing.T, a backup.Archive) []byte {
		t.Helper()
		data, err := json.Marshal(a)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name    string
		archive func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing archive",
			archive: func(*testing.T) string { return "ledger-" + ulid.Make().String() + ".json" },
			wantErr: backup.ErrBackupNotFound,
		},
		{
			name:    "path traversal",
			archive: func(*testing.T) string { return "../ledger-" + ulid.Make().String() + ".json" },
			wantErr: backup.ErrBackupNotFound,
		},
		{
			name:    "not json",
			archive: func(t *testing.T) string { return writeArchive(t, []byte("not json")) },
			wantErr: backup.ErrInvalidArchive,
		},
		{
			name: "future schema",
			archive: func(t *testing.T) string {
				return writeArchive(t, encode(t, backup.Archive{Version: backup.ArchiveVersion + 1}))
			},
			wantErr: backup.ErrInvalidArchive,
		},
		{
			name: "incompatible factor table",
			archive: func(t *testing.T) string {
				return writeArchive(t, encode(t, backup.Archive{Version: backup.ArchiveVersion, FactorVersion: "2.0.0"}))
			},
			wantErr: backup.ErrInvalidArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backup.Restore(ctx, sink, tt.archive(t), store.NewMemoryStore())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	tracker := seededTracker(t)
	sink := backup.NewFileSink(t.TempDir())

	_, err := backup.Latest(ctx, sink)
	require.ErrorIs(t, err, backup.ErrBackupNotFound)

	older, err := backup.Create(ctx, tracker, sink, backupNow.Add(-24*time.Hour))
	require.NoError(t, err)
	newer, err := backup.Create(ctx, tracker, sink, backupNow)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sink.Location(), "notes.txt"), []byte("x"), 0o600))

	infos, err := backup.List(ctx, sink)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newer.Name, infos[0].Name)
	assert.Equal(t, older.Name, infos[1].Name)

	latest, err := backup.Latest(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, newer.Name, latest)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	sink, err := backup.Open(ctx, backup.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &backup.FileSink{}, sink)

	_, err = backup.Open(ctx, backup.Config{Driver: "ftp"})
	require.ErrorIs(t, err, backup.ErrUnknownDriver)

	_, err = backup.Open(ctx, backup.Config{Driver: backup.DriverS3})
	require.Error(t, err, "s3 requires a bucket")
}
