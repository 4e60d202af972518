package backup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sober-pm/spm-update/backup"
)

// makeSnapshots creates count snapshots one minute apart, oldest first.
func makeSnapshots(t *testing.T, dataDir string, count int) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		at := testClock().Add(time.Duration(i) * time.Minute)
		info, err := backup.Snapshot(context.Background(), dataDir, zerolog.Nop(),
			backup.WithNow(func() time.Time { return at }))
		require.NoError(t, err)
		paths = append(paths, info.Path)
	}
	return paths
}

func TestList(t *testing.T) {
	dataDir := newDataDir(t)
	paths := makeSnapshots(t, dataDir, 3)

	// Unrelated sibling directories are not snapshots.
	require.NoError(t, os.Mkdir(filepath.Join(filepath.Dir(dataDir), "unrelated"), 0755))

	snapshots, err := backup.List(dataDir)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)

	// Newest first.
	assert.Equal(t, paths[2], snapshots[0].Path)
	assert.Equal(t, paths[1], snapshots[1].Path)
	assert.Equal(t, paths[0], snapshots[2].Path)
	assert.Equal(t, 5, snapshots[0].Files)
}

func TestList_NoSnapshots(t *testing.T) {
	dataDir := newDataDir(t)

	snapshots, err := backup.List(dataDir)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestPrune_Keep(t *testing.T) {
	dataDir := newDataDir(t)
	paths := makeSnapshots(t, dataDir, 3)

	result, err := backup.Prune(context.Background(), dataDir, zerolog.Nop(), backup.WithKeep(1))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deleted)
	assert.Greater(t, result.Freed, int64(0))
	assert.NoDirExists(t, paths[0])
	assert.NoDirExists(t, paths[1])
	assert.DirExists(t, paths[2])
}

func TestPrune_NoOptions(t *testing.T) {
	dataDir := newDataDir(t)
	paths := makeSnapshots(t, dataDir, 2)

	result, err := backup.Prune(context.Background(), dataDir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Deleted)
	assert.DirExists(t, paths[0])
	assert.DirExists(t, paths[1])
}

func TestPrune_DryRun(t *testing.T) {
	dataDir := newDataDir(t)
	paths := makeSnapshots(t, dataDir, 2)

	result, err := backup.Prune(context.Background(), dataDir, zerolog.Nop(),
		backup.WithKeep(0), backup.WithDryRun(true))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deleted)
	assert.DirExists(t, paths[0])
	assert.DirExists(t, paths[1])
}

func TestPrune_MaxTotalSize(t *testing.T) {
	dataDir := newDataDir(t)
	paths := makeSnapshots(t, dataDir, 3)

	// Every snapshot has the same size, so a cap of one snapshot's
	// size keeps only the newest.
	snapshots, err := backup.List(dataDir)
	require.NoError(t, err)
	limit := snapshots[0].Size

	result, err := backup.Prune(context.Background(), dataDir, zerolog.Nop(),
		backup.WithMaxTotalSize(limit))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deleted)
	assert.DirExists(t, paths[2])
	assert.NoDirExists(t, paths[1])
	assert.NoDirExists(t, paths[0])
}
