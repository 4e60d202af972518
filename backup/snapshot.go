// Package backup manages timestamped snapshots of the user-data
// directory. A snapshot is a plain recursive copy placed next to the
// data directory, named with a parseable timestamp suffix.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/fileutils"
)

const (
	nameSeparator   = "_backup_"
	timestampLayout = "20060102_150405"
)

// Info describes one snapshot directory.
type Info struct {
	Path      string
	Timestamp time.Time
	Files     int
	Size      int64
}

func (i Info) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", i.Path)
	e.Time("timestamp", i.Timestamp)
	if i.Files > 0 {
		e.Int("files", i.Files)
	}
	if i.Size > 0 {
		e.Str("size", units.HumanSize(float64(i.Size)))
	}
}

// SnapshotName returns the sibling directory name for a snapshot of
// dataDir taken at the given time.
func SnapshotName(dataDir string, at time.Time) string {
	return filepath.Clean(dataDir) + nameSeparator + at.Format(timestampLayout)
}

// ParseSnapshotTime extracts the timestamp from a snapshot path created
// for dataDir. Returns false when path is not a snapshot of dataDir.
// Both paths are cleaned before comparing, so "./dir" and "dir" match.
func ParseSnapshotTime(dataDir string, path string) (time.Time, bool) {
	prefix := filepath.Clean(dataDir) + nameSeparator
	path = filepath.Clean(path)
	if !strings.HasPrefix(path, prefix) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, strings.TrimPrefix(path, prefix), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Snapshot copies dataDir recursively to a timestamped sibling
// directory and returns its description.
func Snapshot(ctx context.Context, dataDir string, logger zerolog.Logger, opts ...Option) (*Info, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("could not open data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path is not a directory: %s", dataDir)
	}

	at := o.now()
	dest := SnapshotName(dataDir, at)
	if fileutils.Exists(dest) {
		return nil, fmt.Errorf("snapshot already exists: %s", dest)
	}
	if !o.dryRun {
		if err := fileutils.VerifyWritable(filepath.Dir(dest)); err != nil {
			return nil, fmt.Errorf("snapshot destination is not writable: %w", err)
		}
	}

	logger.Info().Str("source", dataDir).Str("dest", dest).Msg("starting backup")

	files, size, err := copyTree(ctx, dataDir, dest, logger, o.dryRun)
	if err != nil {
		return nil, err
	}

	result := &Info{Path: dest, Timestamp: at, Files: files, Size: size}
	logger.Info().Object("snapshot", result).Msg("backup done")
	return result, nil
}

// Restore copies a snapshot back over the data directory. Existing
// files are overwritten; files created after the snapshot are kept.
func Restore(ctx context.Context, snapshotDir string, dataDir string, logger zerolog.Logger, opts ...Option) error {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(snapshotDir)
	if err != nil {
		return fmt.Errorf("could not open snapshot directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot path is not a directory: %s", snapshotDir)
	}

	logger.Info().Str("snapshot", snapshotDir).Str("dest", dataDir).Msg("starting restore")

	files, size, err := copyTree(ctx, snapshotDir, dataDir, logger, o.dryRun)
	if err != nil {
		return err
	}

	logger.Info().Int("files", files).Str("size", units.HumanSize(float64(size))).Msg("restore done")
	return nil
}

// List discovers the snapshots of dataDir, newest first.
func List(dataDir string) ([]Info, error) {
	parent := filepath.Dir(filepath.Clean(dataDir))
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("could not read directory: %w", err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(parent, entry.Name())
		ts, ok := ParseSnapshotTime(dataDir, path)
		if !ok {
			continue
		}
		files, size := treeSize(path)
		snapshots = append(snapshots, Info{Path: path, Timestamp: ts, Files: files, Size: size})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

func treeSize(dir string) (files int, size int64) {
	for entry := range scanTree(context.Background(), dir, zerolog.Nop()) {
		files++
		size += entry.Size
	}
	return files, size
}
