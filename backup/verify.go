package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/fileutils"
)

// ErrMismatch means a snapshot's contents differ from the data directory.
var ErrMismatch = errors.New("snapshot does not match data directory")

// Verify checks that snapshotDir holds a byte-identical copy of every
// regular file under dataDir and nothing else.
func Verify(ctx context.Context, dataDir string, snapshotDir string, logger zerolog.Logger) error {
	want, err := collectTree(ctx, dataDir, logger)
	if err != nil {
		return err
	}
	got, err := collectTree(ctx, snapshotDir, logger)
	if err != nil {
		return err
	}

	for rel, path := range want {
		snapPath, ok := got[rel]
		if !ok {
			return fmt.Errorf("%w: %s missing from snapshot", ErrMismatch, rel)
		}
		same, err := fileutils.SameContent(path, snapPath)
		if err != nil {
			return fmt.Errorf("could not compare %s: %w", rel, err)
		}
		if !same {
			return fmt.Errorf("%w: %s differs", ErrMismatch, rel)
		}
		delete(got, rel)
	}
	for rel := range got {
		return fmt.Errorf("%w: unexpected file %s in snapshot", ErrMismatch, rel)
	}

	logger.Debug().Int("files", len(want)).Str("snapshot", snapshotDir).Msg("snapshot verified")
	return nil
}

func collectTree(ctx context.Context, dir string, logger zerolog.Logger) (map[string]string, error) {
	paths := map[string]string{}
	for entry := range scanTree(ctx, dir, logger) {
		paths[entry.RelPath] = entry.AbsPath
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return paths, nil
}
