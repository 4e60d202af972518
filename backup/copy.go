package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/fileutils"
)

// copyTree copies every regular file under srcDir to the same relative
// path under dstDir, creating directories as needed.
func copyTree(ctx context.Context, srcDir string, dstDir string, logger zerolog.Logger, dryRun bool) (files int, size int64, err error) {
	for entry := range scanTree(ctx, srcDir, logger) {
		if ctx.Err() != nil {
			return files, size, fmt.Errorf("copy interrupted: %w", ctx.Err())
		}

		dst := filepath.Join(dstDir, entry.RelPath)
		logger.Debug().Object("file", entry).Str("dest", dst).Msg("copying file")
		if dryRun {
			files++
			size += entry.Size
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return files, size, fmt.Errorf("could not create directory: %w", err)
		}
		written, err := fileutils.CopyFile(entry.AbsPath, dst)
		if err != nil {
			return files, size, fmt.Errorf("could not copy %s: %w", entry.RelPath, err)
		}
		files++
		size += written
	}

	if ctx.Err() != nil {
		return files, size, fmt.Errorf("copy interrupted: %w", ctx.Err())
	}
	return files, size, nil
}
