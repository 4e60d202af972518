package backup

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one regular file found under a scanned directory.
type Entry struct {
	RelPath string
	AbsPath string
	Size    int64
	Mode    fs.FileMode
}

func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("path", e.RelPath)
	ev.Int64("size", e.Size)
}

// scanTree yields the regular files under dir. Unreadable paths are
// logged and skipped, matching how the rest of the tool treats the
// user-data directory as an opaque blob.
func scanTree(ctx context.Context, dir string, logger zerolog.Logger) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		var scanned int

		throttledLogger := logger.Sample(&zerolog.BurstSampler{
			Burst:  1,
			Period: 1 * time.Second,
		})

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}

			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("could not scan path")
				return nil
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("could not stat path")
				return nil
			}
			if !info.Mode().IsRegular() {
				logger.Debug().Str("path", path).Msg("skipping irregular file")
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("could not relativize path")
				return nil
			}

			if !yield(Entry{RelPath: rel, AbsPath: path, Size: info.Size(), Mode: info.Mode()}) {
				return filepath.SkipAll
			}
			scanned++
			throttledLogger.Info().Int("scanned", scanned).Str("dir", dir).Msg("scanning files")

			return nil
		})
		if err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("could not scan directory")
		}
	}
}
