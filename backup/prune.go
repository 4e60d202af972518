package backup

import (
	"context"
	"os"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
)

type PruneResult struct {
	Deleted int
	Freed   int64
}

// Prune deletes old snapshots of dataDir beyond the retention options,
// oldest first. Without retention options it deletes nothing.
func Prune(ctx context.Context, dataDir string, logger zerolog.Logger, opts ...Option) (PruneResult, error) {
	o := options{keep: -1}
	for _, opt := range opts {
		opt(&o)
	}

	snapshots, err := List(dataDir)
	if err != nil {
		return PruneResult{}, err
	}

	var result PruneResult
	for _, victim := range selectVictims(snapshots, o) {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		logger.Info().Object("snapshot", victim).Msg("deleting old snapshot")
		if !o.dryRun {
			if err := os.RemoveAll(victim.Path); err != nil {
				logger.Error().Err(err).Str("path", victim.Path).Msg("failed to delete old snapshot")
				continue
			}
		}
		result.Deleted++
		result.Freed += victim.Size
	}

	if result.Deleted > 0 {
		logger.Info().
			Int("deleted", result.Deleted).
			Str("freed", units.HumanSize(float64(result.Freed))).
			Msg("deleted old snapshots")
	} else {
		logger.Info().Msg("no old snapshots to delete")
	}
	return result, nil
}

// selectVictims returns the snapshots to delete. Input is newest first.
func selectVictims(snapshots []Info, o options) []Info {
	var victims []Info

	kept := snapshots
	if o.keep >= 0 && len(snapshots) > o.keep {
		victims = append(victims, snapshots[o.keep:]...)
		kept = snapshots[:o.keep]
	}

	if o.maxTotalSize > 0 {
		var total int64
		for i, snap := range kept {
			total += snap.Size
			if total > o.maxTotalSize {
				victims = append(victims, kept[i:]...)
				break
			}
		}
	}

	return victims
}
