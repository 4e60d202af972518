package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/backup"
	"github.com/sober-pm/spm-update/fileutils"
	"github.com/sober-pm/spm-update/updater"
)

func restoreCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Restore.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	dataDir := args.Restore.Data
	snapshots, err := backup.List(dataDir)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots found for %s", dataDir)
	}

	target := snapshots[0]
	if args.Restore.Snapshot != "" {
		found := false
		for _, snap := range snapshots {
			if snap.Path == args.Restore.Snapshot {
				target = snap
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("not a snapshot of %s: %s", dataDir, args.Restore.Snapshot)
		}
	}

	if !args.Restore.Yes {
		prompter := &updater.IOPrompter{In: os.Stdin, Out: os.Stdout}
		confirmed, err := prompter.Confirm(
			fmt.Sprintf("Restore %s over %s?", target.Path, dataDir))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Restore cancelled. Nothing was changed.")
			return nil
		}
	}

	// Snapshot the current state first so a bad restore is reversible.
	if fileutils.IsDir(dataDir) {
		pre, err := backup.Snapshot(ctx, dataDir, logger, backup.WithDryRun(args.Restore.DryRun))
		if err != nil {
			return fmt.Errorf("could not snapshot current data before restore: %w", err)
		}
		logger.Info().Str("path", pre.Path).Msg("current data preserved")
	}

	if err := backup.Restore(ctx, target.Path, dataDir, logger,
		backup.WithDryRun(args.Restore.DryRun)); err != nil {
		return err
	}

	fmt.Printf("Restored %s from %s\n", dataDir, target.Path)
	return nil
}
