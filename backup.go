package main

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/backup"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Backup.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	startTime := time.Now()
	info, err := backup.Snapshot(ctx, args.Backup.Data, logger,
		backup.WithDryRun(args.Backup.DryRun))
	if err != nil {
		return err
	}

	if !args.Backup.DryRun {
		if err := backup.Verify(ctx, args.Backup.Data, info.Path, logger); err != nil {
			return err
		}
	}

	logger.Info().Float64("seconds", time.Since(startTime).Seconds()).Msg("backup done")
	fmt.Printf("Snapshot of %d file(s) (%s) created at %s\n",
		info.Files, units.HumanSize(float64(info.Size)), info.Path)
	return nil
}
