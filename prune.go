package main

import (
	"context"
	"fmt"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/backup"
)

func pruneCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Prune.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	if args.Prune.Keep < 0 && args.Prune.MaxSize.Size == 0 {
		return fmt.Errorf("nothing to prune: set --keep or --max-size")
	}

	opts := []backup.Option{backup.WithDryRun(args.Prune.DryRun)}
	if args.Prune.Keep >= 0 {
		opts = append(opts, backup.WithKeep(args.Prune.Keep))
	}
	if args.Prune.MaxSize.Size > 0 {
		opts = append(opts, backup.WithMaxTotalSize(args.Prune.MaxSize.Size))
	}

	result, err := backup.Prune(ctx, args.Prune.Data, logger, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d snapshot(s), freed %s\n",
		result.Deleted, units.HumanSize(float64(result.Freed)))
	return nil
}
