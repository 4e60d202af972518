package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/journal"
)

func historyCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	dbCli, err := newSQLite(args.History.Database, logger, false)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	j := &journal.Journal{Cli: dbCli, Logger: logger}
	seq, err := j.IterRuns(ctx, journal.WithIterRunsLimit(args.History.Limit))
	if err != nil {
		return err
	}

	count := 0
	for run := range seq {
		count++
		line := fmt.Sprintf("%s  %-10s", run.StartedAt.Local().Format(time.RFC3339), run.Outcome)
		if run.FromRevision != "" && run.ToRevision != "" {
			line += fmt.Sprintf("  %.8s -> %.8s", run.FromRevision, run.ToRevision)
		} else if run.FromRevision != "" {
			line += fmt.Sprintf("  at %.8s", run.FromRevision)
		}
		if run.Detail != "" {
			line += "  " + run.Detail
		}
		fmt.Println(line)
	}

	if count == 0 {
		fmt.Println("No update runs recorded yet.")
	}
	return nil
}
