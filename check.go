package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/gitcmd"
	"github.com/sober-pm/spm-update/proc"
)

func checkCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	runner := proc.NewRunner(logger)
	repo := gitcmd.Open(runner, args.Check.Repo, logger)

	incoming, err := checkForUpdates(ctx, repo, args.Check.Remote, args.Check.Branch)
	if err != nil {
		return err
	}

	if len(incoming) == 0 {
		fmt.Println("Sober Profile Manager is up to date.")
		return nil
	}

	fmt.Printf("%d update(s) available:\n", len(incoming))
	for _, commit := range incoming {
		fmt.Printf("  %s\n", commit)
	}
	fmt.Println("Run 'spm-update update' to apply them.")
	return nil
}

// checkForUpdates fetches the remote and returns the incoming commits,
// without touching the working tree.
func checkForUpdates(ctx context.Context, repo *gitcmd.Repository, remote string, branch string) ([]string, error) {
	if err := repo.Preflight(ctx); err != nil {
		return nil, err
	}
	if err := repo.Fetch(ctx, remote); err != nil {
		return nil, err
	}

	localRev, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	remoteRev, err := repo.RevParse(ctx, remote+"/"+branch)
	if err != nil {
		return nil, err
	}
	if localRev == remoteRev {
		return nil, nil
	}

	return repo.ChangeLog(ctx, "HEAD", remote+"/"+branch)
}
