package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/config"
	"github.com/sober-pm/spm-update/gitcmd"
	"github.com/sober-pm/spm-update/journal"
	"github.com/sober-pm/spm-update/pipcmd"
	"github.com/sober-pm/spm-update/proc"
	"github.com/sober-pm/spm-update/updater"
)

func updateCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Update.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	repoDir := args.Update.Repo
	dataDir := args.Update.Data
	if dataDir == "" {
		dataDir = filepath.Join(repoDir, config.DefaultDataDir)
	}

	runner := proc.NewRunner(logger)
	params := updater.Params{
		Repo:      gitcmd.Open(runner, repoDir, logger),
		Installer: pipcmd.New(runner, logger),
		DataDir:   dataDir,
		Remote:    args.Update.Remote,
		Branch:    args.Update.Branch,
		Manifest:  args.Update.Manifest,
		Prompter:  &updater.IOPrompter{In: os.Stdin, Out: os.Stdout},
		Logger:    logger,
	}

	if args.Update.Database != "" {
		dbCli, err := newSQLite(args.Update.Database, logger, args.Update.DryRun)
		if err != nil {
			return fmt.Errorf("could not open database: %w", err)
		}
		params.Journal = &journal.Journal{Cli: dbCli, Logger: logger, DryRun: args.Update.DryRun}
	}

	report, err := updater.Run(ctx, params,
		updater.WithDryRun(args.Update.DryRun),
		updater.WithAssumeYes(args.Update.Yes),
		updater.WithSkipBackup(args.Update.SkipBackup),
	)
	if err != nil {
		printUpdateFailure(args, report, err)
		waitForAcknowledgment()
		return err
	}

	printUpdateReport(args, report)
	return nil
}

func printUpdateReport(args Command, report *updater.Report) {
	switch report.Outcome {
	case updater.OutcomeUpToDate:
		fmt.Println("Sober Profile Manager is already up to date.")
	case updater.OutcomeDeclined:
		fmt.Println("Update cancelled. Nothing was changed.")
	case updater.OutcomeUpdated:
		if args.Update.DryRun {
			fmt.Printf("Dry run: %d change(s) would be applied.\n", len(report.IncomingCommits))
			return
		}

		fmt.Printf("Updated %.8s -> %.8s (%d change(s)).\n",
			report.FromRevision, report.ToRevision, len(report.IncomingCommits))
		if report.BackupPath != "" && report.BackupErr == nil {
			fmt.Printf("User data backed up to %s\n", report.BackupPath)
		}
		if report.BackupErr != nil {
			fmt.Printf("Warning: user data backup failed: %v\n", report.BackupErr)
		}
		if report.StashPopErr != nil {
			fmt.Println("Warning: your local changes are still stashed and could be lost.")
			fmt.Println("Restore them manually with: git stash pop")
		}
		if report.DepsErr != nil || (report.DepsChanged && !report.DepsRefreshed) {
			fmt.Printf("Dependencies were not reinstalled. Run manually: %s\n", report.DepsManualCommand)
		}
		fmt.Println("Restart Sober Profile Manager to use the new version.")
	}
}

func printUpdateFailure(args Command, report *updater.Report, err error) {
	fmt.Printf("Update failed: %v\n", err)

	var pullErr *updater.PullError
	switch {
	case errors.Is(err, gitcmd.ErrGitNotFound):
		fmt.Println("Install git and try again.")
	case errors.Is(err, gitcmd.ErrNotARepository):
		fmt.Println("Run this tool from the Sober Profile Manager checkout directory,")
		fmt.Println("or point it there with --repo.")
	case errors.As(err, &pullErr):
		fmt.Println("To finish the update manually, run:")
		if report == nil || !report.Stashed {
			fmt.Println("  git stash")
		}
		fmt.Printf("  git pull %s %s\n", args.Update.Remote, args.Update.Branch)
		fmt.Println("  git stash pop")
	}

	if report != nil && report.BackupPath != "" && report.BackupErr == nil {
		fmt.Printf("Your user data backup is untouched at %s\n", report.BackupPath)
	}
}

// waitForAcknowledgment keeps a GUI-spawned terminal open until the
// user has read the failure output.
func waitForAcknowledgment() {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return
	}
	fmt.Print("Press enter to close... ")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
