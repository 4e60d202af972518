// Package updater drives the self-update workflow: preflight, remote
// comparison, confirmation, user-data backup, stash, pull, stash
// restore and dependency refresh, in that order, stopping at the first
// fatal failure.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sober-pm/spm-update/backup"
	"github.com/sober-pm/spm-update/fileutils"
	"github.com/sober-pm/spm-update/gitcmd"
	"github.com/sober-pm/spm-update/journal"
	"github.com/sober-pm/spm-update/pipcmd"
)

const stashMessage = "spm-update: auto-stash before update"

type Params struct {
	Repo      *gitcmd.Repository
	Installer *pipcmd.Installer
	// DataDir is the user-data directory to snapshot before pulling.
	DataDir  string
	Remote   string
	Branch   string
	Manifest string
	// Journal is optional; runs are recorded when it is set.
	Journal  *journal.Journal
	Prompter Prompter
	Logger   zerolog.Logger
}

// Run executes the update workflow once. A nil error with an outcome
// of OutcomeUpToDate or OutcomeDeclined means nothing was mutated.
func Run(ctx context.Context, params Params, opts ...Option) (report *Report, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	logger := params.Logger
	if o.dryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	if err := params.Repo.Preflight(ctx); err != nil {
		return nil, err
	}

	remoteRef := params.Remote + "/" + params.Branch
	logger.Info().Str("remote", params.Remote).Msg("fetching remote state")
	if err := params.Repo.Fetch(ctx, params.Remote); err != nil {
		return nil, err
	}

	localRev, err := params.Repo.RevParse(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	remoteRev, err := params.Repo.RevParse(ctx, remoteRef)
	if err != nil {
		return nil, err
	}

	report = &Report{FromRevision: localRev, ToRevision: remoteRev}

	var run *journal.Run
	if params.Journal != nil {
		var journalErr error
		run, journalErr = params.Journal.Begin(ctx, localRev)
		if journalErr != nil {
			logger.Warn().Err(journalErr).Msg("could not record update run")
			run = nil
		}
	}
	defer func() {
		if run == nil {
			return
		}
		outcome := journal.OutcomeFailed
		if err == nil {
			outcome = journal.Outcome(report.Outcome)
		} else {
			run.Detail = err.Error()
		}
		run.ToRevision = report.ToRevision
		run.BackupPath = report.BackupPath
		if finishErr := params.Journal.Finish(ctx, run, outcome); finishErr != nil {
			logger.Warn().Err(finishErr).Msg("could not record update result")
		}
	}()

	if localRev == remoteRev {
		logger.Info().Str("revision", localRev).Msg("already up to date")
		report.Outcome = OutcomeUpToDate
		report.ToRevision = ""
		return report, nil
	}

	report.IncomingCommits, err = params.Repo.ChangeLog(ctx, "HEAD", remoteRef)
	if err != nil {
		return report, err
	}
	for _, commit := range report.IncomingCommits {
		logger.Info().Str("commit", commit).Msg("incoming change")
	}

	if !o.assumeYes {
		confirmed, err := params.Prompter.Confirm(
			fmt.Sprintf("Apply %d incoming change(s)?", len(report.IncomingCommits)))
		if err != nil {
			return report, err
		}
		if !confirmed {
			logger.Info().Msg("update declined")
			report.Outcome = OutcomeDeclined
			report.ToRevision = ""
			return report, nil
		}
	}

	// Backup failure is deliberately non-fatal: the user said yes and
	// the pull itself does not touch the data directory.
	if !o.skipBackup {
		report.BackupPath, report.BackupErr = snapshotDataDir(ctx, params, logger, o)
		if report.BackupErr != nil {
			logger.Warn().Err(report.BackupErr).Msg("backup failed, continuing without it")
		}
	}

	dirty, err := params.Repo.HasLocalChanges(ctx)
	if err != nil {
		return report, err
	}

	if o.dryRun {
		logger.Info().Int("commits", len(report.IncomingCommits)).Msg("dry run, stopping before pull")
		report.Outcome = OutcomeUpdated
		return report, nil
	}

	if dirty {
		logger.Info().Msg("shelving uncommitted local changes")
		if err := params.Repo.Stash(ctx, stashMessage); err != nil {
			return report, fmt.Errorf("could not shelve local changes: %w", err)
		}
		report.Stashed = true
	}

	logger.Info().Str("remote", params.Remote).Str("branch", params.Branch).Msg("pulling remote changes")
	res, err := params.Repo.Pull(ctx, params.Remote, params.Branch)
	if err != nil {
		return report, err
	}
	if !res.Ok() {
		return report, &PullError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	if report.Stashed {
		logger.Info().Msg("restoring shelved local changes")
		if popErr := params.Repo.StashPop(ctx); popErr != nil {
			report.StashPopErr = popErr
			logger.Warn().Err(popErr).
				Msg("could not restore local changes automatically, run 'git stash pop' manually")
		}
	}

	refreshDependencies(ctx, params, report, logger)

	report.ToRevision, err = params.Repo.RevParse(ctx, "HEAD")
	if err != nil {
		return report, err
	}

	report.Outcome = OutcomeUpdated
	logger.Info().Object("report", report).Msg("update done")
	return report, nil
}

func snapshotDataDir(ctx context.Context, params Params, logger zerolog.Logger, o options) (string, error) {
	if params.DataDir == "" || !fileutils.IsDir(params.DataDir) {
		logger.Info().Str("data", params.DataDir).Msg("no user data directory, skipping backup")
		return "", nil
	}

	info, err := backup.Snapshot(ctx, params.DataDir, logger,
		backup.WithDryRun(o.dryRun), backup.WithNow(o.now))
	if err != nil {
		return "", err
	}
	if o.dryRun {
		return info.Path, nil
	}

	if err := backup.Verify(ctx, params.DataDir, info.Path, logger); err != nil {
		return info.Path, err
	}
	return info.Path, nil
}

// refreshDependencies reinstalls from the manifest when the pulled
// change set touched it. Only reached after a successful pull.
func refreshDependencies(ctx context.Context, params Params, report *Report, logger zerolog.Logger) {
	touched := false
	for _, file := range changedFiles(ctx, params, report, logger) {
		if file == params.Manifest {
			touched = true
			break
		}
	}
	if !touched {
		return
	}
	report.DepsChanged = true

	if params.Installer.Detect() == "" {
		report.DepsManualCommand = pipcmd.ManualCommand(params.Manifest)
		logger.Warn().Str("run", report.DepsManualCommand).
			Msg("dependency manifest changed but pip is not installed")
		return
	}

	if err := params.Installer.Reinstall(ctx, params.Repo.Dir(), params.Manifest); err != nil {
		report.DepsErr = err
		report.DepsManualCommand = pipcmd.ManualCommand(params.Manifest)
		logger.Warn().Err(err).Msg("dependency reinstall failed")
		return
	}
	report.DepsRefreshed = true
}

func changedFiles(ctx context.Context, params Params, report *Report, logger zerolog.Logger) []string {
	files, err := params.Repo.ChangedFiles(ctx, report.FromRevision, report.ToRevision)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list changed files")
		return nil
	}
	return files
}
